package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"cinebook/internal/models"
)

// APIValidator drives a live instance through the happy path of every
// endpoint: create a show, hold seats, book them, cancel the booking.
type APIValidator struct {
	baseURL string
	actor   string
}

func NewAPIValidator(baseURL string) *APIValidator {
	return &APIValidator{baseURL: baseURL, actor: "validator"}
}

// ValidateAll checks every endpoint in dependency order.
func (v *APIValidator) ValidateAll() error {
	log.Println("Validating API endpoints...")

	showID, seatIDs, err := v.validateShows()
	if err != nil {
		return fmt.Errorf("shows validation failed: %w", err)
	}

	holdToken, err := v.validateHolds(showID, seatIDs)
	if err != nil {
		return fmt.Errorf("holds validation failed: %w", err)
	}

	if err := v.validateBookings(holdToken); err != nil {
		return fmt.Errorf("bookings validation failed: %w", err)
	}

	log.Println("all endpoints validated")
	return nil
}

func (v *APIValidator) validateShows() (int64, []string, error) {
	log.Println("Validating show endpoints...")

	reqBody := models.CreateShowRequest{
		ScreenID:  999,
		Title:     "Validation Screening",
		StartsAt:  time.Now().Add(72 * time.Hour),
		BasePrice: 1000,
		Rows:      3,
		RowSeats:  4,
	}

	resp, err := v.makeRequest("POST", "/api/shows", reqBody)
	if err != nil {
		return 0, nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, nil, fmt.Errorf("POST /api/shows: expected 201, got %d", resp.StatusCode)
	}
	var createResp models.CreateShowResponse
	if err := json.NewDecoder(resp.Body).Decode(&createResp); err != nil {
		return 0, nil, fmt.Errorf("POST /api/shows: failed to decode response: %w", err)
	}
	resp.Body.Close()
	if createResp.ID == 0 {
		return 0, nil, fmt.Errorf("POST /api/shows: expected non-zero ID")
	}

	resp, err = v.makeRequest("GET", "/api/shows", nil)
	if err != nil {
		return 0, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("GET /api/shows: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	path := fmt.Sprintf("/api/shows/%d/seats", createResp.ID)
	resp, err = v.makeRequest("GET", path, nil)
	if err != nil {
		return 0, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	var seatMap models.SeatMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&seatMap); err != nil {
		return 0, nil, fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	resp.Body.Close()
	if len(seatMap.Seats) == 0 {
		return 0, nil, fmt.Errorf("GET %s: expected non-empty seat map", path)
	}

	path = fmt.Sprintf("/api/shows/%d/availability", createResp.ID)
	resp, err = v.makeRequest("GET", path, nil)
	if err != nil {
		return 0, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	var availability models.AvailabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&availability); err != nil {
		return 0, nil, fmt.Errorf("GET %s: failed to decode response: %w", path, err)
	}
	resp.Body.Close()
	if availability.Available != len(seatMap.Seats) {
		return 0, nil, fmt.Errorf("availability mismatch: %d available vs %d seats",
			availability.Available, len(seatMap.Seats))
	}

	log.Println("show endpoints valid")
	return createResp.ID, []string{seatMap.Seats[0].SeatID, seatMap.Seats[1].SeatID}, nil
}

func (v *APIValidator) validateHolds(showID int64, seatIDs []string) (string, error) {
	log.Println("Validating hold endpoints...")

	reqBody := models.CreateHoldRequest{ShowID: showID, SeatIDs: seatIDs}
	resp, err := v.makeRequest("POST", "/api/holds", reqBody)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("POST /api/holds: expected 201, got %d", resp.StatusCode)
	}
	var holdResp models.CreateHoldResponse
	if err := json.NewDecoder(resp.Body).Decode(&holdResp); err != nil {
		return "", fmt.Errorf("POST /api/holds: failed to decode response: %w", err)
	}
	resp.Body.Close()

	// Holding the same seats again must report a conflict.
	resp, err = v.makeRequest("POST", "/api/holds", reqBody)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusConflict {
		return "", fmt.Errorf("POST /api/holds (duplicate): expected 409, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	path := fmt.Sprintf("/api/holds/%s/extend", holdResp.Token)
	resp, err = v.makeRequest("POST", path, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("POST %s: expected 200, got %d", path, resp.StatusCode)
	}
	resp.Body.Close()

	log.Println("hold endpoints valid")
	return holdResp.Token, nil
}

func (v *APIValidator) validateBookings(holdToken string) error {
	log.Println("Validating booking endpoints...")

	reqBody := models.SubmitBookingRequest{
		HoldToken:     holdToken,
		PaymentMethod: "card",
	}
	resp, err := v.makeRequest("POST", "/api/bookings", reqBody)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/bookings: expected 201, got %d", resp.StatusCode)
	}
	var bookingResp models.SubmitBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&bookingResp); err != nil {
		return fmt.Errorf("POST /api/bookings: failed to decode response: %w", err)
	}
	resp.Body.Close()
	if bookingResp.Status != models.BookingConfirmed {
		return fmt.Errorf("POST /api/bookings: expected CONFIRMED, got %s", bookingResp.Status)
	}

	resp, err = v.makeRequest("GET", "/api/bookings", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /api/bookings: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	cancelReq := models.CancelBookingRequest{BookingID: bookingResp.BookingID}
	resp, err = v.makeRequest("POST", "/api/bookings/cancel", cancelReq)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST /api/bookings/cancel: expected 200, got %d", resp.StatusCode)
	}
	var cancelResp models.CancelBookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&cancelResp); err != nil {
		return fmt.Errorf("POST /api/bookings/cancel: failed to decode response: %w", err)
	}
	resp.Body.Close()
	if cancelResp.RefundAmount != bookingResp.TotalAmount {
		return fmt.Errorf("expected full refund %d, got %d",
			bookingResp.TotalAmount, cancelResp.RefundAmount)
	}

	log.Println("booking endpoints valid")
	return nil
}

func (v *APIValidator) makeRequest(method, path string, body interface{}) (*http.Response, error) {
	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		req, err = http.NewRequest(method, v.baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, v.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
	}
	req.Header.Set("X-Actor-ID", v.actor)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	return resp, nil
}

// RunValidation validates a locally running API instance.
func RunValidation() {
	baseURL := "http://localhost:8081"

	validator := NewAPIValidator(baseURL)
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("validation failed: %v", err)
	}
}
