package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"cinebook/internal/models"
)

// TestClient drives a running API instance for the integration tests.
type TestClient struct {
	BaseURL    string
	Actor      string
	HTTPClient *http.Client
}

func NewTestClient(baseURL, actor string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		Actor:   actor,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Actor-ID", c.Actor)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

// HealthCheck verifies the service is up
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}

// CreateShow creates a show and returns its response
func (c *TestClient) CreateShow(t *testing.T, req models.CreateShowRequest) models.CreateShowResponse {
	resp := c.makeRequest(t, "POST", "/api/shows", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("CreateShow: expected 201, got %d", resp.StatusCode)
	}
	return decode[models.CreateShowResponse](t, resp)
}

// GetSeatMap fetches the seat map for a show
func (c *TestClient) GetSeatMap(t *testing.T, showID int64) models.SeatMapResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/shows/%d/seats", showID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GetSeatMap: expected 200, got %d", resp.StatusCode)
	}
	return decode[models.SeatMapResponse](t, resp)
}

// GetAvailability fetches the availability breakdown
func (c *TestClient) GetAvailability(t *testing.T, showID int64) models.AvailabilityResponse {
	resp := c.makeRequest(t, "GET", fmt.Sprintf("/api/shows/%d/availability", showID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GetAvailability: expected 200, got %d", resp.StatusCode)
	}
	return decode[models.AvailabilityResponse](t, resp)
}

// CreateHold holds seats, expecting success
func (c *TestClient) CreateHold(t *testing.T, showID int64, seatIDs []string) models.CreateHoldResponse {
	resp := c.makeRequest(t, "POST", "/api/holds", models.CreateHoldRequest{ShowID: showID, SeatIDs: seatIDs})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("CreateHold: expected 201, got %d", resp.StatusCode)
	}
	return decode[models.CreateHoldResponse](t, resp)
}

// TryCreateHold holds seats and returns the raw status code
func (c *TestClient) TryCreateHold(t *testing.T, showID int64, seatIDs []string) int {
	resp := c.makeRequest(t, "POST", "/api/holds", models.CreateHoldRequest{ShowID: showID, SeatIDs: seatIDs})
	defer resp.Body.Close()
	return resp.StatusCode
}

// ReleaseHold frees a hold
func (c *TestClient) ReleaseHold(t *testing.T, token string) {
	resp := c.makeRequest(t, "DELETE", "/api/holds/"+token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ReleaseHold: expected 200, got %d", resp.StatusCode)
	}
}

// SubmitBooking books a held seat set, expecting success
func (c *TestClient) SubmitBooking(t *testing.T, req models.SubmitBookingRequest) models.SubmitBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("SubmitBooking: expected 201, got %d", resp.StatusCode)
	}
	return decode[models.SubmitBookingResponse](t, resp)
}

// CancelBooking cancels a booking, expecting success
func (c *TestClient) CancelBooking(t *testing.T, bookingID int64) models.CancelBookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: bookingID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("CancelBooking: expected 200, got %d", resp.StatusCode)
	}
	return decode[models.CancelBookingResponse](t, resp)
}

// ListBookings lists the actor's bookings
func (c *TestClient) ListBookings(t *testing.T) models.ListBookingsResponse {
	resp := c.makeRequest(t, "GET", "/api/bookings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ListBookings: expected 200, got %d", resp.StatusCode)
	}
	return decode[models.ListBookingsResponse](t, resp)
}
