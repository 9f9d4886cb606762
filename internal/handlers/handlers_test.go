package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinebook/internal/broadcast"
	"cinebook/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Request validation rejects bad input before any service is touched,
// so the router here carries no wired services.
func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewHandlers(nil, broadcast.New())

	api := r.Group("/api")
	{
		shows := api.Group("/shows")
		{
			shows.POST("", h.CreateShow)
			shows.GET("/:id/seats", h.GetSeatMap)
			shows.GET("/:id/availability", h.GetAvailability)
		}

		holds := api.Group("/holds")
		holds.Use(middleware.Actor())
		{
			holds.POST("", h.CreateHold)
			holds.POST("/:token/extend", h.ExtendHold)
		}

		bookings := api.Group("/bookings")
		bookings.Use(middleware.Actor())
		{
			bookings.POST("", h.SubmitBooking)
			bookings.POST("/cancel", h.CancelBooking)
		}
	}

	return r
}

func doRequest(r *gin.Engine, method, path, body string, withActor bool) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if withActor {
		req.Header.Set("X-Actor-ID", "tester")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateShow_RejectsMissingFields(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/shows", `{"title": "No screen"}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateShow_RejectsNonPositivePrice(t *testing.T) {
	r := setupRouter()

	body := `{"screen_id": 1, "title": "Free Show", "starts_at": "2026-09-01T19:00:00Z", "base_price": -5}`
	w := doRequest(r, "POST", "/api/shows", body, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSeatMap_RejectsBadShowID(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "GET", "/api/shows/abc/seats", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "GET", "/api/shows/-1/availability", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateHold_RequiresActorHeader(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/holds", `{"show_id": 1, "seat_ids": ["A1"]}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateHold_RejectsEmptySeats(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/holds", `{"show_id": 1, "seat_ids": []}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, "POST", "/api/holds", `{"show_id": 1}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateHold_RejectsMalformedJSON(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/holds", `{"show_id": `, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBooking_RejectsMissingHoldToken(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/bookings", `{"payment_method": "card"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitBooking_RejectsMissingPaymentMethod(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/bookings", `{"hold_token": "tok"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBooking_RejectsMissingBookingID(t *testing.T) {
	r := setupRouter()

	w := doRequest(r, "POST", "/api/bookings/cancel", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
