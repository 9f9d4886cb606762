package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"cinebook/internal/models"
)

const defaultAPIBaseURL = "http://localhost:8081"

// BaseURL returns the API under test, from CINEBOOK_API_URL.
func BaseURL() string {
	if url := os.Getenv("CINEBOOK_API_URL"); url != "" {
		return url
	}
	return defaultAPIBaseURL
}

// RequireAPI skips the test unless an API instance was pointed at via
// CINEBOOK_API_URL. The suite needs Postgres, NATS and Redis running.
func RequireAPI(t *testing.T) {
	t.Helper()
	if os.Getenv("CINEBOOK_API_URL") == "" {
		t.Skip("set CINEBOOK_API_URL to run integration tests")
	}
}

// NewShowRequest builds a small show starting comfortably outside the
// refund windows.
func NewShowRequest(name string) models.CreateShowRequest {
	return models.CreateShowRequest{
		ScreenID:  time.Now().UnixNano() % 100000,
		Title:     fmt.Sprintf("%s %d", name, time.Now().UnixNano()),
		StartsAt:  time.Now().Add(72 * time.Hour),
		BasePrice: 1000,
		Rows:      3,
		RowSeats:  4,
	}
}

// AvailableSeats picks n AVAILABLE seats from the map.
func AvailableSeats(t *testing.T, seatMap models.SeatMapResponse, n int) []string {
	t.Helper()
	var ids []string
	for _, seat := range seatMap.Seats {
		if seat.Status == models.SeatAvailable {
			ids = append(ids, seat.SeatID)
			if len(ids) == n {
				return ids
			}
		}
	}
	t.Fatalf("wanted %d available seats, found %d", n, len(ids))
	return nil
}

// LogTestStep logs a test step
func LogTestStep(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	t.Logf("STEP: "+format, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	t.Logf("RESULT: "+format, args...)
}
