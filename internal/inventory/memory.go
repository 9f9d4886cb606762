package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

type seatCell struct {
	status    string
	holdToken string
	bookingID int64
}

// MemoryStore is an in-memory Store with the same transition semantics
// as the Postgres implementation. A single mutex stands in for the
// per-operation transaction; it backs the concurrency tests and the
// load generator's dry-run mode.
type MemoryStore struct {
	mu     sync.Mutex
	seats  map[int64]map[string]*seatCell // showID -> seatID -> state
	holds  map[string]*models.Hold
	booked map[int64]int // fast-path counter per show
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seats:  make(map[int64]map[string]*seatCell),
		holds:  make(map[string]*models.Hold),
		booked: make(map[int64]int),
		now:    time.Now,
	}
}

// SetClock overrides the store's notion of now; tests use it to expire
// holds without sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddShow registers seats for a show, all AVAILABLE.
func (s *MemoryStore) AddShow(showID int64, seatIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := make(map[string]*seatCell, len(seatIDs))
	for _, id := range seatIDs {
		cells[id] = &seatCell{status: models.SeatAvailable}
	}
	s.seats[showID] = cells
}

func (s *MemoryStore) Reserve(_ context.Context, hold *models.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells, ok := s.seats[hold.ShowID]
	if !ok {
		return apperrors.ErrShowNotFound
	}

	var conflicts []string
	for _, id := range hold.SeatIDs {
		cell, ok := cells[id]
		if !ok {
			return apperrors.ErrSeatNotFound
		}
		if cell.status != models.SeatAvailable {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return &apperrors.SeatConflictError{SeatIDs: conflicts}
	}

	for _, id := range hold.SeatIDs {
		cells[id].status = models.SeatHeld
		cells[id].holdToken = hold.Token
	}
	h := *hold
	s.holds[hold.Token] = &h
	return nil
}

func (s *MemoryStore) Release(_ context.Context, showID int64, seatIDs []string, holdToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadHold := s.holds[holdToken]
	delete(s.holds, holdToken)

	released := 0
	for _, id := range seatIDs {
		cell, ok := s.seats[showID][id]
		if !ok {
			continue
		}
		if cell.status == models.SeatHeld && cell.holdToken == holdToken {
			cell.status = models.SeatAvailable
			cell.holdToken = ""
			released++
		}
	}

	if !hadHold && released == 0 {
		return apperrors.ErrHoldNotFound
	}
	return nil
}

func (s *MemoryStore) Finalize(_ context.Context, showID int64, seatIDs []string, holdToken string, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[holdToken]
	if !ok || hold.Expired(s.now()) {
		// expired-but-present holds are left for the sweep
		return apperrors.ErrHoldExpired
	}

	// A live hold means every seat must still be HELD by this token.
	// Anything else means the invariant is already broken; the hold is
	// left in place so the failed call changes nothing.
	for _, id := range seatIDs {
		cell, ok := s.seats[showID][id]
		if !ok || cell.status != models.SeatHeld || cell.holdToken != holdToken {
			return apperrors.ErrInvariantViolation
		}
	}
	delete(s.holds, holdToken)

	for _, id := range seatIDs {
		cell := s.seats[showID][id]
		cell.status = models.SeatBooked
		cell.holdToken = ""
		cell.bookingID = bookingID
	}
	s.booked[showID] += len(seatIDs)
	return nil
}

func (s *MemoryStore) Unbook(_ context.Context, showID int64, seatIDs []string, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range seatIDs {
		cell, ok := s.seats[showID][id]
		if !ok || cell.status != models.SeatBooked || cell.bookingID != bookingID {
			return apperrors.ErrInvariantViolation
		}
	}

	for _, id := range seatIDs {
		cell := s.seats[showID][id]
		cell.status = models.SeatAvailable
		cell.bookingID = 0
	}
	s.booked[showID] -= len(seatIDs)
	return nil
}

// GetHold returns the hold by token, or apperrors.ErrHoldNotFound.
func (s *MemoryStore) GetHold(_ context.Context, token string) (*models.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold, ok := s.holds[token]
	if !ok {
		return nil, apperrors.ErrHoldNotFound
	}
	h := *hold
	return &h, nil
}

// ListExpired returns holds whose window has elapsed.
func (s *MemoryStore) ListExpired(_ context.Context, now time.Time, limit int) ([]models.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []models.Hold
	for _, hold := range s.holds {
		if hold.Expired(now) {
			expired = append(expired, *hold)
			if limit > 0 && len(expired) >= limit {
				break
			}
		}
	}
	return expired, nil
}

// Extend resets the hold expiry; expired holds cannot be extended.
func (s *MemoryStore) Extend(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold, ok := s.holds[token]
	if !ok {
		return apperrors.ErrHoldNotFound
	}
	if hold.Expired(s.now()) {
		return apperrors.ErrHoldExpired
	}
	hold.ExpiresAt = expiresAt
	return nil
}

// SeatStatus reports the current status of a seat, for tests and the
// generator's verification pass.
func (s *MemoryStore) SeatStatus(showID int64, seatID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cell, ok := s.seats[showID][seatID]
	if !ok {
		return ""
	}
	return cell.status
}

// BookedCount returns the fast-path counter for a show.
func (s *MemoryStore) BookedCount(showID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.booked[showID]
}
