package service

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/config"
	"cinebook/internal/logger"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
)

type ShowService struct {
	showStore showStore
	cache     seatMapCache
	policy    config.BookingPolicy
}

func NewShowService(showStore showStore, cache seatMapCache, policy config.BookingPolicy) *ShowService {
	return &ShowService{
		showStore: showStore,
		cache:     cache,
		policy:    policy,
	}
}

func (s *ShowService) Create(ctx context.Context, req *models.CreateShowRequest) (*models.CreateShowResponse, error) {
	show := &models.Show{
		ScreenID:  req.ScreenID,
		Title:     req.Title,
		StartsAt:  req.StartsAt,
		BasePrice: req.BasePrice,
	}

	rows, rowSeats := req.Rows, req.RowSeats
	if rows == 0 {
		rows = 10
	}
	if rowSeats == 0 {
		rowSeats = 20
	}

	if err := s.showStore.Create(ctx, show, rows, rowSeats); err != nil {
		return nil, fmt.Errorf("failed to create show: %w", err)
	}

	logger.WithContext(ctx).Info("show created",
		"show_id", show.ID, "title", show.Title, "total_seats", show.TotalSeats)

	return &models.CreateShowResponse{ID: show.ID, TotalSeats: show.TotalSeats}, nil
}

func (s *ShowService) List(ctx context.Context) (models.ListShowsResponse, error) {
	shows, err := s.showStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	result := make(models.ListShowsResponse, len(shows))
	for i, show := range shows {
		result[i] = models.ListShowsResponseItem{
			ID:        show.ID,
			Title:     show.Title,
			StartsAt:  show.StartsAt,
			Available: show.Available(),
		}
	}

	return result, nil
}

// SeatMap serves the per-seat states, read through the cache. A stale
// entry only survives for the cache TTL; every seat transition
// invalidates it eagerly.
func (s *ShowService) SeatMap(ctx context.Context, showID int64) (*models.SeatMapResponse, error) {
	if s.cache != nil {
		items, err := s.cache.GetSeatMap(ctx, showID)
		if err != nil {
			logger.WithContext(ctx).Warn("seat map cache read failed", "error", err, "show_id", showID)
		} else if items != nil {
			return &models.SeatMapResponse{ShowID: showID, Seats: items}, nil
		}
	}

	if _, err := s.showStore.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	items, err := s.showStore.SeatMap(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat map: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSeatMap(ctx, showID, items, s.policy.SeatMapCacheTTL); err != nil {
			logger.WithContext(ctx).Warn("seat map cache write failed", "error", err, "show_id", showID)
		}
	}

	return &models.SeatMapResponse{ShowID: showID, Seats: items}, nil
}

// Availability reports the state breakdown derived from per-seat rows
// next to the fast-path counter. A mismatch between the two means a
// transition escaped its transaction.
func (s *ShowService) Availability(ctx context.Context, showID int64) (*models.AvailabilityResponse, error) {
	show, err := s.showStore.GetByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	available, held, booked, err := s.showStore.CountStates(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to count seat states: %w", err)
	}

	if booked != show.BookedSeats {
		metrics.InvariantViolations.Inc()
		logger.WithContext(ctx).Error("booked counter diverged from seat states",
			"show_id", showID, "counter", show.BookedSeats, "derived", booked)
	}

	return &models.AvailabilityResponse{
		ShowID:     showID,
		TotalSeats: show.TotalSeats,
		Available:  available,
		Held:       held,
		Booked:     booked,
		Counter:    show.BookedSeats,
	}, nil
}

// invalidateSeatMap is shared by every service that transitions seats.
func invalidateSeatMap(ctx context.Context, cache seatMapCache, showID int64) {
	if cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cache.InvalidateSeatMap(ctx, showID); err != nil {
		logger.WithContext(ctx).Warn("seat map invalidation failed", "error", err, "show_id", showID)
	}
}
