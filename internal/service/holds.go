package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinebook/internal/config"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/inventory"
	"cinebook/internal/logger"
	"cinebook/internal/metrics"
	"cinebook/internal/models"

	"github.com/google/uuid"
)

const sweepBatchSize = 100

type HoldService struct {
	store     inventory.Store
	holdStore holdStore
	showStore showStore
	publisher publisher
	cache     seatMapCache
	policy    config.BookingPolicy
	now       func() time.Time
}

func NewHoldService(
	store inventory.Store,
	holdStore holdStore,
	showStore showStore,
	publisher publisher,
	cache seatMapCache,
	policy config.BookingPolicy,
) *HoldService {
	return &HoldService{
		store:     store,
		holdStore: holdStore,
		showStore: showStore,
		publisher: publisher,
		cache:     cache,
		policy:    policy,
		now:       time.Now,
	}
}

// Create reserves the requested seats under a fresh hold token. All
// seats reserve together or the request fails with the contested set.
func (s *HoldService) Create(ctx context.Context, actor string, req *models.CreateHoldRequest) (*models.CreateHoldResponse, error) {
	if len(req.SeatIDs) == 0 {
		return nil, fmt.Errorf("seat_ids must not be empty")
	}
	seen := make(map[string]struct{}, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate seat id: %s", id)
		}
		seen[id] = struct{}{}
	}

	if _, err := s.showStore.GetByID(ctx, req.ShowID); err != nil {
		return nil, err
	}

	hold := &models.Hold{
		Token:     uuid.New().String(),
		ShowID:    req.ShowID,
		Actor:     actor,
		SeatIDs:   req.SeatIDs,
		ExpiresAt: s.now().Add(s.policy.HoldTTL),
	}

	if err := s.store.Reserve(ctx, hold); err != nil {
		var conflict *apperrors.SeatConflictError
		if errors.As(err, &conflict) {
			metrics.HoldConflicts.Inc()
		}
		return nil, err
	}
	metrics.HoldsCreated.Inc()

	s.publishReserved(ctx, hold)
	invalidateSeatMap(ctx, s.cache, hold.ShowID)

	return &models.CreateHoldResponse{
		Token:     hold.Token,
		ShowID:    hold.ShowID,
		SeatIDs:   hold.SeatIDs,
		ExpiresAt: hold.ExpiresAt,
	}, nil
}

// Release frees a hold on the actor's request. Releasing twice is a
// no-op for the seats; the second call reports the hold as gone.
func (s *HoldService) Release(ctx context.Context, actor, token string) error {
	hold, err := s.holdStore.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if hold.Actor != actor {
		return apperrors.ErrForbidden
	}

	if err := s.store.Release(ctx, hold.ShowID, hold.SeatIDs, token); err != nil {
		return err
	}

	s.publishReleased(ctx, hold, "released")
	invalidateSeatMap(ctx, s.cache, hold.ShowID)
	return nil
}

// Extend pushes the hold expiry out by a full TTL from now. Expired
// holds cannot be revived even if the sweep has not collected them.
func (s *HoldService) Extend(ctx context.Context, actor, token string) (*models.ExtendHoldResponse, error) {
	hold, err := s.holdStore.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if hold.Actor != actor {
		return nil, apperrors.ErrForbidden
	}

	expiresAt := s.now().Add(s.policy.HoldTTL)
	if err := s.holdStore.Extend(ctx, token, expiresAt); err != nil {
		return nil, err
	}

	return &models.ExtendHoldResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// SweepExpired releases holds past their window, one batch per call.
// A hold that disappears between the listing and the release lost the
// race to a concurrent Finalize or Release; the sweep skips it.
func (s *HoldService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.holdStore.ListExpired(ctx, s.now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	swept := 0
	for i := range expired {
		hold := &expired[i]
		err := s.store.Release(ctx, hold.ShowID, hold.SeatIDs, hold.Token)
		if errors.Is(err, apperrors.ErrHoldNotFound) {
			continue
		}
		if err != nil {
			logger.WithContext(ctx).Error("failed to release expired hold",
				"error", err, "hold_token", hold.Token, "show_id", hold.ShowID)
			continue
		}

		swept++
		metrics.HoldsExpired.Inc()
		s.publishReleased(ctx, hold, "expired")
		invalidateSeatMap(ctx, s.cache, hold.ShowID)
	}

	if swept > 0 {
		logger.WithContext(ctx).Info("expired holds swept", "count", swept)
	}
	return swept, nil
}

func (s *HoldService) publishReserved(ctx context.Context, hold *models.Hold) {
	event := models.SeatsHeldEvent{
		ShowID:    hold.ShowID,
		SeatIDs:   hold.SeatIDs,
		HoldToken: hold.Token,
		Actor:     hold.Actor,
		ExpiresAt: hold.ExpiresAt,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.EventSeatsHeld, event); err != nil {
		logger.WithContext(ctx).Error("failed to publish seats held event",
			"error", err, "hold_token", hold.Token)
	}
}

func (s *HoldService) publishReleased(ctx context.Context, hold *models.Hold, reason string) {
	event := models.SeatsReleasedEvent{
		ShowID:    hold.ShowID,
		SeatIDs:   hold.SeatIDs,
		HoldToken: hold.Token,
		Reason:    reason,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.EventSeatsReleased, event); err != nil {
		logger.WithContext(ctx).Error("failed to publish seats released event",
			"error", err, "hold_token", hold.Token)
	}
}
