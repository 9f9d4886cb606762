package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"cinebook/internal/config"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/inventory"
	"cinebook/internal/logger"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
	"cinebook/internal/refund"
	"cinebook/internal/repository"
)

const codeGenerationAttempts = 5

type BookingService struct {
	store        inventory.Store
	holdStore    holdStore
	bookingStore bookingStore
	showStore    showStore
	promoStore   promoStore
	payment      paymentGateway
	publisher    publisher
	cache        seatMapCache
	refunds      *refund.Calculator
	policy       config.BookingPolicy
	now          func() time.Time
}

func NewBookingService(
	store inventory.Store,
	holdStore holdStore,
	bookingStore bookingStore,
	showStore showStore,
	promoStore promoStore,
	payment paymentGateway,
	publisher publisher,
	cache seatMapCache,
	refunds *refund.Calculator,
	policy config.BookingPolicy,
) *BookingService {
	return &BookingService{
		store:        store,
		holdStore:    holdStore,
		bookingStore: bookingStore,
		showStore:    showStore,
		promoStore:   promoStore,
		payment:      payment,
		publisher:    publisher,
		cache:        cache,
		refunds:      refunds,
		policy:       policy,
		now:          time.Now,
	}
}

// Submit runs the booking state machine: price the held seats, record a
// PENDING booking, charge, then finalize the seats against the live
// hold. The hold-row claim inside Finalize settles any race with the
// expiry sweep; if the sweep won after the charge went through, the
// charge is voided and the caller gets a hold-expired answer.
func (s *BookingService) Submit(ctx context.Context, actor string, req *models.SubmitBookingRequest) (*models.SubmitBookingResponse, error) {
	if req.IdempotencyKey != "" {
		if resp, done, err := s.replayIdempotent(ctx, req.IdempotencyKey); done {
			return resp, err
		}
		defer s.releaseIdempotencyClaim(ctx, req.IdempotencyKey)
	}

	hold, err := s.holdStore.GetByToken(ctx, req.HoldToken)
	if err != nil {
		return nil, err
	}
	if hold.Actor != actor {
		return nil, apperrors.ErrForbidden
	}
	if hold.Expired(s.now()) {
		return nil, apperrors.ErrHoldExpired
	}

	show, err := s.showStore.GetByID(ctx, hold.ShowID)
	if err != nil {
		return nil, err
	}

	booking, err := s.priceBooking(ctx, actor, hold, req)
	if err != nil {
		return nil, err
	}

	if err := s.createWithFreshCode(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	result, err := s.charge(ctx, booking, req.PaymentMethod, req.IdempotencyKey)
	if err != nil {
		s.expireBooking(ctx, booking.ID)
		return nil, fmt.Errorf("payment gateway error: %w", err)
	}
	if result.Outcome != external.ChargeSuccess {
		s.releaseFailedPayment(ctx, hold)
		s.expireBooking(ctx, booking.ID)
		metrics.PaymentFailures.WithLabelValues(result.Outcome).Inc()
		return nil, &apperrors.PaymentFailedError{Reason: result.Reason, Outcome: result.Outcome}
	}

	err = s.store.Finalize(ctx, hold.ShowID, hold.SeatIDs, hold.Token, booking.ID)
	if err != nil {
		// Money moved but the seats are gone. Undo the charge and report
		// the loss; the seats were already re-sold or released.
		if voidErr := s.payment.VoidCharge(ctx, result.TransactionID, "hold no longer live"); voidErr != nil {
			logger.WithContext(ctx).Error("failed to void charge after lost finalize",
				"error", voidErr, "booking_id", booking.ID, "txn_id", result.TransactionID)
		}
		s.expireBooking(ctx, booking.ID)

		if errors.Is(err, apperrors.ErrInvariantViolation) {
			metrics.InvariantViolations.Inc()
		}
		return nil, err
	}

	if err := s.bookingStore.MarkConfirmed(ctx, booking.ID, result.TransactionID); err != nil {
		logger.WithContext(ctx).Error("failed to mark booking confirmed",
			"error", err, "booking_id", booking.ID)
		return nil, err
	}
	metrics.BookingsConfirmed.Inc()

	s.publishBooked(ctx, show, booking, hold.SeatIDs)
	invalidateSeatMap(ctx, s.cache, hold.ShowID)

	logger.WithContext(ctx).Info("booking confirmed",
		"booking_id", booking.ID, "code", booking.Code,
		"show_id", booking.ShowID, "total", booking.TotalAmount)

	return submitResponse(booking, models.BookingConfirmed), nil
}

// replayIdempotent handles a repeated idempotency key. A confirmed
// prior attempt replays its response; any other prior attempt reports
// payment failure rather than charging twice. The Redis claim only
// narrows the window for concurrent duplicates; the unique index on the
// key column is authoritative.
func (s *BookingService) replayIdempotent(ctx context.Context, key string) (*models.SubmitBookingResponse, bool, error) {
	prior, err := s.bookingStore.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, true, err
	}
	if prior != nil {
		if prior.Status == models.BookingConfirmed {
			return submitResponse(prior, prior.Status), true, nil
		}
		return nil, true, &apperrors.PaymentFailedError{
			Reason:  "previous attempt with this idempotency key did not complete",
			Outcome: external.ChargeDeclined,
		}
	}

	if s.cache != nil {
		owned, err := s.cache.ClaimIdempotencyKey(ctx, key, s.policy.IdempotencyTTL)
		if err != nil {
			logger.WithContext(ctx).Warn("idempotency claim failed, relying on unique index", "error", err)
		} else if !owned {
			return nil, true, &apperrors.PaymentFailedError{
				Reason:  "submission with this idempotency key is in flight",
				Outcome: external.ChargeDeclined,
			}
		}
	}
	return nil, false, nil
}

func (s *BookingService) releaseIdempotencyClaim(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReleaseIdempotencyKey(ctx, key); err != nil {
		logger.WithContext(ctx).Warn("failed to release idempotency claim", "error", err)
	}
}

// priceBooking recomputes all amounts server-side from current seat
// prices. Client-supplied totals are never trusted.
func (s *BookingService) priceBooking(ctx context.Context, actor string, hold *models.Hold, req *models.SubmitBookingRequest) (*models.Booking, error) {
	prices, err := s.showStore.SeatPrices(ctx, hold.ShowID, hold.SeatIDs)
	if err != nil {
		return nil, err
	}

	var subtotal int64
	seats := make([]models.BookingSeat, 0, len(hold.SeatIDs))
	for _, seatID := range hold.SeatIDs {
		price := prices[seatID]
		subtotal += price
		seats = append(seats, models.BookingSeat{
			ShowID: hold.ShowID,
			SeatID: seatID,
			Price:  price,
		})
	}

	fee := s.policy.FeePerSeat * int64(len(hold.SeatIDs))

	var discount int64
	if req.PromoCode != "" {
		promo, err := s.promoStore.GetActiveByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, err
		}
		discount = subtotal * int64(promo.PercentOff) / 100
	}

	booking := &models.Booking{
		ShowID:      hold.ShowID,
		Actor:       actor,
		Status:      models.BookingPending,
		Subtotal:    subtotal,
		Fee:         fee,
		Discount:    discount,
		TotalAmount: subtotal + fee - discount,
		Seats:       seats,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		booking.IdempotencyKey = &key
	}
	return booking, nil
}

// createWithFreshCode retries on code collisions. A duplicate
// idempotency key also lands here as a unique violation; it is not
// retried because the key conflict would just repeat.
func (s *BookingService) createWithFreshCode(ctx context.Context, booking *models.Booking) error {
	var err error
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		booking.Code = s.generateCode()
		err = s.bookingStore.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err) {
			return err
		}
	}
	return err
}

// generateCode builds a human-readable booking code: date prefix plus
// six random digits from crypto/rand. Uniqueness is enforced by the
// database; collisions just trigger a retry.
func (s *BookingService) generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken;
		// fall back to the clock so the retry loop can still proceed.
		n = big.NewInt(s.now().UnixNano() % 1000000)
	}
	return "CB-" + s.now().Format("20060102") + "-" + fmt.Sprintf("%06d", n.Int64())
}

func (s *BookingService) charge(ctx context.Context, booking *models.Booking, method, idempotencyKey string) (*external.ChargeResult, error) {
	start := s.now()
	result, err := s.payment.Charge(ctx, booking.TotalAmount, strconv.FormatInt(booking.ID, 10), method, idempotencyKey)
	metrics.PaymentDuration.Observe(time.Since(start).Seconds())
	return result, err
}

// releaseFailedPayment frees the held seats once the gateway refuses
// the charge. The hold is consumed; a new attempt starts from a fresh
// hold. If the expiry sweep released the seats first, nothing is left
// to do.
func (s *BookingService) releaseFailedPayment(ctx context.Context, hold *models.Hold) {
	err := s.store.Release(ctx, hold.ShowID, hold.SeatIDs, hold.Token)
	if errors.Is(err, apperrors.ErrHoldNotFound) {
		return
	}
	if err != nil {
		logger.WithContext(ctx).Error("failed to release seats after payment failure",
			"error", err, "hold_token", hold.Token, "show_id", hold.ShowID)
		return
	}

	event := models.SeatsReleasedEvent{
		ShowID:    hold.ShowID,
		SeatIDs:   hold.SeatIDs,
		HoldToken: hold.Token,
		Reason:    "payment_failed",
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(models.EventSeatsReleased, event); err != nil {
		logger.WithContext(ctx).Error("failed to publish seats released event",
			"error", err, "hold_token", hold.Token)
	}
	invalidateSeatMap(ctx, s.cache, hold.ShowID)
}

func (s *BookingService) expireBooking(ctx context.Context, bookingID int64) {
	if err := s.bookingStore.MarkExpired(ctx, bookingID); err != nil {
		logger.WithContext(ctx).Error("failed to expire booking",
			"error", err, "booking_id", bookingID)
	}
}

// Cancel releases a confirmed booking's seats and records the refund
// due per the policy tiers. The refund itself is settled asynchronously
// by the consumer that handles the cancellation event.
func (s *BookingService) Cancel(ctx context.Context, actor string, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	booking, err := s.bookingStore.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Actor != actor {
		return nil, apperrors.ErrForbidden
	}

	// Repeated cancellation replays the recorded outcome.
	if booking.Status == models.BookingCancelled {
		var refunded int64
		if booking.RefundAmount != nil {
			refunded = *booking.RefundAmount
		}
		return &models.CancelBookingResponse{
			BookingID:    booking.ID,
			Status:       booking.Status,
			RefundAmount: refunded,
		}, nil
	}
	if booking.Status != models.BookingConfirmed {
		return nil, apperrors.ErrBookingNotFound
	}

	show, err := s.showStore.GetByID(ctx, booking.ShowID)
	if err != nil {
		return nil, err
	}

	refundAmount, err := s.refunds.Calculate(booking.TotalAmount, show.StartsAt, s.now())
	if err != nil {
		return nil, err
	}

	seatIDs := make([]string, len(booking.Seats))
	for i, seat := range booking.Seats {
		seatIDs[i] = seat.SeatID
	}

	if err := s.store.Unbook(ctx, booking.ShowID, seatIDs, booking.ID); err != nil {
		if errors.Is(err, apperrors.ErrInvariantViolation) {
			metrics.InvariantViolations.Inc()
		}
		return nil, err
	}

	if err := s.bookingStore.MarkCancelled(ctx, booking.ID, refundAmount); err != nil {
		logger.WithContext(ctx).Error("failed to mark booking cancelled",
			"error", err, "booking_id", booking.ID)
		return nil, err
	}
	metrics.BookingsCancelled.Inc()

	s.publishCancelled(ctx, booking, seatIDs, refundAmount)
	invalidateSeatMap(ctx, s.cache, booking.ShowID)

	logger.WithContext(ctx).Info("booking cancelled",
		"booking_id", booking.ID, "refund", refundAmount)

	return &models.CancelBookingResponse{
		BookingID:    booking.ID,
		Status:       models.BookingCancelled,
		RefundAmount: refundAmount,
	}, nil
}

func (s *BookingService) List(ctx context.Context, actor string) (models.ListBookingsResponse, error) {
	bookings, err := s.bookingStore.ListByActor(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := make(models.ListBookingsResponse, len(bookings))
	for i, booking := range bookings {
		result[i] = models.ListBookingsResponseItem{
			ID:          booking.ID,
			Code:        booking.Code,
			ShowID:      booking.ShowID,
			Status:      booking.Status,
			TotalAmount: booking.TotalAmount,
			CreatedAt:   booking.CreatedAt,
		}
	}

	return result, nil
}

func (s *BookingService) publishBooked(ctx context.Context, show *models.Show, booking *models.Booking, seatIDs []string) {
	event := models.SeatsBookedEvent{
		ShowID:      show.ID,
		SeatIDs:     seatIDs,
		BookingID:   booking.ID,
		BookingCode: booking.Code,
		Actor:       booking.Actor,
		TotalAmount: booking.TotalAmount,
		Timestamp:   s.now(),
	}
	if err := s.publisher.Publish(models.EventSeatsBooked, event); err != nil {
		logger.WithContext(ctx).Error("failed to publish seats booked event",
			"error", err, "booking_id", booking.ID)
	}
}

func (s *BookingService) publishCancelled(ctx context.Context, booking *models.Booking, seatIDs []string, refundAmount int64) {
	var txnID string
	if booking.PaymentTxnID != nil {
		txnID = *booking.PaymentTxnID
	}
	event := models.BookingCancelledEvent{
		ShowID:       booking.ShowID,
		SeatIDs:      seatIDs,
		BookingID:    booking.ID,
		BookingCode:  booking.Code,
		Actor:        booking.Actor,
		RefundAmount: refundAmount,
		PaymentTxnID: txnID,
		Timestamp:    s.now(),
	}
	if err := s.publisher.Publish(models.EventBookingCancelled, event); err != nil {
		logger.WithContext(ctx).Error("failed to publish booking cancelled event",
			"error", err, "booking_id", booking.ID)
	}
}

func submitResponse(booking *models.Booking, status string) *models.SubmitBookingResponse {
	return &models.SubmitBookingResponse{
		BookingID:   booking.ID,
		Code:        booking.Code,
		Status:      status,
		Subtotal:    booking.Subtotal,
		Fee:         booking.Fee,
		Discount:    booking.Discount,
		TotalAmount: booking.TotalAmount,
	}
}
