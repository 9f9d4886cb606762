package consumers

import (
	"context"
	"encoding/json"

	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
	"cinebook/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos         *repository.Repositories
	notifyClient  *external.NotifyClient
	paymentClient *external.PaymentClient
}

func NewHandlers(repos *repository.Repositories, notifyClient *external.NotifyClient, paymentClient *external.PaymentClient) *Handlers {
	return &Handlers{
		repos:         repos,
		notifyClient:  notifyClient,
		paymentClient: paymentClient,
	}
}

// HandleSeatsBooked sends the confirmation notification. The booking is
// already final; a failed send leaves the message unacked for
// redelivery, so notifications may repeat but never go missing.
func (h *Handlers) HandleSeatsBooked(m *stan.Msg) {
	var event models.SeatsBookedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("failed to unmarshal seats booked event", "error", err)
		m.Ack()
		return
	}

	ctx := context.Background()
	err := h.notifyClient.BookingConfirmed(ctx, event.Actor, event.BookingCode, event.ShowID, event.TotalAmount)
	if err != nil {
		logger.Get().Error("failed to send booking confirmation",
			"error", err, "booking_id", event.BookingID)
		return
	}

	m.Ack()
}

// HandleBookingCancelled settles the refund against the original charge
// and notifies the actor. Settlement is idempotent on the gateway side
// (keyed by transaction), so redelivery after a partial failure is safe.
func (h *Handlers) HandleBookingCancelled(m *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("failed to unmarshal booking cancelled event", "error", err)
		m.Ack()
		return
	}

	ctx := context.Background()

	if event.RefundAmount > 0 && event.PaymentTxnID != "" {
		if err := h.paymentClient.Refund(ctx, event.PaymentTxnID, event.RefundAmount); err != nil {
			logger.Get().Error("failed to settle refund",
				"error", err, "booking_id", event.BookingID,
				"txn_id", event.PaymentTxnID, "amount", event.RefundAmount)
			return
		}
		logger.Get().Info("refund settled",
			"booking_id", event.BookingID, "amount", event.RefundAmount)
	}

	err := h.notifyClient.BookingCancelled(ctx, event.Actor, event.BookingCode, event.ShowID, event.RefundAmount)
	if err != nil {
		logger.Get().Error("failed to send cancellation notification",
			"error", err, "booking_id", event.BookingID)
		return
	}

	m.Ack()
}
