package broadcast

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"cinebook/internal/logger"
	"cinebook/internal/models"

	"github.com/nats-io/stan.go"
)

const subscriberBuffer = 16

type subscriber interface {
	Subscribe(subject string, handler stan.MsgHandler) (stan.Subscription, error)
}

// Broadcaster fans availability updates out to seat-map observers.
// Delivery is best-effort and at-least-once: a subscriber that cannot
// keep up has events dropped rather than stalling the rest, and clients
// treat the seat map endpoint as ground truth after any gap.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[int64]map[chan models.StreamEvent]struct{}
	dropped atomic.Uint64
}

func New() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int64]map[chan models.StreamEvent]struct{}),
	}
}

// Start wires the broadcaster to the availability subjects. Each API
// instance gets every event; queue groups are deliberately not used
// here because all instances must fan out to their own observers.
func (b *Broadcaster) Start(nc subscriber) error {
	handlers := map[string]func([]byte) (models.StreamEvent, bool){
		models.EventSeatsHeld:        decodeHeld,
		models.EventSeatsBooked:      decodeBooked,
		models.EventSeatsReleased:    decodeReleased,
		models.EventBookingCancelled: decodeCancelled,
	}

	for subject, decode := range handlers {
		subject, decode := subject, decode
		_, err := nc.Subscribe(subject, func(msg *stan.Msg) {
			event, ok := decode(msg.Data)
			if !ok {
				logger.Get().Warn("dropping undecodable availability event", "subject", subject)
				return
			}
			event.EventType = subject
			b.Publish(event)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers an observer for one show. The returned cancel
// function must be called when the observer goes away.
func (b *Broadcaster) Subscribe(showID int64) (<-chan models.StreamEvent, func()) {
	ch := make(chan models.StreamEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[showID] == nil {
		b.subs[showID] = make(map[chan models.StreamEvent]struct{})
	}
	b.subs[showID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[showID]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, showID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every observer of its show. Sends never
// block: a full observer channel loses the event.
func (b *Broadcaster) Publish(event models.StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[event.ShowID] {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			logger.Get().Debug("dropped availability event for slow observer",
				"show_id", event.ShowID, "event_type", event.EventType)
		}
	}
}

// Dropped reports how many events were lost to slow observers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount reports the live observers for a show.
func (b *Broadcaster) SubscriberCount(showID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[showID])
}

func decodeHeld(data []byte) (models.StreamEvent, bool) {
	var e models.SeatsHeldEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return models.StreamEvent{}, false
	}
	return models.StreamEvent{ShowID: e.ShowID, SeatIDs: e.SeatIDs, Timestamp: e.Timestamp}, true
}

func decodeBooked(data []byte) (models.StreamEvent, bool) {
	var e models.SeatsBookedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return models.StreamEvent{}, false
	}
	id := e.BookingID
	return models.StreamEvent{ShowID: e.ShowID, SeatIDs: e.SeatIDs, BookingID: &id, Timestamp: e.Timestamp}, true
}

func decodeReleased(data []byte) (models.StreamEvent, bool) {
	var e models.SeatsReleasedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return models.StreamEvent{}, false
	}
	return models.StreamEvent{ShowID: e.ShowID, SeatIDs: e.SeatIDs, Timestamp: e.Timestamp}, true
}

func decodeCancelled(data []byte) (models.StreamEvent, bool) {
	var e models.BookingCancelledEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return models.StreamEvent{}, false
	}
	id := e.BookingID
	return models.StreamEvent{ShowID: e.ShowID, SeatIDs: e.SeatIDs, BookingID: &id, Timestamp: e.Timestamp}, true
}
