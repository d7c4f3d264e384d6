package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Event is a notification with a routing topic. It is serialized as JSON.
type Event interface {
	Topic() string
}

// Notifier serializes events and hands them to a Publisher.
// Delivery failures are logged and never returned to the caller.
type Notifier struct {
	publisher Publisher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewNotifier creates a notifier. A zero timeout means no extra deadline.
func NewNotifier(publisher Publisher, timeout time.Duration, log zerolog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		timeout:   timeout,
		log:       log.With().Str("component", "notifier").Logger(),
	}
}

// Emit publishes events in order. It must be called only after the write
// that produced the events has committed. Cancellation of ctx does not
// abort delivery.
func (n *Notifier) Emit(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			n.log.Error().
				Err(err).
				Str("topic", event.Topic()).
				Msg("Failed to serialize event")
			continue
		}

		if err := n.publisher.Publish(ctx, event.Topic(), payload); err != nil {
			n.log.Warn().
				Err(err).
				Str("topic", event.Topic()).
				Msg("Failed to publish event")
			continue
		}

		n.log.Debug().Str("topic", event.Topic()).Msg("Event emitted")
	}
}
