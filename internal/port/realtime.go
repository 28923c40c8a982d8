package port

import "context"

// RawEvent is one broadcast message as delivered by the transport, before
// normalisation.
type RawEvent struct {
	Topic   string
	Payload []byte
}

// Subscription is an active event stream over one or more topics.
type Subscription interface {
	Events() <-chan RawEvent
	Close()
}

// Realtime is the pub/sub transport carrying row-change broadcasts. Delivery
// is at-least-once and may reorder across reconnects.
type Realtime interface {
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}
