package pubsub

import "context"

// Listener pulls events from a broker subscription one at a time.
type Listener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewListener subscribes to the broker for the lifetime of ctx.
func NewListener[T any](ctx context.Context, broker Subscriber[T]) *Listener[T] {
	return &Listener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx),
	}
}

// Next blocks until an event arrives. ok is false once ctx is done or the
// broker has closed the subscription.
func (l *Listener[T]) Next() (event Event[T], ok bool) {
	select {
	case <-l.ctx.Done():
		return event, false
	case event, ok = <-l.ch:
		return event, ok
	}
}

// Drain calls fn for every event until the listener stops.
func (l *Listener[T]) Drain(fn func(Event[T])) {
	for {
		event, ok := l.Next()
		if !ok {
			return
		}
		fn(event)
	}
}
