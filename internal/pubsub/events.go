// Package pubsub fans typed events out to in-process subscribers.
package pubsub

import (
	"context"
	"time"
)

// Kind says what an event reports.
type Kind string

const (
	KindLog             Kind = "log"
	KindSnapshotSaved   Kind = "snapshot.saved"
	KindSnapshotDeleted Kind = "snapshot.deleted"
)

// Event is one published payload.
type Event[T any] struct {
	Kind    Kind
	Payload T
	At      time.Time
}

// Subscriber hands out event channels that live as long as ctx.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
