package ports

import (
	"context"

	"oversight/internal/domain"
)

// Notifier delivers real-time events. Publishing never fails the caller;
// implementations drop what they cannot deliver.
type Notifier interface {
	Publish(ctx context.Context, n domain.Notification)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, domain.Notification) {}
