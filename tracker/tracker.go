// Package tracker holds the change-detection cores: diffing the remote mod
// listings against persisted local state and deciding what to notify about.
package tracker

import "context"

// Notifier delivers one formatted message per detected change.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
