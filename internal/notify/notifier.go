// Package notify implements best-effort alert delivery for scheduled
// occurrences. The reminder engine treats all of this as fire-and-forget;
// nothing here is authoritative over occurrence state.
package notify

import (
	"context"
	"time"
)

// Alert is a pending notification for one occurrence.
type Alert struct {
	OccurrenceID string    `json:"occurrence_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
}

// Sender delivers a due alert over one channel (Telegram, Discord, ...).
type Sender interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// Nop is a notifier that accepts everything and delivers nothing.
// Used in tests and when no alert channel is configured.
type Nop struct{}

func (Nop) RequestAlert(occurrenceID string, _ time.Time, _, _ string) (string, error) {
	return occurrenceID, nil
}

func (Nop) CancelAlert(string) error {
	return nil
}
