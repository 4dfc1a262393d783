package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dosetrack/dosetrack/internal/metrics"
)

var alertPrefix = []byte("alert:")

// Dispatcher persists requested alerts in badger and fans due ones out to
// the configured senders. An undelivered alert stays pending and is retried
// on the next DeliverDue pass; rate limiting and a per-sender circuit
// breaker keep a misbehaving channel from taking the sweep down with it.
type Dispatcher struct {
	db       *badger.DB
	senders  []Sender
	breakers map[string]*gobreaker.CircuitBreaker[any]
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over db. sendsPerMinute bounds
// outbound deliveries across all channels (0 means a sane default).
func NewDispatcher(db *badger.DB, senders []Sender, sendsPerMinute int, logger *zap.Logger) *Dispatcher {
	if sendsPerMinute <= 0 {
		sendsPerMinute = 20
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker[any], len(senders))
	for _, sender := range senders {
		breakers[sender.Name()] = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    sender.Name(),
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return &Dispatcher{
		db:       db,
		senders:  senders,
		breakers: breakers,
		limiter:  rate.NewLimiter(rate.Limit(float64(sendsPerMinute)/60.0), sendsPerMinute),
		logger:   logger,
	}
}

// RequestAlert implements reminder.Notifier. The handle is the occurrence
// id itself, so a cancel never needs extra bookkeeping on the caller side.
func (d *Dispatcher) RequestAlert(occurrenceID string, scheduledAt time.Time, title, body string) (string, error) {
	alert := Alert{
		OccurrenceID: occurrenceID,
		ScheduledAt:  scheduledAt,
		Title:        title,
		Body:         body,
	}
	data, err := json.Marshal(alert)
	if err != nil {
		return "", err
	}

	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(alertKey(occurrenceID), data)
	})
	if err != nil {
		return "", err
	}
	return occurrenceID, nil
}

// CancelAlert implements reminder.Notifier.
func (d *Dispatcher) CancelAlert(handle string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(alertKey(handle))
	})
}

// Pending returns the alerts currently queued, ascending by scheduled time
// not guaranteed; callers sort if they care.
func (d *Dispatcher) Pending() ([]Alert, error) {
	var alerts []Alert
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = alertPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var alert Alert
				if err := json.Unmarshal(val, &alert); err != nil {
					return nil // skip corrupt entries
				}
				alerts = append(alerts, alert)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return alerts, err
}

// DeliverDue sends every pending alert whose scheduled time has arrived.
// Returns how many alerts were delivered and dequeued.
func (d *Dispatcher) DeliverDue(ctx context.Context, now time.Time) (int, error) {
	pending, err := d.Pending()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, alert := range pending {
		if alert.ScheduledAt.After(now) {
			continue
		}
		if !d.limiter.Allow() {
			// Over budget; the alert stays queued for the next pass
			break
		}

		if d.send(ctx, alert) {
			if err := d.CancelAlert(alert.OccurrenceID); err != nil {
				d.logger.Warn("Failed to dequeue delivered alert",
					zap.String("occurrence_id", alert.OccurrenceID),
					zap.Error(err),
				)
			}
			delivered++
		}
	}
	return delivered, nil
}

// send fans an alert out to all senders; delivery counts as success when
// at least one channel accepted it. With no senders configured the alert
// is dropped silently.
func (d *Dispatcher) send(ctx context.Context, alert Alert) bool {
	if len(d.senders) == 0 {
		return true
	}

	ok := false
	for _, sender := range d.senders {
		cb := d.breakers[sender.Name()]
		_, err := cb.Execute(func() (any, error) {
			return nil, sender.Send(ctx, alert)
		})
		if err != nil {
			metrics.NotifierFailures.Inc()
			d.logger.Warn("Alert delivery failed",
				zap.String("sender", sender.Name()),
				zap.String("occurrence_id", alert.OccurrenceID),
				zap.Error(err),
			)
			continue
		}
		metrics.AlertsDelivered.Inc()
		ok = true
	}
	return ok
}

func alertKey(occurrenceID string) []byte {
	return append(append([]byte{}, alertPrefix...), occurrenceID...)
}
