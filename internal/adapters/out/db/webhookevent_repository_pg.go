// internal/adapters/out/db/webhookevent_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	dbcommon "plaze/internal/adapters/out/db/common"
	eventdom "plaze/internal/domain/webhookevent"
)

// notifyChannel is the LISTEN/NOTIFY channel carrying event row changes.
const notifyChannel = "webhook_events"

// Listener reconnect bounds (pq.Listener resubscribes with backoff between
// these on connection loss).
const (
	listenMinInterval = 2 * time.Second
	listenMaxInterval = time.Minute
)

// WebhookEventRepositoryPG implements webhookevent.Repository on Postgres.
//
// Table:
//
//	CREATE TABLE webhook_events (
//	  id               text PRIMARY KEY,      -- provider event id
//	  type             text NOT NULL,
//	  payment_intent_id text NOT NULL DEFAULT '',
//	  payload          jsonb NOT NULL,
//	  provider_created timestamptz NOT NULL,
//	  processed        boolean NOT NULL DEFAULT false,
//	  processing_error text,
//	  created_at       timestamptz NOT NULL,
//	  processed_at     timestamptz
//	);
//
// The primary key on the provider event id is the idempotency mechanism:
// a duplicate insert is success, not failure. Rows are never deleted.
type WebhookEventRepositoryPG struct {
	DB *sql.DB

	// DSN is required for Subscribe (pq.Listener opens its own connection).
	DSN string
}

func NewWebhookEventRepositoryPG(db *sql.DB, dsn string) *WebhookEventRepositoryPG {
	return &WebhookEventRepositoryPG{DB: db, DSN: strings.TrimSpace(dsn)}
}

// EnsureSchema applies the webhook_events DDL. Idempotent.
func (r *WebhookEventRepositoryPG) EnsureSchema(ctx context.Context) error {
	if r == nil || r.DB == nil {
		return errors.New("webhookevent_repository_pg: db is nil")
	}
	_, err := r.DB.ExecContext(ctx, eventdom.EventsTableDDL)
	return err
}

const eventColumns = `
  id,
  type,
  payment_intent_id,
  payload,
  provider_created,
  processed,
  processing_error,
  created_at,
  processed_at
`

// Insert stores the event once. A unique violation on the provider event id
// means the row already exists: the stored row is returned with
// inserted=false and no error (at-most-once processing despite provider
// retries).
func (r *WebhookEventRepositoryPG) Insert(ctx context.Context, e eventdom.Event) (eventdom.Event, bool, error) {
	if r == nil || r.DB == nil {
		return eventdom.Event{}, false, errors.New("webhookevent_repository_pg: db is nil")
	}
	if err := e.Validate(); err != nil {
		return eventdom.Event{}, false, err
	}

	run := dbcommon.GetRunner(ctx, r.DB)

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	const q = `
INSERT INTO webhook_events (` + eventColumns + `) VALUES (
  $1,$2,$3,$4,$5,false,NULL,$6,NULL
)
RETURNING ` + eventColumns

	row := run.QueryRowContext(ctx, q,
		strings.TrimSpace(e.ID),
		strings.TrimSpace(e.Type),
		strings.TrimSpace(e.PaymentIntentID),
		[]byte(payload),
		e.ProviderCreated.UTC(),
		createdAt.UTC(),
	)

	out, err := scanEvent(row)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			existing, gErr := r.GetByID(ctx, e.ID)
			if gErr != nil {
				return eventdom.Event{}, false, gErr
			}
			if existing == nil {
				// row vanished between insert and read; rows are never
				// deleted so treat as a hard error
				return eventdom.Event{}, false, errors.New("webhookevent_repository_pg: duplicate insert but row not found")
			}
			return *existing, false, nil
		}
		return eventdom.Event{}, false, err
	}

	r.notify(ctx, out)
	return out, true, nil
}

// GetByID returns (nil, nil) when the event is unknown.
func (r *WebhookEventRepositoryPG) GetByID(ctx context.Context, eventID string) (*eventdom.Event, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("webhookevent_repository_pg: db is nil")
	}
	run := dbcommon.GetRunner(ctx, r.DB)

	const q = `SELECT ` + eventColumns + ` FROM webhook_events WHERE id = $1`
	row := run.QueryRowContext(ctx, q, strings.TrimSpace(eventID))

	out, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// ListByPaymentIntent returns the relevant events for a payment intent,
// ordered by the provider timestamp ascending (id as tiebreaker). Insertion
// order deliberately plays no part: providers redeliver and reorder.
func (r *WebhookEventRepositoryPG) ListByPaymentIntent(ctx context.Context, paymentIntentID string) ([]eventdom.Event, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("webhookevent_repository_pg: db is nil")
	}
	run := dbcommon.GetRunner(ctx, r.DB)

	const q = `
SELECT ` + eventColumns + `
FROM webhook_events
WHERE payment_intent_id = $1
  AND type = ANY($2)
ORDER BY provider_created ASC, id ASC
`
	relevant := pq.Array([]string{
		eventdom.TypePaymentSucceeded,
		eventdom.TypePaymentFailed,
		eventdom.TypePaymentRequiresAction,
		eventdom.TypePaymentCanceled,
	})

	rows, err := run.QueryContext(ctx, q, strings.TrimSpace(paymentIntentID), relevant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []eventdom.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *WebhookEventRepositoryPG) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	return r.mark(ctx, eventID, true, nil, at)
}

func (r *WebhookEventRepositoryPG) MarkFailed(ctx context.Context, eventID string, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return r.mark(ctx, eventID, false, &reason, at)
}

func (r *WebhookEventRepositoryPG) mark(ctx context.Context, eventID string, processed bool, reason *string, at time.Time) error {
	if r == nil || r.DB == nil {
		return errors.New("webhookevent_repository_pg: db is nil")
	}
	run := dbcommon.GetRunner(ctx, r.DB)

	const q = `
UPDATE webhook_events
SET processed = $2,
    processing_error = $3,
    processed_at = $4
WHERE id = $1
RETURNING ` + eventColumns

	row := run.QueryRowContext(ctx, q,
		strings.TrimSpace(eventID),
		processed,
		dbcommon.ToDBText(reason),
		at.UTC(),
	)

	out, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("webhookevent_repository_pg: event not found")
		}
		return err
	}

	r.notify(ctx, out)
	return nil
}

// Health aggregates outcomes over the trailing window. failed means a
// processing error is recorded; pending means neither processed nor failed.
func (r *WebhookEventRepositoryPG) Health(ctx context.Context, window time.Duration) (eventdom.HealthStats, error) {
	if r == nil || r.DB == nil {
		return eventdom.HealthStats{}, errors.New("webhookevent_repository_pg: db is nil")
	}
	run := dbcommon.GetRunner(ctx, r.DB)

	windowStart := time.Now().UTC().Add(-window)

	const q = `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE processed),
  COUNT(*) FILTER (WHERE processing_error IS NOT NULL),
  COUNT(*) FILTER (WHERE NOT processed AND processing_error IS NULL)
FROM webhook_events
WHERE created_at >= $1
`
	var total, processed, failed, pending int
	if err := run.QueryRowContext(ctx, q, windowStart).Scan(&total, &processed, &failed, &pending); err != nil {
		return eventdom.HealthStats{}, err
	}

	stats := eventdom.HealthStats{
		WindowStart: windowStart,
		Total:       total,
		Processed:   processed,
		Failed:      failed,
		Pending:     pending,
	}
	if total > 0 {
		stats.ProcessedRate = float64(processed) / float64(total)
		stats.FailedRate = float64(failed) / float64(total)
	}
	return stats, nil
}

// Subscribe delivers a Notification for every inserted/updated row matching
// filter. pq.Listener owns the dedicated connection and resubscribes with
// backoff between listenMinInterval and listenMaxInterval on disconnect, so
// no supervisor is needed above this layer.
func (r *WebhookEventRepositoryPG) Subscribe(ctx context.Context, filter eventdom.SubscribeFilter, fn func(eventdom.Notification)) (func(), error) {
	if r == nil {
		return nil, errors.New("webhookevent_repository_pg: repository is nil")
	}
	if r.DSN == "" {
		return nil, errors.New("webhookevent_repository_pg: dsn is empty (required for Subscribe)")
	}
	if fn == nil {
		return nil, errors.New("webhookevent_repository_pg: callback is nil")
	}

	listener := pq.NewListener(r.DSN, listenMinInterval, listenMaxInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[webhookevent_repo_pg] listener event=%d err=%v", ev, err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	done := make(chan struct{})
	stop := stopFunc(done, listener)

	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = listener.Close()
				return
			case <-done:
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				if n == nil {
					// reconnect marker; pq re-established the connection
					continue
				}
				var note eventdom.Notification
				if err := json.Unmarshal([]byte(n.Extra), &note); err != nil {
					log.Printf("[webhookevent_repo_pg] WARN: bad notification payload: %v", err)
					continue
				}
				if matchesFilter(filter, note) {
					fn(note)
				}
			}
		}
	}()

	return stop, nil
}

// stopFunc builds the Subscribe cancel function. Callers may invoke it
// more than once, from any goroutine; done is closed exactly once.
func stopFunc(done chan struct{}, closer io.Closer) func() {
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		_ = closer.Close()
	}
}

// notify publishes the row change on the LISTEN/NOTIFY channel.
// Best-effort: a notify failure never fails the write it accompanies.
func (r *WebhookEventRepositoryPG) notify(ctx context.Context, e eventdom.Event) {
	run := dbcommon.GetRunner(ctx, r.DB)

	payload, err := json.Marshal(eventdom.Notification{
		EventID:         e.ID,
		Type:            e.Type,
		PaymentIntentID: e.PaymentIntentID,
		Processed:       e.Processed,
	})
	if err != nil {
		return
	}
	if _, err := run.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(payload)); err != nil {
		log.Printf("[webhookevent_repo_pg] WARN: pg_notify failed eventId=%s err=%v", e.ID, err)
	}
}

func matchesFilter(f eventdom.SubscribeFilter, n eventdom.Notification) bool {
	if pi := strings.TrimSpace(f.PaymentIntentID); pi != "" && pi != n.PaymentIntentID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if strings.TrimSpace(t) == n.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func scanEvent(s dbcommon.RowScanner) (eventdom.Event, error) {
	var (
		id              string
		eventType       string
		paymentIntentID string
		payload         []byte
		providerCreated time.Time
		processed       bool
		processingErrNS sql.NullString
		createdAt       time.Time
		processedAtNS   sql.NullTime
	)
	if err := s.Scan(
		&id,
		&eventType,
		&paymentIntentID,
		&payload,
		&providerCreated,
		&processed,
		&processingErrNS,
		&createdAt,
		&processedAtNS,
	); err != nil {
		return eventdom.Event{}, err
	}

	return eventdom.Event{
		ID:              strings.TrimSpace(id),
		Type:            strings.TrimSpace(eventType),
		PaymentIntentID: strings.TrimSpace(paymentIntentID),
		Payload:         json.RawMessage(payload),
		ProviderCreated: providerCreated.UTC(),
		Processed:       processed,
		ProcessingError: dbcommon.FromNullString(processingErrNS),
		CreatedAt:       createdAt.UTC(),
		ProcessedAt:     dbcommon.FromNullTime(processedAtNS),
	}, nil
}
