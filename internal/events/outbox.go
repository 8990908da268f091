package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/carebook/pkg/logging"
)

const (
	defaultBatchSize   = 25
	defaultInterval    = 2 * time.Second
	defaultMaxAttempts = 10
	maxErrorLength     = 500
)

// OutboxEntry is an analytics event waiting for delivery.
type OutboxEntry struct {
	ID        uuid.UUID
	OrgID     string
	Type      string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// DeliveryHandler ships one entry to the analytics pipeline.
type DeliveryHandler interface {
	Handle(ctx context.Context, entry OutboxEntry) error
}

type outboxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OutboxStore keeps analytics events in Postgres until they are delivered, so a
// booking never waits on the analytics transport.
type OutboxStore struct {
	db outboxDB
}

func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &OutboxStore{db: pool}
}

func newOutboxStoreWithDB(db outboxDB) *OutboxStore {
	if db == nil {
		panic("events: db required")
	}
	return &OutboxStore{db: db}
}

// Insert records an event for later delivery and returns its id.
func (s *OutboxStore) Insert(ctx context.Context, orgID string, eventType string, payload any) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	id := uuid.New()
	if _, err := s.db.Exec(ctx, `
		INSERT INTO analytics_outbox (id, org_id, type, payload)
		VALUES ($1, $2, $3, $4)`,
		id, orgID, eventType, data,
	); err != nil {
		return uuid.Nil, fmt.Errorf("events: insert outbox: %w", err)
	}
	return id, nil
}

// FetchPending returns undelivered entries that have not used up their attempts,
// oldest first.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32, maxAttempts int) ([]OutboxEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, org_id, type, payload, attempts, created_at
		FROM analytics_outbox
		WHERE delivered_at IS NULL AND attempts < $2
		ORDER BY created_at
		LIMIT $1`,
		limit, maxAttempts,
	)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var (
			entry   OutboxEntry
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &entry.OrgID, &entry.Type, &payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		entry.Payload = append(json.RawMessage(nil), payload...)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkDelivered reports false when the entry was already delivered.
func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := s.db.Exec(ctx, `
		UPDATE analytics_outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// MarkFailed counts a failed attempt and keeps the last error for operators.
func (s *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}
	if _, err := s.db.Exec(ctx, `
		UPDATE analytics_outbox
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1 AND delivered_at IS NULL`,
		id, msg,
	); err != nil {
		return fmt.Errorf("events: mark failed: %w", err)
	}
	return nil
}

type outboxQueue interface {
	FetchPending(ctx context.Context, limit int32, maxAttempts int) ([]OutboxEntry, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

// Deliverer polls the outbox and hands entries to the handler. Entries that keep
// failing are retried on later ticks until maxAttempts, then left for inspection.
type Deliverer struct {
	queue       outboxQueue
	handler     DeliveryHandler
	logger      *logging.Logger
	batchSize   int32
	interval    time.Duration
	maxAttempts int
}

// NewDeliverer returns an inert deliverer when store is nil.
func NewDeliverer(store *OutboxStore, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	var queue outboxQueue
	if store != nil {
		queue = store
	}
	return newDeliverer(queue, handler, logger)
}

func newDeliverer(queue outboxQueue, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		queue:       queue,
		handler:     handler,
		logger:      logger,
		batchSize:   defaultBatchSize,
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

func (d *Deliverer) WithMaxAttempts(n int) *Deliverer {
	if n > 0 {
		d.maxAttempts = n
	}
	return d
}

// Start drains once immediately, then on every tick until ctx is cancelled.
func (d *Deliverer) Start(ctx context.Context) {
	if d.queue == nil || d.handler == nil {
		return
	}
	d.logger.Info("analytics deliverer started", "interval", d.interval, "batch_size", d.batchSize)
	d.drain(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

// drain delivers one batch and returns how many entries were delivered.
func (d *Deliverer) drain(ctx context.Context) int {
	entries, err := d.queue.FetchPending(ctx, d.batchSize, d.maxAttempts)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return 0
	}

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return delivered
		}
		if err := d.handler.Handle(ctx, entry); err != nil {
			logArgs := []any{"error", err, "event_id", entry.ID, "type", entry.Type, "attempt", entry.Attempts + 1}
			if entry.Attempts+1 >= d.maxAttempts {
				d.logger.Error("outbox delivery abandoned", logArgs...)
			} else {
				d.logger.Warn("outbox delivery failed", logArgs...)
			}
			if markErr := d.queue.MarkFailed(ctx, entry.ID, err); markErr != nil {
				d.logger.Error("failed to record outbox failure", "error", markErr, "event_id", entry.ID)
			}
			continue
		}
		ok, err := d.queue.MarkDelivered(ctx, entry.ID)
		if err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "event_id", entry.ID)
			continue
		}
		if ok {
			delivered++
		}
	}
	if delivered > 0 {
		d.logger.Debug("outbox batch delivered", "delivered", delivered, "fetched", len(entries))
	}
	return delivered
}
