package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	intdb "github.com/aw226929-cmd/iturnin-backend/internal/db"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

// EventLedger remembers which payment processor events were already handled,
// keyed by the processor's event id.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, ev models.ProcessedEvent) error
}

type FileEventLedger struct {
	path string
	mu   sync.Mutex
}

func NewFileEventLedger(path string) (*FileEventLedger, error) {
	if err := ensureJSONArrayFile(path); err != nil {
		return nil, fmt.Errorf("init event ledger file: %w", err)
	}
	return &FileEventLedger{path: path}, nil
}

func (l *FileEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load()
	if err != nil {
		return false, err
	}
	for _, e := range all {
		if e.ID == eventID {
			return true, nil
		}
	}
	return false, nil
}

// Record is a no-op for an id that is already present.
func (l *FileEventLedger) Record(ctx context.Context, ev models.ProcessedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.load()
	if err != nil {
		return err
	}
	for _, e := range all {
		if e.ID == ev.ID {
			return nil
		}
	}
	if err := writeJSONFile(l.path, append(all, ev)); err != nil {
		return fmt.Errorf("write event ledger: %w", err)
	}
	return nil
}

func (l *FileEventLedger) load() ([]models.ProcessedEvent, error) {
	var out []models.ProcessedEvent
	if err := readJSONFile(l.path, &out); err != nil {
		return nil, fmt.Errorf("read event ledger: %w", err)
	}
	return out, nil
}

const stripeEventsDDL = `
CREATE TABLE IF NOT EXISTS stripe_events (
	id VARCHAR(255) NOT NULL PRIMARY KEY,
	type VARCHAR(100) NOT NULL,
	processed_at DATETIME(6) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

type MySQLEventLedger struct {
	DB *sqlx.DB
}

func (r MySQLEventLedger) EnsureSchema(ctx context.Context) error {
	if err := intdb.EnsureTable(ctx, r.DB, "stripe_events", stripeEventsDDL); err != nil {
		return fmt.Errorf("ensure stripe_events table: %w", err)
	}
	return nil
}

func (r MySQLEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	var id string
	err := r.DB.GetContext(ctx, &id, `SELECT id FROM stripe_events WHERE id=? LIMIT 1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup stripe event: %w", err)
	}
	return true, nil
}

func (r MySQLEventLedger) Record(ctx context.Context, ev models.ProcessedEvent) error {
	at := ev.ProcessedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO stripe_events (id, type, processed_at) VALUES (?, ?, ?)`,
		ev.ID, ev.Type, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record stripe event: %w", err)
	}
	return nil
}
