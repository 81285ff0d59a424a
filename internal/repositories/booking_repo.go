package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	intdb "github.com/aw226929-cmd/iturnin-backend/internal/db"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

const bookingsDDL = `
CREATE TABLE IF NOT EXISTS bookings (
	seq BIGINT AUTO_INCREMENT PRIMARY KEY,
	id CHAR(36) NOT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	email VARCHAR(255) NOT NULL DEFAULT '',
	phone VARCHAR(64) NOT NULL DEFAULT '',
	address VARCHAR(500) NOT NULL,
	pickup_time VARCHAR(64) NULL,
	notes TEXT NULL,
	supply_box TINYINT(1) NOT NULL DEFAULT 0,
	supply_mailer TINYINT(1) NOT NULL DEFAULT 0,
	supply_tape TINYINT(1) NOT NULL DEFAULT 0,
	supply_label TINYINT(1) NOT NULL DEFAULT 0,
	extra JSON NULL,
	distance_miles DOUBLE NOT NULL DEFAULT 0,
	supplies_cents BIGINT NOT NULL DEFAULT 0,
	amount_cents BIGINT NOT NULL,
	payment_intent_id VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	paid_at DATETIME(6) NULL,
	UNIQUE KEY uniq_booking_id (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`

const bookingColumns = `id, name, email, phone, address, pickup_time, notes,
	supply_box, supply_mailer, supply_tape, supply_label, extra,
	distance_miles, supplies_cents, amount_cents, payment_intent_id, status, created_at, paid_at`

type bookingRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Email           string         `db:"email"`
	Phone           string         `db:"phone"`
	Address         string         `db:"address"`
	PickupTime      sql.NullString `db:"pickup_time"`
	Notes           sql.NullString `db:"notes"`
	SupplyBox       bool           `db:"supply_box"`
	SupplyMailer    bool           `db:"supply_mailer"`
	SupplyTape      bool           `db:"supply_tape"`
	SupplyLabel     bool           `db:"supply_label"`
	Extra           sql.NullString `db:"extra"`
	DistanceMiles   float64        `db:"distance_miles"`
	SuppliesCents   int64          `db:"supplies_cents"`
	AmountCents     int64          `db:"amount_cents"`
	PaymentIntentID string         `db:"payment_intent_id"`
	Status          string         `db:"status"`
	CreatedAt       time.Time      `db:"created_at"`
	PaidAt          sql.NullTime   `db:"paid_at"`
}

func (r bookingRow) toModel() (models.Booking, error) {
	b := models.Booking{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Address:         r.Address,
		Notes:           r.Notes.String,
		Supplies:        models.Supplies{Box: r.SupplyBox, Mailer: r.SupplyMailer, Tape: r.SupplyTape, Label: r.SupplyLabel},
		DistanceMiles:   r.DistanceMiles,
		SuppliesCents:   r.SuppliesCents,
		AmountCents:     r.AmountCents,
		PaymentIntentID: r.PaymentIntentID,
		Status:          models.BookingStatus(r.Status),
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.PickupTime.Valid {
		v := r.PickupTime.String
		b.PickupTime = &v
	}
	if r.PaidAt.Valid {
		v := r.PaidAt.Time.UTC()
		b.PaidAt = &v
	}
	if r.Extra.Valid && r.Extra.String != "" {
		if err := json.Unmarshal([]byte(r.Extra.String), &b.Extra); err != nil {
			return models.Booking{}, fmt.Errorf("decode extra for booking %s: %w", r.ID, err)
		}
	}
	return b, nil
}

func rowFromModel(b models.Booking) (bookingRow, error) {
	r := bookingRow{
		ID:              b.ID,
		Name:            b.Name,
		Email:           b.Email,
		Phone:           b.Phone,
		Address:         b.Address,
		Notes:           sql.NullString{String: b.Notes, Valid: b.Notes != ""},
		SupplyBox:       b.Supplies.Box,
		SupplyMailer:    b.Supplies.Mailer,
		SupplyTape:      b.Supplies.Tape,
		SupplyLabel:     b.Supplies.Label,
		DistanceMiles:   b.DistanceMiles,
		SuppliesCents:   b.SuppliesCents,
		AmountCents:     b.AmountCents,
		PaymentIntentID: b.PaymentIntentID,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt.UTC(),
	}
	if b.PickupTime != nil {
		r.PickupTime = sql.NullString{String: *b.PickupTime, Valid: true}
	}
	if b.PaidAt != nil {
		r.PaidAt = sql.NullTime{Time: b.PaidAt.UTC(), Valid: true}
	}
	if len(b.Extra) > 0 {
		raw, err := json.Marshal(b.Extra)
		if err != nil {
			return bookingRow{}, err
		}
		r.Extra = sql.NullString{String: string(raw), Valid: true}
	}
	return r, nil
}

// MySQLBookingStore stores bookings one row per booking; the paid transition is a single
// conditional UPDATE, so concurrent webhooks cannot lose each other's writes.
type MySQLBookingStore struct {
	DB *sqlx.DB
}

// EnsureSchema creates the bookings table when missing and adds columns that older tables lack.
func (r MySQLBookingStore) EnsureSchema(ctx context.Context) error {
	if err := intdb.EnsureTable(ctx, r.DB, "bookings", bookingsDDL); err != nil {
		return fmt.Errorf("ensure bookings table: %w", err)
	}
	if err := intdb.EnsureColumn(ctx, r.DB, "bookings", "supplies_cents", "BIGINT NOT NULL DEFAULT 0 AFTER distance_miles"); err != nil {
		return fmt.Errorf("ensure bookings.supplies_cents: %w", err)
	}
	return nil
}

func (r MySQLBookingStore) List(ctx context.Context) ([]models.Booking, error) {
	var rows []bookingRow
	q := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY seq ASC`
	if err := r.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	out := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r MySQLBookingStore) Get(ctx context.Context, id string) (models.Booking, error) {
	var row bookingRow
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=? LIMIT 1`
	if err := r.DB.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking", ID: id, Err: err}
		}
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return row.toModel()
}

func (r MySQLBookingStore) Create(ctx context.Context, b models.Booking) error {
	row, err := rowFromModel(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}

	q := `INSERT INTO bookings (` + bookingColumns + `) VALUES (
		:id, :name, :email, :phone, :address, :pickup_time, :notes,
		:supply_box, :supply_mailer, :supply_tape, :supply_label, :extra,
		:distance_miles, :supplies_cents, :amount_cents, :payment_intent_id, :status, :created_at, :paid_at)`
	if _, err := r.DB.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r MySQLBookingStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Booking, bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status=?, paid_at=? WHERE id=? AND status=?`,
		string(models.BookingStatusPaid), paidAt.UTC(), id, string(models.BookingStatusPending),
	)
	if err != nil {
		return models.Booking{}, false, fmt.Errorf("mark booking paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Booking{}, false, fmt.Errorf("mark booking paid rows affected: %w", err)
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		return models.Booking{}, false, err
	}
	return b, affected > 0, nil
}
