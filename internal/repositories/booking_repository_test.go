package repositories

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

func newBooking(id string) models.Booking {
	return models.Booking{
		ID:          id,
		Name:        "Ada",
		Email:       "ada@example.com",
		Address:     "123 Main St",
		Supplies:    models.Supplies{Box: true},
		AmountCents: 1300,
		Status:      models.BookingStatusPending,
		CreatedAt:   time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileBookingStoreCreatesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bookings.json")

	store, err := NewFileBookingStore(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileBookingStoreKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"b1","address":"x","status":"paid"}]`), 0o644))

	store, err := NewFileBookingStore(path)
	require.NoError(t, err)

	b, err := store.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPaid, b.Status)
}

func TestFileBookingStoreCreateListGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBookingStore(filepath.Join(t.TempDir(), "bookings.json"))
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, newBooking("b1")))
	require.NoError(t, store.Create(ctx, newBooking("b2")))
	require.Error(t, store.Create(ctx, newBooking("b1")))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b1", all[0].ID)
	assert.Equal(t, "b2", all[1].ID)

	got, err := store.Get(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, newBooking("b2"), got)

	_, err = store.Get(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestFileBookingStoreMarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBookingStore(filepath.Join(t.TempDir(), "bookings.json"))
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, newBooking("b1")))

	first := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	b, changed, err := store.MarkPaid(ctx, "b1", first)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.BookingStatusPaid, b.Status)
	require.NotNil(t, b.PaidAt)
	assert.True(t, b.PaidAt.Equal(first))

	b, changed, err = store.MarkPaid(ctx, "b1", first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, b.PaidAt.Equal(first), "paidAt must not move on replay")

	_, _, err = store.MarkPaid(ctx, "missing", first)
	assert.True(t, domain.IsNotFound(err))
}

func TestFileBookingStoreConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBookingStore(filepath.Join(t.TempDir(), "bookings.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Create(ctx, newBooking(string(rune('a'+i)))))
		}(i)
	}
	wg.Wait()

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestFileEventLedger(t *testing.T) {
	ctx := context.Background()
	ledger, err := NewFileEventLedger(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)

	seen, err := ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	ev := models.ProcessedEvent{ID: "evt_1", Type: models.EventPaymentSucceeded, ProcessedAt: time.Now().UTC()}
	require.NoError(t, ledger.Record(ctx, ev))
	require.NoError(t, ledger.Record(ctx, ev))

	seen, err = ledger.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	all, err := ledger.load()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
