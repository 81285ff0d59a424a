package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

// BookingStore persists bookings.
type BookingStore interface {
	List(ctx context.Context) ([]models.Booking, error)
	Get(ctx context.Context, id string) (models.Booking, error)
	Create(ctx context.Context, b models.Booking) error
	// MarkPaid moves a pending booking to paid. The bool reports whether this call made the
	// transition; an already-paid booking is returned unchanged with false.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Booking, bool, error)
}

// FileBookingStore keeps the whole booking collection in one JSON array file.
// Every mutation rewrites the file; mu serializes read-modify-write cycles in this process.
type FileBookingStore struct {
	path string
	mu   sync.Mutex
}

// NewFileBookingStore creates the file with an empty array when it does not exist yet.
func NewFileBookingStore(path string) (*FileBookingStore, error) {
	if err := ensureJSONArrayFile(path); err != nil {
		return nil, fmt.Errorf("init booking file: %w", err)
	}
	return &FileBookingStore{path: path}, nil
}

func (s *FileBookingStore) List(ctx context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileBookingStore) Get(ctx context.Context, id string) (models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return models.Booking{}, err
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking", ID: id}
}

func (s *FileBookingStore) Create(ctx context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if indexOf(all, b.ID) >= 0 {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	return s.save(append(all, b))
}

func (s *FileBookingStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Booking, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return models.Booking{}, false, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return models.Booking{}, false, domain.NotFoundError{Resource: "booking", ID: id}
	}
	if all[i].IsPaid() {
		return all[i], false, nil
	}

	at := paidAt.UTC()
	all[i].Status = models.BookingStatusPaid
	all[i].PaidAt = &at
	if err := s.save(all); err != nil {
		return models.Booking{}, false, err
	}
	return all[i], true, nil
}

func (s *FileBookingStore) load() ([]models.Booking, error) {
	var out []models.Booking
	if err := readJSONFile(s.path, &out); err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}
	if out == nil {
		out = []models.Booking{}
	}
	return out, nil
}

func (s *FileBookingStore) save(all []models.Booking) error {
	if err := writeJSONFile(s.path, all); err != nil {
		return fmt.Errorf("write bookings: %w", err)
	}
	return nil
}

func indexOf(all []models.Booking, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

func ensureJSONArrayFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte("[]\n"), 0o644)
}

func readJSONFile(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// writeJSONFile replaces path atomically: a crash mid-write leaves the previous file intact.
func writeJSONFile(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
