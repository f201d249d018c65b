package passcode

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.Mutex
	records []Record // insertion order; newest records appended last
}

// NewMemoryRepository builds an in-memory passcode store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, userID, code string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *memoryRepository) FindUnused(_ context.Context, userID, code string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.Used || rec.Code != code {
			continue
		}
		if userID != "" && rec.UserID != userID {
			continue
		}
		return rec, nil
	}
	return Record{}, ErrCodeNotFound
}

func (r *memoryRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			if r.records[i].Used {
				return ErrCodeNotFound
			}
			r.records[i].Used = true
			return nil
		}
	}
	return ErrCodeNotFound
}
