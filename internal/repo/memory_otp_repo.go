package repo

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/easyledger/internal/model"
	appErr "github.com/xxxsen/easyledger/internal/pkg/errors"
)

// MemoryOtpRepo keeps records in process. It follows the same contract as
// OtpRepo and is meant for local runs and tests.
type MemoryOtpRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []*model.OtpRecord
}

func NewMemoryOtpRepo() *MemoryOtpRepo {
	return &MemoryOtpRepo{}
}

func (r *MemoryOtpRepo) Create(_ context.Context, rec *model.OtpRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	stored := *rec
	r.records = append(r.records, &stored)
	return nil
}

func (r *MemoryOtpRepo) FindLatest(_ context.Context, email, code string) (*model.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.Email == email && rec.Code == code {
			out := *rec
			return &out, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (r *MemoryOtpRepo) GetByID(_ context.Context, id int64) (*model.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.findLocked(id); rec != nil {
		out := *rec
		return &out, nil
	}
	return nil, appErr.ErrNotFound
}

func (r *MemoryOtpRepo) Consume(_ context.Context, id int64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.findLocked(id)
	if rec == nil || rec.Used || rec.Expired(now) {
		return false, nil
	}
	rec.Used = true
	return true, nil
}

func (r *MemoryOtpRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.ExpiresAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(r.records); i++ {
		r.records[i] = nil
	}
	r.records = kept
	return removed, nil
}

func (r *MemoryOtpRepo) Ping(context.Context) error {
	return nil
}

func (r *MemoryOtpRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// findLocked relies on ids being appended in increasing order.
func (r *MemoryOtpRepo) findLocked(id int64) *model.OtpRecord {
	lo, hi := 0, len(r.records)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case r.records[mid].ID == id:
			return r.records[mid]
		case r.records[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return nil
}
