package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

type SnapshotRepository struct {
	mu    sync.RWMutex
	items map[string]snapshot.DailySnapshot
}

func NewSnapshotRepository(seed ...snapshot.DailySnapshot) *SnapshotRepository {
	items := make(map[string]snapshot.DailySnapshot, len(seed))
	for _, item := range seed {
		items[item.Date] = item.Clone()
	}

	return &SnapshotRepository{items: items}
}

func (r *SnapshotRepository) Save(_ context.Context, snap snapshot.DailySnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[snap.Date]; exists {
		return fmt.Errorf("%w: %s", snapshot.ErrDuplicateSnapshot, snap.Date)
	}
	r.items[snap.Date] = snap.Clone()
	return nil
}

func (r *SnapshotRepository) Load(_ context.Context, date string) (snapshot.DailySnapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[date]
	if !ok {
		return snapshot.DailySnapshot{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *SnapshotRepository) LoadRange(_ context.Context, startDate, endDate string) ([]snapshot.DailySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]snapshot.DailySnapshot, 0)
	for date, item := range r.items {
		if date >= startDate && date <= endDate {
			out = append(out, item.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})

	return out, nil
}

func (r *SnapshotRepository) Delete(_ context.Context, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[date]; !ok {
		return false, nil
	}
	delete(r.items, date)
	return true, nil
}
