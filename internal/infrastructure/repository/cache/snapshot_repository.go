package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	basecache "github.com/riskibarqy/guild-war-tracker/internal/platform/cache"
)

const (
	dateKeyPrefix  = "snapshot:date:"
	rangeKeyPrefix = "snapshot:range:"
)

// SnapshotRepository is a read-through cache in front of another snapshot
// repository. Writes go straight to next and invalidate affected keys.
type SnapshotRepository struct {
	next   snapshot.Repository
	byDate *basecache.Store[cachedSnapshotByDate]
	ranges *basecache.Store[[]snapshot.DailySnapshot]
}

type cachedSnapshotByDate struct {
	value  snapshot.DailySnapshot
	exists bool
}

func NewSnapshotRepository(next snapshot.Repository, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{
		next:   next,
		byDate: basecache.NewStore[cachedSnapshotByDate](ttl),
		ranges: basecache.NewStore[[]snapshot.DailySnapshot](ttl),
	}
}

func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.DailySnapshot) error {
	if err := r.next.Save(ctx, snap); err != nil {
		return err
	}
	r.invalidate(ctx, snap.Date)
	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context, date string) (snapshot.DailySnapshot, bool, error) {
	cached, err := r.byDate.GetOrLoad(ctx, dateKeyPrefix+date, func(ctx context.Context) (cachedSnapshotByDate, error) {
		item, exists, err := r.next.Load(ctx, date)
		if err != nil {
			return cachedSnapshotByDate{}, err
		}
		return cachedSnapshotByDate{value: item, exists: exists}, nil
	})
	if err != nil {
		return snapshot.DailySnapshot{}, false, err
	}
	if !cached.exists {
		return snapshot.DailySnapshot{}, false, nil
	}
	return cached.value.Clone(), true, nil
}

func (r *SnapshotRepository) LoadRange(ctx context.Context, startDate, endDate string) ([]snapshot.DailySnapshot, error) {
	key := rangeKeyPrefix + startDate + ":" + endDate
	items, err := r.ranges.GetOrLoad(ctx, key, func(ctx context.Context) ([]snapshot.DailySnapshot, error) {
		return r.next.LoadRange(ctx, startDate, endDate)
	})
	if err != nil {
		return nil, err
	}

	out := make([]snapshot.DailySnapshot, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, date string) (bool, error) {
	deleted, err := r.next.Delete(ctx, date)
	if err != nil {
		return false, err
	}
	r.invalidate(ctx, date)
	return deleted, nil
}

func (r *SnapshotRepository) invalidate(ctx context.Context, date string) {
	r.byDate.Delete(ctx, dateKeyPrefix+date)
	r.ranges.DeletePrefix(ctx, rangeKeyPrefix)
}
