package snapshot

import "context"

// Repository is the append-only log of frozen war days keyed by date.
// Save returns ErrDuplicateSnapshot when the date is already stored.
// LoadRange is inclusive and ordered by date ascending.
type Repository interface {
	Save(ctx context.Context, snap DailySnapshot) error
	Load(ctx context.Context, date string) (DailySnapshot, bool, error)
	LoadRange(ctx context.Context, startDate, endDate string) ([]DailySnapshot, error)
	Delete(ctx context.Context, date string) (bool, error)
}
