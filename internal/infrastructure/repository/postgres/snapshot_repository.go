package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	qb "github.com/riskibarqy/guild-war-tracker/internal/platform/querybuilder"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/resilience"
)

var snapshotColumns = []string{"snapshot_date", "opponent_name", "participants", "created_at"}

// SnapshotRepository stores one row per war day. Every call passes through a
// circuit breaker; duplicates and missing rows do not count as failures.
type SnapshotRepository struct {
	db      *sqlx.DB
	breaker *resilience.CircuitBreaker
}

func NewSnapshotRepository(db *sqlx.DB, breakerCfg resilience.CircuitBreakerConfig) *SnapshotRepository {
	return &SnapshotRepository{
		db:      db,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
	}
}

// Breaker exposes the breaker so callers can observe state changes.
func (r *SnapshotRepository) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}

func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.DailySnapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}

	insertModel, err := newSnapshotInsertModel(snap)
	if err != nil {
		return err
	}
	query, args, err := qb.InsertModel(snapshotTable, insertModel, "ON CONFLICT (snapshot_date) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}

	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert snapshot rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", snapshot.ErrDuplicateSnapshot, snap.Date)
		}
		return nil
	}, isExpected)
}

func (r *SnapshotRepository) Load(ctx context.Context, date string) (snapshot.DailySnapshot, bool, error) {
	query, args, err := qb.Select(snapshotColumns...).
		From(snapshotTable).
		Where(qb.Eq("snapshot_date", date)).
		ToSQL()
	if err != nil {
		return snapshot.DailySnapshot{}, false, fmt.Errorf("build get snapshot query: %w", err)
	}

	var row snapshotTableModel
	found := true
	err = r.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
			if isNotFound(err) {
				found = false
				return nil
			}
			return fmt.Errorf("get snapshot: %w", err)
		}
		return nil
	}, isExpected)
	if err != nil || !found {
		return snapshot.DailySnapshot{}, false, err
	}

	out, err := row.toDomain()
	if err != nil {
		return snapshot.DailySnapshot{}, false, err
	}
	return out, true, nil
}

func (r *SnapshotRepository) LoadRange(ctx context.Context, startDate, endDate string) ([]snapshot.DailySnapshot, error) {
	query, args, err := qb.Select(snapshotColumns...).
		From(snapshotTable).
		Where(qb.Between("snapshot_date", startDate, endDate)).
		OrderBy("snapshot_date ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list snapshots query: %w", err)
	}

	var rows []snapshotTableModel
	err = r.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		return nil
	}, isExpected)
	if err != nil {
		return nil, err
	}

	out := make([]snapshot.DailySnapshot, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, date string) (bool, error) {
	query, args, err := qb.DeleteFrom(snapshotTable).
		Where(qb.Eq("snapshot_date", date)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete snapshot query: %w", err)
	}

	var deleted bool
	err = r.breaker.Execute(ctx, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete snapshot: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete snapshot rows affected: %w", err)
		}
		deleted = affected > 0
		return nil
	}, isExpected)

	return deleted, err
}

func isExpected(err error) bool {
	return errors.Is(err, snapshot.ErrDuplicateSnapshot)
}
