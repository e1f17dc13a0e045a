package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/valyala/bytebufferpool"
)

const (
	dailyDir   = "daily"
	fileSuffix = ".json"
)

// SnapshotRepository keeps one pretty-printed JSON document per day under
// <root>/daily/<YYYY-MM-DD>.json. Writes go to a temp file and are renamed into
// place so a reader never sees a partial document.
type SnapshotRepository struct {
	mu  sync.Mutex
	dir string
}

func NewSnapshotRepository(root string) (*SnapshotRepository, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, crerr.New("snapshot directory is required")
	}

	dir := filepath.Join(root, dailyDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, crerr.Wrapf(err, "create snapshot directory %s", dir)
	}

	return &SnapshotRepository{dir: dir}, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, snap snapshot.DailySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return crerr.Wrap(err, "validate snapshot")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.path(snap.Date)
	if _, err := os.Stat(target); err == nil {
		return crerr.Wrapf(snapshot.ErrDuplicateSnapshot, "%s", snap.Date)
	} else if !os.IsNotExist(err) {
		return crerr.Wrapf(err, "stat snapshot %s", snap.Date)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	enc := sonic.ConfigStd.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return crerr.Wrap(err, "encode snapshot")
	}

	tmp, err := os.CreateTemp(r.dir, "."+snap.Date+"-*.tmp")
	if err != nil {
		return crerr.Wrap(err, "create temp snapshot file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		return crerr.Wrapf(err, "write snapshot %s", snap.Date)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return crerr.Wrapf(err, "sync snapshot %s", snap.Date)
	}
	if err := tmp.Close(); err != nil {
		return crerr.Wrapf(err, "close snapshot %s", snap.Date)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return crerr.Wrapf(err, "publish snapshot %s", snap.Date)
	}

	return nil
}

func (r *SnapshotRepository) Load(ctx context.Context, date string) (snapshot.DailySnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.DailySnapshot{}, false, err
	}
	if _, err := snapshot.ParseDate(date); err != nil {
		return snapshot.DailySnapshot{}, false, crerr.Wrap(err, "load snapshot")
	}

	raw, err := os.ReadFile(r.path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot.DailySnapshot{}, false, nil
		}
		return snapshot.DailySnapshot{}, false, crerr.Wrapf(err, "read snapshot %s", date)
	}

	var out snapshot.DailySnapshot
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return snapshot.DailySnapshot{}, false, crerr.Wrapf(err, "decode snapshot %s", date)
	}
	return out, true, nil
}

// LoadRange reads the dates present on disk between startDate and endDate.
func (r *SnapshotRepository) LoadRange(ctx context.Context, startDate, endDate string) ([]snapshot.DailySnapshot, error) {
	dates, err := r.listDates()
	if err != nil {
		return nil, err
	}

	out := make([]snapshot.DailySnapshot, 0)
	for _, date := range dates {
		if date < startDate || date > endDate {
			continue
		}
		item, ok, err := r.Load(ctx, date)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, date string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := snapshot.ParseDate(date); err != nil {
		return false, crerr.Wrap(err, "delete snapshot")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path(date)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, crerr.Wrapf(err, "remove snapshot %s", date)
	}
	return true, nil
}

func (r *SnapshotRepository) path(date string) string {
	return filepath.Join(r.dir, date+fileSuffix)
}

func (r *SnapshotRepository) listDates() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, crerr.Wrap(err, "list snapshot directory")
	}

	dates := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date := strings.TrimSuffix(name, fileSuffix)
		if _, err := snapshot.ParseDate(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
