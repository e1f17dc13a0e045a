package warstats

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

var (
	ErrNoData        = errors.New("no snapshot in report window")
	ErrInvalidWindow = errors.New("invalid report window")
)

// WindowKind selects how many days a report covers.
type WindowKind string

const (
	WindowDay    WindowKind = "day"
	WindowWeek   WindowKind = "week"
	WindowSeason WindowKind = "season"
)

const (
	WeekDays   = 6
	SeasonDays = 12
	// SeasonCycleDays is a season followed by the seven-day rest period.
	SeasonCycleDays = 19
)

// WindowKinds lists kinds from the shortest window to the longest.
var WindowKinds = []WindowKind{WindowDay, WindowWeek, WindowSeason}

func ParseWindowKind(raw string) (WindowKind, error) {
	kind := WindowKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := kind.days(); err != nil {
		return "", err
	}
	return kind, nil
}

func (k WindowKind) days() (int, error) {
	switch k {
	case WindowDay:
		return 1, nil
	case WindowWeek:
		return WeekDays, nil
	case WindowSeason:
		return SeasonDays, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidWindow, k)
	}
}

// Window is an inclusive calendar date range.
type Window struct {
	Kind  WindowKind
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from its first day. Week and season windows must
// start on a Monday.
func NewWindow(kind WindowKind, start time.Time) (Window, error) {
	days, err := kind.days()
	if err != nil {
		return Window{}, err
	}

	start = truncateDay(start)
	if kind != WindowDay && start.Weekday() != time.Monday {
		return Window{}, fmt.Errorf("%w: %s window must start on a Monday, got %s", ErrInvalidWindow, kind, start.Weekday())
	}

	return Window{
		Kind:  kind,
		Start: start,
		End:   start.AddDate(0, 0, days-1),
	}, nil
}

func (w Window) StartDate() string {
	return snapshot.FormatDate(w.Start)
}

func (w Window) EndDate() string {
	return snapshot.FormatDate(w.End)
}

func (w Window) Contains(date string) bool {
	return date >= w.StartDate() && date <= w.EndDate()
}

// SeasonStartFor returns the most recent Monday on or before t.
func SeasonStartFor(t time.Time) time.Time {
	day := truncateDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// SeasonDates returns the first and last day of the season that starts on the
// most recent Monday.
func SeasonDates(now time.Time) (time.Time, time.Time) {
	start := SeasonStartFor(now)
	return start, start.AddDate(0, 0, SeasonDays-1)
}

// NextSeasonStart skips the remainder of the season and the rest period,
// then moves forward to the next Monday so the result is a valid season start.
func NextSeasonStart(start time.Time) time.Time {
	next := truncateDay(start).AddDate(0, 0, SeasonCycleDays)
	return next.AddDate(0, 0, (8-int(next.Weekday()))%7)
}

// AdvanceSeasonStart returns the season start that applies after day has been
// recorded. Each season whose last day is on or before day is skipped, so a
// missed final day still moves the cycle on. A zero start stays zero.
func AdvanceSeasonStart(start, day time.Time) time.Time {
	if start.IsZero() {
		return start
	}
	day = truncateDay(day)
	start = truncateDay(start)
	for !day.Before(start.AddDate(0, 0, SeasonDays-1)) {
		start = NextSeasonStart(start)
	}
	return start
}

// DueWindows lists the windows that close on day. A day window always closes.
// A week window closes on Saturday, the sixth day after its Monday. A season
// window closes on its twelfth day, which needs a known season start.
func DueWindows(day time.Time, seasonStart time.Time) []Window {
	day = truncateDay(day)
	out := []Window{{Kind: WindowDay, Start: day, End: day}}

	if day.Weekday() == time.Saturday {
		if week, err := NewWindow(WindowWeek, day.AddDate(0, 0, -(WeekDays-1))); err == nil {
			out = append(out, week)
		}
	}

	if !seasonStart.IsZero() {
		season, err := NewWindow(WindowSeason, seasonStart)
		if err == nil && season.End.Equal(day) {
			out = append(out, season)
		}
	}

	return out
}

// Report is a report-ready rollup; rendering and export happen elsewhere.
type Report struct {
	Kind        WindowKind               `json:"kind"`
	WindowStart string                   `json:"window_start"`
	WindowEnd   string                   `json:"window_end"`
	PerDay      []snapshot.DailySnapshot `json:"per_day"`
	Ranked      []RankedPlayer           `json:"ranked"`
	DailyRows   []DailyRow               `json:"daily_rows,omitempty"`
}

// Aggregate selects the snapshots inside window in date order and ranks them.
// Missing days contribute nothing; an empty selection is ErrNoData.
func Aggregate(window Window, snapshots []snapshot.DailySnapshot) (Report, error) {
	selected := make([]snapshot.DailySnapshot, 0, len(snapshots))
	for _, day := range snapshots {
		if window.Contains(day.Date) {
			selected = append(selected, day)
		}
	}
	if len(selected) == 0 {
		return Report{}, fmt.Errorf("%w: %s %s..%s", ErrNoData, window.Kind, window.StartDate(), window.EndDate())
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date < selected[j].Date
	})

	report := Report{
		Kind:        window.Kind,
		WindowStart: window.StartDate(),
		WindowEnd:   window.EndDate(),
		PerDay:      selected,
		Ranked:      RankAll(selected),
	}
	if window.Kind == WindowDay {
		report.DailyRows = DailyRows(selected[0])
	}

	return report, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
