package warstats

import (
	"sort"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

const (
	// MaxStarsPerDay is two offense actions worth up to three stars each.
	MaxStarsPerDay       = 6
	OffenseActionsPerDay = 2
	StarsPerOffense      = 3
)

// DailyPerformance is one Primary day in a participant's history.
type DailyPerformance struct {
	Date         string `json:"date"`
	Stars        int    `json:"stars"`
	Opponent     string `json:"opponent"`
	OffenseLabel string `json:"offense_label"`
}

// AggregatedPlayerStats is derived on demand from a run of snapshots.
type AggregatedPlayerStats struct {
	TotalStars               int                `json:"total_stars"`
	DaysAsPrimary            int                `json:"days_as_primary"`
	SuccessfulOffenseActions int                `json:"successful_offense_actions"`
	TotalOffenseActions      int                `json:"total_offense_actions"`
	SuccessRate              float64            `json:"success_rate"`
	OffenseSuccessRate       float64            `json:"offense_success_rate"`
	AvgStarsPerDay           float64            `json:"avg_stars_per_day"`
	DailyPerformances        []DailyPerformance `json:"daily_performances"`
}

// MaxPossibleStars is the star ceiling for the counted Primary days.
func (s AggregatedPlayerStats) MaxPossibleStars() int {
	return s.DaysAsPrimary * MaxStarsPerDay
}

// RankedPlayer pairs a participant's latest identity with their stats.
type RankedPlayer struct {
	ID      participant.ID `json:"id"`
	Name    string         `json:"name"`
	Mention string         `json:"mention"`
	AggregatedPlayerStats
}

// DailyRow is one line of a single-day report.
type DailyRow struct {
	Date         string           `json:"date"`
	Opponent     string           `json:"opponent"`
	ID           participant.ID   `json:"id"`
	Name         string           `json:"name"`
	Role         participant.Role `json:"role"`
	Stars        int              `json:"stars"`
	OffenseLabel string           `json:"offense_label"`
	SuccessRate  float64          `json:"success_rate"`
}

func SuccessRate(stars, maxStars int) float64 {
	if maxStars <= 0 {
		return 0
	}
	return float64(stars) / float64(maxStars) * 100
}

// SuccessfulOffenses is ceil(stars/3) clamped to the daily offense count.
func SuccessfulOffenses(stars int) int {
	if stars <= 0 {
		return 0
	}
	n := (stars + StarsPerOffense - 1) / StarsPerOffense
	if n > OffenseActionsPerDay {
		return OffenseActionsPerDay
	}
	return n
}

func OffenseSuccessLabel(stars int) string {
	switch SuccessfulOffenses(stars) {
	case 0:
		return "0/2"
	case 1:
		return "1/2"
	default:
		return "2/2"
	}
}

// PlayerStats aggregates one participant over snapshots. Only days captured as
// Primary count; Reserve days are excluded from every total and denominator.
func PlayerStats(snapshots []snapshot.DailySnapshot, id participant.ID) AggregatedPlayerStats {
	stats := AggregatedPlayerStats{
		DailyPerformances: make([]DailyPerformance, 0),
	}

	for _, day := range snapshots {
		for _, item := range day.Participants {
			if item.ID != id || item.Role != participant.RolePrimary {
				continue
			}

			stats.DaysAsPrimary++
			stats.TotalStars += item.Stars
			stats.SuccessfulOffenseActions += SuccessfulOffenses(item.Stars)
			stats.TotalOffenseActions += OffenseActionsPerDay
			stats.DailyPerformances = append(stats.DailyPerformances, DailyPerformance{
				Date:         day.Date,
				Stars:        item.Stars,
				Opponent:     day.OpponentName,
				OffenseLabel: OffenseSuccessLabel(item.Stars),
			})
		}
	}

	stats.SuccessRate = SuccessRate(stats.TotalStars, stats.MaxPossibleStars())
	stats.OffenseSuccessRate = SuccessRate(stats.SuccessfulOffenseActions, stats.TotalOffenseActions)
	if stats.DaysAsPrimary > 0 {
		stats.AvgStarsPerDay = float64(stats.TotalStars) / float64(stats.DaysAsPrimary)
	}

	return stats
}

// RankAll computes stats for every participant seen in snapshots and sorts them
// by success rate then total stars, both descending. Ties keep first-appearance
// order. Name and mention come from the latest snapshot the participant is in.
func RankAll(snapshots []snapshot.DailySnapshot) []RankedPlayer {
	order := make([]participant.ID, 0)
	latest := make(map[participant.ID]snapshot.ParticipantSummary)
	for _, day := range snapshots {
		for _, item := range day.Participants {
			if _, seen := latest[item.ID]; !seen {
				order = append(order, item.ID)
			}
			latest[item.ID] = item
		}
	}

	out := make([]RankedPlayer, 0, len(order))
	for _, id := range order {
		info := latest[id]
		out = append(out, RankedPlayer{
			ID:                    id,
			Name:                  info.Name,
			Mention:               info.Mention,
			AggregatedPlayerStats: PlayerStats(snapshots, id),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SuccessRate != out[j].SuccessRate {
			return out[i].SuccessRate > out[j].SuccessRate
		}
		return out[i].TotalStars > out[j].TotalStars
	})

	return out
}

// DailyRows flattens one snapshot into report rows. Reserve rows carry a zero
// success rate since a Reserve has no star ceiling that day.
func DailyRows(day snapshot.DailySnapshot) []DailyRow {
	rows := make([]DailyRow, 0, len(day.Participants))
	for _, item := range day.Participants {
		maxStars := 0
		if item.Role == participant.RolePrimary {
			maxStars = MaxStarsPerDay
		}
		rows = append(rows, DailyRow{
			Date:         day.Date,
			Opponent:     day.OpponentName,
			ID:           item.ID,
			Name:         item.Name,
			Role:         item.Role,
			Stars:        item.Stars,
			OffenseLabel: OffenseSuccessLabel(item.Stars),
			SuccessRate:  SuccessRate(item.Stars, maxStars),
		})
	}
	return rows
}

// Standing is a ranked row of a season overview.
type Standing struct {
	Rank             int `json:"rank"`
	MaxPossibleStars int `json:"max_possible_stars"`
	RankedPlayer
}

func Standings(ranked []RankedPlayer) []Standing {
	out := make([]Standing, 0, len(ranked))
	for i, player := range ranked {
		out = append(out, Standing{
			Rank:             i + 1,
			MaxPossibleStars: player.MaxPossibleStars(),
			RankedPlayer:     player,
		})
	}
	return out
}
