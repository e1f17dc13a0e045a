package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
)

// DateLayout is the ISO-8601 calendar date used as the snapshot key.
const DateLayout = "2006-01-02"

var ErrDuplicateSnapshot = errors.New("snapshot already exists for date")

// ParticipantSummary is one participant's end-of-day capture.
type ParticipantSummary struct {
	ID      participant.ID   `json:"id"`
	Name    string           `json:"name"`
	Mention string           `json:"mention"`
	Role    participant.Role `json:"role"`
	Stars   int              `json:"stars"`
	Defense *int             `json:"defense"`
	Probe   *int             `json:"probe"`
	Offense *int             `json:"offense"`
}

// DailySnapshot is the immutable record of one war day.
type DailySnapshot struct {
	Date         string               `json:"date"`
	OpponentName string               `json:"opponent_name"`
	Participants []ParticipantSummary `json:"participants"`
}

func (s DailySnapshot) Validate() error {
	if _, err := ParseDate(s.Date); err != nil {
		return err
	}
	if strings.TrimSpace(s.OpponentName) == "" {
		return fmt.Errorf("snapshot opponent name is required")
	}

	seen := make(map[participant.ID]struct{}, len(s.Participants))
	for _, item := range s.Participants {
		if item.ID == "" {
			return fmt.Errorf("snapshot participant id is required")
		}
		if _, exists := seen[item.ID]; exists {
			return fmt.Errorf("duplicate snapshot participant: %s", item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy so callers never share pointer fields.
func (s DailySnapshot) Clone() DailySnapshot {
	copied := s
	copied.Participants = make([]ParticipantSummary, len(s.Participants))
	for i, item := range s.Participants {
		item.Defense = cloneInt(item.Defense)
		item.Probe = cloneInt(item.Probe)
		item.Offense = cloneInt(item.Offense)
		copied.Participants[i] = item
	}
	return copied
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot date %q: expected YYYY-MM-DD", raw)
	}
	return parsed, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
