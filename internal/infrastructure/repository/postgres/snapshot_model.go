package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
)

const snapshotTable = "daily_snapshots"

type snapshotTableModel struct {
	SnapshotDate time.Time `db:"snapshot_date"`
	OpponentName string    `db:"opponent_name"`
	Participants []byte    `db:"participants"`
	CreatedAt    time.Time `db:"created_at"`
}

type snapshotInsertModel struct {
	SnapshotDate string `db:"snapshot_date"`
	OpponentName string `db:"opponent_name"`
	Participants string `db:"participants"`
}

func newSnapshotInsertModel(snap snapshot.DailySnapshot) (snapshotInsertModel, error) {
	participants := snap.Participants
	if participants == nil {
		participants = []snapshot.ParticipantSummary{}
	}
	encoded, err := sonic.MarshalString(participants)
	if err != nil {
		return snapshotInsertModel{}, fmt.Errorf("encode snapshot participants: %w", err)
	}

	return snapshotInsertModel{
		SnapshotDate: snap.Date,
		OpponentName: snap.OpponentName,
		Participants: encoded,
	}, nil
}

func (m snapshotTableModel) toDomain() (snapshot.DailySnapshot, error) {
	var participants []snapshot.ParticipantSummary
	if len(m.Participants) > 0 {
		if err := sonic.Unmarshal(m.Participants, &participants); err != nil {
			return snapshot.DailySnapshot{}, fmt.Errorf("decode snapshot participants: %w", err)
		}
	}

	return snapshot.DailySnapshot{
		Date:         snapshot.FormatDate(m.SnapshotDate),
		OpponentName: m.OpponentName,
		Participants: participants,
	}, nil
}
