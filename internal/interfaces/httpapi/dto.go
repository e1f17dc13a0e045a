package httpapi

import (
	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warsession"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
	"github.com/riskibarqy/guild-war-tracker/internal/usecase"
)

type participantRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Mention     string `json:"mention" validate:"omitempty,max=100"`
}

type initSessionRequest struct {
	Participants   []participantRequest `json:"participants" validate:"dive"`
	BoardReference string               `json:"board_reference" validate:"omitempty,max=200"`
	SeasonStart    string               `json:"season_start" validate:"omitempty,datetime=2006-01-02"`
}

type submitActionRequest struct {
	Kind  string `json:"kind" validate:"required"`
	Value *int   `json:"value" validate:"required"`
}

type awardStarsRequest struct {
	Stars *int `json:"stars" validate:"required"`
}

type moveRequest struct {
	Position *int `json:"position" validate:"required"`
}

type resetRequest struct {
	KeepRoster *bool `json:"keep_roster" validate:"required"`
}

type boardReferenceRequest struct {
	BoardReference string `json:"board_reference" validate:"max=200"`
}

type seasonStartRequest struct {
	SeasonStart string `json:"season_start" validate:"required,datetime=2006-01-02"`
}

type endDayRequest struct {
	OpponentName string `json:"opponent_name" validate:"required,max=100"`
	Date         string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type participantDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Mention     string `json:"mention"`
	Role        string `json:"role"`
	Position    int    `json:"position"`
}

type boardEntryDTO struct {
	participantDTO
	Defense *int     `json:"defense"`
	Probe   *int     `json:"probe"`
	Offense *int     `json:"offense"`
	Stars   int      `json:"stars"`
	Missing []string `json:"missing"`
}

type boardDTO struct {
	Active         bool            `json:"active"`
	BoardReference string          `json:"board_reference,omitempty"`
	SeasonStart    string          `json:"season_start,omitempty"`
	PrimaryCount   int             `json:"primary_count"`
	ReserveCount   int             `json:"reserve_count"`
	Capacity       int             `json:"capacity"`
	Entries        []boardEntryDTO `json:"entries"`
}

type incompleteDTO struct {
	Missing  map[string][]participantDTO `json:"missing"`
	Complete []participantDTO            `json:"complete"`
}

type celebrationDTO struct {
	Champions []participantDTO `json:"champions"`
	Everyone  []participantDTO `json:"everyone"`
}

type endDayDTO struct {
	Snapshot     snapshot.DailySnapshot `json:"snapshot"`
	Reports      []warstats.Report      `json:"reports"`
	RollupErrors map[string]string      `json:"rollup_errors,omitempty"`
	Board        boardDTO               `json:"board"`
}

func participantToDTO(p participant.Participant) participantDTO {
	return participantDTO{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Mention:     p.Mention,
		Role:        string(p.Role),
		Position:    p.Position,
	}
}

func participantsToDTO(items []participant.Participant) []participantDTO {
	out := make([]participantDTO, 0, len(items))
	for _, item := range items {
		out = append(out, participantToDTO(item))
	}
	return out
}

func boardToDTO(board warsession.Board) boardDTO {
	out := boardDTO{
		Active:         board.Active,
		BoardReference: board.BoardReference,
		PrimaryCount:   board.PrimaryCount,
		ReserveCount:   board.ReserveCount,
		Capacity:       board.Capacity,
		Entries:        make([]boardEntryDTO, 0, len(board.Entries)),
	}
	if !board.SeasonStart.IsZero() {
		out.SeasonStart = snapshot.FormatDate(board.SeasonStart)
	}

	for _, entry := range board.Entries {
		missing := make([]string, 0, len(entry.Missing))
		for _, kind := range entry.Missing {
			missing = append(missing, string(kind))
		}
		out.Entries = append(out.Entries, boardEntryDTO{
			participantDTO: participantToDTO(entry.Participant),
			Defense:        entry.Defense,
			Probe:          entry.Probe,
			Offense:        entry.Offense,
			Stars:          entry.Stars,
			Missing:        missing,
		})
	}
	return out
}

func incompleteToDTO(report warsession.IncompleteReport) incompleteDTO {
	out := incompleteDTO{
		Missing:  make(map[string][]participantDTO, len(warsession.ActionKinds)),
		Complete: participantsToDTO(report.Complete),
	}
	for _, kind := range warsession.ActionKinds {
		out.Missing[string(kind)] = participantsToDTO(report.Missing[kind])
	}
	return out
}

func celebrationToDTO(c warsession.Celebration) celebrationDTO {
	return celebrationDTO{
		Champions: participantsToDTO(c.Champions),
		Everyone:  participantsToDTO(c.Everyone),
	}
}

func endDayToDTO(result usecase.EndDayResult) endDayDTO {
	out := endDayDTO{
		Snapshot: result.Snapshot,
		Reports:  result.Reports,
		Board:    boardToDTO(result.Board),
	}
	if out.Reports == nil {
		out.Reports = []warstats.Report{}
	}
	if len(result.RollupErrors) > 0 {
		out.RollupErrors = make(map[string]string, len(result.RollupErrors))
		for kind, msg := range result.RollupErrors {
			out.RollupErrors[string(kind)] = msg
		}
	}
	return out
}
