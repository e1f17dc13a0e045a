package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/participant"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warsession"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
	"github.com/riskibarqy/guild-war-tracker/internal/metrics"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

type ParticipantInput struct {
	ID          string
	DisplayName string
	Mention     string
}

type InitializeInput struct {
	Participants   []ParticipantInput
	BoardReference string
	// SeasonStart overrides the current season start. It must be a Monday.
	SeasonStart *time.Time
}

type EndDayInput struct {
	OpponentName string
	// Date defaults to today in UTC.
	Date *time.Time
}

// EndDayResult is the frozen day plus every rollup that closed with it.
// RollupErrors carries the windows that could not be built; the snapshot
// is already stored when they are reported.
type EndDayResult struct {
	Snapshot     snapshot.DailySnapshot
	Reports      []warstats.Report
	RollupErrors map[warstats.WindowKind]string
	Board        warsession.Board
}

type SessionService struct {
	session   *warsession.RosterSession
	rotation  *warsession.RotationManager
	snapshots snapshot.Repository
	reports   *ReportService
	logger    *logging.Logger
	metrics   *metrics.Recorder
	now       func() time.Time

	// endDayMu keeps the duplicate check, the save of one day and the season
	// advance atomic. SetSeasonStart takes it too.
	endDayMu sync.Mutex
}

func NewSessionService(
	session *warsession.RosterSession,
	snapshots snapshot.Repository,
	reports *ReportService,
	logger *logging.Logger,
	recorder *metrics.Recorder,
) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	if session == nil {
		session = warsession.NewRosterSession()
	}

	return &SessionService{
		session:   session,
		rotation:  warsession.NewRotationManager(session),
		snapshots: snapshots,
		reports:   reports,
		logger:    logger,
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *SessionService) Initialize(ctx context.Context, actor string, input InitializeInput) (warsession.Board, error) {
	members := make([]participant.Participant, 0, len(input.Participants))
	for _, item := range input.Participants {
		members = append(members, toParticipant(item))
	}

	return s.mutate(ctx, "initialize", actor, func() error {
		var seasonStart time.Time
		if input.SeasonStart != nil {
			window, err := warstats.NewWindow(warstats.WindowSeason, *input.SeasonStart)
			if err != nil {
				return err
			}
			seasonStart = window.Start
		}
		if err := s.session.Initialize(members, input.BoardReference); err != nil {
			return err
		}
		switch {
		case !seasonStart.IsZero():
			s.session.SetSeasonStart(seasonStart)
		case s.session.SeasonStart().IsZero():
			s.session.SetSeasonStart(warstats.SeasonStartFor(s.now()))
		}
		return nil
	}, "participants", len(members))
}

func (s *SessionService) Destroy(ctx context.Context, actor string) (warsession.Board, error) {
	return s.mutate(ctx, "destroy", actor, func() error {
		s.session.Destroy()
		return nil
	})
}

func (s *SessionService) AddParticipant(ctx context.Context, actor string, input ParticipantInput) (warsession.Board, error) {
	return s.mutate(ctx, "add_participant", actor, func() error {
		_, err := s.session.Add(toParticipant(input))
		return err
	}, "participant_id", strings.TrimSpace(input.ID))
}

func (s *SessionService) RemoveParticipant(ctx context.Context, actor, id string) (warsession.Board, error) {
	return s.mutate(ctx, "remove_participant", actor, func() error {
		return s.session.Remove(participant.ID(strings.TrimSpace(id)))
	}, "participant_id", id)
}

func (s *SessionService) SubmitAction(ctx context.Context, actor, id, rawKind string, value int) (warsession.Board, error) {
	return s.mutate(ctx, "submit_action", actor, func() error {
		kind, err := warsession.ParseActionKind(rawKind)
		if err != nil {
			return err
		}
		return s.session.SubmitAction(participant.ID(strings.TrimSpace(id)), kind, value)
	}, "participant_id", id, "kind", rawKind, "value", value)
}

// ClearActions removes the given kinds, or every kind when rawKinds is empty.
func (s *SessionService) ClearActions(ctx context.Context, actor, id string, rawKinds []string) (warsession.Board, error) {
	return s.mutate(ctx, "clear_actions", actor, func() error {
		kinds := make([]warsession.ActionKind, 0, len(rawKinds))
		for _, raw := range rawKinds {
			kind, err := warsession.ParseActionKind(raw)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
		return s.session.ClearActions(participant.ID(strings.TrimSpace(id)), kinds...)
	}, "participant_id", id, "kinds", strings.Join(rawKinds, ","))
}

func (s *SessionService) AwardStars(ctx context.Context, actor, id string, count int) (warsession.Board, error) {
	return s.mutate(ctx, "award_stars", actor, func() error {
		return s.session.AwardStars(participant.ID(strings.TrimSpace(id)), count)
	}, "participant_id", id, "stars", count)
}

func (s *SessionService) SwapRole(ctx context.Context, actor, id string) (warsession.Board, error) {
	return s.mutate(ctx, "swap_role", actor, func() error {
		_, err := s.rotation.SwapRole(participant.ID(strings.TrimSpace(id)))
		return err
	}, "participant_id", id)
}

func (s *SessionService) MoveToPosition(ctx context.Context, actor, id string, position int) (warsession.Board, error) {
	return s.mutate(ctx, "move_to_position", actor, func() error {
		_, err := s.rotation.MoveToPosition(participant.ID(strings.TrimSpace(id)), position)
		return err
	}, "participant_id", id, "position", position)
}

func (s *SessionService) ResetActions(ctx context.Context, actor string, keepRoster bool) (warsession.Board, error) {
	return s.mutate(ctx, "reset_actions", actor, func() error {
		return s.session.ResetActions(keepRoster)
	}, "keep_roster", keepRoster)
}

func (s *SessionService) SetBoardReference(ctx context.Context, actor, ref string) (warsession.Board, error) {
	return s.mutate(ctx, "set_board_reference", actor, func() error {
		return s.session.SetBoardReference(ref)
	}, "board_reference", ref)
}

func (s *SessionService) SetSeasonStart(ctx context.Context, actor string, start time.Time) (warsession.Board, error) {
	s.endDayMu.Lock()
	defer s.endDayMu.Unlock()

	return s.mutate(ctx, "set_season_start", actor, func() error {
		if !s.session.IsActive() {
			return warsession.ErrUninitializedSession
		}
		window, err := warstats.NewWindow(warstats.WindowSeason, start)
		if err != nil {
			return err
		}
		s.session.SetSeasonStart(window.Start)
		return nil
	}, "season_start", snapshot.FormatDate(start))
}

func (s *SessionService) Board(ctx context.Context) warsession.Board {
	_, span := startUsecaseSpan(ctx, "usecase.SessionService.Board")
	defer span.End()

	return s.session.Board()
}

func (s *SessionService) Incomplete(ctx context.Context) (warsession.IncompleteReport, error) {
	_, span := startUsecaseSpan(ctx, "usecase.SessionService.Incomplete")
	defer span.End()

	report, err := s.session.Incomplete()
	if err != nil {
		return warsession.IncompleteReport{}, classify(err)
	}
	return report, nil
}

func (s *SessionService) Celebration(ctx context.Context) (warsession.Celebration, error) {
	_, span := startUsecaseSpan(ctx, "usecase.SessionService.Celebration")
	defer span.End()

	out, err := s.session.Celebration()
	if err != nil {
		return warsession.Celebration{}, classify(err)
	}
	return out, nil
}

// EndDay freezes the session into a snapshot, stores it and builds the
// rollups that close on that day. The session is only cleared once the
// snapshot is stored.
func (s *SessionService) EndDay(ctx context.Context, actor string, input EndDayInput) (EndDayResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.EndDay")
	defer span.End()

	actor = strings.TrimSpace(actor)
	if actor == "" {
		return EndDayResult{}, fmt.Errorf("%w: acting user is required", ErrInvalidInput)
	}

	day := s.now()
	if input.Date != nil {
		day = input.Date.UTC()
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	key := snapshot.FormatDate(day)

	s.endDayMu.Lock()
	defer s.endDayMu.Unlock()

	_, exists, err := s.snapshots.Load(ctx, key)
	if err != nil {
		s.metrics.RecordOperation("end_day", metrics.OutcomeError)
		s.logger.ErrorContext(ctx, "check existing snapshot failed", "date", key, "acting_user", actor, "error", err)
		return EndDayResult{}, classify(fmt.Errorf("load snapshot %s: %w", key, err))
	}
	if exists {
		s.metrics.RecordOperation("end_day", metrics.OutcomeRejected)
		s.logger.WarnContext(ctx, "end day rejected", "date", key, "acting_user", actor, "error", snapshot.ErrDuplicateSnapshot)
		return EndDayResult{}, classify(fmt.Errorf("end day %s: %w", key, snapshot.ErrDuplicateSnapshot))
	}

	frozen, err := s.session.FreezeWith(day, input.OpponentName, func(snap snapshot.DailySnapshot) error {
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.metrics.RecordSnapshotSave(metrics.OutcomeError)
			return fmt.Errorf("save snapshot %s: %w", snap.Date, err)
		}
		s.metrics.RecordSnapshotSave(metrics.OutcomeOK)
		return nil
	})
	if err != nil {
		err = classify(err)
		if errorsIsDependency(err) {
			s.metrics.RecordOperation("end_day", metrics.OutcomeError)
			s.logger.ErrorContext(ctx, "end day failed", "date", key, "acting_user", actor, "error", err)
		} else {
			s.metrics.RecordOperation("end_day", metrics.OutcomeRejected)
			s.logger.WarnContext(ctx, "end day rejected", "date", key, "acting_user", actor, "error", err)
		}
		return EndDayResult{}, fmt.Errorf("end day: %w", err)
	}

	seasonStart := s.session.SeasonStart()
	due := warstats.DueWindows(day, seasonStart)
	reports, rollupErrors := s.buildRollups(ctx, due)
	if next := warstats.AdvanceSeasonStart(seasonStart, day); !next.Equal(seasonStart) {
		s.session.SetSeasonStart(next)
		s.logger.InfoContext(ctx, "season advanced", "from", snapshot.FormatDate(seasonStart), "to", snapshot.FormatDate(next))
	}

	board := s.session.Board()
	s.metrics.RecordOperation("end_day", metrics.OutcomeOK)
	s.metrics.SetRosterSize(board.PrimaryCount, board.ReserveCount)
	s.logger.InfoContext(ctx, "war day ended",
		"date", frozen.Date,
		"opponent", frozen.OpponentName,
		"participants", len(frozen.Participants),
		"rollups", len(reports),
		"rollup_failures", len(rollupErrors),
		"acting_user", actor,
	)

	return EndDayResult{
		Snapshot:     frozen,
		Reports:      reports,
		RollupErrors: rollupErrors,
		Board:        board,
	}, nil
}

type rollup struct {
	window warstats.Window
	report warstats.Report
	err    error
}

// buildRollups builds the due windows concurrently and returns them in
// day, week, season order.
func (s *SessionService) buildRollups(ctx context.Context, windows []warstats.Window) ([]warstats.Report, map[warstats.WindowKind]string) {
	if s.reports == nil || len(windows) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[rollup]().WithMaxGoroutines(len(windows))
	for _, window := range windows {
		window := window
		p.Go(func() rollup {
			report, err := s.reports.BuildWindow(ctx, window)
			return rollup{window: window, report: report, err: err}
		})
	}
	done := p.Wait()

	sort.Slice(done, func(i, j int) bool {
		return kindOrder(done[i].window.Kind) < kindOrder(done[j].window.Kind)
	})

	reports := make([]warstats.Report, 0, len(done))
	var failures map[warstats.WindowKind]string
	for _, item := range done {
		if item.err != nil {
			if failures == nil {
				failures = make(map[warstats.WindowKind]string)
			}
			failures[item.window.Kind] = item.err.Error()
			s.logger.WarnContext(ctx, "rollup failed",
				"kind", item.window.Kind,
				"window_start", item.window.StartDate(),
				"error", item.err,
			)
			continue
		}
		reports = append(reports, item.report)
	}
	return reports, failures
}

func kindOrder(kind warstats.WindowKind) int {
	for i, item := range warstats.WindowKinds {
		if item == kind {
			return i
		}
	}
	return len(warstats.WindowKinds)
}

// mutate runs one state change on behalf of actor and returns the board
// that results from it.
func (s *SessionService) mutate(ctx context.Context, op, actor string, fn func() error, args ...any) (warsession.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService."+op)
	defer span.End()

	actor = strings.TrimSpace(actor)
	if actor == "" {
		s.metrics.RecordOperation(op, metrics.OutcomeRejected)
		return warsession.Board{}, fmt.Errorf("%s: %w: acting user is required", op, ErrInvalidInput)
	}

	logArgs := append([]any{"operation", op, "acting_user", actor}, args...)
	if err := fn(); err != nil {
		err = classify(err)
		s.metrics.RecordOperation(op, metrics.OutcomeRejected)
		s.logger.WarnContext(ctx, "war session change rejected", append(logArgs, "error", err)...)
		return warsession.Board{}, fmt.Errorf("%s: %w", op, err)
	}

	board := s.session.Board()
	s.metrics.RecordOperation(op, metrics.OutcomeOK)
	s.metrics.SetRosterSize(board.PrimaryCount, board.ReserveCount)
	s.logger.InfoContext(ctx, "war session changed", logArgs...)
	return board, nil
}

func toParticipant(item ParticipantInput) participant.Participant {
	return participant.Participant{
		ID:          participant.ID(strings.TrimSpace(item.ID)),
		DisplayName: item.DisplayName,
		Mention:     item.Mention,
	}
}

