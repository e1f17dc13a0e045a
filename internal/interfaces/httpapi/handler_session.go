package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warsession"
	"github.com/riskibarqy/guild-war-tracker/internal/usecase"
)

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBoard")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, boardToDTO(h.sessionService.Board(ctx)))
}

func (h *Handler) GetIncomplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetIncomplete")
	defer span.End()

	report, err := h.sessionService.Incomplete(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, incompleteToDTO(report))
}

func (h *Handler) GetCelebration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCelebration")
	defer span.End()

	out, err := h.sessionService.Celebration(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, celebrationToDTO(out))
}

func (h *Handler) InitializeSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.InitializeSession")
	defer span.End()

	var req initSessionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.InitializeInput{
		Participants:   make([]usecase.ParticipantInput, 0, len(req.Participants)),
		BoardReference: req.BoardReference,
	}
	for _, item := range req.Participants {
		input.Participants = append(input.Participants, usecase.ParticipantInput{
			ID:          item.ID,
			DisplayName: item.DisplayName,
			Mention:     item.Mention,
		})
	}
	if req.SeasonStart != "" {
		start, err := snapshot.ParseDate(req.SeasonStart)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
		input.SeasonStart = &start
	}

	board, err := h.sessionService.Initialize(ctx, h.actor(ctx), input)
	writeBoard(ctx, w, board, err, http.StatusCreated)
}

func (h *Handler) DestroySession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DestroySession")
	defer span.End()

	board, err := h.sessionService.Destroy(ctx, h.actor(ctx))
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) SetBoardReference(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBoardReference")
	defer span.End()

	var req boardReferenceRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.SetBoardReference(ctx, h.actor(ctx), req.BoardReference)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) SetSeasonStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetSeasonStart")
	defer span.End()

	var req seasonStartRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	start, err := snapshot.ParseDate(req.SeasonStart)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	board, err := h.sessionService.SetSeasonStart(ctx, h.actor(ctx), start)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddParticipant")
	defer span.End()

	var req participantRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.AddParticipant(ctx, h.actor(ctx), usecase.ParticipantInput{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Mention:     req.Mention,
	})
	writeBoard(ctx, w, board, err, http.StatusCreated)
}

func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveParticipant")
	defer span.End()

	board, err := h.sessionService.RemoveParticipant(ctx, h.actor(ctx), r.PathValue("participantID"))
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitAction")
	defer span.End()

	var req submitActionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.SubmitAction(ctx, h.actor(ctx), r.PathValue("participantID"), req.Kind, *req.Value)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

// ClearActions takes the kinds to clear from repeated ?kind= parameters.
// Without any, every kind is cleared.
func (h *Handler) ClearActions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearActions")
	defer span.End()

	var kinds []string
	for _, raw := range r.URL.Query()["kind"] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				kinds = append(kinds, item)
			}
		}
	}

	board, err := h.sessionService.ClearActions(ctx, h.actor(ctx), r.PathValue("participantID"), kinds)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) AwardStars(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AwardStars")
	defer span.End()

	var req awardStarsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.AwardStars(ctx, h.actor(ctx), r.PathValue("participantID"), *req.Stars)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) SwapRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SwapRole")
	defer span.End()

	board, err := h.sessionService.SwapRole(ctx, h.actor(ctx), r.PathValue("participantID"))
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) MoveToPosition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MoveToPosition")
	defer span.End()

	var req moveRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.MoveToPosition(ctx, h.actor(ctx), r.PathValue("participantID"), *req.Position)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) ResetActions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetActions")
	defer span.End()

	var req resetRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.sessionService.ResetActions(ctx, h.actor(ctx), *req.KeepRoster)
	writeBoard(ctx, w, board, err, http.StatusOK)
}

func (h *Handler) EndDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndDay")
	defer span.End()

	var req endDayRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.EndDayInput{OpponentName: req.OpponentName}
	if req.Date != "" {
		date, err := snapshot.ParseDate(req.Date)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
		input.Date = &date
	}

	result, err := h.sessionService.EndDay(ctx, h.actor(ctx), input)
	if err != nil {
		h.logger.WarnContext(ctx, "end day failed", "acting_user", h.actor(ctx), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, endDayToDTO(result))
}

func writeBoard(ctx context.Context, w http.ResponseWriter, board warsession.Board, err error, status int) {
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, status, boardToDTO(board))
}
