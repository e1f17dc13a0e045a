package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warstats"
	"github.com/riskibarqy/guild-war-tracker/internal/usecase"
)

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSnapshot")
	defer span.End()

	date := r.PathValue("date")
	item, err := h.reportService.GetSnapshot(ctx, date)
	if err != nil {
		h.logger.WarnContext(ctx, "get snapshot failed", "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, item)
}

// ListSnapshots defaults to the current season when from or to is omitted.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSnapshots")
	defer span.End()

	seasonStart, seasonEnd := warstats.SeasonDates(time.Now().UTC())
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	if from == "" {
		from = snapshot.FormatDate(seasonStart)
	}
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if to == "" {
		to = snapshot.FormatDate(seasonEnd)
	}

	items, err := h.reportService.ListSnapshots(ctx, from, to)
	if err != nil {
		h.logger.WarnContext(ctx, "list snapshots failed", "from", from, "to", to, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteSnapshot")
	defer span.End()

	date := r.PathValue("date")
	if err := h.reportService.DeleteSnapshot(ctx, h.actor(ctx), date); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"deleted": date})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetReport")
	defer span.End()

	kind, err := warstats.ParseWindowKind(r.PathValue("kind"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	start, err := parsePathDate(r, "start")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.reportService.Build(ctx, kind, start)
	if err != nil {
		h.logger.WarnContext(ctx, "build report failed", "kind", kind, "start", r.PathValue("start"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) GetSeasonOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonOverview")
	defer span.End()

	start, err := parsePathDate(r, "start")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.reportService.SeasonOverview(ctx, start)
	if err != nil {
		h.logger.WarnContext(ctx, "season overview failed", "start", r.PathValue("start"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, overview)
}

func (h *Handler) GetSeasonBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonBreakdown")
	defer span.End()

	start, err := parsePathDate(r, "start")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	breakdown, err := h.reportService.SeasonBreakdown(ctx, start)
	if err != nil {
		h.logger.WarnContext(ctx, "season breakdown failed", "start", r.PathValue("start"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, breakdown)
}

func parsePathDate(r *http.Request, name string) (time.Time, error) {
	parsed, err := snapshot.ParseDate(r.PathValue(name))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return parsed, nil
}
