package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
	"github.com/riskibarqy/guild-war-tracker/internal/usecase"
)

type Handler struct {
	sessionService *usecase.SessionService
	reportService  *usecase.ReportService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	sessionService *usecase.SessionService,
	reportService *usecase.ReportService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessionService: sessionService,
		reportService:  reportService,
		logger:         logger,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeRequest reads a strict JSON body and runs the struct validation tags.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, payload)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// actor is set by RequireActingUser on every command route.
func (h *Handler) actor(ctx context.Context) string {
	actor, _ := actorFromContext(ctx)
	return actor
}
