package httpapi

import (
	"net/http"

	"github.com/riskibarqy/guild-war-tracker/internal/metrics"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/id"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
)

type RouterConfig struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	AdminToken         string
	Metrics            *metrics.Recorder
	IDGenerator        id.Generator
}

func NewRouter(handler *Handler, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = id.NewUUIDGenerator()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler, cfg.SwaggerEnabled, cfg.Metrics)
	registerSessionReadRoutes(mux, handler)
	registerSessionCommandRoutes(mux, handler, cfg.AdminToken)
	registerReportRoutes(mux, handler, cfg.AdminToken)

	// RequestLogging sits next to the mux so it sees the matched route pattern.
	return RequestTracing(RequestID(cfg.IDGenerator, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, RequestLogging(logger, cfg.Metrics, mux)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
