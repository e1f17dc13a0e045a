package httpapi

import (
	"net/http"

	"github.com/riskibarqy/guild-war-tracker/internal/metrics"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool, recorder *metrics.Recorder) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if recorder != nil {
		mux.Handle("GET /metrics", recorder.Handler())
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerSessionReadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/session/board", handler.GetBoard)
	mux.HandleFunc("GET /v1/session/incomplete", handler.GetIncomplete)
	mux.HandleFunc("GET /v1/session/celebration", handler.GetCelebration)
}

// officer wraps a command route with the admin token and acting user checks.
func officer(adminToken string, fn http.HandlerFunc) http.Handler {
	return RequireAdminToken(adminToken, RequireActingUser(fn))
}

func registerSessionCommandRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /v1/session/init", officer(adminToken, handler.InitializeSession))
	mux.Handle("DELETE /v1/session", officer(adminToken, handler.DestroySession))
	mux.Handle("PUT /v1/session/board-reference", officer(adminToken, handler.SetBoardReference))
	mux.Handle("PUT /v1/session/season-start", officer(adminToken, handler.SetSeasonStart))
	mux.Handle("POST /v1/session/participants", officer(adminToken, handler.AddParticipant))
	mux.Handle("DELETE /v1/session/participants/{participantID}", officer(adminToken, handler.RemoveParticipant))
	mux.Handle("POST /v1/session/participants/{participantID}/actions", officer(adminToken, handler.SubmitAction))
	mux.Handle("DELETE /v1/session/participants/{participantID}/actions", officer(adminToken, handler.ClearActions))
	mux.Handle("PUT /v1/session/participants/{participantID}/stars", officer(adminToken, handler.AwardStars))
	mux.Handle("POST /v1/session/participants/{participantID}/swap-role", officer(adminToken, handler.SwapRole))
	mux.Handle("PUT /v1/session/participants/{participantID}/position", officer(adminToken, handler.MoveToPosition))
	mux.Handle("POST /v1/session/reset", officer(adminToken, handler.ResetActions))
	mux.Handle("POST /v1/session/end-day", officer(adminToken, handler.EndDay))
}

func registerReportRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.HandleFunc("GET /v1/snapshots", handler.ListSnapshots)
	mux.HandleFunc("GET /v1/snapshots/{date}", handler.GetSnapshot)
	mux.Handle("DELETE /v1/snapshots/{date}", officer(adminToken, handler.DeleteSnapshot))
	mux.HandleFunc("GET /v1/reports/{kind}/{start}", handler.GetReport)
	mux.HandleFunc("GET /v1/reports/season/{start}/overview", handler.GetSeasonOverview)
	mux.HandleFunc("GET /v1/reports/season/{start}/breakdown", handler.GetSeasonBreakdown)
}
