package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xswkr/chartpattern-backend/internal/handlers"
)

// Handlers bundles everything SetupRoutes mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	OAuth   *handlers.OAuthHandler
	Chart   *handlers.ChartHandler
	Analyze *handlers.AnalyzeHandler
	Chat    *handlers.ChatHandler
}

func SetupRoutes(r *chi.Mux, h Handlers) {
	// Local auth routes
	r.Post("/api/auth/register", h.Auth.Register)
	r.Post("/api/auth/login", h.Auth.Login)
	r.Post("/api/auth/logout", h.Auth.Logout)
	r.Get("/api/auth/me", h.Auth.Me)

	// OAuth routes (google, kakao, naver)
	r.Get("/api/auth/{provider}", h.OAuth.Start)
	r.Get("/api/auth/{provider}/callback", h.OAuth.Callback)

	// Chart analysis routes
	r.Post("/api/chart/save", h.Chart.Save)
	r.Get("/api/chart/list", h.Chart.List)
	r.Get("/api/chart/{id}", h.Chart.Get)
	r.Post("/api/chart/share/{id}", h.Chart.Share)

	// Image upload and AI analysis routes
	r.Post("/api/upload", h.Analyze.Upload)
	r.Post("/api/analyze", h.Analyze.Analyze)

	// Analysis chat over WebSocket
	r.Get("/ws/analysis", h.Chat.ServeWS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
}
