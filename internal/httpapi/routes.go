package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/scoutlink/alliance-backend/internal/hub"
	"github.com/scoutlink/alliance-backend/internal/store"
	"github.com/scoutlink/alliance-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, st store.Store, privilegedKeys []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/sessions", CreateSession(h, st, log))
	r.Get("/sessions/live", GetLiveSession(h))
	r.Get("/sessions/{code}", GetSession(st))
	r.Post("/sessions/{code}/guest", GuestJoin(st))
	r.Get("/ws", ws.Handler(h, privilegedKeys, log))
	r.Get("/healthz", Healthz)
	return r
}
