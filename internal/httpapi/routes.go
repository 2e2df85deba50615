package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pkozlov/meme-battle-backend/internal/hub"
	"github.com/pkozlov/meme-battle-backend/internal/normalize"
	"github.com/pkozlov/meme-battle-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, n *normalize.Normalizer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/rooms", CreateRoom(h, log))
	r.Post("/api/normalize-video-link", NormalizeVideoLink(n))
	r.Get("/healthz", Healthz)
	r.Get("/", Root)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
