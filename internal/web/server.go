package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-tree/internal/app"
)

const defaultHeartbeat = 15 * time.Second

// NewServer wires routes and returns an http.Handler. It also installs the
// board renderer used for broadcasts.
func NewServer(s *app.Service, log *zap.SugaredLogger, heartbeat time.Duration) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	h := &handlers{svc: s, tpl: loadTemplates(), log: log, heartbeat: heartbeat}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/", h.index)
	r.Get("/healthz", h.healthz)
	r.Get("/stats", h.stats)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Post("/restart", h.restart)
		r.Get("/events", h.events)
		r.Get("/ws", h.socket)
		r.Get("/debug", h.debug)
	})
	return r
}
