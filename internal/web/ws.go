package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jaminalder/tictactoe-tree/internal/app"
	"github.com/jaminalder/tictactoe-tree/internal/domain"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// snapshot is the JSON view of a game pushed over the websocket.
type snapshot struct {
	ID      string    `json:"id"`
	Mode    string    `json:"mode"`
	Board   [9]string `json:"board"`
	Turn    string    `json:"turn"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Round   int       `json:"round"`
	Moves   int       `json:"moves"`
}

func newSnapshot(gs app.GameState) snapshot {
	s := snapshot{
		ID:      gs.ID,
		Mode:    gs.Mode.String(),
		Turn:    gs.Turn.String(),
		Status:  gs.Status.String(),
		Message: gs.Status.Message(gs.Turn),
		Round:   gs.Round,
		Moves:   gs.Moves(),
	}
	for i, m := range gs.Board {
		if m != domain.Empty {
			s.Board[i] = m.String()
		}
	}
	return s
}

// socket streams a snapshot on connect and after every change.
func (h *handlers) socket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "game", id, "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	// The client never sends anything useful; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		gs, ok := h.svc.Get(id)
		if !ok {
			return false
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(newSnapshot(*gs)); err != nil {
			h.log.Debugw("websocket write failed", "game", id, "error", err)
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case _, ok := <-ch:
			if !ok || !send() {
				return
			}
		}
	}
}
