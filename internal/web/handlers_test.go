package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaminalder/tictactoe-tree/internal/app"
	"github.com/jaminalder/tictactoe-tree/internal/domain"
	"github.com/jaminalder/tictactoe-tree/internal/tree"
)

var (
	rootOnce sync.Once
	root     *tree.Node
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	rootOnce.Do(func() { root = tree.New() })
	s := app.NewService(root, nil, nil)
	h := NewServer(s, nil, time.Second)
	return s, h
}

func postForm(h http.Handler, path string, form url.Values, playerID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if playerID != "" {
		req.AddCookie(&http.Cookie{Name: "player_id", Value: playerID})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
	if !strings.Contains(body, "value=\"hotseat\"") {
		t.Fatalf("index should offer the hotseat mode; got body: %q", body)
	}
}

func TestCreateRedirectsToGame(t *testing.T) {
	svc, h := newTestServer(t)
	rr := postForm(h, "/game", url.Values{"mode": {"hotseat"}}, "")
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	gs, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok || gs.Mode != app.Hotseat {
		t.Fatalf("expected a hotseat game behind %q", loc)
	}
}

func TestGamePageSetsCookieAndAutoClaims(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(gs.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "player_id" {
			playerID = c.Value
			break
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	latest, ok := svc.Get(gs.ID)
	if !ok || latest.X != playerID {
		t.Fatalf("expected auto-claim X; have X=%q pid=%q", latest.X, playerID)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+gs.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if !strings.Contains(body, "/game/"+gs.ID+"/play") {
		t.Fatalf("expected play forms in page; got body: %q", body)
	}
	if !strings.Contains(body, "Turn for: &#39;X&#39;") {
		t.Fatalf("expected status line; got body: %q", body)
	}
}

func TestEnsurePlayerCookieKeepsExistingID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "player_id", Value: "p1"})
	rr := httptest.NewRecorder()
	if got := ensurePlayerCookie(rr, req); got != "p1" {
		t.Fatalf("expected existing id p1, got %q", got)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("existing id must not be reissued")
	}
}

func TestGamePageUnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/game/nope", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{Mode: app.Hotseat})
	svc.Join(gs.ID, "p1")

	rr := postForm(h, "/game/"+gs.ID+"/join", url.Values{}, "p2")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(gs.ID)
	if latest.O != "p2" {
		t.Fatalf("expected O seat for p2, got X=%q O=%q", latest.X, latest.O)
	}
}

func TestPlayEndpointAppliesMoveAndMachineReply(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	svc.Join(gs.ID, "p1")

	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"1"}, "c": {"1"}}, "p1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "id=\"board\"") || strings.Count(body, ">X</button>") != 1 || strings.Count(body, ">O</button>") != 1 {
		t.Fatalf("expected board with one X and one O, got %q", body)
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Moves() != 2 || latest.Board[4] != domain.X {
		t.Fatalf("expected move applied, moves=%d", latest.Moves())
	}
}

func TestPlayEndpointReportsErrors(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	svc.Join(gs.ID, "p1")

	rr := postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"0"}, "c": {"0"}}, "spectator")
	if !strings.Contains(rr.Body.String(), "You are a spectator") {
		t.Fatalf("expected spectator error, got %q", rr.Body.String())
	}
	rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {"x"}, "c": {"0"}}, "p1")
	if !strings.Contains(rr.Body.String(), "Out of bounds") {
		t.Fatalf("expected bounds error, got %q", rr.Body.String())
	}
	rr = postForm(h, "/game/missing/play", url.Values{"r": {"0"}, "c": {"0"}}, "p1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got %d", rr.Code)
	}
}

func TestHotseatWinAndRestart(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{Mode: app.Hotseat})
	svc.Join(gs.ID, "p1")
	svc.Join(gs.ID, "p2")

	moves := []struct {
		pid, r, c string
	}{
		{"p1", "0", "0"}, {"p2", "1", "0"}, {"p1", "0", "1"}, {"p2", "1", "1"}, {"p1", "0", "2"},
	}
	var rr *httptest.ResponseRecorder
	for _, m := range moves {
		rr = postForm(h, "/game/"+gs.ID+"/play", url.Values{"r": {m.r}, "c": {m.c}}, m.pid)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Player &#39;X&#39; won!") || !strings.Contains(body, "/restart") {
		t.Fatalf("expected win message and restart form, got %q", body)
	}

	rr = postForm(h, "/game/"+gs.ID+"/restart", url.Values{}, "p1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(gs.ID)
	if latest.Round != 2 || latest.Moves() != 0 || latest.Status != app.Playing {
		t.Fatalf("expected fresh round, got round=%d moves=%d", latest.Round, latest.Moves())
	}

	req := httptest.NewRequest("GET", "/stats", nil)
	stats := httptest.NewRecorder()
	h.ServeHTTP(stats, req)
	var resp statsResponse
	if err := json.Unmarshal(stats.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.Tally["x_won"] != 1 || len(resp.Recent) != 1 || resp.Recent[0].GameID != gs.ID {
		t.Fatalf("unexpected stats %+v", resp)
	}
}

func TestDebugEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	gs, _ := svc.CreateGame(app.Options{})
	req := httptest.NewRequest("GET", "/game/"+gs.ID+"/debug", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Count(rr.Body.String(), "Child: ") != 9 {
		t.Fatalf("expected 9 children listed, got %q", rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var resp struct {
		Status    string `json:"status"`
		Positions int    `json:"positions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Positions != root.Size() {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	reqCreate := httptest.NewRequest("POST", "/game", nil)
	rrCreate := httptest.NewRecorder()
	h.ServeHTTP(rrCreate, reqCreate)
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}

func TestEventsUnknownGameDoesNotCreateIt(t *testing.T) {
	svc, h := newTestServer(t)
	for _, accept := range []string{"", "text/event-stream"} {
		req := httptest.NewRequest("GET", "/game/ghost/events", nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("accept %q: expected 404, got %d", accept, rr.Code)
		}
	}
	if _, ok := svc.Get("ghost"); ok {
		t.Fatalf("subscribing must not register a game")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for the game page, got %d", rr.Code)
	}
}

func TestWebsocketStreamsSnapshots(t *testing.T) {
	svc, h := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	gs, _ := svc.CreateGame(app.Options{})
	svc.Join(gs.ID, "p1")

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + gs.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if snap.ID != gs.ID || snap.Moves != 0 || snap.Status != "playing" {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	if _, err := svc.Play(context.Background(), gs.ID, "p1", 0, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if snap.Moves != 2 || snap.Board[0] != "X" {
		t.Fatalf("unexpected update %+v", snap)
	}
}

func TestWebsocketUnknownGame(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/game/nope/ws", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
