package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaminalder/tictactoe-tree/internal/domain"
	"github.com/jaminalder/tictactoe-tree/internal/repository"
	"github.com/jaminalder/tictactoe-tree/internal/tree"
)

// Errors exposed by the service layer.
var (
	ErrNotFound        = errors.New("game not found")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrNotAPlayer      = errors.New("not a player")
	ErrGameOver        = errors.New("game over")
	ErrFailed          = errors.New("game aborted")
	ErrUnsupportedSide = errors.New("the machine only plays O")
)

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Mode    Mode
	Board   domain.Board
	Turn    domain.Mark
	Status  Status
	Round   int
	X       string
	O       string
	Created time.Time
	Updated time.Time

	// cursor into the shared tree; only ever advanced to a direct child or
	// reset to the root
	node *tree.Node
}

// Moves is the number of marks on the board.
func (gs GameState) Moves() int { return domain.Cells - gs.Board.EmptyCells() }

// Options configure a new game.
type Options struct {
	Mode Mode
	// Player is the human's side against the machine. Zero means X.
	Player domain.Mark
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers on top of one precomputed tree.
type Service struct {
	mu     sync.Mutex
	root   *tree.Node
	log    *zap.SugaredLogger
	store  repository.Store
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
}

// NewService creates a service with a default renderer (encodes nothing useful).
func NewService(root *tree.Node, log *zap.SugaredLogger, store repository.Store) *Service {
	return NewServiceWithRenderer(root, log, store, nil)
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
// A nil logger or store falls back to a no-op logger and an in-memory store.
func NewServiceWithRenderer(root *tree.Node, log *zap.SugaredLogger, store repository.Store, renderer func(GameState) []byte) *Service {
	if renderer == nil {
		renderer = func(gs GameState) []byte { return nil }
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if store == nil {
		store = repository.NewMemoryStore(0)
	}
	return &Service{
		root:   root,
		log:    log,
		store:  store,
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) []byte { return nil }
		return
	}
	s.render = renderer
}

// Store exposes the results store for read-only views.
func (s *Service) Store() repository.Store { return s.store }

// TreeSize is the number of positions in the precomputed tree.
func (s *Service) TreeSize() int { return s.root.Size() }

func (s *Service) newState(id string, mode Mode) *GameState {
	now := time.Now()
	return &GameState{ID: id, Mode: mode, Turn: domain.X, Round: 1, Created: now, Updated: now, node: s.root}
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame(opts Options) (*GameState, error) {
	if opts.Mode == VsMachine && opts.Player != domain.Empty && opts.Player != domain.X {
		return nil, ErrUnsupportedSide
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	gs := s.newState(id, opts.Mode)
	s.games[id] = gs
	s.log.Infow("game created", "game", id, "mode", opts.Mode.String())
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Join assigns a seat to the player if available; returns Empty for spectators.
// Against the machine only the X seat exists.
func (s *Service) Join(id, playerID string) (domain.Mark, *GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return domain.Empty, nil, ErrNotFound
	}
	side := domain.Empty
	if gs.X == "" || gs.X == playerID {
		gs.X = playerID
		side = domain.X
	} else if gs.Mode == Hotseat && (gs.O == "" || gs.O == playerID) {
		gs.O = playerID
		side = domain.O
	}
	gs.Updated = time.Now()
	cp := *gs
	return side, &cp, nil
}

// Play validates seat and turn, applies the move, follows it in the tree,
// lets the machine answer, and broadcasts the new state.
//
// A board the tree cannot follow aborts the round: the state is marked
// Failed and the tree error is returned wrapped.
func (s *Service) Play(ctx context.Context, id, playerID string, r, c int) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	switch gs.Status {
	case Playing:
	case Failed:
		s.mu.Unlock()
		return nil, ErrFailed
	default:
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	// Validate player is seated
	var seat domain.Mark
	if gs.X == playerID {
		seat = domain.X
	} else if gs.O == playerID {
		seat = domain.O
	} else {
		s.mu.Unlock()
		return nil, ErrNotAPlayer
	}
	if seat != gs.Turn {
		s.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	next, err := gs.Board.Place(r, c, seat)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if err := s.advanceLocked(gs, next); err != nil {
		gs.Status = Failed
		gs.Updated = time.Now()
		s.log.Errorw("tree out of sync, aborting round",
			"game", id, "round", gs.Round, "board", next.String(), "error", err)
		cp := *gs
		s.mu.Unlock()
		s.finish(ctx, cp)
		s.broadcast(id, cp)
		return nil, fmt.Errorf("game %s: %w", id, err)
	}
	gs.Status = classify(gs.Board, gs.node)
	gs.Updated = time.Now()
	cp := *gs
	s.mu.Unlock()

	if cp.Status.Over() {
		s.finish(ctx, cp)
	}
	s.broadcast(id, cp)
	return &cp, nil
}

// advanceLocked moves the cursor to the observed board and, against the
// machine, on to the machine's reply.
func (s *Service) advanceLocked(gs *GameState, observed domain.Board) error {
	node, err := gs.node.FindMove(observed)
	if err != nil {
		return err
	}
	gs.node = node
	gs.Board = observed

	if gs.Mode == Hotseat {
		gs.Turn = gs.Turn.Opponent()
		return nil
	}
	if node.Terminal() {
		return nil
	}
	reply, err := node.GetMove(domain.O)
	if err != nil {
		return err
	}
	gs.node = reply
	gs.Board = reply.Board()
	return nil
}

// Restart starts a new round on the same seats with the cursor back at the
// root of the tree.
func (s *Service) Restart(id string) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	gs.Board = domain.Board{}
	gs.Turn = domain.X
	gs.Status = Playing
	gs.Round++
	gs.node = s.root
	gs.Updated = time.Now()
	cp := *gs
	s.mu.Unlock()

	s.log.Infow("round restarted", "game", id, "round", cp.Round)
	s.broadcast(id, cp)
	return &cp, nil
}

// Hint describes the continuations of the current position with their
// aggregate values and flags.
func (s *Service) Hint(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return "", ErrNotFound
	}
	return gs.Board.String() + "\n" + gs.node.Describe(), nil
}

func (s *Service) finish(ctx context.Context, gs GameState) {
	res := repository.Result{
		GameID:   gs.ID,
		Round:    gs.Round,
		Mode:     gs.Mode.String(),
		Outcome:  gs.Status.String(),
		Board:    gs.Board.String(),
		Moves:    gs.Moves(),
		Finished: gs.Updated,
	}
	if err := s.store.Record(ctx, res); err != nil {
		s.log.Warnw("failed to record result", "game", gs.ID, "error", err)
		return
	}
	s.log.Infow("round finished", "game", gs.ID, "round", gs.Round, "outcome", res.Outcome)
}

// broadcast fans the rendered state out; slow subscribers are dropped.
// Sends and closes both happen under s.mu, so a subscriber is never written
// to after it has been closed.
func (s *Service) broadcast(id string, gs GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if len(set) == 0 {
		return
	}
	payload := s.render(gs)
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			delete(set, sub)
			sub.close()
		}
	}
}

// Subscribe registers a subscriber for an existing game. The channel is
// closed when ctx ends, when unsub is called, or when the subscriber falls
// behind a broadcast.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}
