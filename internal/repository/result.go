package repository

import (
	"context"
	"errors"
	"time"
)

// Outcome labels used as scoreboard keys.
const (
	OutcomeXWon   = "x_won"
	OutcomeOWon   = "o_won"
	OutcomeTie    = "tie"
	OutcomeFailed = "failed"
)

var ErrUnknownOutcome = errors.New("unknown outcome")

// Result is the record of one finished round.
type Result struct {
	GameID   string    `json:"game_id" bson:"game_id"`
	Round    int       `json:"round" bson:"round"`
	Mode     string    `json:"mode" bson:"mode"`
	Outcome  string    `json:"outcome" bson:"outcome"`
	Board    string    `json:"board" bson:"board"`
	Moves    int       `json:"moves" bson:"moves"`
	Finished time.Time `json:"finished" bson:"finished"`
}

// Store keeps finished rounds and a per-outcome tally.
type Store interface {
	Record(ctx context.Context, r Result) error
	Tally(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]Result, error)
}

func validOutcome(o string) bool {
	switch o {
	case OutcomeXWon, OutcomeOWon, OutcomeTie, OutcomeFailed:
		return true
	}
	return false
}

// Tee records into every store and reads from the first one.
type Tee struct {
	stores []Store
}

func NewTee(primary Store, others ...Store) *Tee {
	return &Tee{stores: append([]Store{primary}, others...)}
}

func (t *Tee) Record(ctx context.Context, r Result) error {
	var errs []error
	for _, s := range t.stores {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) Tally(ctx context.Context) (map[string]int64, error) {
	return t.stores[0].Tally(ctx)
}

func (t *Tee) Recent(ctx context.Context, limit int) ([]Result, error) {
	return t.stores[0].Recent(ctx, limit)
}
