package app

import (
	"github.com/jaminalder/tictactoe-tree/internal/domain"
	"github.com/jaminalder/tictactoe-tree/internal/repository"
	"github.com/jaminalder/tictactoe-tree/internal/tree"
)

// Mode selects who plays O.
type Mode uint8

const (
	// VsMachine pits a human X against the tree.
	VsMachine Mode = iota
	// Hotseat lets two humans alternate; the tree only follows along.
	Hotseat
)

func (m Mode) String() string {
	if m == Hotseat {
		return "hotseat"
	}
	return "machine"
}

// ParseMode accepts the values produced by Mode.String.
func ParseMode(s string) Mode {
	if s == "hotseat" {
		return Hotseat
	}
	return VsMachine
}

// Status is the lifecycle of a round.
type Status uint8

const (
	Playing Status = iota
	XWon
	OWon
	Tie
	Failed
)

func (s Status) String() string {
	switch s {
	case XWon:
		return repository.OutcomeXWon
	case OWon:
		return repository.OutcomeOWon
	case Tie:
		return repository.OutcomeTie
	case Failed:
		return repository.OutcomeFailed
	default:
		return "playing"
	}
}

// Over reports whether the round accepts no more moves.
func (s Status) Over() bool { return s != Playing }

// Message is the status line shown under the board.
func (s Status) Message(turn domain.Mark) string {
	switch s {
	case XWon:
		return "Player 'X' won!"
	case OWon:
		return "Player 'O' won!"
	case Tie:
		return "It's a tie!!"
	case Failed:
		return "Game aborted"
	default:
		return "Turn for: '" + turn.String() + "'"
	}
}

// classify maps the position at the cursor to a status. A board with no
// line and no continuation is a tie.
func classify(b domain.Board, node *tree.Node) Status {
	switch domain.Evaluate(b) {
	case domain.XWins:
		return XWon
	case domain.OWins:
		return OWon
	}
	if node.Terminal() {
		return Tie
	}
	return Playing
}
