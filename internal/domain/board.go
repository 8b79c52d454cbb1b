package domain

import (
	"errors"
	"strings"
)

// Mark is the content of a board cell. The numeric value doubles as a score:
// X counts +1, O counts -1.
type Mark int8

const (
	Empty Mark = 0
	X     Mark = 1
	O     Mark = -1
)

// Opponent returns the other side. Empty has no opponent.
func (m Mark) Opponent() Mark {
	return -m
}

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return "-"
	}
}

// Size is the number of cells on a side of the board.
const Size = 3

// Cells is the number of cells on the board.
const Cells = Size * Size

// Board is a fixed 3x3 board stored row-major (index = row*3+col).
type Board [Cells]Mark

// Errors returned by board operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
)

// Index converts row r, column c (0..2) into a cell index.
func Index(r, c int) (int, error) {
	if r < 0 || r >= Size || c < 0 || c >= Size {
		return 0, ErrOutOfBounds
	}
	return r*Size + c, nil
}

// Place returns a copy of b with m written at row r, column c.
func (b Board) Place(r, c int, m Mark) (Board, error) {
	idx, err := Index(r, c)
	if err != nil {
		return b, err
	}
	if b[idx] != Empty {
		return b, ErrOccupied
	}
	b[idx] = m
	return b, nil
}

// EmptyCells counts the cells nobody has played yet.
func (b Board) EmptyCells() int {
	n := 0
	for _, m := range b {
		if m == Empty {
			n++
		}
	}
	return n
}

// Full reports whether every cell is taken.
func (b Board) Full() bool {
	return b.EmptyCells() == 0
}

// String renders the board as three lines of "x", "o" and "-".
func (b Board) String() string {
	var sb strings.Builder
	for i, m := range b {
		if i > 0 && i%Size == 0 {
			sb.WriteByte('\n')
		}
		switch m {
		case X:
			sb.WriteString("x ")
		case O:
			sb.WriteString("o ")
		default:
			sb.WriteString("- ")
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
