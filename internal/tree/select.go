package tree

import (
	"fmt"
	"strings"

	"github.com/jaminalder/tictactoe-tree/internal/domain"
)

// extremumSeed bounds the aggregate values a 3x3 tree can produce.
const extremumSeed = 1000000

// GetMove picks the machine's reply among the node's direct children.
//
// The first pass walks the children until it finds an immediate win, which
// is taken straight away, or the first dangerous child, which tells the
// second pass that some replies hand X a win. The second pass then takes the
// first direct win or, when danger was seen, the first child that is not
// dangerous. Failing both it falls back to the child with the smallest
// aggregate value.
//
// The fallback comparison is seeded from the machine's sign and always asks
// for a smaller value, so it minimises for O and never fires for X. With X
// to move and no win or danger in sight GetMove returns ErrNoMove.
func (n *Node) GetMove(machine domain.Mark) (*Node, error) {
	if len(n.children) == 0 {
		return nil, ErrNoMove
	}

	danger := false
	for i := range n.children {
		c := &n.children[i]
		if c.dangerous {
			danger = true
			break
		}
		if c.directWin {
			return c, nil
		}
	}

	best := -1
	extremum := -extremumSeed * int(machine)
	for i := range n.children {
		c := &n.children[i]
		if c.value < extremum {
			best = i
			extremum = c.value
		}
		if c.directWin || (danger && !c.dangerous) {
			best = i
			break
		}
	}
	if best < 0 {
		return nil, ErrNoMove
	}
	return &n.children[best], nil
}

// Describe renders the node's children one per block with their aggregate
// value and flags, followed by the child board.
func (n *Node) Describe() string {
	var sb strings.Builder
	for i := range n.children {
		c := &n.children[i]
		fmt.Fprintf(&sb, "Child: %d| v:%d | %s | %s\n", i, c.value, flag(c.directWin), flag(c.dangerous))
		sb.WriteString(c.board.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func flag(v bool) string {
	if v {
		return "T"
	}
	return "F"
}
