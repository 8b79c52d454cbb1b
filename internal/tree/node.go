// Package tree holds the precomputed tic-tac-toe game tree and the move
// selection heuristic that runs over it.
package tree

import (
	"errors"

	"github.com/jaminalder/tictactoe-tree/internal/domain"
)

// Errors returned by tree operations. Both mean the observed game and the
// precomputed tree disagree and are not retryable.
var (
	ErrLookup = errors.New("board not found among children")
	ErrNoMove = errors.New("no move found")
)

// Node is one position of the precomputed game tree. It owns its children
// and never changes after Build returns.
type Node struct {
	board       domain.Board
	value       int
	directWin   bool
	dangerous   bool
	descendants int
	children    []Node
}

// New builds the whole reachable tree from the empty board.
func New() *Node {
	return Build(domain.Board{}, 0)
}

// Build recursively enumerates every continuation of b. The side to move is
// derived from depth alone: X at even depth, O at odd depth.
//
// A node is dangerous when one of its direct children is an immediate win
// for X. The check ignores whose turn it is, so an O win one ply away never
// marks a node dangerous.
func Build(b domain.Board, depth int) *Node {
	n := build(b, depth)
	return &n
}

func build(b domain.Board, depth int) Node {
	n := Node{board: b}
	res := domain.Evaluate(b)
	if res != domain.None {
		n.directWin = true
		n.value = int(res)
		return n
	}

	mark := domain.X
	if depth%2 == 1 {
		mark = domain.O
	}
	n.children = make([]Node, 0, b.EmptyCells())
	for i, m := range b {
		if m != domain.Empty {
			continue
		}
		next := b
		next[i] = mark
		child := build(next, depth+1)
		n.children = append(n.children, child)
		n.value += child.value
		n.dangerous = n.dangerous || (child.directWin && child.value == int(domain.XWins))
		n.descendants += 1 + child.descendants
	}
	return n
}

// Board returns the position stored in the node.
func (n *Node) Board() domain.Board { return n.board }

// Value is the evaluator result summed over the node and all its descendants.
func (n *Node) Value() int { return n.value }

// DirectWin reports whether the node's own board holds a completed line.
func (n *Node) DirectWin() bool { return n.directWin }

// Dangerous reports whether a direct child is an immediate X win.
func (n *Node) Dangerous() bool { return n.dangerous }

// NumChildren is the number of direct continuations.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th direct continuation in cell order.
func (n *Node) Child(i int) *Node { return &n.children[i] }

// Terminal reports whether the game is over at this node.
func (n *Node) Terminal() bool { return len(n.children) == 0 }

// Size counts the node and everything below it.
func (n *Node) Size() int { return 1 + n.descendants }

// Outcome classifies the node's board.
func (n *Node) Outcome() domain.Outcome { return domain.Evaluate(n.board) }

// FindMove returns the direct child whose board equals b.
func (n *Node) FindMove(b domain.Board) (*Node, error) {
	for i := range n.children {
		if n.children[i].board == b {
			return &n.children[i], nil
		}
	}
	return nil, ErrLookup
}
