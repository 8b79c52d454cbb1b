package domain

// Outcome is the terminal signal of a board: the sign of the side holding a
// complete line, or None.
type Outcome int8

const (
	None  Outcome = 0
	XWins Outcome = 1
	OWins Outcome = -1
)

// Winner returns the mark that completed a line, or Empty.
func (o Outcome) Winner() Mark {
	return Mark(o)
}

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "X wins"
	case OWins:
		return "O wins"
	default:
		return "none"
	}
}

// Evaluate reports which side, if any, owns a full row, column or diagonal.
//
// Columns and rows are checked pairwise (column j, then row j). The diagonal
// sums are divided by Size with truncation, so only a diagonal held entirely
// by one side yields a non-zero result; the main diagonal wins ties.
func Evaluate(b Board) Outcome {
	var cols, rows [Size]int
	for i, m := range b {
		cols[i%Size] += int(m)
		rows[i/Size] += int(m)
	}
	for j := 0; j < Size; j++ {
		if abs(cols[j]) == Size {
			return sign(cols[j])
		}
		if abs(rows[j]) == Size {
			return sign(rows[j])
		}
	}

	var diag [2]int
	for j := 0; j < Size; j++ {
		diag[0] += int(b[j*(Size+1)])
		diag[1] += int(b[j+(Size-j-1)*Size])
	}
	if d := diag[0] / Size; d != 0 {
		return Outcome(d)
	}
	return Outcome(diag[1] / Size)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) Outcome {
	if v < 0 {
		return OWins
	}
	return XWins
}
