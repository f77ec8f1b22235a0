package chess

type Flag uint8

const (
	FlagNone Flag = iota
	FlagPromotion
	FlagPawnDoubleMove
	FlagEnPassant
	FlagCastling
)

func (f Flag) String() string {
	switch f {
	case FlagPromotion:
		return "promotion"
	case FlagPawnDoubleMove:
		return "pawnDoubleMove"
	case FlagEnPassant:
		return "enPassant"
	case FlagCastling:
		return "castling"
	default:
		return "none"
	}
}

type CastleSide uint8

const (
	NoCastle CastleSide = iota
	KingSide
	QueenSide
)

func (s CastleSide) String() string {
	switch s {
	case KingSide:
		return "kingSide"
	case QueenSide:
		return "queenSide"
	default:
		return ""
	}
}

// Candidate is one generated destination together with its special-move data.
type Candidate struct {
	To   Square
	Flag Flag

	// CapturedPawn is set for FlagEnPassant.
	CapturedPawn Square

	// Castle, RookFromCol and RookToCol are set for FlagCastling.
	Castle      CastleSide
	RookFromCol int
	RookToCol   int
}

func quiet(to Square) Candidate {
	return Candidate{To: to, CapturedPawn: NoSquare}
}

var (
	rookDirs   = [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs  = append(append([][2]int{}, rookDirs...), bishopDirs...)

	knightOffsets = [][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// pawnDirection is the row delta of a forward pawn step.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func homeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func promotionRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

// Generate produces pseudo-legal candidates for the piece on sq. It does not
// consider whether the mover's own king is left in check.
func Generate(st *State, sq Square) []Candidate {
	p := st.Board.At(sq)
	if p.IsEmpty() {
		return nil
	}

	var out []Candidate
	switch p.Kind {
	case Pawn:
		out = pawnMoves(st, sq, p.Color, out)
	case Knight:
		out = stepMoves(&st.Board, sq, p.Color, knightOffsets, out)
	case Bishop:
		out = slideMoves(&st.Board, sq, p.Color, bishopDirs, out)
	case Rook:
		out = slideMoves(&st.Board, sq, p.Color, rookDirs, out)
	case Queen:
		out = slideMoves(&st.Board, sq, p.Color, queenDirs, out)
	case King:
		out = stepMoves(&st.Board, sq, p.Color, kingOffsets, out)
		out = castlingMoves(st, sq, p.Color, out)
	}
	return out
}

func pawnMoves(st *State, sq Square, color Color, out []Candidate) []Candidate {
	b := &st.Board
	dir := pawnDirection(color)
	lastRow := promotionRow(color)

	one := sq.offset(dir, 0)
	if one.Valid() && b.At(one).IsEmpty() {
		c := quiet(one)
		if one.Row == lastRow {
			c.Flag = FlagPromotion
		}
		out = append(out, c)

		two := sq.offset(2*dir, 0)
		if sq.Row == pawnStartRow(color) && b.At(two).IsEmpty() {
			c := quiet(two)
			c.Flag = FlagPawnDoubleMove
			out = append(out, c)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		to := sq.offset(dir, dc)
		if !to.Valid() {
			continue
		}
		if target := b.At(to); !target.IsEmpty() && target.Color != color {
			c := quiet(to)
			if to.Row == lastRow {
				c.Flag = FlagPromotion
			}
			out = append(out, c)
		} else if target.IsEmpty() && to == st.EnPassant {
			out = append(out, Candidate{
				To:           to,
				Flag:         FlagEnPassant,
				CapturedPawn: Square{Row: sq.Row, Col: to.Col},
			})
		}
	}
	return out
}

func slideMoves(b *Board, sq Square, color Color, dirs [][2]int, out []Candidate) []Candidate {
	for _, d := range dirs {
		to := sq.offset(d[0], d[1])
		for to.Valid() {
			target := b.At(to)
			if target.IsEmpty() {
				out = append(out, quiet(to))
			} else {
				if target.Color != color {
					out = append(out, quiet(to))
				}
				break
			}
			to = to.offset(d[0], d[1])
		}
	}
	return out
}

func stepMoves(b *Board, sq Square, color Color, offsets [][2]int, out []Candidate) []Candidate {
	for _, o := range offsets {
		to := sq.offset(o[0], o[1])
		if !to.Valid() {
			continue
		}
		if target := b.At(to); target.IsEmpty() || target.Color != color {
			out = append(out, quiet(to))
		}
	}
	return out
}

type castleLayout struct {
	side     CastleSide
	rookFrom int
	rookTo   int
	kingTo   int
	between  []int
}

var castleLayouts = [2]castleLayout{
	{side: KingSide, rookFrom: 7, rookTo: 5, kingTo: 6, between: []int{5, 6}},
	{side: QueenSide, rookFrom: 0, rookTo: 3, kingTo: 2, between: []int{1, 2, 3}},
}

func castlingMoves(st *State, sq Square, color Color, out []Candidate) []Candidate {
	row := homeRow(color)
	if sq.Row != row || sq.Col != 4 {
		return out
	}
	rights := st.Castling.For(color)
	if !rights.KingSide && !rights.QueenSide {
		return out
	}
	if InCheck(&st.Board, color) {
		return out
	}

	b := &st.Board
	enemy := color.Opponent()
	for _, l := range castleLayouts {
		if (l.side == KingSide && !rights.KingSide) || (l.side == QueenSide && !rights.QueenSide) {
			continue
		}
		if rook := b[row][l.rookFrom]; rook.Kind != Rook || rook.Color != color {
			continue
		}
		clear := true
		for _, c := range l.between {
			if !b[row][c].IsEmpty() {
				clear = false
				break
			}
		}
		if !clear {
			continue
		}
		// the king crosses the rook's destination and lands on kingTo
		if IsSquareAttacked(b, Square{Row: row, Col: l.rookTo}, enemy) ||
			IsSquareAttacked(b, Square{Row: row, Col: l.kingTo}, enemy) {
			continue
		}
		out = append(out, Candidate{
			To:           Square{Row: row, Col: l.kingTo},
			Flag:         FlagCastling,
			CapturedPawn: NoSquare,
			Castle:       l.side,
			RookFromCol:  l.rookFrom,
			RookToCol:    l.rookTo,
		})
	}
	return out
}

// AttackSquares lists the squares the piece on sq threatens. Pawns threaten
// their two forward diagonals regardless of occupancy and never the square
// straight ahead; kings contribute no castling squares.
func AttackSquares(b *Board, sq Square) []Square {
	p := b.At(sq)
	if p.IsEmpty() {
		return nil
	}

	var cands []Candidate
	switch p.Kind {
	case Pawn:
		dir := pawnDirection(p.Color)
		var out []Square
		for _, dc := range [2]int{-1, 1} {
			if to := sq.offset(dir, dc); to.Valid() {
				out = append(out, to)
			}
		}
		return out
	case Knight:
		cands = stepMoves(b, sq, p.Color, knightOffsets, nil)
	case Bishop:
		cands = slideMoves(b, sq, p.Color, bishopDirs, nil)
	case Rook:
		cands = slideMoves(b, sq, p.Color, rookDirs, nil)
	case Queen:
		cands = slideMoves(b, sq, p.Color, queenDirs, nil)
	case King:
		cands = stepMoves(b, sq, p.Color, kingOffsets, nil)
	}

	out := make([]Square, len(cands))
	for i, c := range cands {
		out[i] = c.To
	}
	return out
}
