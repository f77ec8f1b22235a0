package chess

type Status uint8

const (
	StatusNone Status = iota
	StatusCheckmate
	StatusStalemate
	StatusResignation
	StatusDrawAgreement
)

func (s Status) String() string {
	switch s {
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusResignation:
		return "resignation"
	case StatusDrawAgreement:
		return "draw"
	default:
		return "none"
	}
}

// IsSquareAttacked reports whether any piece of color by threatens sq.
func IsSquareAttacked(b *Board, sq Square, by Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b[r][c]
			if p.IsEmpty() || p.Color != by {
				continue
			}
			for _, t := range AttackSquares(b, Square{Row: r, Col: c}) {
				if t == sq {
					return true
				}
			}
		}
	}
	return false
}

// InCheck reports whether color's king is attacked. A board without that
// king is never in check.
func InCheck(b *Board, color Color) bool {
	k := b.KingSquare(color)
	if !k.Valid() {
		return false
	}
	return IsSquareAttacked(b, k, color.Opponent())
}

// LegalMoves filters Generate down to moves that do not leave the mover's
// king attacked. Castling candidates are already guarded by the generator.
func LegalMoves(st *State, sq Square) []Candidate {
	p := st.Board.At(sq)
	if p.IsEmpty() {
		return nil
	}
	cands := Generate(st, sq)
	legal := cands[:0]
	for _, c := range cands {
		if c.Flag == FlagCastling || !leavesKingAttacked(&st.Board, sq, c, p.Color) {
			legal = append(legal, c)
		}
	}
	return legal
}

func leavesKingAttacked(b *Board, from Square, c Candidate, color Color) bool {
	scratch := *b
	if c.Flag == FlagEnPassant {
		scratch.Set(c.CapturedPawn, NoPiece)
	}
	scratch.Set(c.To, scratch.At(from))
	scratch.Set(from, NoPiece)
	return InCheck(&scratch, color)
}

func hasLegalMove(st *State, color Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := st.Board[r][c]
			if p.IsEmpty() || p.Color != color {
				continue
			}
			if len(LegalMoves(st, Square{Row: r, Col: c})) > 0 {
				return true
			}
		}
	}
	return false
}

// TerminalStatus returns StatusCheckmate or StatusStalemate when color has
// no legal move, StatusNone otherwise.
func TerminalStatus(st *State, color Color) Status {
	if hasLegalMove(st, color) {
		return StatusNone
	}
	if InCheck(&st.Board, color) {
		return StatusCheckmate
	}
	return StatusStalemate
}

// AllLegalMoves lists every legal move of the side to move. Promotion moves
// are expanded into one entry per promotion choice.
func AllLegalMoves(st *State) []Move {
	var out []Move
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			from := Square{Row: r, Col: c}
			p := st.Board.At(from)
			if p.IsEmpty() || p.Color != st.Turn {
				continue
			}
			for _, cand := range LegalMoves(st, from) {
				if cand.Flag != FlagPromotion {
					out = append(out, Move{From: from, Candidate: cand})
					continue
				}
				for _, k := range promotionChoices {
					out = append(out, Move{From: from, Candidate: cand, PromoteTo: k})
				}
			}
		}
	}
	return out
}

var promotionChoices = [4]Kind{Queen, Rook, Bishop, Knight}
