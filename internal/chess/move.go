package chess

import (
	"fmt"
	"strings"
)

// Move is a fully specified move as executed by the engine.
type Move struct {
	From Square
	Candidate
	PromoteTo Kind
}

// String renders coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.PromoteTo != NoKind {
		s += string(m.PromoteTo.Letter())
	}
	return s
}

// ParseCoordinates reads coordinate notation ("e2e4", "e7e8q", "e2-e4").
// The returned kind is NoKind when no promotion letter is present.
func ParseCoordinates(s string) (from, to Square, promo Kind, err error) {
	s = strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), "-", "")
	if len(s) != 4 && len(s) != 5 {
		return NoSquare, NoSquare, NoKind, fmt.Errorf("invalid move %q", s)
	}
	if from, err = ParseSquare(s[0:2]); err != nil {
		return NoSquare, NoSquare, NoKind, err
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return NoSquare, NoSquare, NoKind, err
	}
	if len(s) == 5 {
		promo, err = ParseKind(s[4:])
		if err != nil || !promo.IsPromotionChoice() {
			return NoSquare, NoSquare, NoKind, fmt.Errorf("%w: %q", ErrInvalidPromotion, s[4:])
		}
	}
	return from, to, promo, nil
}

// HistoryEntry holds what is needed to invert one executed move.
type HistoryEntry struct {
	Move Move

	// Moved is the piece that left the origin square, a pawn for promotions.
	Moved Piece

	// Captured is NoPiece for quiet moves. CapturedAt differs from Move.To
	// only for en passant.
	Captured   Piece
	CapturedAt Square

	PriorCastling  Rights
	PriorEnPassant Square
	PriorLastMove  *LastMove
}
