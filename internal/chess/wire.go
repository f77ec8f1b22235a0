package chess

import "fmt"

// WireMove is the JSON move payload exchanged through the relay.
type WireMove struct {
	FromRow int `json:"fromRow" validate:"min=0,max=7"`
	FromCol int `json:"fromCol" validate:"min=0,max=7"`
	ToRow   int `json:"toRow" validate:"min=0,max=7"`
	ToCol   int `json:"toCol" validate:"min=0,max=7"`

	Promotion  bool   `json:"promotion,omitempty"`
	PromotedTo string `json:"promotedTo,omitempty" validate:"omitempty,oneof=q r b n Q R B N"`

	Castling    string `json:"castling,omitempty" validate:"omitempty,oneof=kingSide queenSide"`
	RookFromCol *int   `json:"rookFromCol,omitempty" validate:"omitempty,min=0,max=7"`
	RookToCol   *int   `json:"rookToCol,omitempty" validate:"omitempty,min=0,max=7"`

	EnPassant       bool `json:"enPassant,omitempty"`
	CapturedPawnRow *int `json:"capturedPawnRow,omitempty" validate:"omitempty,min=0,max=7"`
	CapturedPawnCol *int `json:"capturedPawnCol,omitempty" validate:"omitempty,min=0,max=7"`

	PawnDoubleMove bool `json:"pawnDoubleMove,omitempty"`
}

func intPtr(v int) *int { return &v }

// Wire converts an executed move to its relay payload.
func (m Move) Wire() WireMove {
	w := WireMove{
		FromRow: m.From.Row,
		FromCol: m.From.Col,
		ToRow:   m.To.Row,
		ToCol:   m.To.Col,
	}
	switch m.Flag {
	case FlagPromotion:
		w.Promotion = true
		if m.PromoteTo != NoKind {
			w.PromotedTo = string(m.PromoteTo.Letter())
		}
	case FlagCastling:
		w.Castling = m.Castle.String()
		w.RookFromCol = intPtr(m.RookFromCol)
		w.RookToCol = intPtr(m.RookToCol)
	case FlagEnPassant:
		w.EnPassant = true
		w.CapturedPawnRow = intPtr(m.CapturedPawn.Row)
		w.CapturedPawnCol = intPtr(m.CapturedPawn.Col)
	case FlagPawnDoubleMove:
		w.PawnDoubleMove = true
	}
	return w
}

// Move decodes the payload. Special-move fields are carried over as sent;
// the engine re-derives them from its own generator when the move is applied.
func (w WireMove) Move() (Move, error) {
	m := Move{
		From:      Square{Row: w.FromRow, Col: w.FromCol},
		Candidate: quiet(Square{Row: w.ToRow, Col: w.ToCol}),
	}
	if !m.From.Valid() || !m.To.Valid() {
		return Move{}, fmt.Errorf("%w: square out of range", ErrIllegalMove)
	}

	switch {
	case w.Promotion || w.PromotedTo != "":
		m.Flag = FlagPromotion
		if w.PromotedTo != "" {
			k, err := ParseKind(w.PromotedTo)
			if err != nil || !k.IsPromotionChoice() {
				return Move{}, fmt.Errorf("%w: %q", ErrInvalidPromotion, w.PromotedTo)
			}
			m.PromoteTo = k
		}
	case w.Castling != "":
		m.Flag = FlagCastling
		switch w.Castling {
		case "kingSide":
			m.Castle = KingSide
		case "queenSide":
			m.Castle = QueenSide
		default:
			return Move{}, fmt.Errorf("%w: castling side %q", ErrIllegalMove, w.Castling)
		}
		if w.RookFromCol != nil {
			m.RookFromCol = *w.RookFromCol
		}
		if w.RookToCol != nil {
			m.RookToCol = *w.RookToCol
		}
	case w.EnPassant:
		m.Flag = FlagEnPassant
		m.CapturedPawn = Square{Row: w.FromRow, Col: w.ToCol}
	case w.PawnDoubleMove:
		m.Flag = FlagPawnDoubleMove
	}
	return m, nil
}

// ApplyWire decodes w and applies it to e as a single step.
func ApplyWire(e *LocalEngine, w WireMove) (Result, error) {
	m, err := w.Move()
	if err != nil {
		return Result{}, err
	}
	return e.Apply(m)
}
