package chess

import (
	"fmt"
	"slices"
	"strings"
)

// Board is the 8x8 occupancy grid indexed [row][col].
type Board [8][8]Piece

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartingBoard returns the standard initial position.
func StartingBoard() Board {
	var b Board
	for c := 0; c < 8; c++ {
		b[0][c] = Piece{Kind: backRank[c], Color: Black}
		b[1][c] = Piece{Kind: Pawn, Color: Black}
		b[6][c] = Piece{Kind: Pawn, Color: White}
		b[7][c] = Piece{Kind: backRank[c], Color: White}
	}
	return b
}

func (b *Board) At(sq Square) Piece {
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

// KingSquare scans for the king of color c. Returns NoSquare when absent.
func (b *Board) KingSquare(c Color) Square {
	for r := 0; r < 8; r++ {
		for col := 0; col < 8; col++ {
			if p := b[r][col]; p.Kind == King && p.Color == c {
				return Square{Row: r, Col: col}
			}
		}
	}
	return NoSquare
}

// ToASCII creates an ASCII representation of the board, white at the bottom
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for c := 0; c < 8; c++ {
			sb.WriteRune(b[r][c].Rune())
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")
	return sb.String()
}

type CastlingRights struct {
	KingSide  bool `json:"kingSide"`
	QueenSide bool `json:"queenSide"`
}

type Rights struct {
	White CastlingRights `json:"white"`
	Black CastlingRights `json:"black"`
}

func (r *Rights) For(c Color) *CastlingRights {
	if c == Black {
		return &r.Black
	}
	return &r.White
}

// LastMove is kept for highlighting only.
type LastMove struct {
	From         Square     `json:"from"`
	To           Square     `json:"to"`
	Castle       CastleSide `json:"castle,omitempty"`
	RookFrom     Square     `json:"rookFrom"`
	RookTo       Square     `json:"rookTo"`
	EnPassant    bool       `json:"enPassant,omitempty"`
	CapturedPawn Square     `json:"capturedPawn"`
}

type Captured struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

func (c *Captured) of(color Color) *[]Piece {
	if color == Black {
		return &c.Black
	}
	return &c.White
}

// State is the full position plus the derived metadata the rules depend on.
type State struct {
	Board     Board     `json:"board"`
	Turn      Color     `json:"turn"`
	Castling  Rights    `json:"castling"`
	EnPassant Square    `json:"enPassant"`
	LastMove  *LastMove `json:"lastMove,omitempty"`
	Captured  Captured  `json:"captured"`
}

// NewState returns the standard starting position with white to move.
func NewState() State {
	return State{
		Board: StartingBoard(),
		Turn:  White,
		Castling: Rights{
			White: CastlingRights{KingSide: true, QueenSide: true},
			Black: CastlingRights{KingSide: true, QueenSide: true},
		},
		EnPassant: NoSquare,
	}
}

// Clone deep-copies the captured lists; the board is a value already.
func (s State) Clone() State {
	s.Captured = Captured{
		White: slices.Clone(s.Captured.White),
		Black: slices.Clone(s.Captured.Black),
	}
	return s
}

// Equal compares two states field by field. Nil and empty capture lists are equal.
func (s *State) Equal(o *State) bool {
	if s.Board != o.Board || s.Turn != o.Turn || s.Castling != o.Castling || s.EnPassant != o.EnPassant {
		return false
	}
	if (s.LastMove == nil) != (o.LastMove == nil) {
		return false
	}
	if s.LastMove != nil && *s.LastMove != *o.LastMove {
		return false
	}
	return slices.Equal(s.Captured.White, o.Captured.White) && slices.Equal(s.Captured.Black, o.Captured.Black)
}
