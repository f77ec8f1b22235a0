package chess

import "fmt"

type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "-"
	}
}

// Opponent returns the other side. NoColor maps to itself.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// ParseColor accepts "white"/"black" and the short forms "w"/"b".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: '.', Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k'}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// Letter returns the lower-case piece letter used on the wire ('q', 'r', ...).
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return '.'
	}
	return kindLetters[k]
}

// IsPromotionChoice reports whether a pawn may promote to k.
func (k Kind) IsPromotionChoice() bool {
	return k == Knight || k == Bishop || k == Rook || k == Queen
}

// ParseKind accepts a piece letter in either case or a full kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "p", "P", "pawn":
		return Pawn, nil
	case "n", "N", "knight":
		return Knight, nil
	case "b", "B", "bishop":
		return Bishop, nil
	case "r", "R", "rook":
		return Rook, nil
	case "q", "Q", "queen":
		return Queen, nil
	case "k", "K", "king":
		return King, nil
	}
	return NoKind, fmt.Errorf("unknown piece kind %q", s)
}

// Piece is a kind/color pair. The zero value is an empty square.
type Piece struct {
	Kind  Kind
	Color Color
}

var NoPiece = Piece{}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// Rune returns the board letter: upper case for white, lower case for black.
func (p Piece) Rune() rune {
	r := rune(p.Kind.Letter())
	if p.Color == White && p.Kind != NoKind {
		r -= 'a' - 'A'
	}
	return r
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Kind.String()
}

// Square addresses the board by row and column. Row 0 is black's home rank.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var NoSquare = Square{Row: -1, Col: -1}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

// String renders algebraic coordinates, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

// ParseSquare reads algebraic coordinates such as "e2".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: int('8' - s[1]), Col: int(s[0] - 'a')}, nil
}
