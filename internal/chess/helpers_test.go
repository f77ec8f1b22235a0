package chess

import (
	"fmt"
	"strings"
	"testing"
)

var pieceByLetter = map[byte]Kind{'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King}

// position builds a state from eight rank strings, rank 8 first. Upper case
// is white, '.' is empty. Castling rights start cleared.
func position(t *testing.T, turn Color, rows ...string) State {
	t.Helper()
	if len(rows) != 8 {
		t.Fatalf("position: want 8 rows, got %d", len(rows))
	}
	st := State{Turn: turn, EnPassant: NoSquare}
	for r, row := range rows {
		if len(row) != 8 {
			t.Fatalf("position: row %d has %d squares", r, len(row))
		}
		for c := 0; c < 8; c++ {
			ch := row[c]
			if ch == '.' {
				continue
			}
			color := Black
			if ch >= 'A' && ch <= 'Z' {
				color = White
				ch += 'a' - 'A'
			}
			k, ok := pieceByLetter[ch]
			if !ok {
				t.Fatalf("position: bad piece %q", row[c])
			}
			st.Board[r][c] = Piece{Kind: k, Color: color}
		}
	}
	return st
}

// fromFEN reads the first four FEN fields.
func fromFEN(t *testing.T, fen string) State {
	t.Helper()
	f := strings.Fields(fen)
	if len(f) < 4 {
		t.Fatalf("fromFEN: short fen %q", fen)
	}
	ranks := strings.Split(f[0], "/")
	rows := make([]string, 8)
	for i, rank := range ranks {
		var sb strings.Builder
		for _, ch := range rank {
			if ch >= '1' && ch <= '8' {
				sb.WriteString(strings.Repeat(".", int(ch-'0')))
			} else {
				sb.WriteRune(ch)
			}
		}
		rows[i] = sb.String()
	}

	turn := White
	if f[1] == "b" {
		turn = Black
	}
	st := position(t, turn, rows...)
	st.Castling.White.KingSide = strings.Contains(f[2], "K")
	st.Castling.White.QueenSide = strings.Contains(f[2], "Q")
	st.Castling.Black.KingSide = strings.Contains(f[2], "k")
	st.Castling.Black.QueenSide = strings.Contains(f[2], "q")
	if f[3] != "-" {
		sq, err := ParseSquare(f[3])
		if err != nil {
			t.Fatalf("fromFEN: %v", err)
		}
		st.EnPassant = sq
	}
	return st
}

// toFEN renders st for comparison with other move generators.
func toFEN(st *State) string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for c := 0; c < 8; c++ {
			p := st.Board[r][c]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(p.Rune())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if st.Turn == Black {
		side = "b"
	}
	rights := ""
	if st.Castling.White.KingSide {
		rights += "K"
	}
	if st.Castling.White.QueenSide {
		rights += "Q"
	}
	if st.Castling.Black.KingSide {
		rights += "k"
	}
	if st.Castling.Black.QueenSide {
		rights += "q"
	}
	if rights == "" {
		rights = "-"
	}
	return fmt.Sprintf("%s %s %s %s 0 1", sb.String(), side, rights, st.EnPassant)
}

func sq(t *testing.T, s string) Square {
	t.Helper()
	v, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return v
}

// play executes coordinate moves on e, resolving promotions.
func play(t *testing.T, e *LocalEngine, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		from, to, promo, err := ParseCoordinates(mv)
		if err != nil {
			t.Fatalf("parse %s: %v", mv, err)
		}
		if _, err := e.Apply(Move{From: from, Candidate: quiet(to), PromoteTo: promo}); err != nil {
			t.Fatalf("apply %s: %v\n%s", mv, err, e.state.Board.ToASCII())
		}
	}
}

func hasDest(cands []Candidate, to Square) (Candidate, bool) {
	for _, c := range cands {
		if c.To == to {
			return c, true
		}
	}
	return Candidate{}, false
}
