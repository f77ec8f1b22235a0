package display

import (
	"fmt"
	"io"
	"strings"

	"chessroom/internal/chess"
)

// RenderBoard writes the board with colored pieces. White sits at the bottom
// unless flip is set. The last move's squares are shown in green.
func RenderBoard(w io.Writer, st *chess.State, flip bool) {
	files := "  a b c d e f g h"
	if flip {
		files = "  h g f e d c b a"
	}
	fmt.Fprintln(w, Paint(Cyan, files))

	for i := 0; i < 8; i++ {
		r := i
		if flip {
			r = 7 - i
		}
		var sb strings.Builder
		rank := fmt.Sprintf("%d", 8-r)
		sb.WriteString(Paint(Cyan, rank))
		sb.WriteByte(' ')
		for j := 0; j < 8; j++ {
			c := j
			if flip {
				c = 7 - j
			}
			sq := chess.Square{Row: r, Col: c}
			sb.WriteString(pieceCell(st, sq))
			sb.WriteByte(' ')
		}
		sb.WriteString(Paint(Cyan, rank))
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, Paint(Cyan, files))
}

func pieceCell(st *chess.State, sq chess.Square) string {
	p := st.Board.At(sq)
	if p.IsEmpty() {
		if lastMoveTouches(st, sq) {
			return Paint(Green, "*")
		}
		return "."
	}

	color := Blue
	if p.Color == chess.Black {
		color = Red
	}
	if lastMoveTouches(st, sq) {
		color = Green
	}
	return Paint(color, string(p.Rune()))
}

func lastMoveTouches(st *chess.State, sq chess.Square) bool {
	return st.LastMove != nil && (st.LastMove.From == sq || st.LastMove.To == sq)
}

// ColorForTurn returns colored turn indicator
func ColorForTurn(c chess.Color) string {
	if c == chess.White {
		return Paint(Blue, "White")
	}
	return Paint(Red, "Black")
}
