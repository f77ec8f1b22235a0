package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"chessroom/internal/chess"
)

// PrettyPrintJSON prints formatted JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, Paint(Red, "Error formatting JSON: "+err.Error()))
		return
	}
	fmt.Fprintln(w, string(data))
}

// FormatCaptured lists the captured pieces of one side as board letters
func FormatCaptured(pieces []chess.Piece) string {
	if len(pieces) == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteRune(p.Rune())
	}
	return sb.String()
}

// FormatOutcome describes a finished game, e.g. "white wins by checkmate"
func FormatOutcome(o chess.Outcome) string {
	switch o.Status {
	case chess.StatusNone:
		return "in progress"
	case chess.StatusStalemate:
		return "draw by stalemate"
	case chess.StatusDrawAgreement:
		return "draw by agreement"
	}
	return fmt.Sprintf("%s wins by %s", o.Winner, o.Status)
}

// FormatMoves numbers moves in pairs: "1. e2e4 e7e5 2. g1f3"
func FormatMoves(moves []chess.Move) string {
	var sb strings.Builder
	for i, m := range moves {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}
