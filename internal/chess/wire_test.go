package chess

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWireCarriesSpecialMoves(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		setup  []string
		move   string
		fields []string
	}{
		{
			name:   "double push",
			fen:    startFEN,
			move:   "e2e4",
			fields: []string{`"pawnDoubleMove":true`},
		},
		{
			name:   "king side castle",
			fen:    "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1",
			move:   "e1g1",
			fields: []string{`"castling":"kingSide"`, `"rookFromCol":7`, `"rookToCol":5`},
		},
		{
			name:   "queen side castle",
			fen:    "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1",
			move:   "e8c8",
			fields: []string{`"castling":"queenSide"`, `"rookFromCol":0`, `"rookToCol":3`},
		},
		{
			name:   "en passant",
			fen:    startFEN,
			setup:  []string{"e2e4", "a7a6", "e4e5", "f7f5"},
			move:   "e5f6",
			fields: []string{`"enPassant":true`, `"capturedPawnRow":3`, `"capturedPawnCol":5`},
		},
		{
			name:   "promotion",
			fen:    "8/P6k/8/8/8/8/8/K7 w - - 0 1",
			move:   "a7a8r",
			fields: []string{`"promotion":true`, `"promotedTo":"r"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewEngine(fromFEN(t, tt.fen))
			play(t, sender, tt.setup...)
			play(t, sender, tt.move)
			h := sender.History()
			w := h[len(h)-1].Move.Wire()

			raw, err := json.Marshal(w)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			for _, f := range tt.fields {
				if !strings.Contains(string(raw), f) {
					t.Fatalf("payload %s missing %s", raw, f)
				}
			}

			var decoded WireMove
			if err := json.Unmarshal(raw, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			receiver := NewEngine(fromFEN(t, tt.fen))
			play(t, receiver, tt.setup...)
			if _, err := ApplyWire(receiver, decoded); err != nil {
				t.Fatalf("apply wire: %v", err)
			}
			a, b := sender.State(), receiver.State()
			if !a.Equal(&b) {
				t.Fatalf("receiver diverged:\n%s\n%s", a.Board.ToASCII(), b.Board.ToASCII())
			}
		})
	}
}

func TestWireFromBrowserPayload(t *testing.T) {
	raw := `{"fromRow":6,"fromCol":4,"toRow":4,"toCol":4,"pawnDoubleMove":true,"player":"white","timestamp":1700000000000}`
	var w WireMove
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	e := NewGame()
	res, err := ApplyWire(e, w)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Move.String() != "e2e4" || e.State().EnPassant != (Square{Row: 5, Col: 4}) {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestWireRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		w    WireMove
		err  error
	}{
		{name: "off board", w: WireMove{FromRow: 9, FromCol: 0, ToRow: 4, ToCol: 0}, err: ErrIllegalMove},
		{name: "king promotion", w: WireMove{FromRow: 1, FromCol: 0, ToRow: 0, ToCol: 0, Promotion: true, PromotedTo: "k"}, err: ErrInvalidPromotion},
		{name: "unknown castle", w: WireMove{FromRow: 7, FromCol: 4, ToRow: 7, ToCol: 6, Castling: "long"}, err: ErrIllegalMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.w.Move(); !errors.Is(err, tt.err) {
				t.Fatalf("got %v want %v", err, tt.err)
			}
		})
	}

	// a promotion without a choice cannot be applied in one step
	e := NewEngine(fromFEN(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1"))
	if _, err := ApplyWire(e, WireMove{FromRow: 1, FromCol: 0, ToRow: 0, ToCol: 0, Promotion: true}); !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("promotion without piece: got %v", err)
	}
	if e.Phase() != PhaseIdle {
		t.Fatalf("phase: got %v", e.Phase())
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in      string
		from    string
		to      string
		promo   Kind
		wantErr bool
	}{
		{in: "e2e4", from: "e2", to: "e4"},
		{in: "E2-E4", from: "e2", to: "e4"},
		{in: "a7a8q", from: "a7", to: "a8", promo: Queen},
		{in: "a7a8k", wantErr: true},
		{in: "e9e4", wantErr: true},
		{in: "e2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			from, to, promo, err := ParseCoordinates(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if from.String() != tt.from || to.String() != tt.to || promo != tt.promo {
				t.Fatalf("got %v %v %v", from, to, promo)
			}
		})
	}
}
