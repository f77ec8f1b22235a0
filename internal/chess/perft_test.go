package chess

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

func perft(t *testing.T, e *LocalEngine, depth int) int {
	t.Helper()
	if depth == 0 {
		return 1
	}
	moves := AllLegalMoves(&e.state)
	if depth == 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		if _, err := e.Apply(m); err != nil {
			t.Fatalf("apply %s: %v", m, err)
		}
		nodes += perft(t, e, depth-1)
		if err := e.Undo(); err != nil {
			t.Fatalf("undo %s: %v", m, err)
		}
	}
	return nodes
}

func referencePerft(b *dragontoothmg.Board, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return len(moves)
	}
	nodes := 0
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += referencePerft(b, depth-1)
		unapply()
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  int
	}{
		{name: "start", fen: startFEN, depth: 3, want: 8902},
		{name: "kiwipete", fen: "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", depth: 2, want: 2039},
		{name: "position 3", fen: "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", depth: 3, want: 2812},
		{name: "position 4", fen: "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", depth: 2, want: 264},
		{name: "position 5", fen: "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", depth: 2, want: 1486},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(fromFEN(t, tt.fen))
			before := e.State()

			got := perft(t, e, tt.depth)
			if got != tt.want {
				t.Fatalf("perft(%d): got %d want %d", tt.depth, got, tt.want)
			}
			ref := dragontoothmg.ParseFen(tt.fen)
			if want := referencePerft(&ref, tt.depth); got != want {
				t.Fatalf("perft(%d): got %d, reference generator %d", tt.depth, got, want)
			}
			if after := e.State(); !after.Equal(&before) {
				t.Fatalf("perft left the position changed")
			}
		})
	}
}

// Random games compared move-for-move against an independent generator.
func TestMoveListsMatchReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for game := 0; game < 10; game++ {
		e := NewGame()
		for ply := 0; ply < 150 && e.Phase() == PhaseIdle; ply++ {
			st := e.State()
			ours := AllLegalMoves(&st)
			got := make([]string, len(ours))
			for i, m := range ours {
				got[i] = m.String()
			}

			fen := toFEN(&st)
			ref := dragontoothmg.ParseFen(fen)
			var want []string
			for _, m := range ref.GenerateLegalMoves() {
				want = append(want, m.String())
			}

			slices.Sort(got)
			slices.Sort(want)
			if !slices.Equal(got, want) {
				t.Fatalf("game %d ply %d %s:\ngot  %v\nwant %v", game, ply, fen, got, want)
			}
			if _, err := e.Apply(ours[rng.IntN(len(ours))]); err != nil {
				t.Fatalf("game %d ply %d: %v", game, ply, err)
			}
		}
	}
}
