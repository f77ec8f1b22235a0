package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"chessroom/internal/chess"
	"chessroom/internal/client/display"
	"chessroom/internal/server/core"
)

// fakeRelay records what the commands send
type fakeRelay struct {
	moves   []chess.WireMove
	results []core.GameResult
	calls   []string
}

func (f *fakeRelay) SendMove(w chess.WireMove) error {
	f.moves = append(f.moves, w)
	return nil
}

func (f *fakeRelay) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeRelay) CreateGame(gameType string) error { return f.record("create:" + gameType) }
func (f *fakeRelay) JoinGame(code string) error       { return f.record("join:" + code) }
func (f *fakeRelay) FindGame(gameType string) error   { return f.record("find") }
func (f *fakeRelay) CancelSearch() error              { return f.record("cancel-search") }
func (f *fakeRelay) Reconnect(token string) error     { return f.record("reconnect:" + token) }
func (f *fakeRelay) Resign() error                    { return f.record("resign") }
func (f *fakeRelay) OfferDraw() error                 { return f.record("offer-draw") }
func (f *fakeRelay) AcceptDraw() error                { return f.record("accept-draw") }
func (f *fakeRelay) DeclineDraw() error               { return f.record("decline-draw") }
func (f *fakeRelay) RequestRematch() error            { return f.record("rematch") }
func (f *fakeRelay) DeclineRematch() error            { return f.record("decline-rematch") }

func (f *fakeRelay) GameOver(result core.GameResult) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeRelay) FetchSession(ctx context.Context, code string, wait bool, version uint64) (core.SessionResponse, error) {
	return core.SessionResponse{
		GameID:   code,
		GameType: core.GameTypeChess,
		Status:   core.StatusPlaying,
		Round:    1,
		Seats:    []core.SeatInfo{{Role: "white", Occupied: true, Connected: true}, {Role: "black", Occupied: true}},
	}, nil
}

func (f *fakeRelay) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func newTestRegistry(t *testing.T, relay Relay) (*Registry, *Session, *bytes.Buffer) {
	t.Helper()
	display.SetEnabled(false)
	var out bytes.Buffer
	s := NewSession(&out, relay)
	return NewRegistry(s), s, &out
}

func run(t *testing.T, r *Registry, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := r.Execute(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
}

func event(t *testing.T, s *Session, ev core.Event, payload any) {
	t.Helper()
	env, err := core.NewEnvelope(ev, payload)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	s.HandleEvent(env)
}

func wire(t *testing.T, coords string) chess.WireMove {
	t.Helper()
	from, to, _, err := chess.ParseCoordinates(coords)
	if err != nil {
		t.Fatalf("parse %s: %v", coords, err)
	}
	return chess.WireMove{FromRow: from.Row, FromCol: from.Col, ToRow: to.Row, ToCol: to.Col}
}

func TestLocalHotSeat(t *testing.T) {
	r, s, out := newTestRegistry(t, nil)

	run(t, r, "move e2e4", "m e7e5", "undo")
	e, _ := s.board()
	if got := len(e.Moves()); got != 1 {
		t.Fatalf("moves after undo: %d", got)
	}

	out.Reset()
	run(t, r, "moves g8")
	if !strings.Contains(out.String(), "g8f6") || !strings.Contains(out.String(), "g8h6") {
		t.Fatalf("knight moves: %s", out.String())
	}

	out.Reset()
	run(t, r, "move e2e5")
	if !strings.Contains(out.String(), "illegal move") {
		t.Fatalf("illegal move output: %s", out.String())
	}

	run(t, r, "new", "m f2f3", "m e7e5", "m g2g4", "m d8h4")
	if !strings.Contains(out.String(), "black wins by checkmate") {
		t.Fatalf("checkmate output: %s", out.String())
	}

	out.Reset()
	run(t, r, "history")
	if !strings.Contains(out.String(), "1. f2f3 e7e5 2. g2g4 d8h4") {
		t.Fatalf("history: %s", out.String())
	}
}

func TestLocalPromotionAndDraw(t *testing.T) {
	r, s, out := newTestRegistry(t, nil)

	run(t, r, "m h2h4", "m g7g5", "m h4g5", "m h7h6", "m g5h6", "m b8c6", "m h6h7", "m a7a6")
	run(t, r, "m h7g8")
	e, _ := s.board()
	if e.Phase() != chess.PhasePromotionPending {
		t.Fatalf("phase %s", e.Phase())
	}
	if !strings.Contains(out.String(), "Promotion pending (h7g8)") {
		t.Fatalf("pending promotion not shown: %s", out.String())
	}
	run(t, r, "cancel")
	if e.Phase() != chess.PhaseIdle {
		t.Fatalf("phase after cancel %s", e.Phase())
	}
	run(t, r, "m h7g8n")
	st := e.State()
	sq, _ := chess.ParseSquare("g8")
	if p := st.Board.At(sq); p.Kind != chess.Knight || p.Color != chess.White {
		t.Fatalf("g8 holds %s", p)
	}

	run(t, r, "draw")
	if !strings.Contains(out.String(), "draw by agreement") {
		t.Fatalf("draw output: %s", out.String())
	}
}

func TestLocalRejectsNetworkCommands(t *testing.T) {
	r, _, out := newTestRegistry(t, nil)
	run(t, r, "join ABC123", "bogus")
	if !strings.Contains(out.String(), ErrNetworkOnly.Error()) || !strings.Contains(out.String(), "Unknown command: bogus") {
		t.Fatalf("output: %s", out.String())
	}
	if err := r.Execute("exit"); !errors.Is(err, ErrExit) {
		t.Fatalf("exit returned %v", err)
	}
}

func TestNetworkGameFlow(t *testing.T) {
	relay := &fakeRelay{}
	r, s, out := newTestRegistry(t, relay)

	run(t, r, "move e2e4")
	if !strings.Contains(out.String(), ErrNoGame.Error()) {
		t.Fatalf("move without game: %s", out.String())
	}

	run(t, r, "new")
	if relay.last() != "create:chess" {
		t.Fatalf("calls %v", relay.calls)
	}
	event(t, s, core.EventGameCreated, core.GameCreatedResponse{GameID: "ABC123", GameType: "chess", Role: "white", Token: "tok"})
	if s.GameID != "ABC123" || s.Token != "tok" {
		t.Fatalf("session %+v", s)
	}

	out.Reset()
	run(t, r, "move e2e4")
	if !strings.Contains(out.String(), ErrNotStarted.Error()) || len(relay.moves) != 0 {
		t.Fatalf("move before opponent: %s", out.String())
	}

	event(t, s, core.EventPlayerJoined, core.PlayerJoinedResponse{Role: "black", GameStarted: true, CurrentPlayer: "white"})
	run(t, r, "move e2e4")
	if len(relay.moves) != 1 || relay.moves[0].FromRow != 6 || !relay.moves[0].PawnDoubleMove {
		t.Fatalf("sent %+v", relay.moves)
	}

	out.Reset()
	run(t, r, "move d2d4")
	if !strings.Contains(out.String(), chess.ErrNotYourTurn.Error()) || len(relay.moves) != 1 {
		t.Fatalf("out of turn: %s", out.String())
	}

	event(t, s, core.EventOpponentMove, wire(t, "e7e5"))
	e, _ := s.board()
	if len(e.Moves()) != 2 || e.Turn() != chess.White {
		t.Fatalf("after opponent move: %d moves, %s to move", len(e.Moves()), e.Turn())
	}

	out.Reset()
	run(t, r, "undo")
	if !strings.Contains(out.String(), ErrLocalOnly.Error()) || len(e.Moves()) != 2 {
		t.Fatalf("undo in network play: %s", out.String())
	}

	run(t, r, "decline")
	if !strings.Contains(out.String(), ErrNoDrawOffer.Error()) {
		t.Fatalf("decline without offer: %s", out.String())
	}
	event(t, s, core.EventDrawOffered, nil)
	run(t, r, "draw")
	if relay.last() != "accept-draw" {
		t.Fatalf("draw with pending offer sent %v", relay.calls)
	}
	event(t, s, core.EventGameOver, core.GameResult{Reason: "draw"})
	if e.Phase() != chess.PhaseGameOver || e.Outcome().Status != chess.StatusDrawAgreement {
		t.Fatalf("outcome %+v", e.Outcome())
	}

	run(t, r, "rematch")
	event(t, s, core.EventRematchStarted, core.RematchStartedResponse{Role: "black", CurrentPlayer: "white", Round: 2})
	e, _ = s.board()
	if s.Role != "black" || len(e.Moves()) != 0 || e.Phase() != chess.PhaseIdle {
		t.Fatalf("after rematch: role %s, %d moves, %s", s.Role, len(e.Moves()), e.Phase())
	}

	out.Reset()
	run(t, r, "info")
	if !strings.Contains(out.String(), "Session ABC123 (chess) playing") || !strings.Contains(out.String(), "away") {
		t.Fatalf("info: %s", out.String())
	}
}

func TestNetworkCheckmateReported(t *testing.T) {
	relay := &fakeRelay{}
	r, s, _ := newTestRegistry(t, relay)

	moves, _ := json.Marshal([]chess.WireMove{wire(t, "f2f3"), wire(t, "e7e5"), wire(t, "g2g4")})
	var raw []json.RawMessage
	json.Unmarshal(moves, &raw)
	event(t, s, core.EventGameJoined, core.GameJoinedResponse{
		GameID: "XYZ789", GameType: "chess", Role: "black", Token: "t2",
		CurrentPlayer: "black", Status: core.StatusPlaying, Moves: raw,
	})

	run(t, r, "m d8h4")
	if len(relay.results) != 1 {
		t.Fatalf("results %+v", relay.results)
	}
	if got := relay.results[0]; got.Winner != "black" || got.Reason != "checkmate" {
		t.Fatalf("result %+v", got)
	}
}

func TestErrorEventAndResign(t *testing.T) {
	relay := &fakeRelay{}
	r, s, out := newTestRegistry(t, relay)

	event(t, s, core.EventError, core.ErrorEvent{Message: "game not found", Code: core.ErrGameNotFound})
	if !strings.Contains(out.String(), "game not found (GAME_NOT_FOUND)") {
		t.Fatalf("error output: %s", out.String())
	}

	event(t, s, core.EventGameFound, core.GameFoundResponse{GameID: "QQQ111", GameType: "chess", Role: "white", Token: "t3"})
	run(t, r, "resign")
	e, _ := s.board()
	if relay.last() != "resign" || e.Outcome().Winner != chess.Black {
		t.Fatalf("resign: calls %v outcome %+v", relay.calls, e.Outcome())
	}

	run(t, r, "decline", "reconnect")
	if relay.calls[len(relay.calls)-2] != "decline-rematch" || relay.last() != "reconnect:t3" {
		t.Fatalf("calls %v", relay.calls)
	}

	out.Reset()
	event(t, s, core.EventGameJoined, core.GameJoinedResponse{GameID: "TTT000", GameType: "tictactoe", Role: "X"})
	if !strings.Contains(out.String(), ErrChessOnly.Error()) {
		t.Fatalf("tictactoe join: %s", out.String())
	}
}

func TestMalformedEventPayloads(t *testing.T) {
	_, s, out := newTestRegistry(t, &fakeRelay{})

	events := []core.Event{
		core.EventPlayerResigned,
		core.EventRematchWaiting,
		core.EventPlayerDisconnected,
		core.EventPlayerReconnected,
		core.EventMatchmakingStarted,
		core.EventGameOver,
	}
	for _, ev := range events {
		out.Reset()
		s.HandleEvent(core.Envelope{Type: ev, Payload: json.RawMessage(`["not", "an", "object"]`)})
		if !strings.Contains(out.String(), "Error: json: cannot unmarshal") {
			t.Fatalf("%s: %q", ev, out.String())
		}
	}
	if s.searching || s.finished {
		t.Fatalf("malformed events changed state: searching %v finished %v", s.searching, s.finished)
	}
}
