package game

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"chessroom/internal/server/core"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newChessSession(t *testing.T) *Session {
	t.Helper()
	cfg, ok := core.LookupConfig(core.GameTypeChess)
	if !ok {
		t.Fatalf("chess config missing")
	}
	s := New("ABC123", cfg, t0)
	if _, err := s.Join("p1", "c1", t0); err != nil {
		t.Fatalf("join p1: %v", err)
	}
	if _, err := s.Join("p2", "c2", t0); err != nil {
		t.Fatalf("join p2: %v", err)
	}
	return s
}

func TestJoinFillsSeatsInOrder(t *testing.T) {
	cfg, _ := core.LookupConfig(core.GameTypeTicTacToe)
	s := New("XYZ789", cfg, t0)

	if role, err := s.OpenRole(); err != nil || role != "X" {
		t.Fatalf("open role before join: %q %v", role, err)
	}
	seat, err := s.Join("p1", "c1", t0)
	if err != nil || seat.Role != "X" {
		t.Fatalf("first join: %v %v", seat, err)
	}
	if s.Status() != core.StatusWaiting {
		t.Fatalf("status after one player: %v", s.Status())
	}
	seat, err = s.Join("p2", "c2", t0)
	if err != nil || seat.Role != "O" {
		t.Fatalf("second join: %v %v", seat, err)
	}
	if s.Status() != core.StatusPlaying {
		t.Fatalf("status after two players: %v", s.Status())
	}
	if _, err := s.Join("p3", "c3", t0); !errors.Is(err, ErrGameFull) {
		t.Fatalf("third join: got %v want %v", err, ErrGameFull)
	}
	if _, err := s.OpenRole(); !errors.Is(err, ErrGameFull) {
		t.Fatalf("open role when full: got %v want %v", err, ErrGameFull)
	}
}

func TestRecordMove(t *testing.T) {
	cfg, _ := core.LookupConfig(core.GameTypeChess)
	waiting := New("WAIT00", cfg, t0)
	waiting.Join("p1", "c1", t0)
	if _, err := waiting.RecordMove("white", json.RawMessage(`{}`), t0); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("move while waiting: got %v", err)
	}

	s := newChessSession(t)
	payload := json.RawMessage(`{"fromRow":6,"fromCol":4,"toRow":4,"toCol":4,"pawnDoubleMove":true}`)

	if _, err := s.RecordMove("black", payload, t0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black first: got %v", err)
	}
	if _, err := s.RecordMove("white", json.RawMessage(`[1,2]`), t0); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("array payload: got %v", err)
	}

	record, err := s.RecordMove("white", payload, t0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if fields["player"] != "white" || fields["timestamp"] != float64(t0.UnixMilli()) || fields["toRow"] != float64(4) {
		t.Fatalf("record fields: %v", fields)
	}
	if s.CurrentRole() != "black" {
		t.Fatalf("turn did not pass: %s", s.CurrentRole())
	}
	if len(s.Moves()) != 1 {
		t.Fatalf("moves: %d", len(s.Moves()))
	}
}

func TestResignAndDraw(t *testing.T) {
	s := newChessSession(t)
	res, err := s.Resign("white", t0)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if res.Winner != "black" || res.Reason != "resignation" {
		t.Fatalf("result: %+v", res)
	}
	if s.Status() != core.StatusFinished {
		t.Fatalf("status: %v", s.Status())
	}
	if _, err := s.RecordMove("white", json.RawMessage(`{}`), t0); !errors.Is(err, ErrFinished) {
		t.Fatalf("move after resign: got %v", err)
	}

	s = newChessSession(t)
	if _, err := s.AcceptDraw("black", t0); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("accept without offer: got %v", err)
	}
	if err := s.OfferDraw("white", t0); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if _, err := s.AcceptDraw("white", t0); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("accept own offer: got %v", err)
	}
	if err := s.DeclineDraw("black", t0); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := s.OfferDraw("black", t0); err != nil {
		t.Fatalf("offer: %v", err)
	}
	res, err = s.AcceptDraw("white", t0)
	if err != nil || res.Reason != "draw" || res.Winner != "" {
		t.Fatalf("accept: %+v %v", res, err)
	}
}

func TestRematchRotatesRoles(t *testing.T) {
	s := newChessSession(t)
	s.RecordMove("white", json.RawMessage(`{"fromRow":6}`), t0)

	if _, _, err := s.RequestRematch("white", t0); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("rematch mid game: got %v", err)
	}
	s.Resign("black", t0)

	accepted, started, err := s.RequestRematch("white", t0)
	if err != nil || started || accepted != 1 {
		t.Fatalf("first request: %d %v %v", accepted, started, err)
	}
	s.DeclineRematch(t0)
	if accepted, _, _ := s.RequestRematch("black", t0); accepted != 1 {
		t.Fatalf("decline did not clear requests: %d", accepted)
	}
	accepted, started, err = s.RequestRematch("white", t0)
	if err != nil || !started || accepted != 2 {
		t.Fatalf("second request: %d %v %v", accepted, started, err)
	}

	white, _ := s.SeatByRole("white")
	black, _ := s.SeatByRole("black")
	if white.PlayerID != "p2" || white.ConnID != "c2" || black.PlayerID != "p1" {
		t.Fatalf("roles not swapped: white %+v black %+v", white, black)
	}
	if s.Round() != 2 || s.Status() != core.StatusPlaying || len(s.Moves()) != 0 || s.CurrentRole() != "white" || s.Result() != nil {
		t.Fatalf("new round state: round %d status %v moves %d", s.Round(), s.Status(), len(s.Moves()))
	}
}

func TestDisconnectAndReconnect(t *testing.T) {
	s := newChessSession(t)
	v := s.Version()

	role, ok := s.Disconnect("c2", t0)
	if !ok || role != "black" {
		t.Fatalf("disconnect: %s %v", role, ok)
	}
	if s.Version() == v {
		t.Fatalf("version not bumped")
	}
	if got := s.OtherConns("black"); len(got) != 1 || got[0] != "c1" {
		t.Fatalf("other conns: %v", got)
	}
	if got := s.OtherConns("white"); len(got) != 0 {
		t.Fatalf("disconnected seat still listed: %v", got)
	}

	if _, err := s.Reconnect("stranger", "c9", t0); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("stranger reconnect: got %v", err)
	}
	seat, err := s.Reconnect("p2", "c3", t0)
	if err != nil || seat.Role != "black" || seat.ConnID != "c3" {
		t.Fatalf("reconnect: %+v %v", seat, err)
	}

	s.Disconnect("c1", t0)
	s.Disconnect("c3", t0)
	if !s.Abandoned() {
		t.Fatalf("session should be abandoned")
	}
}

func TestView(t *testing.T) {
	s := newChessSession(t)
	s.Disconnect("c2", t0)
	v := s.View()

	if v.GameID != "ABC123" || v.GameType != "chess" || v.Status != core.StatusPlaying || v.CurrentPlayer != "white" {
		t.Fatalf("view: %+v", v)
	}
	if len(v.Seats) != 2 || !v.Seats[0].Connected || v.Seats[1].Connected || !v.Seats[1].Occupied {
		t.Fatalf("seats: %+v", v.Seats)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	json.Unmarshal(raw, &back)
	if back["status"] != "playing" {
		t.Fatalf("status encoding: %v", back["status"])
	}
	if moves, ok := back["moves"].([]any); !ok || len(moves) != 0 {
		t.Fatalf("moves should encode as empty list: %v", back["moves"])
	}
}
