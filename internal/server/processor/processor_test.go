package processor

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"chessroom/internal/server/core"
	"chessroom/internal/server/service"
)

func newTestProcessor(t *testing.T, referee bool) *Processor {
	t.Helper()
	cfg := service.Config{Secret: []byte("processor-test-secret-32-bytes-long")}
	if referee {
		cfg.Validator = NewReferee()
	}
	svc, err := service.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	svc.Connect("a")
	svc.Connect("b")
	return New(svc, nil)
}

func exec(p *Processor, conn string, event core.Event, payload string) []Delivery {
	cmd := Command{ConnID: conn, Type: event}
	if payload != "" {
		cmd.Payload = json.RawMessage(payload)
	}
	return p.Execute(cmd)
}

// find returns the delivery of event to conn, failing the test when absent.
func find(t *testing.T, out []Delivery, conn string, event core.Event) core.Envelope {
	t.Helper()
	for _, d := range out {
		if d.ConnID == conn && d.Envelope.Type == event {
			return d.Envelope
		}
	}
	t.Fatalf("no %s for %s in %+v", event, conn, out)
	return core.Envelope{}
}

func decodeAs[T any](t *testing.T, env core.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		t.Fatalf("decode %s: %v", env.Type, err)
	}
	return v
}

func expectError(t *testing.T, out []Delivery, conn, code string) {
	t.Helper()
	ev := decodeAs[core.ErrorEvent](t, find(t, out, conn, core.EventError))
	if ev.Code != code {
		t.Fatalf("error code %s want %s (%s)", ev.Code, code, ev.Message)
	}
}

func startChess(t *testing.T, p *Processor) string {
	t.Helper()
	out := exec(p, "a", core.EventCreateGame, "")
	created := decodeAs[core.GameCreatedResponse](t, find(t, out, "a", core.EventGameCreated))
	if created.Role != "white" || created.GameType != "chess" {
		t.Fatalf("created: %+v", created)
	}

	// bare string code, lower case
	out = exec(p, "b", core.EventJoinGame, fmt.Sprintf("%q", strings.ToLower(created.GameID)))
	joined := decodeAs[core.GameJoinedResponse](t, find(t, out, "b", core.EventGameJoined))
	if joined.Role != "black" || joined.Status != core.StatusPlaying {
		t.Fatalf("joined: %+v", joined)
	}
	pj := decodeAs[core.PlayerJoinedResponse](t, find(t, out, "a", core.EventPlayerJoined))
	if !pj.GameStarted || pj.CurrentPlayer != "white" {
		t.Fatalf("player-joined: %+v", pj)
	}
	return created.GameID
}

func move(fr, fc, tr, tc int) string {
	return fmt.Sprintf(`{"fromRow":%d,"fromCol":%d,"toRow":%d,"toCol":%d}`, fr, fc, tr, tc)
}

func TestRelayMove(t *testing.T) {
	p := newTestProcessor(t, false)
	startChess(t, p)

	expectError(t, exec(p, "b", core.EventMove, move(1, 4, 3, 4)), "b", core.ErrNotYourTurn)

	payload := move(6, 4, 4, 4)
	out := exec(p, "a", core.EventMove, payload)
	if len(out) != 2 {
		t.Fatalf("deliveries: %+v", out)
	}
	relayed := find(t, out, "b", core.EventOpponentMove)
	confirmed := find(t, out, "a", core.EventMoveConfirmed)
	if string(relayed.Payload) != payload || string(confirmed.Payload) != payload {
		t.Fatalf("payload altered: %s / %s", relayed.Payload, confirmed.Payload)
	}
}

func TestErrors(t *testing.T) {
	p := newTestProcessor(t, false)

	tests := []struct {
		name    string
		event   core.Event
		payload string
		code    string
	}{
		{"unknown event", "dance", "", core.ErrUnknownEvent},
		{"no game", core.EventMove, move(6, 4, 4, 4), core.ErrNoActiveGame},
		{"short code", core.EventJoinGame, `{"gameId":"AB"}`, core.ErrInvalidRequest},
		{"missing game", core.EventJoinGame, `{"gameId":"QQQQQQ"}`, core.ErrGameNotFound},
		{"unknown type", core.EventCreateGame, `{"gameType":"go"}`, core.ErrUnknownGameType},
		{"bad json", core.EventCreateGame, `{"gameType":`, core.ErrInvalidRequest},
		{"bad token", core.EventReconnect, `{"token":"abc"}`, core.ErrInvalidToken},
		{"no token", core.EventReconnect, `{}`, core.ErrInvalidRequest},
		{"resign idle", core.EventResign, "", core.ErrNoActiveGame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, exec(p, "a", tt.event, tt.payload), "a", tt.code)
		})
	}
}

func TestRefereeRejectsIllegalMoves(t *testing.T) {
	p := newTestProcessor(t, true)
	startChess(t, p)

	// e2 to e5 is not a pawn move
	expectError(t, exec(p, "a", core.EventMove, move(6, 4, 3, 4)), "a", core.ErrIllegalMove)
	expectError(t, exec(p, "a", core.EventMove, `{"fromRow":9,"fromCol":0,"toRow":0,"toCol":0}`), "a", core.ErrIllegalMove)

	find(t, exec(p, "a", core.EventMove, move(6, 4, 4, 4)), "b", core.EventOpponentMove)
}

func TestRefereeEndsGameOnCheckmate(t *testing.T) {
	p := newTestProcessor(t, true)
	startChess(t, p)

	find(t, exec(p, "a", core.EventMove, move(6, 5, 5, 5)), "b", core.EventOpponentMove) // f3
	find(t, exec(p, "b", core.EventMove, move(1, 4, 3, 4)), "a", core.EventOpponentMove) // e5
	find(t, exec(p, "a", core.EventMove, move(6, 6, 4, 6)), "b", core.EventOpponentMove) // g4
	out := exec(p, "b", core.EventMove, move(0, 3, 4, 7))                                // Qh4#

	for _, conn := range []string{"a", "b"} {
		res := decodeAs[core.GameResult](t, find(t, out, conn, core.EventGameOver))
		if res.Winner != "black" || res.Reason != "checkmate" {
			t.Fatalf("result for %s: %+v", conn, res)
		}
	}
	expectError(t, exec(p, "a", core.EventMove, move(6, 0, 5, 0)), "a", core.ErrGameFinished)
}

func TestDrawAndRematch(t *testing.T) {
	p := newTestProcessor(t, true)
	startChess(t, p)

	offer := decodeAs[core.PlayerEventResponse](t, find(t, exec(p, "a", core.EventOfferDraw, ""), "b", core.EventDrawOffered))
	if offer.Role != "white" {
		t.Fatalf("offer from %q", offer.Role)
	}
	expectError(t, exec(p, "a", core.EventAcceptDraw, ""), "a", core.ErrInvalidRequest)

	out := exec(p, "b", core.EventAcceptDraw, "")
	for _, conn := range []string{"a", "b"} {
		if res := decodeAs[core.GameResult](t, find(t, out, conn, core.EventGameOver)); res.Reason != "draw" {
			t.Fatalf("draw result: %+v", res)
		}
	}

	out = exec(p, "a", core.EventRequestRematch, "")
	waiting := decodeAs[core.RematchWaitingResponse](t, find(t, out, "a", core.EventRematchWaiting))
	if waiting.Accepted != 1 || waiting.Needed != 2 {
		t.Fatalf("waiting: %+v", waiting)
	}
	find(t, out, "b", core.EventRematchRequested)

	out = exec(p, "b", core.EventRequestRematch, "")
	forA := decodeAs[core.RematchStartedResponse](t, find(t, out, "a", core.EventRematchStarted))
	forB := decodeAs[core.RematchStartedResponse](t, find(t, out, "b", core.EventRematchStarted))
	if forA.Role != "black" || forB.Role != "white" || forB.Round != 2 || forB.CurrentPlayer != "white" {
		t.Fatalf("rematch: %+v %+v", forA, forB)
	}

	// the referee starts over with the new white to move
	find(t, exec(p, "b", core.EventMove, move(6, 3, 4, 3)), "a", core.EventOpponentMove)
}

func TestResignAndDecline(t *testing.T) {
	p := newTestProcessor(t, false)
	startChess(t, p)

	expectError(t, exec(p, "a", core.EventDeclineRematch, ""), "a", core.ErrInvalidRequest)

	out := exec(p, "b", core.EventResign, "")
	if ev := decodeAs[core.PlayerEventResponse](t, find(t, out, "a", core.EventPlayerResigned)); ev.Role != "black" {
		t.Fatalf("resigned: %+v", ev)
	}
	expectError(t, exec(p, "a", core.EventResign, ""), "a", core.ErrGameFinished)

	exec(p, "a", core.EventRequestRematch, "")
	find(t, exec(p, "b", core.EventDeclineRematch, ""), "a", core.EventRematchDeclined)

	// declining cleared a's request, so b alone does not start a round
	out = exec(p, "b", core.EventRequestRematch, "")
	find(t, out, "b", core.EventRematchWaiting)
}

func TestGameOverRelay(t *testing.T) {
	p := newTestProcessor(t, false)
	startChess(t, p)

	out := exec(p, "a", core.EventGameOver, `{"winner":"white","reason":"checkmate"}`)
	res := decodeAs[core.GameResult](t, find(t, out, "b", core.EventGameOver))
	if res.Winner != "white" {
		t.Fatalf("relayed result: %+v", res)
	}
	for _, d := range out {
		if d.ConnID == "a" {
			t.Fatalf("game-over echoed to sender")
		}
	}
	if out := exec(p, "b", core.EventGameOver, `{"reason":"checkmate"}`); len(out) != 0 {
		t.Fatalf("second game-over produced %+v", out)
	}
}

func TestDisconnectNotifiesOpponent(t *testing.T) {
	p := newTestProcessor(t, false)
	startChess(t, p)

	out := p.Disconnect("b")
	if ev := decodeAs[core.PlayerDisconnectedResponse](t, find(t, out, "a", core.EventPlayerDisconnected)); ev.DisconnectedPlayer != "black" {
		t.Fatalf("disconnected: %+v", ev)
	}
	if out := p.Disconnect("b"); out != nil {
		t.Fatalf("second disconnect: %+v", out)
	}
}

func TestReconnectRestoresSeat(t *testing.T) {
	p := newTestProcessor(t, false)

	out := exec(p, "a", core.EventCreateGame, `{"gameType":"tictactoe"}`)
	created := decodeAs[core.GameCreatedResponse](t, find(t, out, "a", core.EventGameCreated))
	out = exec(p, "b", core.EventJoinGame, fmt.Sprintf(`{"gameId":%q}`, created.GameID))
	joined := decodeAs[core.GameJoinedResponse](t, find(t, out, "b", core.EventGameJoined))
	if joined.Role != "O" {
		t.Fatalf("joined as %q", joined.Role)
	}

	exec(p, "a", core.EventMove, `{"index":4}`)
	p.Disconnect("b")

	p.svc.Connect("b2")
	out = exec(p, "b2", core.EventReconnect, fmt.Sprintf(`{"token":%q}`, joined.Token))
	back := decodeAs[core.GameJoinedResponse](t, find(t, out, "b2", core.EventGameJoined))
	if back.Role != "O" || back.CurrentPlayer != "O" || len(back.Moves) != 1 {
		t.Fatalf("reconnected: %+v", back)
	}
	if ev := decodeAs[core.PlayerEventResponse](t, find(t, out, "a", core.EventPlayerReconnected)); ev.Role != "O" {
		t.Fatalf("reconnected role %q", ev.Role)
	}
	find(t, exec(p, "b2", core.EventMove, `{"index":0}`), "a", core.EventOpponentMove)
}

func TestMatchmaking(t *testing.T) {
	p := newTestProcessor(t, false)

	out := exec(p, "a", core.EventFindGame, "")
	mm := decodeAs[core.MatchmakingResponse](t, find(t, out, "a", core.EventMatchmakingStarted))
	if mm.GameType != "chess" || mm.QueuePosition != 1 {
		t.Fatalf("matchmaking: %+v", mm)
	}

	out = exec(p, "b", core.EventFindGame, `{"gameType":"chess"}`)
	fa := decodeAs[core.GameFoundResponse](t, find(t, out, "a", core.EventGameFound))
	fb := decodeAs[core.GameFoundResponse](t, find(t, out, "b", core.EventGameFound))
	if fa.GameID != fb.GameID || fa.Role != "white" || fb.Role != "black" {
		t.Fatalf("found: %+v %+v", fa, fb)
	}

	p.svc.Connect("c")
	exec(p, "c", core.EventFindGame, "")
	find(t, exec(p, "c", core.EventCancelSearch, ""), "c", core.EventSearchCancelled)

	env, err := p.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	stats := decodeAs[core.StatsResponse](t, env)
	if stats.TotalOnline != 3 || stats.InQueue != 0 || stats.ActiveGames != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}
