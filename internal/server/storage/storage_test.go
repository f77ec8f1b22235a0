package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "relay.db"), false, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func TestSessionAndMoveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.RecordSession(SessionRecord{GameID: "ABC123", GameType: "chess", Status: "waiting", Round: 1, CreatedAt: now, UpdatedAt: now})
	s.RecordMove(MoveRecord{GameID: "ABC123", Round: 1, MoveNumber: 1, Player: "white", Payload: `{"fromRow":6}`, CreatedAt: now})
	s.RecordMove(MoveRecord{GameID: "ABC123", Round: 1, MoveNumber: 2, Player: "black", Payload: `{"fromRow":1}`, CreatedAt: now})
	s.RecordMove(MoveRecord{GameID: "ABC123", Round: 2, MoveNumber: 1, Player: "white", Payload: `{"fromRow":6}`, CreatedAt: now})
	s.UpdateSession(SessionRecord{GameID: "ABC123", Status: "finished", Round: 2, Result: `{"reason":"draw"}`, UpdatedAt: now.Add(time.Minute)})
	flush(t, s)

	if !s.IsHealthy() {
		t.Fatalf("store degraded")
	}

	sessions, err := s.QuerySessions("ABC123", "")
	if err != nil {
		t.Fatalf("query sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions: got %d want 1", len(sessions))
	}
	got := sessions[0]
	if got.GameType != "chess" || got.Status != "finished" || got.Round != 2 || got.Result != `{"reason":"draw"}` {
		t.Fatalf("session: %+v", got)
	}

	if finished, _ := s.QuerySessions("*", "finished"); len(finished) != 1 {
		t.Fatalf("status filter: got %d", len(finished))
	}
	if waiting, _ := s.QuerySessions("", "waiting"); len(waiting) != 0 {
		t.Fatalf("status filter: got %d waiting", len(waiting))
	}

	all, err := s.QueryMoves("ABC123", 0)
	if err != nil {
		t.Fatalf("query moves: %v", err)
	}
	if len(all) != 3 || all[1].Player != "black" || all[2].Round != 2 {
		t.Fatalf("moves: %+v", all)
	}
	round1, _ := s.QueryMoves("ABC123", 1)
	if len(round1) != 2 {
		t.Fatalf("round 1 moves: got %d", len(round1))
	}
}

func TestRecordSessionReplacesReusedCode(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	s.RecordSession(SessionRecord{GameID: "REUSE1", GameType: "chess", Status: "finished", Round: 1, CreatedAt: now, UpdatedAt: now})
	s.RecordMove(MoveRecord{GameID: "REUSE1", Round: 1, MoveNumber: 1, Player: "white", Payload: `{}`, CreatedAt: now})
	s.RecordSession(SessionRecord{GameID: "REUSE1", GameType: "tictactoe", Status: "waiting", Round: 1, CreatedAt: now, UpdatedAt: now})
	flush(t, s)

	sessions, _ := s.QuerySessions("REUSE1", "")
	if len(sessions) != 1 || sessions[0].GameType != "tictactoe" {
		t.Fatalf("sessions: %+v", sessions)
	}
	if moves, _ := s.QueryMoves("REUSE1", 0); len(moves) != 0 {
		t.Fatalf("old moves kept: %d", len(moves))
	}
}

func TestDeleteSessionsBefore(t *testing.T) {
	s := newTestStore(t)
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.RecordSession(SessionRecord{GameID: "OLD001", GameType: "chess", Status: "finished", Round: 1, CreatedAt: old, UpdatedAt: old})
	s.RecordMove(MoveRecord{GameID: "OLD001", Round: 1, MoveNumber: 1, Player: "white", Payload: `{}`, CreatedAt: old})
	s.RecordSession(SessionRecord{GameID: "NEW001", GameType: "chess", Status: "playing", Round: 1, CreatedAt: fresh, UpdatedAt: fresh})
	flush(t, s)

	n, err := s.DeleteSessionsBefore(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted %d sessions want 1", n)
	}
	left, _ := s.QuerySessions("", "")
	if len(left) != 1 || left[0].GameID != "NEW001" {
		t.Fatalf("remaining: %+v", left)
	}
	if moves, _ := s.QueryMoves("OLD001", 0); len(moves) != 0 {
		t.Fatalf("moves of deleted session kept: %d", len(moves))
	}
}

func TestDeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.db")
	s, err := NewStore(path, true, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := s.DeleteDB(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("database file still present: %v", err)
	}
}
