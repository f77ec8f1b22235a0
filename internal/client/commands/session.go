package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"chessroom/internal/chess"
	"chessroom/internal/client/display"
	"chessroom/internal/server/core"
)

var (
	ErrExit        = errors.New("exit")
	ErrNoGame      = errors.New("no active game")
	ErrLocalOnly   = errors.New("only available in local play")
	ErrNetworkOnly = errors.New("only available when connected to a server")
	ErrNotStarted  = errors.New("waiting for an opponent")
	ErrChessOnly   = errors.New("this client only plays chess")
	ErrNoDrawOffer = errors.New("no draw offer to answer")
	ErrNoReconnect = errors.New("no seat token to reconnect with")
)

// Relay is the part of the relay connection the commands drive
type Relay interface {
	chess.MoveSender
	CreateGame(gameType string) error
	JoinGame(code string) error
	FindGame(gameType string) error
	CancelSearch() error
	Reconnect(token string) error
	GameOver(result core.GameResult) error
	Resign() error
	OfferDraw() error
	AcceptDraw() error
	DeclineDraw() error
	RequestRematch() error
	DeclineRematch() error
	FetchSession(ctx context.Context, code string, wait bool, version uint64) (core.SessionResponse, error)
}

// Session is the client state shared by commands and relay events. Without
// a relay it plays hot-seat on a local engine.
type Session struct {
	mu      sync.Mutex
	out     io.Writer
	relay   Relay
	Verbose bool

	local *chess.LocalEngine
	net   *chess.NetworkGatedEngine

	GameID   string
	GameType string
	Role     string
	Token    string

	started     bool
	finished    bool
	drawOffered bool
	searching   bool
}

// NewSession creates a session writing to out. A nil relay selects local
// hot-seat play.
func NewSession(out io.Writer, relay Relay) *Session {
	s := &Session{out: out, relay: relay}
	if relay == nil {
		s.local = chess.NewGame()
		s.started = true
	}
	return s
}

func (s *Session) Networked() bool {
	return s.relay != nil
}

func (s *Session) engine() (chess.Engine, error) {
	if s.net != nil {
		return s.net, nil
	}
	if s.local != nil && !s.Networked() {
		return s.local, nil
	}
	return nil, ErrNoGame
}

// board returns the engine that holds the position in either mode
func (s *Session) board() (*chess.LocalEngine, error) {
	if s.net != nil {
		return s.net.Local(), nil
	}
	if s.local != nil && !s.Networked() {
		return s.local, nil
	}
	return nil, ErrNoGame
}

// seat binds the session to a relay seat. Only chess roles get a board.
func (s *Session) seat(gameID, gameType, role, token string) error {
	s.GameID, s.GameType, s.Role = gameID, gameType, role
	if token != "" {
		s.Token = token
	}
	s.started, s.finished, s.drawOffered, s.searching = false, false, false, false
	s.net = nil

	if gameType != "" && gameType != core.GameTypeChess {
		return ErrChessOnly
	}
	color, err := chess.ParseColor(role)
	if err != nil {
		return ErrChessOnly
	}
	s.net = chess.NewNetworkGatedEngine(chess.NewGame(), color, s.relay)
	return nil
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) info(msg string) {
	fmt.Fprintln(s.out, display.Paint(display.Cyan, msg))
}

func (s *Session) success(msg string) {
	fmt.Fprintln(s.out, display.Paint(display.Green, msg))
}

func (s *Session) warn(msg string) {
	fmt.Fprintln(s.out, display.Paint(display.Red, msg))
}

// render prints the board from this seat's side plus status lines
func (s *Session) render() {
	e, err := s.board()
	if err != nil {
		return
	}
	st := e.State()
	flip := s.net != nil && s.net.MyColor() == chess.Black

	fmt.Fprintln(s.out)
	display.RenderBoard(s.out, &st, flip)
	fmt.Fprintf(s.out, "Captured: white %s, black %s\n",
		display.FormatCaptured(st.Captured.White), display.FormatCaptured(st.Captured.Black))

	switch {
	case e.Phase() == chess.PhaseGameOver:
		s.success("Game over: " + display.FormatOutcome(e.Outcome()))
	case e.Phase() == chess.PhasePromotionPending:
		m, _ := e.Pending()
		s.info(fmt.Sprintf("Promotion pending (%s): 'promote q|r|b|n' or 'cancel'", m))
	default:
		turn := fmt.Sprintf("%s to move", display.ColorForTurn(st.Turn))
		if e.IsInCheck(st.Turn) {
			turn += display.Paint(display.Red, " (check)")
		}
		fmt.Fprintln(s.out, turn)
	}
}

// SeatToken returns the token of the current seat, empty when unseated
func (s *Session) SeatToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Token
}

// Prompt describes the session for the readline prompt
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := []string{"chess"}
	if s.GameID != "" {
		parts = append(parts, "["+s.GameID+" "+s.Role+"]")
	} else if s.searching {
		parts = append(parts, "[searching]")
	} else if !s.Networked() {
		parts = append(parts, "[local]")
	}
	if e, err := s.board(); err == nil && e.Phase() != chess.PhaseGameOver {
		parts = append(parts, strings.ToLower(e.Turn().String())+" to move")
	}
	return display.Prompt(strings.Join(parts, " "))
}
