package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"chessroom/internal/chess"
	"chessroom/internal/server/core"
)

var (
	ErrGameFull       = errors.New("game is full")
	ErrNotStarted     = errors.New("game has not started")
	ErrFinished       = errors.New("game is finished")
	ErrNotFinished    = errors.New("game is still in progress")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotSeated      = errors.New("player has no seat in this game")
	ErrNoDrawOffer    = errors.New("no draw offer to answer")
	ErrInvalidPayload = errors.New("move payload must be a JSON object")
)

// Seat binds a role to the player holding it. ConnID is empty while the
// player is disconnected.
type Seat struct {
	Role     string
	PlayerID string
	ConnID   string
}

func (s *Seat) Occupied() bool  { return s.PlayerID != "" }
func (s *Seat) Connected() bool { return s.ConnID != "" }

// Session is one relay game. It is not safe for concurrent use; the service
// serializes access.
type Session struct {
	id      string
	config  core.GameConfig
	seats   []*Seat
	moves   []json.RawMessage
	current string
	status  core.Status
	round   int
	result  *core.GameResult
	rematch map[string]bool
	offer   string

	// referee is the authoritative engine for chess sessions when server-side
	// validation is on
	referee *chess.LocalEngine

	version   uint64
	createdAt time.Time
	updatedAt time.Time
}

func New(id string, cfg core.GameConfig, now time.Time) *Session {
	seats := make([]*Seat, len(cfg.Roles))
	for i, role := range cfg.Roles {
		seats[i] = &Seat{Role: role}
	}
	return &Session{
		id:        id,
		config:    cfg,
		seats:     seats,
		current:   cfg.Roles[0],
		status:    core.StatusWaiting,
		round:     1,
		rematch:   make(map[string]bool),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string                  { return s.id }
func (s *Session) Config() core.GameConfig     { return s.config }
func (s *Session) Status() core.Status         { return s.status }
func (s *Session) Round() int                  { return s.round }
func (s *Session) Result() *core.GameResult    { return s.result }
func (s *Session) Version() uint64             { return s.version }
func (s *Session) CreatedAt() time.Time        { return s.createdAt }
func (s *Session) UpdatedAt() time.Time        { return s.updatedAt }
func (s *Session) Referee() *chess.LocalEngine { return s.referee }

func (s *Session) SetReferee(e *chess.LocalEngine) {
	s.referee = e
}

// CurrentRole is the role expected to move next.
func (s *Session) CurrentRole() string {
	return s.current
}

// Moves returns the recorded move log of the current round.
func (s *Session) Moves() []json.RawMessage {
	return slices.Clone(s.moves)
}

func (s *Session) Seats() []Seat {
	out := make([]Seat, len(s.seats))
	for i, seat := range s.seats {
		out[i] = *seat
	}
	return out
}

// SeatByPlayer finds the seat held by playerID.
func (s *Session) SeatByPlayer(playerID string) (*Seat, bool) {
	for _, seat := range s.seats {
		if seat.PlayerID == playerID {
			return seat, true
		}
	}
	return nil, false
}

func (s *Session) SeatByRole(role string) (*Seat, bool) {
	for _, seat := range s.seats {
		if seat.Role == role {
			return seat, true
		}
	}
	return nil, false
}

// OtherConns lists the connected seats other than role.
func (s *Session) OtherConns(role string) []string {
	var out []string
	for _, seat := range s.seats {
		if seat.Role != role && seat.Connected() {
			out = append(out, seat.ConnID)
		}
	}
	return out
}

func (s *Session) occupied() int {
	n := 0
	for _, seat := range s.seats {
		if seat.Occupied() {
			n++
		}
	}
	return n
}

// Connected counts seats with a live connection.
func (s *Session) Connected() int {
	n := 0
	for _, seat := range s.seats {
		if seat.Connected() {
			n++
		}
	}
	return n
}

func (s *Session) touch(now time.Time) {
	s.version++
	s.updatedAt = now
}

// OpenRole returns the role the next joining player would take.
func (s *Session) OpenRole() (string, error) {
	if s.status == core.StatusFinished {
		return "", ErrFinished
	}
	if s.occupied() >= s.config.MaxPlayers {
		return "", ErrGameFull
	}
	for _, seat := range s.seats {
		if !seat.Occupied() {
			return seat.Role, nil
		}
	}
	return "", ErrGameFull
}

// Join seats the player in the first free role. The session starts playing
// once MinPlayers seats are taken.
func (s *Session) Join(playerID, connID string, now time.Time) (*Seat, error) {
	role, err := s.OpenRole()
	if err != nil {
		return nil, err
	}
	seat, _ := s.SeatByRole(role)
	seat.PlayerID = playerID
	seat.ConnID = connID
	if s.status == core.StatusWaiting && s.occupied() >= s.config.MinPlayers {
		s.status = core.StatusPlaying
	}
	s.touch(now)
	return seat, nil
}

func (s *Session) requirePlaying() error {
	switch s.status {
	case core.StatusWaiting:
		return ErrNotStarted
	case core.StatusFinished:
		return ErrFinished
	}
	return nil
}

// CanMove reports whether role may submit the next move.
func (s *Session) CanMove(role string) error {
	if err := s.requirePlaying(); err != nil {
		return err
	}
	if role != s.CurrentRole() {
		return ErrNotYourTurn
	}
	return nil
}

// RecordMove appends payload to the log on behalf of role and advances the
// turn. The stored record is the payload plus the player role and a
// millisecond timestamp.
func (s *Session) RecordMove(role string, payload json.RawMessage, now time.Time) (json.RawMessage, error) {
	if err := s.CanMove(role); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, ErrInvalidPayload
	}
	fields["player"], _ = json.Marshal(role)
	fields["timestamp"], _ = json.Marshal(now.UnixMilli())
	record, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode move record: %w", err)
	}

	s.moves = append(s.moves, record)
	s.current = s.config.NextRole(s.current)
	s.offer = ""
	s.touch(now)
	return record, nil
}

// Finish ends the current round with result. Finishing twice keeps the
// first result.
func (s *Session) Finish(result core.GameResult, now time.Time) bool {
	if s.status == core.StatusFinished {
		return false
	}
	s.status = core.StatusFinished
	s.result = &result
	s.offer = ""
	s.touch(now)
	return true
}

// Resign finishes the game with every other role as winner.
func (s *Session) Resign(role string, now time.Time) (core.GameResult, error) {
	if err := s.requirePlaying(); err != nil {
		return core.GameResult{}, err
	}
	var winners []string
	for _, r := range s.config.Roles {
		if r != role {
			winners = append(winners, r)
		}
	}
	res := core.GameResult{Winners: winners, Reason: "resignation"}
	if len(winners) == 1 {
		res.Winner = winners[0]
	}
	s.Finish(res, now)
	return res, nil
}

// OfferDraw records a standing draw offer from role.
func (s *Session) OfferDraw(role string, now time.Time) error {
	if err := s.requirePlaying(); err != nil {
		return err
	}
	s.offer = role
	s.touch(now)
	return nil
}

// AcceptDraw finishes the game as a draw. Only a role other than the one
// that offered may accept.
func (s *Session) AcceptDraw(role string, now time.Time) (core.GameResult, error) {
	if err := s.requirePlaying(); err != nil {
		return core.GameResult{}, err
	}
	if s.offer == "" || s.offer == role {
		return core.GameResult{}, ErrNoDrawOffer
	}
	res := core.GameResult{Reason: "draw"}
	s.Finish(res, now)
	return res, nil
}

func (s *Session) DeclineDraw(role string, now time.Time) error {
	if s.offer == "" || s.offer == role {
		return ErrNoDrawOffer
	}
	s.offer = ""
	s.touch(now)
	return nil
}

// RequestRematch marks role as ready for another round. When every seat has
// asked, roles rotate one place, the log is cleared and a new round starts.
func (s *Session) RequestRematch(role string, now time.Time) (accepted int, started bool, err error) {
	if s.status != core.StatusFinished {
		return 0, false, ErrNotFinished
	}
	s.rematch[role] = true
	s.touch(now)
	if len(s.rematch) < len(s.seats) {
		return len(s.rematch), false, nil
	}

	s.rotate()
	s.moves = nil
	s.current = s.config.Roles[0]
	s.status = core.StatusPlaying
	s.round++
	s.result = nil
	s.offer = ""
	clear(s.rematch)
	if s.referee != nil {
		s.referee.Reset()
	}
	return len(s.seats), true, nil
}

func (s *Session) DeclineRematch(now time.Time) {
	clear(s.rematch)
	s.touch(now)
}

// rotate moves every player to the next role in turn order.
func (s *Session) rotate() {
	n := len(s.seats)
	players := make([]Seat, n)
	for i, seat := range s.seats {
		players[(i+1)%n] = *seat
	}
	for i, seat := range s.seats {
		seat.PlayerID = players[i].PlayerID
		seat.ConnID = players[i].ConnID
	}
}

// Disconnect detaches connID from its seat and returns the seat's role.
func (s *Session) Disconnect(connID string, now time.Time) (string, bool) {
	for _, seat := range s.seats {
		if seat.ConnID == connID {
			seat.ConnID = ""
			s.touch(now)
			return seat.Role, true
		}
	}
	return "", false
}

// Reconnect attaches connID to the seat held by playerID.
func (s *Session) Reconnect(playerID, connID string, now time.Time) (*Seat, error) {
	seat, ok := s.SeatByPlayer(playerID)
	if !ok {
		return nil, ErrNotSeated
	}
	seat.ConnID = connID
	s.touch(now)
	return seat, nil
}

// Abandoned reports whether nobody is connected to the session.
func (s *Session) Abandoned() bool {
	return s.Connected() == 0
}

// View renders the REST representation.
func (s *Session) View() core.SessionResponse {
	seats := make([]core.SeatInfo, len(s.seats))
	for i, seat := range s.seats {
		seats[i] = core.SeatInfo{Role: seat.Role, Occupied: seat.Occupied(), Connected: seat.Connected()}
	}
	moves := s.Moves()
	if moves == nil {
		moves = []json.RawMessage{}
	}
	return core.SessionResponse{
		GameID:        s.id,
		GameType:      s.config.Type,
		Status:        s.status,
		Round:         s.round,
		Version:       s.version,
		CurrentPlayer: s.CurrentRole(),
		Seats:         seats,
		Moves:         moves,
		Result:        s.result,
	}
}
