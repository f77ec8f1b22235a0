package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chessroom/internal/server/core"
	"chessroom/internal/server/game"
	"chessroom/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"go.uber.org/zap"
)

const (
	SessionTTL         = 1 * time.Hour
	TokenTTL           = 24 * time.Hour
	CleanupJobInterval = 5 * time.Minute
	GameCodeLength     = 6

	// MinSecretLength is the shortest HS256 secret the token library accepts
	MinSecretLength = 32
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrGameNotFound      = errors.New("game not found")
	ErrInvalidGameCode   = errors.New("invalid game code")
	ErrNoActiveGame      = errors.New("no active game")
	ErrAlreadyInGame     = errors.New("already in a game")
	ErrUnknownGameType   = errors.New("unknown game type")
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrWeakSecret        = fmt.Errorf("token secret must be at least %d bytes", MinSecretLength)
)

// MoveValidator checks a move payload before the session records it. A
// non-nil result finishes the session after the move is stored.
type MoveValidator interface {
	ValidateMove(s *game.Session, role string, payload json.RawMessage) (*core.GameResult, error)
}

// Config carries the service dependencies. Store and Validator are optional.
type Config struct {
	Store       *storage.Store
	Secret      []byte
	SessionTTL  time.Duration
	WaitTimeout time.Duration
	Validator   MoveValidator
	Log         *zap.Logger
	Now         func() time.Time
}

// Conn is one client connection known to the relay.
type Conn struct {
	ID        string
	GameID    string
	Role      string
	PlayerID  string
	Searching string // game type while queued for matchmaking
}

// Service owns every relay session and connection. All methods are safe for
// concurrent use; session state is only touched under mu.
type Service struct {
	mu        sync.Mutex
	sessions  map[string]*game.Session
	conns     map[string]*Conn
	queues    map[string][]string // game type → queued connection ids
	store     *storage.Store
	waiter    *WaitRegistry
	validator MoveValidator
	secret    []byte
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// New builds the service. An empty secret is replaced by a random one; a
// secret shorter than MinSecretLength is refused.
func New(cfg Config) (*Service, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = SessionTTL
	}
	switch {
	case len(cfg.Secret) == 0:
		cfg.Secret = make([]byte, MinSecretLength)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
	case len(cfg.Secret) < MinSecretLength:
		return nil, ErrWeakSecret
	}
	return &Service{
		sessions:  make(map[string]*game.Session),
		conns:     make(map[string]*Conn),
		queues:    make(map[string][]string),
		store:     cfg.Store,
		waiter:    NewWaitRegistry(cfg.WaitTimeout),
		validator: cfg.Validator,
		secret:    cfg.Secret,
		ttl:       cfg.SessionTTL,
		log:       cfg.Log.Named("service"),
		now:       cfg.Now,
	}, nil
}

// Seating is what a player learns on taking or retaking a seat.
type Seating struct {
	ConnID        string
	GameID        string
	GameType      string
	Role          string
	Token         string
	CurrentPlayer string
	Status        core.Status
	Round         int
	Moves         []json.RawMessage
	Started       bool     // this seat filled the game
	Others        []string // connections of the other seats
}

// Notice describes an in-game action for fan-out to the other seats.
type Notice struct {
	GameID  string
	Role    string
	Others  []string
	Payload json.RawMessage  // move as sent
	Record  json.RawMessage  // move as stored
	Result  *core.GameResult // set when the action finished the round
}

// Rematch reports the state of a rematch request.
type Rematch struct {
	GameID        string
	Role          string
	Accepted      int
	Needed        int
	Started       bool
	Round         int
	CurrentPlayer string
	Roles         map[string]string // connection → role after rotation
	Others        []string
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// NormalizeGameCode upper-cases code and checks it is six base-36 characters.
func NormalizeGameCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != GameCodeLength {
		return "", ErrInvalidGameCode
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z') {
			return "", ErrInvalidGameCode
		}
	}
	return code, nil
}

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func newGameCode() string {
	id := uuid.New()
	b := make([]byte, GameCodeLength)
	for i := range b {
		b[i] = codeAlphabet[int(id[i])%len(codeAlphabet)]
	}
	return string(b)
}

// uniqueCode picks a code not in use. Caller holds mu.
func (s *Service) uniqueCode() (string, error) {
	const maxAttempts = 10
	for i := 0; i < maxAttempts; i++ {
		code := newGameCode()
		if _, taken := s.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique game code after %d attempts", maxAttempts)
}

// Connect registers a new client connection
func (s *Service) Connect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = &Conn{ID: connID}
}

// Disconnect forgets connID. When the connection held a seat in a game that
// is being played, the returned notice lists the seats to tell.
func (s *Service) Disconnect(connID string) (*Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[connID]
	if !ok {
		return nil, false
	}
	delete(s.conns, connID)
	s.dequeue(c)

	sess, ok := s.sessions[c.GameID]
	if !ok {
		return nil, false
	}
	role, ok := sess.Disconnect(connID, s.now())
	if !ok {
		return nil, false
	}
	s.notify(sess)
	s.log.Info("player disconnected", zap.String("game", sess.ID()), zap.String("role", role))

	if sess.Status() != core.StatusPlaying {
		return nil, false
	}
	return &Notice{GameID: sess.ID(), Role: role, Others: sess.OtherConns(role)}, true
}

func (s *Service) conn(connID string) (*Conn, error) {
	c, ok := s.conns[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	return c, nil
}

// active resolves the session the connection is seated in
func (s *Service) active(connID string) (*Conn, *game.Session, error) {
	c, err := s.conn(connID)
	if err != nil {
		return nil, nil, err
	}
	sess, ok := s.sessions[c.GameID]
	if c.GameID == "" || !ok {
		return c, nil, ErrNoActiveGame
	}
	return c, sess, nil
}

// release frees the connection for a new game. Leaving an unfinished game
// is refused.
func (s *Service) release(c *Conn) error {
	if sess, ok := s.sessions[c.GameID]; ok {
		if sess.Status() != core.StatusFinished {
			return ErrAlreadyInGame
		}
		sess.Disconnect(c.ID, s.now())
		s.notify(sess)
	}
	c.GameID, c.Role, c.PlayerID = "", "", ""
	s.dequeue(c)
	return nil
}

func (s *Service) issueToken(gameID, role, playerID string) (string, error) {
	return auth.GenerateHS256Token(s.secret, playerID, map[string]any{
		"gameId": gameID,
		"role":   role,
	}, TokenTTL)
}

// seat takes the next free seat of sess for c. The token is issued first so
// a failure leaves both untouched. Caller holds mu.
func (s *Service) seat(c *Conn, sess *game.Session) (*Seating, error) {
	wasPlaying := sess.Status() == core.StatusPlaying
	role, err := sess.OpenRole()
	if err != nil {
		return nil, err
	}
	playerID := uuid.NewString()
	token, err := s.issueToken(sess.ID(), role, playerID)
	if err != nil {
		return nil, fmt.Errorf("issue seat token: %w", err)
	}
	st, err := sess.Join(playerID, c.ID, s.now())
	if err != nil {
		return nil, err
	}
	c.GameID, c.Role, c.PlayerID = sess.ID(), st.Role, playerID
	return &Seating{
		ConnID:   c.ID,
		GameID:   sess.ID(),
		GameType: sess.Config().Type,
		Role:     st.Role,
		Token:    token,
		Status:   sess.Status(),
		Round:    sess.Round(),
		Started:  !wasPlaying && sess.Status() == core.StatusPlaying,
	}, nil
}

func (s *Service) fill(st *Seating, sess *game.Session) *Seating {
	st.CurrentPlayer = sess.CurrentRole()
	st.Status = sess.Status()
	st.Moves = sess.Moves()
	st.Others = sess.OtherConns(st.Role)
	return st
}

// CreateGame opens a new session of gameType and seats the caller in its
// first role.
func (s *Service) CreateGame(connID, gameType string) (*Seating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.conn(connID)
	if err != nil {
		return nil, err
	}
	cfg, ok := core.LookupConfig(gameType)
	if !ok {
		return nil, ErrUnknownGameType
	}
	if err := s.release(c); err != nil {
		return nil, err
	}

	sess, err := s.open(cfg)
	if err != nil {
		return nil, err
	}
	st, err := s.seat(c, sess)
	if err != nil {
		return nil, err
	}
	s.sessions[sess.ID()] = sess
	s.recordSession(sess)
	s.notify(sess)
	s.log.Info("game created", zap.String("game", sess.ID()), zap.String("type", cfg.Type))
	return s.fill(st, sess), nil
}

// open builds a session under a free code. The caller registers it once
// its first seats are taken.
func (s *Service) open(cfg core.GameConfig) (*game.Session, error) {
	code, err := s.uniqueCode()
	if err != nil {
		return nil, err
	}
	return game.New(code, cfg, s.now()), nil
}

// JoinGame seats the caller in the session with the given code.
func (s *Service) JoinGame(connID, code string) (*Seating, error) {
	code, err := NormalizeGameCode(code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.conn(connID)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions[code]
	if !ok {
		return nil, ErrGameNotFound
	}
	if c.GameID == code {
		return nil, ErrAlreadyInGame
	}
	if err := s.release(c); err != nil {
		return nil, err
	}
	st, err := s.seat(c, sess)
	if err != nil {
		return nil, err
	}
	if st.Started {
		s.updateSession(sess)
	}
	s.notify(sess)
	s.log.Info("player joined", zap.String("game", code), zap.String("role", st.Role))
	return s.fill(st, sess), nil
}

// SubmitMove records a move for the caller's seat and returns the fan-out.
func (s *Service) SubmitMove(connID string, payload json.RawMessage) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	if err := sess.CanMove(c.Role); err != nil {
		return nil, err
	}

	var result *core.GameResult
	if s.validator != nil {
		if result, err = s.validator.ValidateMove(sess, c.Role, payload); err != nil {
			return nil, err
		}
	}

	now := s.now()
	record, err := sess.RecordMove(c.Role, payload, now)
	if err != nil {
		return nil, err
	}
	s.recordMove(sess, c.Role, record)

	n := &Notice{GameID: sess.ID(), Role: c.Role, Payload: payload, Record: record}
	if result != nil && sess.Finish(*result, now) {
		n.Result = sess.Result()
		s.updateSession(sess)
		s.log.Info("game finished by referee", zap.String("game", sess.ID()), zap.String("reason", result.Reason))
	}
	n.Others = sess.OtherConns(c.Role)
	s.notify(sess)
	return n, nil
}

// GameOver finishes the round with a result reported by a client. A round
// that is already finished keeps its result and yields no notice.
func (s *Service) GameOver(connID string, result core.GameResult) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	switch sess.Status() {
	case core.StatusWaiting:
		return nil, game.ErrNotStarted
	case core.StatusFinished:
		return nil, nil
	}
	sess.Finish(result, s.now())
	s.updateSession(sess)
	s.notify(sess)
	return &Notice{GameID: sess.ID(), Role: c.Role, Others: sess.OtherConns(c.Role), Result: sess.Result()}, nil
}

func (s *Service) Resign(connID string) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	res, err := sess.Resign(c.Role, s.now())
	if err != nil {
		return nil, err
	}
	s.updateSession(sess)
	s.notify(sess)
	return &Notice{GameID: sess.ID(), Role: c.Role, Others: sess.OtherConns(c.Role), Result: &res}, nil
}

func (s *Service) OfferDraw(connID string) (*Notice, error) {
	return s.act(connID, func(c *Conn, sess *game.Session) error {
		return sess.OfferDraw(c.Role, s.now())
	})
}

func (s *Service) DeclineDraw(connID string) (*Notice, error) {
	return s.act(connID, func(c *Conn, sess *game.Session) error {
		return sess.DeclineDraw(c.Role, s.now())
	})
}

// DeclineRematch withdraws every pending rematch request.
func (s *Service) DeclineRematch(connID string) (*Notice, error) {
	return s.act(connID, func(c *Conn, sess *game.Session) error {
		if sess.Status() != core.StatusFinished {
			return game.ErrNotFinished
		}
		sess.DeclineRematch(s.now())
		return nil
	})
}

// act runs fn against the caller's session and returns the fan-out.
func (s *Service) act(connID string, fn func(*Conn, *game.Session) error) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	if err := fn(c, sess); err != nil {
		return nil, err
	}
	s.notify(sess)
	return &Notice{GameID: sess.ID(), Role: c.Role, Others: sess.OtherConns(c.Role)}, nil
}

// AcceptDraw finishes the game as a draw. The notice lists every connected
// seat, the caller included.
func (s *Service) AcceptDraw(connID string) (*Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	res, err := sess.AcceptDraw(c.Role, s.now())
	if err != nil {
		return nil, err
	}
	s.updateSession(sess)
	s.notify(sess)
	return &Notice{GameID: sess.ID(), Role: c.Role, Others: sess.OtherConns(""), Result: &res}, nil
}

// RequestRematch marks the caller ready for another round. Once every seat
// agreed the roles rotate and the new round starts.
func (s *Service) RequestRematch(connID string) (*Rematch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, sess, err := s.active(connID)
	if err != nil {
		return nil, err
	}
	role := c.Role
	accepted, started, err := sess.RequestRematch(role, s.now())
	if err != nil {
		return nil, err
	}

	r := &Rematch{
		GameID:   sess.ID(),
		Role:     role,
		Accepted: accepted,
		Needed:   len(sess.Config().Roles),
		Started:  started,
		Round:    sess.Round(),
		Others:   sess.OtherConns(role),
	}
	if started {
		r.CurrentPlayer = sess.CurrentRole()
		r.Roles = make(map[string]string)
		for _, st := range sess.Seats() {
			if cc, ok := s.conns[st.ConnID]; ok {
				cc.Role = st.Role
				r.Roles[cc.ID] = st.Role
			}
		}
		s.updateSession(sess)
		s.log.Info("rematch started", zap.String("game", sess.ID()), zap.Int("round", sess.Round()))
	}
	s.notify(sess)
	return r, nil
}

// FindGame queues the caller for gameType. When enough players are queued
// they are seated in a new session in queue order and the seatings of all of
// them are returned; otherwise the caller's queue position is.
func (s *Service) FindGame(connID, gameType string) (int, []*Seating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.conn(connID)
	if err != nil {
		return 0, nil, err
	}
	cfg, ok := core.LookupConfig(gameType)
	if !ok {
		return 0, nil, ErrUnknownGameType
	}
	if err := s.release(c); err != nil {
		return 0, nil, err
	}

	c.Searching = cfg.Type
	queue := append(s.queues[cfg.Type], c.ID)
	s.queues[cfg.Type] = queue
	if len(queue) < cfg.MinPlayers {
		return len(queue), nil, nil
	}

	sess, seatings, err := s.match(cfg, queue[:cfg.MinPlayers])
	if err != nil {
		// The players queued before stay queued
		s.dequeue(c)
		return 0, nil, err
	}
	s.queues[cfg.Type] = append([]string(nil), queue[cfg.MinPlayers:]...)
	for _, st := range seatings {
		s.conns[st.ConnID].Searching = ""
		s.fill(st, sess)
	}
	s.sessions[sess.ID()] = sess
	s.recordSession(sess)
	s.notify(sess)
	s.log.Info("match found", zap.String("game", sess.ID()), zap.String("type", cfg.Type))
	return 0, seatings, nil
}

// match seats ids in a new session in order. On failure nobody is left
// seated. Caller holds mu.
func (s *Service) match(cfg core.GameConfig, ids []string) (*game.Session, []*Seating, error) {
	sess, err := s.open(cfg)
	if err != nil {
		return nil, nil, err
	}
	seatings := make([]*Seating, 0, len(ids))
	for _, id := range ids {
		st, err := s.seat(s.conns[id], sess)
		if err != nil {
			for _, done := range seatings {
				qc := s.conns[done.ConnID]
				qc.GameID, qc.Role, qc.PlayerID = "", "", ""
			}
			return nil, nil, err
		}
		seatings = append(seatings, st)
	}
	return sess, seatings, nil
}

// CancelSearch removes the caller from matchmaking.
func (s *Service) CancelSearch(connID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.conn(connID)
	if err != nil {
		return false, err
	}
	return s.dequeue(c), nil
}

func (s *Service) dequeue(c *Conn) bool {
	if c.Searching == "" {
		return false
	}
	queue := s.queues[c.Searching]
	for i, id := range queue {
		if id == c.ID {
			s.queues[c.Searching] = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	c.Searching = ""
	return true
}

// Reconnect reattaches the caller to the seat named by a token issued at
// create or join time.
func (s *Service) Reconnect(connID, token string) (*Seating, error) {
	playerID, claims, err := auth.ValidateHS256Token(s.secret, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	gameID, _ := claims["gameId"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.conn(connID)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	if c.GameID != gameID {
		if err := s.release(c); err != nil {
			return nil, err
		}
	}

	prev, ok := sess.SeatByPlayer(playerID)
	if !ok {
		return nil, ErrInvalidToken
	}
	if old, ok := s.conns[prev.ConnID]; ok && old.ID != connID {
		old.GameID, old.Role, old.PlayerID = "", "", ""
	}
	st, err := sess.Reconnect(playerID, connID, s.now())
	if err != nil {
		return nil, ErrInvalidToken
	}
	c.GameID, c.Role, c.PlayerID = gameID, st.Role, playerID
	s.notify(sess)
	s.log.Info("player reconnected", zap.String("game", gameID), zap.String("role", st.Role))

	return s.fill(&Seating{
		ConnID:   connID,
		GameID:   gameID,
		GameType: sess.Config().Type,
		Role:     st.Role,
		Token:    token,
		Round:    sess.Round(),
	}, sess), nil
}

// Stats summarizes the relay
func (s *Service) Stats() core.StatsResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := core.StatsResponse{
		TotalOnline: len(s.conns),
		Sessions:    make(map[string]int),
	}
	for _, q := range s.queues {
		stats.InQueue += len(q)
	}
	for _, sess := range s.sessions {
		stats.Sessions[sess.Status().String()]++
		if sess.Status() == core.StatusPlaying {
			stats.ActiveGames++
		}
	}
	return stats
}

// Connection returns a copy of the connection record
func (s *Service) Connection(connID string) (Conn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conns[connID]
	if !ok {
		return Conn{}, false
	}
	return *c, true
}

// SessionView returns the REST representation of a session
func (s *Service) SessionView(code string) (core.SessionResponse, error) {
	code, err := NormalizeGameCode(code)
	if err != nil {
		return core.SessionResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return core.SessionResponse{}, ErrGameNotFound
	}
	return sess.View(), nil
}

// WaitForChange blocks until the session moves past version, the wait
// times out or ctx ends, then returns the current view.
func (s *Service) WaitForChange(ctx context.Context, code string, version uint64) (core.SessionResponse, error) {
	view, err := s.SessionView(code)
	if err != nil || view.Version != version {
		return view, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if sess, ok := s.sessions[view.GameID]; !ok || sess.Version() != version {
		s.mu.Unlock()
		return s.SessionView(code)
	}
	notify := s.waiter.RegisterWait(ctx, view.GameID, version)
	s.mu.Unlock()

	select {
	case <-notify:
	case <-ctx.Done():
		return view, ctx.Err()
	}
	return s.SessionView(code)
}

func (s *Service) notify(sess *game.Session) {
	s.waiter.NotifyGame(sess.ID(), sess.Version())
}

// RunCleanupJob periodically removes idle sessions
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

// cleanupExpired drops sessions idle for longer than the TTL that are
// either not being played or have nobody connected.
func (s *Service) cleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if !sess.UpdatedAt().Before(cutoff) {
			continue
		}
		if sess.Status() == core.StatusPlaying && !sess.Abandoned() {
			continue
		}
		for _, st := range sess.Seats() {
			if c, ok := s.conns[st.ConnID]; ok && c.GameID == id {
				c.GameID, c.Role, c.PlayerID = "", "", ""
			}
		}
		delete(s.sessions, id)
		s.waiter.RemoveGame(id)
		removed++
	}
	if removed > 0 {
		s.log.Info("cleanup removed idle sessions", zap.Int("count", removed))
	}
	return removed
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*game.Session)
	s.queues = make(map[string][]string)

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.store.Flush(ctx); err != nil && !errors.Is(err, storage.ErrDegraded) {
			errs = append(errs, fmt.Errorf("storage flush: %w", err))
		}
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}
