package core

import (
	"bytes"
	"encoding/json"
)

// Event names a relay message
type Event string

// Client to server events
const (
	EventCreateGame     Event = "create-game"
	EventJoinGame       Event = "join-game"
	EventMove           Event = "move"
	EventGameOver       Event = "game-over"
	EventResign         Event = "resign"
	EventOfferDraw      Event = "offer-draw"
	EventAcceptDraw     Event = "accept-draw"
	EventDeclineDraw    Event = "decline-draw"
	EventRequestRematch Event = "request-rematch"
	EventDeclineRematch Event = "decline-rematch"
	EventFindGame       Event = "find-game"
	EventCancelSearch   Event = "cancel-search"
	EventReconnect      Event = "reconnect"
)

// Server to client events
const (
	EventGameCreated        Event = "game-created"
	EventGameJoined         Event = "game-joined"
	EventPlayerJoined       Event = "player-joined"
	EventOpponentMove       Event = "opponent-move"
	EventMoveConfirmed      Event = "move-confirmed"
	EventPlayerDisconnected Event = "player-disconnected"
	EventPlayerReconnected  Event = "player-reconnected"
	EventPlayerResigned     Event = "player-resigned"
	EventDrawOffered        Event = "draw-offered"
	EventDrawDeclined       Event = "draw-declined"
	EventRematchRequested   Event = "rematch-requested"
	EventRematchWaiting     Event = "rematch-waiting"
	EventRematchStarted     Event = "rematch-started"
	EventRematchDeclined    Event = "rematch-declined"
	EventMatchmakingStarted Event = "matchmaking-started"
	EventGameFound          Event = "game-found"
	EventSearchCancelled    Event = "search-cancelled"
	EventOnlineStats        Event = "online-stats"
	EventError              Event = "error"
)

// Envelope is the websocket frame: {"type": "...", "payload": {...}}
type Envelope struct {
	Type    Event           `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into an envelope. A nil payload is omitted.
func NewEnvelope(event Event, payload any) (Envelope, error) {
	env := Envelope{Type: event}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = raw
	return env, nil
}

// Request types

type CreateGameRequest struct {
	GameType string `json:"gameType" validate:"omitempty,max=32,alphanum"`
}

type JoinGameRequest struct {
	GameID string `json:"gameId" validate:"required,len=6,alphanum"`
}

// UnmarshalJSON also accepts a bare string game code.
func (r *JoinGameRequest) UnmarshalJSON(b []byte) error {
	if b = bytes.TrimSpace(b); len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.GameID)
	}
	type plain JoinGameRequest
	return json.Unmarshal(b, (*plain)(r))
}

type GameOverRequest struct {
	Winner  string   `json:"winner,omitempty" validate:"omitempty,max=16"`
	Winners []string `json:"winners,omitempty" validate:"omitempty,max=8,dive,max=16"`
	Reason  string   `json:"reason,omitempty" validate:"omitempty,max=128"`
}

type FindGameRequest struct {
	GameType string `json:"gameType" validate:"omitempty,max=32,alphanum"`
}

type ReconnectRequest struct {
	Token string `json:"token" validate:"required,max=1024"`
}

// Response types

type GameCreatedResponse struct {
	GameID   string `json:"gameId"`
	GameType string `json:"gameType"`
	Role     string `json:"role"`
	Token    string `json:"token"`
	Message  string `json:"message"`
}

type GameJoinedResponse struct {
	GameID        string            `json:"gameId"`
	GameType      string            `json:"gameType"`
	Role          string            `json:"role"`
	Token         string            `json:"token"`
	CurrentPlayer string            `json:"currentPlayer"`
	Status        Status            `json:"status"`
	Moves         []json.RawMessage `json:"moves"`
}

type PlayerJoinedResponse struct {
	Role          string `json:"role"`
	GameStarted   bool   `json:"gameStarted"`
	CurrentPlayer string `json:"currentPlayer"`
}

type GameFoundResponse struct {
	GameID        string `json:"gameId"`
	GameType      string `json:"gameType"`
	Role          string `json:"role"`
	Token         string `json:"token"`
	CurrentPlayer string `json:"currentPlayer"`
	Message       string `json:"message"`
}

type MatchmakingResponse struct {
	GameType      string `json:"gameType"`
	QueuePosition int    `json:"queuePosition"`
}

type PlayerEventResponse struct {
	Role string `json:"role"`
}

type PlayerDisconnectedResponse struct {
	DisconnectedPlayer string `json:"disconnectedPlayer"`
}

// GameResult is the outcome carried by game-over.
type GameResult struct {
	Winner  string   `json:"winner,omitempty"`
	Winners []string `json:"winners,omitempty"`
	Reason  string   `json:"reason"`
}

type RematchWaitingResponse struct {
	Accepted int    `json:"accepted"`
	Needed   int    `json:"needed"`
	Message  string `json:"message"`
}

type RematchStartedResponse struct {
	Role          string `json:"role"`
	CurrentPlayer string `json:"currentPlayer"`
	Round         int    `json:"round"`
	Message       string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatsResponse struct {
	TotalOnline int            `json:"totalOnline"`
	InQueue     int            `json:"inQueue"`
	ActiveGames int            `json:"activeGames"`
	Sessions    map[string]int `json:"sessions"`
}

// SessionResponse is the REST view of one relay session.
type SessionResponse struct {
	GameID        string            `json:"gameId"`
	GameType      string            `json:"gameType"`
	Status        Status            `json:"status"`
	Round         int               `json:"round"`
	Version       uint64            `json:"version"`
	CurrentPlayer string            `json:"currentPlayer"`
	Seats         []SeatInfo        `json:"seats"`
	Moves         []json.RawMessage `json:"moves"`
	Result        *GameResult       `json:"result,omitempty"`
}

type SeatInfo struct {
	Role      string `json:"role"`
	Occupied  bool   `json:"occupied"`
	Connected bool   `json:"connected"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// ErrorEvent is the payload of the websocket error event.
type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// SessionQuery is the query string of the session lookup. With Wait set the
// request long-polls until the session moves past Version.
type SessionQuery struct {
	Wait    bool   `query:"wait"`
	Version uint64 `query:"version"`
}
