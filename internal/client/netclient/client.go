// Package netclient connects a terminal client to the game relay over a
// websocket and exposes the relay events as a channel.
package netclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chessroom/internal/chess"
	"chessroom/internal/server/core"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
)

var ErrClosed = errors.New("connection closed")

// Client is one websocket connection to the relay. Send methods are safe
// for concurrent use; events are delivered in arrival order.
type Client struct {
	conn    *websocket.Conn
	baseURL string
	http    *http.Client
	log     *zap.Logger

	events chan core.Envelope
	wmu    sync.Mutex

	mu     sync.Mutex
	err    error
	closed bool
}

var _ chess.MoveSender = (*Client)(nil)

// Dial connects to server, given as host:port, an http(s) base URL or a
// ws(s) URL. A bare host gets the /ws path.
func Dial(ctx context.Context, server string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	wsURL, baseURL, err := Endpoints(server)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{
		conn:    conn,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log.Named("net"),
		events:  make(chan core.Envelope, eventBuffer),
	}
	go c.readLoop()
	return c, nil
}

// Endpoints derives the websocket URL and the REST base URL from a server
// address.
func Endpoints(server string) (wsURL, baseURL string, err error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", "", fmt.Errorf("empty server address")
	}
	if !strings.Contains(server, "://") {
		server = "ws://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", "", fmt.Errorf("invalid server address: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid server address %q: missing host", server)
	}

	switch u.Scheme {
	case "ws", "http":
		u.Scheme = "ws"
	case "wss", "https":
		u.Scheme = "wss"
	default:
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	wsURL = u.String()

	base := *u
	base.Path, base.RawQuery = "", ""
	if base.Scheme == "wss" {
		base.Scheme = "https"
	} else {
		base.Scheme = "http"
	}
	return wsURL, base.String(), nil
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env core.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.fail(err)
			return
		}
		c.log.Debug("event", zap.String("type", string(env.Type)), zap.ByteString("payload", env.Payload))
		c.events <- env
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		if c.closed {
			c.err = ErrClosed
		} else {
			c.err = err
		}
	}
}

// Events returns the relay events. The channel is closed when the
// connection ends; Err then reports why.
func (c *Client) Events() <-chan core.Envelope {
	return c.events
}

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Send writes one event
func (c *Client) Send(event core.Event, payload any) error {
	env, err := core.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// SendMove validates and relays a move made on this seat
func (c *Client) SendMove(w chess.WireMove) error {
	if err := core.Validate.Struct(w); err != nil {
		return fmt.Errorf("invalid move payload: %s", core.ValidationDetails(err))
	}
	return c.Send(core.EventMove, w)
}

func (c *Client) CreateGame(gameType string) error {
	return c.Send(core.EventCreateGame, core.CreateGameRequest{GameType: gameType})
}

func (c *Client) JoinGame(code string) error {
	return c.Send(core.EventJoinGame, core.JoinGameRequest{GameID: strings.ToUpper(code)})
}

func (c *Client) FindGame(gameType string) error {
	return c.Send(core.EventFindGame, core.FindGameRequest{GameType: gameType})
}

func (c *Client) CancelSearch() error {
	return c.Send(core.EventCancelSearch, nil)
}

func (c *Client) Reconnect(token string) error {
	return c.Send(core.EventReconnect, core.ReconnectRequest{Token: token})
}

// GameOver reports a result detected on this side of the board
func (c *Client) GameOver(result core.GameResult) error {
	return c.Send(core.EventGameOver, result)
}

func (c *Client) Resign() error         { return c.Send(core.EventResign, nil) }
func (c *Client) OfferDraw() error      { return c.Send(core.EventOfferDraw, nil) }
func (c *Client) AcceptDraw() error     { return c.Send(core.EventAcceptDraw, nil) }
func (c *Client) DeclineDraw() error    { return c.Send(core.EventDeclineDraw, nil) }
func (c *Client) RequestRematch() error { return c.Send(core.EventRequestRematch, nil) }
func (c *Client) DeclineRematch() error { return c.Send(core.EventDeclineRematch, nil) }

// FetchSession reads the REST view of a session. With wait set it
// long-polls until the session moves past version.
func (c *Client) FetchSession(ctx context.Context, code string, wait bool, version uint64) (core.SessionResponse, error) {
	var view core.SessionResponse

	u := fmt.Sprintf("%s/api/v1/games/%s", c.baseURL, url.PathEscape(strings.ToUpper(code)))
	if wait {
		u += fmt.Sprintf("?wait=true&version=%d", version)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return view, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return view, fmt.Errorf("session lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er core.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Code == "" {
			return view, fmt.Errorf("session lookup: status %d", resp.StatusCode)
		}
		return view, &RelayError{Code: er.Code, Message: er.Error}
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("decode session: %w", err)
	}
	return view, nil
}

// Close sends a close frame and shuts the connection
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wmu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.conn.Close()
}

// RelayError is an error event or error response from the relay
type RelayError struct {
	Code    string
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// DecodeError extracts the error event payload
func DecodeError(env core.Envelope) *RelayError {
	var ev core.ErrorEvent
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		return &RelayError{Code: core.ErrInternalError, Message: "malformed error event"}
	}
	return &RelayError{Code: ev.Code, Message: ev.Message}
}
