package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"chessroom/internal/chess"
	"chessroom/internal/server/core"
	"chessroom/internal/server/game"
	"chessroom/internal/server/service"

	"go.uber.org/zap"
)

var errInvalidRequest = errors.New("invalid request")

// Processor turns client events into service calls and the envelopes that
// result from them
type Processor struct {
	svc *service.Service
	log *zap.Logger
}

func New(svc *service.Service, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{svc: svc, log: log.Named("processor")}
}

// Execute runs one command and returns what must be sent to whom
func (p *Processor) Execute(cmd Command) []Delivery {
	var (
		out []Delivery
		err error
	)

	switch cmd.Type {
	case core.EventCreateGame:
		out, err = p.handleCreateGame(cmd)
	case core.EventJoinGame:
		out, err = p.handleJoinGame(cmd)
	case core.EventMove:
		out, err = p.handleMove(cmd)
	case core.EventGameOver:
		out, err = p.handleGameOver(cmd)
	case core.EventResign:
		out, err = p.handleResign(cmd)
	case core.EventOfferDraw:
		out, err = p.relay(cmd, p.svc.OfferDraw, core.EventDrawOffered)
	case core.EventAcceptDraw:
		out, err = p.handleAcceptDraw(cmd)
	case core.EventDeclineDraw:
		out, err = p.relay(cmd, p.svc.DeclineDraw, core.EventDrawDeclined)
	case core.EventRequestRematch:
		out, err = p.handleRequestRematch(cmd)
	case core.EventDeclineRematch:
		out, err = p.relay(cmd, p.svc.DeclineRematch, core.EventRematchDeclined)
	case core.EventFindGame:
		out, err = p.handleFindGame(cmd)
	case core.EventCancelSearch:
		out, err = p.handleCancelSearch(cmd)
	case core.EventReconnect:
		out, err = p.handleReconnect(cmd)
	default:
		return p.errorDelivery(cmd.ConnID, core.ErrUnknownEvent, fmt.Sprintf("unknown event %q", cmd.Type))
	}

	if err != nil {
		code := ErrorCode(err)
		msg := err.Error()
		if code == core.ErrInternalError {
			p.log.Error("command failed", zap.String("event", string(cmd.Type)), zap.String("conn", cmd.ConnID), zap.Error(err))
			msg = "internal error"
		} else {
			p.log.Debug("command rejected", zap.String("event", string(cmd.Type)), zap.String("code", code), zap.Error(err))
		}
		return p.errorDelivery(cmd.ConnID, code, msg)
	}
	return out
}

// Connect registers a new connection with the service
func (p *Processor) Connect(connID string) {
	p.svc.Connect(connID)
}

// Disconnect releases the connection and tells the other seats
func (p *Processor) Disconnect(connID string) []Delivery {
	n, ok := p.svc.Disconnect(connID)
	if !ok {
		return nil
	}
	var out []Delivery
	p.send(&out, n.Others, core.EventPlayerDisconnected, core.PlayerDisconnectedResponse{DisconnectedPlayer: n.Role})
	return out
}

// Stats wraps the current relay statistics in an online-stats envelope
func (p *Processor) Stats() (core.Envelope, error) {
	return core.NewEnvelope(core.EventOnlineStats, p.svc.Stats())
}

// ErrorCode maps an error to its wire code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidGameCode):
		return core.ErrInvalidGameCode
	case errors.Is(err, game.ErrGameFull):
		return core.ErrGameFull
	case errors.Is(err, service.ErrGameNotFound):
		return core.ErrGameNotFound
	case errors.Is(err, game.ErrNotYourTurn):
		return core.ErrNotYourTurn
	case errors.Is(err, game.ErrNotStarted):
		return core.ErrGameNotStarted
	case errors.Is(err, game.ErrFinished):
		return core.ErrGameFinished
	case errors.Is(err, service.ErrNoActiveGame), errors.Is(err, service.ErrUnknownConnection):
		return core.ErrNoActiveGame
	case errors.Is(err, ErrIllegalMove), errors.Is(err, chess.ErrIllegalMove):
		return core.ErrIllegalMove
	case errors.Is(err, service.ErrAlreadyInGame):
		return core.ErrAlreadyInGame
	case errors.Is(err, service.ErrUnknownGameType):
		return core.ErrUnknownGameType
	case errors.Is(err, service.ErrInvalidToken):
		return core.ErrInvalidToken
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, game.ErrInvalidPayload),
		errors.Is(err, game.ErrNoDrawOffer),
		errors.Is(err, game.ErrNotFinished):
		return core.ErrInvalidRequest
	default:
		return core.ErrInternalError
	}
}

// decode unmarshals and validates an optional payload into v
func decode(payload json.RawMessage, v any) error {
	if b := bytes.TrimSpace(payload); len(b) > 0 && !bytes.Equal(b, []byte("null")) {
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
	}
	if err := core.Validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", errInvalidRequest, core.ValidationDetails(err))
	}
	return nil
}

func (p *Processor) send(out *[]Delivery, to []string, event core.Event, payload any) {
	env, err := core.NewEnvelope(event, payload)
	if err != nil {
		p.log.Error("encode envelope", zap.String("event", string(event)), zap.Error(err))
		return
	}
	for _, id := range to {
		*out = append(*out, Delivery{ConnID: id, Envelope: env})
	}
}

func (p *Processor) errorDelivery(connID, code, msg string) []Delivery {
	var out []Delivery
	p.send(&out, []string{connID}, core.EventError, core.ErrorEvent{Message: msg, Code: code})
	return out
}

func (p *Processor) handleCreateGame(cmd Command) ([]Delivery, error) {
	var req core.CreateGameRequest
	if err := decode(cmd.Payload, &req); err != nil {
		return nil, err
	}
	st, err := p.svc.CreateGame(cmd.ConnID, req.GameType)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, []string{cmd.ConnID}, core.EventGameCreated, core.GameCreatedResponse{
		GameID:   st.GameID,
		GameType: st.GameType,
		Role:     st.Role,
		Token:    st.Token,
		Message:  "Waiting for an opponent...",
	})
	return out, nil
}

func (p *Processor) handleJoinGame(cmd Command) ([]Delivery, error) {
	var req core.JoinGameRequest
	if err := decode(cmd.Payload, &req); err != nil {
		return nil, err
	}
	st, err := p.svc.JoinGame(cmd.ConnID, req.GameID)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, []string{cmd.ConnID}, core.EventGameJoined, joinedResponse(st))
	p.send(&out, st.Others, core.EventPlayerJoined, core.PlayerJoinedResponse{
		Role:          st.Role,
		GameStarted:   st.Started,
		CurrentPlayer: st.CurrentPlayer,
	})
	return out, nil
}

func joinedResponse(st *service.Seating) core.GameJoinedResponse {
	moves := st.Moves
	if moves == nil {
		moves = []json.RawMessage{}
	}
	return core.GameJoinedResponse{
		GameID:        st.GameID,
		GameType:      st.GameType,
		Role:          st.Role,
		Token:         st.Token,
		CurrentPlayer: st.CurrentPlayer,
		Status:        st.Status,
		Moves:         moves,
	}
}

func (p *Processor) handleMove(cmd Command) ([]Delivery, error) {
	if len(bytes.TrimSpace(cmd.Payload)) == 0 {
		return nil, fmt.Errorf("%w: move payload required", errInvalidRequest)
	}
	n, err := p.svc.SubmitMove(cmd.ConnID, cmd.Payload)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.sendRaw(&out, n.Others, core.EventOpponentMove, n.Payload)
	p.sendRaw(&out, []string{cmd.ConnID}, core.EventMoveConfirmed, n.Payload)
	if n.Result != nil {
		p.send(&out, append([]string{cmd.ConnID}, n.Others...), core.EventGameOver, n.Result)
	}
	return out, nil
}

// sendRaw relays a payload exactly as the client sent it
func (p *Processor) sendRaw(out *[]Delivery, to []string, event core.Event, payload json.RawMessage) {
	env := core.Envelope{Type: event, Payload: payload}
	for _, id := range to {
		*out = append(*out, Delivery{ConnID: id, Envelope: env})
	}
}

func (p *Processor) handleGameOver(cmd Command) ([]Delivery, error) {
	var req core.GameOverRequest
	if err := decode(cmd.Payload, &req); err != nil {
		return nil, err
	}
	n, err := p.svc.GameOver(cmd.ConnID, core.GameResult{Winner: req.Winner, Winners: req.Winners, Reason: req.Reason})
	if err != nil || n == nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, n.Others, core.EventGameOver, n.Result)
	return out, nil
}

func (p *Processor) handleResign(cmd Command) ([]Delivery, error) {
	n, err := p.svc.Resign(cmd.ConnID)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, n.Others, core.EventPlayerResigned, core.PlayerEventResponse{Role: n.Role})
	return out, nil
}

func (p *Processor) handleAcceptDraw(cmd Command) ([]Delivery, error) {
	n, err := p.svc.AcceptDraw(cmd.ConnID)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, n.Others, core.EventGameOver, n.Result)
	return out, nil
}

// relay runs a payload-free action and forwards event to the other seats
func (p *Processor) relay(cmd Command, fn func(string) (*service.Notice, error), event core.Event) ([]Delivery, error) {
	n, err := fn(cmd.ConnID)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, n.Others, event, core.PlayerEventResponse{Role: n.Role})
	return out, nil
}

func (p *Processor) handleRequestRematch(cmd Command) ([]Delivery, error) {
	r, err := p.svc.RequestRematch(cmd.ConnID)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	if !r.Started {
		p.send(&out, r.Others, core.EventRematchRequested, core.PlayerEventResponse{Role: r.Role})
		p.send(&out, []string{cmd.ConnID}, core.EventRematchWaiting, core.RematchWaitingResponse{
			Accepted: r.Accepted,
			Needed:   r.Needed,
			Message:  "Waiting for the other players...",
		})
		return out, nil
	}
	for connID, role := range r.Roles {
		p.send(&out, []string{connID}, core.EventRematchStarted, core.RematchStartedResponse{
			Role:          role,
			CurrentPlayer: r.CurrentPlayer,
			Round:         r.Round,
			Message:       fmt.Sprintf("New round! You are playing %s.", role),
		})
	}
	return out, nil
}

func (p *Processor) handleFindGame(cmd Command) ([]Delivery, error) {
	var req core.FindGameRequest
	if err := decode(cmd.Payload, &req); err != nil {
		return nil, err
	}
	pos, seats, err := p.svc.FindGame(cmd.ConnID, req.GameType)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	if seats == nil {
		cfg, _ := core.LookupConfig(req.GameType)
		p.send(&out, []string{cmd.ConnID}, core.EventMatchmakingStarted, core.MatchmakingResponse{
			GameType:      cfg.Type,
			QueuePosition: pos,
		})
		return out, nil
	}
	for _, st := range seats {
		p.send(&out, []string{st.ConnID}, core.EventGameFound, core.GameFoundResponse{
			GameID:        st.GameID,
			GameType:      st.GameType,
			Role:          st.Role,
			Token:         st.Token,
			CurrentPlayer: st.CurrentPlayer,
			Message:       fmt.Sprintf("Opponent found! You are playing %s.", st.Role),
		})
	}
	return out, nil
}

func (p *Processor) handleCancelSearch(cmd Command) ([]Delivery, error) {
	if _, err := p.svc.CancelSearch(cmd.ConnID); err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, []string{cmd.ConnID}, core.EventSearchCancelled, core.MessageResponse{Message: "Search cancelled"})
	return out, nil
}

func (p *Processor) handleReconnect(cmd Command) ([]Delivery, error) {
	var req core.ReconnectRequest
	if err := decode(cmd.Payload, &req); err != nil {
		return nil, err
	}
	st, err := p.svc.Reconnect(cmd.ConnID, req.Token)
	if err != nil {
		return nil, err
	}
	var out []Delivery
	p.send(&out, []string{cmd.ConnID}, core.EventGameJoined, joinedResponse(st))
	p.send(&out, st.Others, core.EventPlayerReconnected, core.PlayerEventResponse{Role: st.Role})
	return out, nil
}
