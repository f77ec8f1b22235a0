package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"chessroom/internal/chess"
	"chessroom/internal/client/display"
	"chessroom/internal/server/core"
)

// HandleEvent applies one relay event to the session and reports it
func (s *Session) HandleEvent(env core.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Verbose {
		fmt.Fprintf(s.out, "%s %s\n", display.Paint(display.Magenta, "["+string(env.Type)+"]"), env.Payload)
	}
	if err := s.handle(env); err != nil {
		s.warn("Error: " + err.Error())
	}
}

func (s *Session) handle(env core.Envelope) error {
	switch env.Type {
	case core.EventGameCreated:
		var resp core.GameCreatedResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		if err := s.seat(resp.GameID, resp.GameType, resp.Role, resp.Token); err != nil {
			return err
		}
		s.success(fmt.Sprintf("Game created: %s, you play %s", resp.GameID, resp.Role))
		s.info("Share the code with your opponent; waiting for them to join")

	case core.EventGameJoined:
		var resp core.GameJoinedResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		if err := s.seat(resp.GameID, resp.GameType, resp.Role, resp.Token); err != nil {
			return err
		}
		if err := s.replay(resp.Moves); err != nil {
			return fmt.Errorf("replaying session moves: %w", err)
		}
		s.started = resp.Status == core.StatusPlaying
		s.finished = resp.Status == core.StatusFinished
		s.success(fmt.Sprintf("Joined %s as %s", resp.GameID, resp.Role))
		s.render()

	case core.EventGameFound:
		var resp core.GameFoundResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		if err := s.seat(resp.GameID, resp.GameType, resp.Role, resp.Token); err != nil {
			return err
		}
		s.started = true
		s.success(fmt.Sprintf("Opponent found: %s, you play %s", resp.GameID, resp.Role))
		s.render()

	case core.EventPlayerJoined:
		var resp core.PlayerJoinedResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		s.started = resp.GameStarted
		s.success(fmt.Sprintf("%s joined", resp.Role))
		if s.started {
			s.render()
		}

	case core.EventOpponentMove:
		if s.net == nil {
			return ErrNoGame
		}
		var w chess.WireMove
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return err
		}
		res, err := s.net.ApplyOpponentMove(w)
		if err != nil {
			return fmt.Errorf("opponent move rejected locally: %w", err)
		}
		s.info("Opponent played " + res.Move.String())
		s.render()

	case core.EventMoveConfirmed:

	case core.EventPlayerResigned:
		var resp core.PlayerEventResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		if s.net != nil && resp.Role != s.Role {
			if err := s.net.OpponentResigned(); err != nil && !errors.Is(err, chess.ErrGameOver) {
				return err
			}
		}
		s.finished, s.drawOffered = true, false
		s.info(fmt.Sprintf("%s resigned", resp.Role))
		s.render()

	case core.EventDrawOffered:
		s.drawOffered = true
		s.info("Opponent offers a draw: 'accept' or 'decline'")

	case core.EventDrawDeclined:
		s.info("Draw offer declined")

	case core.EventGameOver:
		var result core.GameResult
		if err := json.Unmarshal(env.Payload, &result); err != nil {
			return err
		}
		return s.finish(result)

	case core.EventRematchRequested:
		s.info("Opponent wants a rematch: 'rematch' to accept, 'decline' to refuse")

	case core.EventRematchWaiting:
		var resp core.RematchWaitingResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		s.info(fmt.Sprintf("Rematch requested (%d/%d)", resp.Accepted, resp.Needed))

	case core.EventRematchStarted:
		var resp core.RematchStartedResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		color, err := chess.ParseColor(resp.Role)
		if err != nil || s.net == nil {
			return ErrChessOnly
		}
		s.Role = resp.Role
		s.net.Rematch(color)
		s.started, s.finished, s.drawOffered = true, false, false
		s.success(fmt.Sprintf("Rematch round %d, you play %s", resp.Round, resp.Role))
		s.render()

	case core.EventRematchDeclined:
		s.info("Rematch declined")

	case core.EventPlayerDisconnected:
		var resp core.PlayerDisconnectedResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		s.warn(fmt.Sprintf("%s disconnected", resp.DisconnectedPlayer))

	case core.EventPlayerReconnected:
		var resp core.PlayerEventResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		s.success(fmt.Sprintf("%s reconnected", resp.Role))

	case core.EventMatchmakingStarted:
		var resp core.MatchmakingResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return err
		}
		s.searching = true
		s.info(fmt.Sprintf("Searching for an opponent (queue position %d)", resp.QueuePosition))

	case core.EventSearchCancelled:
		s.searching = false
		s.info("Search cancelled")

	case core.EventOnlineStats:

	case core.EventError:
		var ev core.ErrorEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return err
		}
		return fmt.Errorf("%s (%s)", ev.Message, ev.Code)

	default:
		if !s.Verbose {
			fmt.Fprintf(s.out, "Unhandled event %s\n", env.Type)
		}
	}
	return nil
}

// replay rebuilds the position from relayed move payloads
func (s *Session) replay(moves []json.RawMessage) error {
	if s.net == nil {
		return nil
	}
	for i, raw := range moves {
		var w chess.WireMove
		if err := json.Unmarshal(raw, &w); err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		if _, err := chess.ApplyWire(s.net.Local(), w); err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return nil
}

// finish records a relay result. Results the board has not reached on its
// own, such as an agreed draw, are applied to the engine.
func (s *Session) finish(result core.GameResult) error {
	s.finished, s.drawOffered = true, false
	if s.net != nil && s.net.Phase() != chess.PhaseGameOver && result.Winner == "" && len(result.Winners) == 0 {
		if err := s.net.AgreeDraw(); err != nil {
			return fmt.Errorf("applying draw: %w", err)
		}
	}

	switch {
	case result.Winner != "":
		s.success(fmt.Sprintf("Game over: %s wins (%s)", result.Winner, result.Reason))
	case len(result.Winners) > 0:
		s.success(fmt.Sprintf("Game over: %v win (%s)", result.Winners, result.Reason))
	default:
		s.success(fmt.Sprintf("Game over: draw (%s)", result.Reason))
	}
	s.info("'rematch' to play again")
	return nil
}
