package commands

import (
	"context"
	"fmt"
	"time"
)

const lookupTimeout = 10 * time.Second

func (r *Registry) registerNetworkCommands() {
	for _, cmd := range []*Command{
		{Name: "join", ShortName: "j", Description: "Join a session by code", Usage: "join <code>", Handler: joinHandler},
		{Name: "find", ShortName: "f", Description: "Queue for a random opponent", Usage: "find", Handler: findHandler},
		{Name: "stop", ShortName: "st", Description: "Leave the matchmaking queue", Usage: "stop", Handler: stopSearchHandler},
		{Name: "accept", ShortName: "a", Description: "Accept the opponent's draw offer", Usage: "accept", Handler: acceptDrawHandler},
		{Name: "decline", ShortName: "dc", Description: "Decline a draw offer or a rematch", Usage: "decline", Handler: declineHandler},
		{Name: "reconnect", ShortName: "rc", Description: "Reclaim a seat with its token", Usage: "reconnect [token]", Handler: reconnectHandler},
		{Name: "info", ShortName: "i", Description: "Show the relay's view of a session", Usage: "info [code]", Handler: infoHandler},
	} {
		cmd.Group = groupNetwork
		r.Register(cmd)
	}
}

func joinHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: join <code>")
	}
	return s.relay.JoinGame(args[0])
}

func findHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	return s.relay.FindGame("")
}

func stopSearchHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	return s.relay.CancelSearch()
}

func acceptDrawHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	if !s.drawOffered {
		return ErrNoDrawOffer
	}
	s.drawOffered = false
	return s.relay.AcceptDraw()
}

// declineHandler answers whichever request is open: a draw offer during
// play, a rematch after the game.
func declineHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	if s.drawOffered {
		s.drawOffered = false
		return s.relay.DeclineDraw()
	}
	if s.finished {
		return s.relay.DeclineRematch()
	}
	return ErrNoDrawOffer
}

func reconnectHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	token := s.Token
	if len(args) > 0 {
		token = args[0]
	}
	if token == "" {
		return ErrNoReconnect
	}
	return s.relay.Reconnect(token)
}

func infoHandler(s *Session, args []string) error {
	if !s.Networked() {
		return ErrNetworkOnly
	}
	code := s.GameID
	if len(args) > 0 {
		code = args[0]
	}
	if code == "" {
		return ErrNoGame
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	view, err := s.relay.FetchSession(ctx, code, false, 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Session %s (%s) %s, round %d, %d move(s)\n",
		view.GameID, view.GameType, view.Status, view.Round, len(view.Moves))
	for _, seat := range view.Seats {
		state := "empty"
		switch {
		case seat.Connected:
			state = "connected"
		case seat.Occupied:
			state = "away"
		}
		fmt.Fprintf(s.out, "  %-6s %s\n", seat.Role, state)
	}
	if view.CurrentPlayer != "" {
		fmt.Fprintf(s.out, "Turn: %s\n", view.CurrentPlayer)
	}
	if view.Result != nil {
		fmt.Fprintf(s.out, "Result: %s %s\n", view.Result.Winner, view.Result.Reason)
	}
	return nil
}
