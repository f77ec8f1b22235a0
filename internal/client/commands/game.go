package commands

import (
	"errors"
	"fmt"
	"strings"

	"chessroom/internal/chess"
	"chessroom/internal/client/display"
	"chessroom/internal/server/core"
)

func (r *Registry) registerGameCommands() {
	for _, cmd := range []*Command{
		{Name: "new", ShortName: "n", Description: "Start a new game (creates a relay session when connected)", Usage: "new", Handler: newGameHandler},
		{Name: "move", ShortName: "m", Description: "Make a move in coordinate notation", Usage: "move <e2e4|e7e8q>", Handler: moveHandler},
		{Name: "promote", ShortName: "p", Description: "Choose the piece for a pending promotion", Usage: "promote <q|r|b|n>", Handler: promoteHandler},
		{Name: "cancel", ShortName: "c", Description: "Take back a pending promotion", Usage: "cancel", Handler: cancelPromotionHandler},
		{Name: "moves", ShortName: "l", Description: "List legal moves, for one square or all", Usage: "moves [square]", Handler: legalMovesHandler},
		{Name: "undo", ShortName: "u", Description: "Undo the last move (local play)", Usage: "undo", Handler: undoHandler},
		{Name: "show", ShortName: "h", Description: "Show board and game state", Usage: "show", Handler: showBoardHandler},
		{Name: "history", ShortName: "hi", Description: "Show the moves played", Usage: "history", Handler: historyHandler},
		{Name: "state", ShortName: "s", Description: "Show raw position JSON", Usage: "state", Handler: stateHandler},
		{Name: "resign", ShortName: "r", Description: "Resign the game", Usage: "resign", Handler: resignHandler},
		{Name: "draw", ShortName: "d", Description: "Offer a draw (agreed at once in local play)", Usage: "draw", Handler: drawHandler},
		{Name: "rematch", ShortName: "rm", Description: "Request or accept a rematch", Usage: "rematch", Handler: rematchHandler},
	} {
		cmd.Group = groupGame
		r.Register(cmd)
	}
}

func newGameHandler(s *Session, args []string) error {
	if s.Networked() {
		if s.GameID != "" && !s.finished {
			return fmt.Errorf("already seated in %s", s.GameID)
		}
		return s.relay.CreateGame(core.GameTypeChess)
	}
	s.local.Reset()
	s.success("New local game")
	s.render()
	return nil
}

func moveHandler(s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: move <e2e4|e7e8q>")
	}
	from, to, promo, err := chess.ParseCoordinates(args[0])
	if err != nil {
		return err
	}
	e, err := s.engine()
	if err != nil {
		return err
	}
	if s.Networked() && !s.started {
		return ErrNotStarted
	}

	res, err := e.AttemptMove(from, chess.Candidate{To: to})
	if err != nil && !res.Applied {
		return err
	}
	if res.PendingPromotion {
		if promo == chess.NoKind {
			s.render()
			return nil
		}
		res, err = e.ResolvePromotion(promo)
		if err != nil && !res.Applied {
			return err
		}
	}
	s.afterMove(res)
	return err
}

func promoteHandler(s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: promote <q|r|b|n>")
	}
	k, err := chess.ParseKind(args[0])
	if err != nil {
		return err
	}
	e, err := s.engine()
	if err != nil {
		return err
	}
	res, err := e.ResolvePromotion(k)
	if err != nil && !res.Applied {
		return err
	}
	s.afterMove(res)
	return err
}

// afterMove shows the position and, in network play, reports a result the
// move produced
func (s *Session) afterMove(res chess.Result) {
	s.render()
	if !s.Networked() || res.Status == chess.StatusNone {
		return
	}

	result := core.GameResult{Reason: res.Status.String()}
	if res.Status == chess.StatusCheckmate {
		result.Winner = s.Role
	}
	if err := s.relay.GameOver(result); err != nil {
		s.warn("Error: " + err.Error())
	}
}

func cancelPromotionHandler(s *Session, args []string) error {
	e, err := s.engine()
	if err != nil {
		return err
	}
	if err := e.CancelPromotion(); err != nil {
		return err
	}
	s.info("Promotion cancelled")
	return nil
}

func legalMovesHandler(s *Session, args []string) error {
	e, err := s.board()
	if err != nil {
		return err
	}
	st := e.State()

	var moves []chess.Move
	if len(args) > 0 {
		sq, err := chess.ParseSquare(args[0])
		if err != nil {
			return err
		}
		for _, c := range e.LegalMoves(sq) {
			moves = append(moves, chess.Move{From: sq, Candidate: c})
		}
	} else if e.Phase() == chess.PhaseIdle {
		moves = chess.AllLegalMoves(&st)
	}

	if len(moves) == 0 {
		s.info("No legal moves")
		return nil
	}
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.String()
	}
	fmt.Fprintf(s.out, "%d move(s): %s\n", len(moves), strings.Join(names, " "))
	return nil
}

func undoHandler(s *Session, args []string) error {
	if s.Networked() {
		return ErrLocalOnly
	}
	e, err := s.engine()
	if err != nil {
		return err
	}
	if err := e.Undo(); err != nil {
		return err
	}
	s.render()
	return nil
}

func showBoardHandler(s *Session, args []string) error {
	if _, err := s.board(); err != nil {
		return err
	}
	s.render()
	return nil
}

func historyHandler(s *Session, args []string) error {
	e, err := s.board()
	if err != nil {
		return err
	}
	moves := e.Moves()
	if len(moves) == 0 {
		s.info("No moves yet")
		return nil
	}
	fmt.Fprintln(s.out, display.FormatMoves(moves))
	return nil
}

func stateHandler(s *Session, args []string) error {
	e, err := s.board()
	if err != nil {
		return err
	}
	display.PrettyPrintJSON(s.out, e.State())
	return nil
}

func resignHandler(s *Session, args []string) error {
	if !s.Networked() {
		if err := s.local.Resign(s.local.Turn()); err != nil {
			return err
		}
		s.render()
		return nil
	}
	if s.net == nil {
		return ErrNoGame
	}
	if err := s.relay.Resign(); err != nil {
		return err
	}
	s.finished, s.drawOffered = true, false
	if err := s.net.Resign(); err != nil && !errors.Is(err, chess.ErrGameOver) {
		return err
	}
	s.render()
	return nil
}

func drawHandler(s *Session, args []string) error {
	if !s.Networked() {
		if err := s.local.AgreeDraw(); err != nil {
			return err
		}
		s.render()
		return nil
	}
	if s.net == nil {
		return ErrNoGame
	}
	if s.drawOffered {
		return acceptDrawHandler(s, args)
	}
	if err := s.relay.OfferDraw(); err != nil {
		return err
	}
	s.info("Draw offered")
	return nil
}

func rematchHandler(s *Session, args []string) error {
	if !s.Networked() {
		return newGameHandler(s, args)
	}
	if s.GameID == "" {
		return ErrNoGame
	}
	return s.relay.RequestRematch()
}
