package processor

import (
	"encoding/json"
	"errors"
	"fmt"

	"chessroom/internal/chess"
	"chessroom/internal/server/core"
	"chessroom/internal/server/game"
)

var ErrIllegalMove = errors.New("illegal move")

// Referee checks relayed chess moves against an authoritative engine kept on
// each session. Other game types pass through untouched.
type Referee struct{}

func NewReferee() *Referee {
	return &Referee{}
}

// ValidateMove applies payload to the session's engine. Checkmate and
// stalemate produce the result that ends the round.
func (r *Referee) ValidateMove(s *game.Session, role string, payload json.RawMessage) (*core.GameResult, error) {
	if s.Config().Type != core.GameTypeChess {
		return nil, nil
	}

	var w chess.WireMove
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if err := core.Validate.Struct(w); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, core.ValidationDetails(err))
	}

	eng := s.Referee()
	if eng == nil {
		eng = chess.NewGame()
		s.SetReferee(eng)
	}
	color, err := chess.ParseColor(role)
	if err != nil || eng.Turn() != color {
		return nil, fmt.Errorf("%w: %s does not have the move", ErrIllegalMove, role)
	}

	res, err := chess.ApplyWire(eng, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	switch res.Status {
	case chess.StatusCheckmate:
		return &core.GameResult{Winner: role, Reason: res.Status.String()}, nil
	case chess.StatusStalemate:
		return &core.GameResult{Reason: res.Status.String()}, nil
	}
	return nil, nil
}
