package chess

import "errors"

var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrPromotionPending = errors.New("promotion pending")
	ErrNoPromotion      = errors.New("no promotion pending")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
	ErrNoHistory        = errors.New("no move to undo")
	ErrGameOver         = errors.New("game is over")
	ErrUndoDisabled     = errors.New("undo is disabled in network games")
)
