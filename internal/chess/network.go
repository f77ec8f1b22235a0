package chess

import "fmt"

// MoveSender forwards a locally executed move to the relay.
type MoveSender interface {
	SendMove(w WireMove) error
}

// MoveSenderFunc adapts a function to MoveSender.
type MoveSenderFunc func(w WireMove) error

func (f MoveSenderFunc) SendMove(w WireMove) error { return f(w) }

// NetworkGatedEngine wraps a LocalEngine for one seat of a networked game.
// Local mutations are accepted only on this seat's turn, executed moves are
// forwarded through the sender, and undo is disabled.
type NetworkGatedEngine struct {
	local   *LocalEngine
	myColor Color
	sender  MoveSender
}

var _ Engine = (*NetworkGatedEngine)(nil)

func NewNetworkGatedEngine(local *LocalEngine, myColor Color, sender MoveSender) *NetworkGatedEngine {
	return &NetworkGatedEngine{local: local, myColor: myColor, sender: sender}
}

func (n *NetworkGatedEngine) MyColor() Color {
	return n.myColor
}

// Local exposes the wrapped engine for read-only inspection.
func (n *NetworkGatedEngine) Local() *LocalEngine {
	return n.local
}

func (n *NetworkGatedEngine) IsMyTurn() bool {
	return n.local.Phase() != PhaseGameOver && n.local.Turn() == n.myColor
}

func (n *NetworkGatedEngine) State() State            { return n.local.State() }
func (n *NetworkGatedEngine) Phase() Phase            { return n.local.Phase() }
func (n *NetworkGatedEngine) Outcome() Outcome        { return n.local.Outcome() }
func (n *NetworkGatedEngine) IsInCheck(c Color) bool  { return n.local.IsInCheck(c) }
func (n *NetworkGatedEngine) CancelPromotion() error  { return n.local.CancelPromotion() }
func (n *NetworkGatedEngine) Undo() error             { return ErrUndoDisabled }
func (n *NetworkGatedEngine) Moves() []Move           { return n.local.Moves() }
func (n *NetworkGatedEngine) History() []HistoryEntry { return n.local.History() }

func (n *NetworkGatedEngine) LegalMoves(sq Square) []Candidate {
	if !n.IsMyTurn() {
		return nil
	}
	return n.local.LegalMoves(sq)
}

// AttemptMove applies the move locally and then sends it. A send failure is
// returned but the local move stands.
func (n *NetworkGatedEngine) AttemptMove(from Square, c Candidate) (Result, error) {
	if !n.IsMyTurn() {
		return Result{}, ErrNotYourTurn
	}
	res, err := n.local.AttemptMove(from, c)
	if err != nil || !res.Applied {
		return res, err
	}
	return res, n.send(res.Move)
}

func (n *NetworkGatedEngine) ResolvePromotion(k Kind) (Result, error) {
	res, err := n.local.ResolvePromotion(k)
	if err != nil {
		return res, err
	}
	return res, n.send(res.Move)
}

// ApplyOpponentMove applies a move received from the relay. It is refused
// while a local promotion is pending or when it is this seat's turn.
func (n *NetworkGatedEngine) ApplyOpponentMove(w WireMove) (Result, error) {
	if n.local.Phase() == PhasePromotionPending {
		return Result{}, ErrPromotionPending
	}
	if n.local.Phase() == PhaseGameOver {
		return Result{}, ErrGameOver
	}
	if n.local.Turn() == n.myColor {
		return Result{}, ErrNotYourTurn
	}
	return ApplyWire(n.local, w)
}

// Resign concedes for this seat.
func (n *NetworkGatedEngine) Resign() error {
	return n.local.Resign(n.myColor)
}

// OpponentResigned records the opponent's resignation.
func (n *NetworkGatedEngine) OpponentResigned() error {
	return n.local.Resign(n.myColor.Opponent())
}

func (n *NetworkGatedEngine) AgreeDraw() error {
	return n.local.AgreeDraw()
}

// Rematch resets the board for a new round with a possibly different seat color.
func (n *NetworkGatedEngine) Rematch(myColor Color) {
	n.local.Reset()
	n.myColor = myColor
}

func (n *NetworkGatedEngine) send(m Move) error {
	if n.sender == nil {
		return nil
	}
	if err := n.sender.SendMove(m.Wire()); err != nil {
		return fmt.Errorf("send move %s: %w", m, err)
	}
	return nil
}
