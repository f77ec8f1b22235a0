package chess

import (
	"fmt"
	"slices"
)

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePromotionPending
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePromotionPending:
		return "promotion-pending"
	case PhaseGameOver:
		return "game-over"
	default:
		return "idle"
	}
}

// Outcome describes how a finished game ended. Winner is NoColor for draws.
type Outcome struct {
	Status Status
	Winner Color
}

// Result reports the effect of one engine call.
type Result struct {
	Applied          bool
	PendingPromotion bool
	Status           Status
	Move             Move
}

// Engine is the caller-facing rule engine surface shared by local and
// network play.
type Engine interface {
	State() State
	Phase() Phase
	Outcome() Outcome
	LegalMoves(sq Square) []Candidate
	AttemptMove(from Square, c Candidate) (Result, error)
	ResolvePromotion(k Kind) (Result, error)
	CancelPromotion() error
	Undo() error
	IsInCheck(c Color) bool
}

// LocalEngine owns one game: position, history and the promotion stall.
// It is not safe for concurrent use.
type LocalEngine struct {
	state   State
	history []HistoryEntry
	phase   Phase
	pending Move
	outcome Outcome
}

var _ Engine = (*LocalEngine)(nil)

// NewGame returns an engine at the standard starting position.
func NewGame() *LocalEngine {
	return NewEngine(NewState())
}

// NewEngine starts from an arbitrary position. A position that is already
// terminal starts in PhaseGameOver.
func NewEngine(st State) *LocalEngine {
	e := &LocalEngine{state: st.Clone()}
	e.evaluate()
	return e
}

func (e *LocalEngine) Reset() {
	*e = LocalEngine{state: NewState()}
}

// State returns a copy of the current position.
func (e *LocalEngine) State() State {
	return e.state.Clone()
}

func (e *LocalEngine) Turn() Color {
	return e.state.Turn
}

func (e *LocalEngine) Phase() Phase {
	return e.phase
}

func (e *LocalEngine) Outcome() Outcome {
	return e.outcome
}

// Pending returns the staged promotion move, if any.
func (e *LocalEngine) Pending() (Move, bool) {
	return e.pending, e.phase == PhasePromotionPending
}

func (e *LocalEngine) History() []HistoryEntry {
	return slices.Clone(e.history)
}

// Moves returns the executed moves in order.
func (e *LocalEngine) Moves() []Move {
	out := make([]Move, len(e.history))
	for i, h := range e.history {
		out[i] = h.Move
	}
	return out
}

func (e *LocalEngine) IsInCheck(c Color) bool {
	return InCheck(&e.state.Board, c)
}

// LegalMoves lists legal candidates for a piece of the side to move. It
// returns nil for the other side, empty squares, and outside PhaseIdle.
func (e *LocalEngine) LegalMoves(sq Square) []Candidate {
	if e.phase != PhaseIdle || !sq.Valid() {
		return nil
	}
	if p := e.state.Board.At(sq); p.IsEmpty() || p.Color != e.state.Turn {
		return nil
	}
	return LegalMoves(&e.state, sq)
}

// AttemptMove executes the legal move from -> c.To. Only the destination of
// c is trusted; the special-move data comes from the generator. Promotion
// moves stall in PhasePromotionPending without touching the board.
func (e *LocalEngine) AttemptMove(from Square, c Candidate) (Result, error) {
	switch e.phase {
	case PhaseGameOver:
		return Result{}, ErrGameOver
	case PhasePromotionPending:
		return Result{}, ErrPromotionPending
	}

	cand, ok := e.find(from, c.To)
	if !ok {
		return Result{}, ErrIllegalMove
	}

	m := Move{From: from, Candidate: cand}
	if cand.Flag == FlagPromotion {
		e.pending = m
		e.phase = PhasePromotionPending
		return Result{PendingPromotion: true, Move: m}, nil
	}
	return e.execute(m), nil
}

// ResolvePromotion finalizes the staged promotion with piece kind k.
func (e *LocalEngine) ResolvePromotion(k Kind) (Result, error) {
	if e.phase != PhasePromotionPending {
		return Result{}, ErrNoPromotion
	}
	if !k.IsPromotionChoice() {
		return Result{}, ErrInvalidPromotion
	}
	m := e.pending
	m.PromoteTo = k
	e.pending = Move{}
	e.phase = PhaseIdle
	return e.execute(m), nil
}

// CancelPromotion abandons the staged promotion. The board is unchanged.
func (e *LocalEngine) CancelPromotion() error {
	if e.phase != PhasePromotionPending {
		return ErrNoPromotion
	}
	e.pending = Move{}
	e.phase = PhaseIdle
	return nil
}

// Apply executes a complete move, including its promotion choice, as one
// step. It is used for replays and for moves received from elsewhere.
func (e *LocalEngine) Apply(m Move) (Result, error) {
	if e.phase == PhasePromotionPending {
		return Result{}, ErrPromotionPending
	}
	if cand, ok := e.find(m.From, m.To); ok && cand.Flag == FlagPromotion && !m.PromoteTo.IsPromotionChoice() {
		return Result{}, ErrInvalidPromotion
	}
	res, err := e.AttemptMove(m.From, m.Candidate)
	if err != nil || !res.PendingPromotion {
		return res, err
	}
	return e.ResolvePromotion(m.PromoteTo)
}

// Replay applies moves in order and stops at the first failure.
func (e *LocalEngine) Replay(moves []Move) error {
	for i, m := range moves {
		if _, err := e.Apply(m); err != nil {
			return fmt.Errorf("move %d (%s): %w", i+1, m, err)
		}
	}
	return nil
}

// Undo reverts the last executed move. Undoing out of checkmate or
// stalemate reopens the game; resignations and draw agreements are final.
func (e *LocalEngine) Undo() error {
	if e.phase == PhasePromotionPending {
		return ErrPromotionPending
	}
	if e.phase == PhaseGameOver && (e.outcome.Status == StatusResignation || e.outcome.Status == StatusDrawAgreement) {
		return ErrGameOver
	}
	if len(e.history) == 0 {
		return ErrNoHistory
	}

	h := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	b := &e.state.Board
	m := h.Move

	b.Set(m.From, h.Moved)
	b.Set(m.To, NoPiece)
	if !h.Captured.IsEmpty() {
		b.Set(h.CapturedAt, h.Captured)
		list := e.state.Captured.of(h.Captured.Color)
		*list = (*list)[:len(*list)-1]
	}
	if m.Flag == FlagCastling {
		row := m.From.Row
		b[row][m.RookFromCol] = b[row][m.RookToCol]
		b[row][m.RookToCol] = NoPiece
	}

	e.state.Castling = h.PriorCastling
	e.state.EnPassant = h.PriorEnPassant
	e.state.LastMove = h.PriorLastMove
	e.state.Turn = h.Moved.Color
	e.phase = PhaseIdle
	e.outcome = Outcome{}
	return nil
}

// Resign ends the game in favour of c's opponent.
func (e *LocalEngine) Resign(c Color) error {
	if e.phase == PhaseGameOver {
		return ErrGameOver
	}
	e.pending = Move{}
	e.phase = PhaseGameOver
	e.outcome = Outcome{Status: StatusResignation, Winner: c.Opponent()}
	return nil
}

// AgreeDraw ends the game as a draw by agreement.
func (e *LocalEngine) AgreeDraw() error {
	if e.phase == PhaseGameOver {
		return ErrGameOver
	}
	e.pending = Move{}
	e.phase = PhaseGameOver
	e.outcome = Outcome{Status: StatusDrawAgreement}
	return nil
}

func (e *LocalEngine) find(from, to Square) (Candidate, bool) {
	for _, c := range e.LegalMoves(from) {
		if c.To == to {
			return c, true
		}
	}
	return Candidate{}, false
}

func (e *LocalEngine) execute(m Move) Result {
	st := &e.state
	b := &st.Board
	moved := b.At(m.From)

	h := HistoryEntry{
		Move:           m,
		Moved:          moved,
		Captured:       NoPiece,
		CapturedAt:     NoSquare,
		PriorCastling:  st.Castling,
		PriorEnPassant: st.EnPassant,
		PriorLastMove:  st.LastMove,
	}

	last := &LastMove{
		From:         m.From,
		To:           m.To,
		RookFrom:     NoSquare,
		RookTo:       NoSquare,
		CapturedPawn: NoSquare,
	}

	if m.Flag == FlagCastling {
		row := m.From.Row
		b[row][m.RookToCol] = b[row][m.RookFromCol]
		b[row][m.RookFromCol] = NoPiece
		last.Castle = m.Castle
		last.RookFrom = Square{Row: row, Col: m.RookFromCol}
		last.RookTo = Square{Row: row, Col: m.RookToCol}
	}

	if m.Flag == FlagEnPassant {
		h.Captured = b.At(m.CapturedPawn)
		h.CapturedAt = m.CapturedPawn
		b.Set(m.CapturedPawn, NoPiece)
		last.EnPassant = true
		last.CapturedPawn = m.CapturedPawn
	} else if target := b.At(m.To); !target.IsEmpty() {
		h.Captured = target
		h.CapturedAt = m.To
	}
	if !h.Captured.IsEmpty() {
		list := st.Captured.of(h.Captured.Color)
		*list = append(*list, h.Captured)
	}

	placed := moved
	if m.PromoteTo != NoKind {
		placed = Piece{Kind: m.PromoteTo, Color: moved.Color}
	}
	b.Set(m.From, NoPiece)
	b.Set(m.To, placed)

	updateRights(&st.Castling, moved, m.From)
	if h.Captured.Kind == Rook {
		updateRights(&st.Castling, h.Captured, h.CapturedAt)
	}

	st.EnPassant = NoSquare
	if m.Flag == FlagPawnDoubleMove {
		st.EnPassant = Square{Row: (m.From.Row + m.To.Row) / 2, Col: m.From.Col}
	}

	st.LastMove = last
	e.history = append(e.history, h)
	st.Turn = moved.Color.Opponent()

	e.evaluate()
	return Result{Applied: true, Status: e.outcome.Status, Move: m}
}

// updateRights clears castling rights lost when p leaves (or is captured on)
// sq.
func updateRights(r *Rights, p Piece, sq Square) {
	cr := r.For(p.Color)
	switch p.Kind {
	case King:
		cr.KingSide, cr.QueenSide = false, false
	case Rook:
		if sq.Row != homeRow(p.Color) {
			return
		}
		switch sq.Col {
		case 7:
			cr.KingSide = false
		case 0:
			cr.QueenSide = false
		}
	}
}

func (e *LocalEngine) evaluate() {
	status := TerminalStatus(&e.state, e.state.Turn)
	if status == StatusNone {
		e.phase = PhaseIdle
		e.outcome = Outcome{}
		return
	}
	e.phase = PhaseGameOver
	e.outcome = Outcome{Status: status}
	if status == StatusCheckmate {
		e.outcome.Winner = e.state.Turn.Opponent()
	}
}
