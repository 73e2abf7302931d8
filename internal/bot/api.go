package bot

import (
	"belote/internal/domain"
)

// MoveKind tags which table operation a bot decision maps to.
type MoveKind string

const (
	MoveAcceptTrump MoveKind = "accept_trump"
	MoveSelectTrump MoveKind = "select_trump"
	MovePlayCard    MoveKind = "play_card"
)

// Move represents the decision made by the AI for its current turn.
type Move struct {
	Kind   MoveKind
	Accept bool         // MoveAcceptTrump
	Suit   *domain.Suit // MoveSelectTrump; nil skips
	Card   domain.Card  // MovePlayCard
}

// Brain is the interface that all bot strategies must implement. The hand
// exposes exactly what a seated player sees: own cards, legal plays, and
// the public stage payload.
type Brain interface {
	CalculateMove(hand *domain.Hand, seat domain.Seat) (Move, error)
}
