package bot

import (
	"errors"

	"belote/internal/domain"
)

// Agent represents an autonomous bot player occupying one seat.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

var ErrNoHand = errors.New("no hand in progress")

// Play asks the agent to calculate its move for the seat it occupies.
func (a *Agent) Play(game *domain.Game, seat domain.Seat) (Move, error) {
	if game == nil || game.Hand == nil {
		return Move{}, ErrNoHand
	}
	return a.Strategy.CalculateMove(game.Hand, seat)
}
