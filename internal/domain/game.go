package domain

// TargetScore ends the match once either team reaches it.
const TargetScore = 1000

// GameStatus is the lifecycle stage of a match.
type GameStatus string

const (
	GameReady      GameStatus = "Ready"
	GameInProgress GameStatus = "InProgress"
	GameFinished   GameStatus = "Finished"
)

// Game aggregates hand totals into per-team match scores and decides when
// the match ends. Not safe for concurrent use; callers serialize moves per
// room.
type Game struct {
	Status      GameStatus   `json:"status"`
	Scores      map[Team]int `json:"scores"`
	TargetScore int          `json:"targetScore"`
	Hand        *Hand        `json:"hand,omitempty"`

	startingSeat Seat
	handNumber   int
	dealers      DealerFactory
}

// NewGame constructs a ready match. dealers produces a fresh shuffled
// dealer for every hand.
func NewGame(dealers DealerFactory) *Game {
	return &Game{
		Status:      GameReady,
		Scores:      map[Team]int{Team1: 0, Team2: 0},
		TargetScore: TargetScore,
		dealers:     dealers,
	}
}

// Start deals the first hand. Seat1 opens the first hand; the opener
// advances one seat per hand.
func (g *Game) Start() error {
	if g.Status != GameReady {
		return ErrGameAlreadyStarted
	}
	g.Status = GameInProgress
	g.startingSeat = Seat1
	return g.dealHand()
}

// AcceptTableTrump forwards a table-trump vote to the current hand.
func (g *Game) AcceptTableTrump(seat Seat, accept bool) error {
	if g.Status != GameInProgress {
		return ErrGameNotInProgress
	}
	if err := g.Hand.AcceptTableTrump(seat, accept); err != nil {
		return err
	}
	return g.settleIfFinished()
}

// SelectTrump forwards a free-selection move to the current hand.
func (g *Game) SelectTrump(seat Seat, suit *Suit) error {
	if g.Status != GameInProgress {
		return ErrGameNotInProgress
	}
	if err := g.Hand.SelectTrump(seat, suit); err != nil {
		return err
	}
	return g.settleIfFinished()
}

// PlayCard forwards a card play to the current hand.
func (g *Game) PlayCard(seat Seat, card Card) error {
	if g.Status != GameInProgress {
		return ErrGameNotInProgress
	}
	if err := g.Hand.PlayCard(seat, card); err != nil {
		return err
	}
	return g.settleIfFinished()
}

// CurrentTurn reports whose turn it is in the current hand.
func (g *Game) CurrentTurn() (Seat, error) {
	if g.Status != GameInProgress {
		return NoSeat, ErrGameNotInProgress
	}
	return g.Hand.CurrentTurn()
}

// HandNumber reports how many hands have been dealt, starting at 1.
func (g *Game) HandNumber() int {
	return g.handNumber
}

// settleIfFinished folds a finished hand's totals into the match scores and
// either deals the next hand or ends the match at the target score.
func (g *Game) settleIfFinished() error {
	if g.Hand == nil || g.Hand.Stage != StageFinished {
		return nil
	}

	for team, points := range g.Hand.Totals() {
		g.Scores[team] += points
	}

	if g.Scores[Team1] >= g.TargetScore || g.Scores[Team2] >= g.TargetScore {
		g.Status = GameFinished
		g.Hand = nil
		return nil
	}

	return g.dealHand()
}

func (g *Game) dealHand() error {
	opener := g.startingSeat.Advance(g.handNumber)
	hand, err := NewHand(opener, g.dealers())
	if err != nil {
		return err
	}
	g.Hand = hand
	g.handNumber++
	return nil
}
