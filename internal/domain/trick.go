package domain

// Trick is the four-seat play buffer for one round within a hand. Cards is
// keyed by seat; play order is recoverable from StartingSeat because seats
// play in rotation and each seat appears at most once.
type Trick struct {
	StartingSeat Seat          `json:"startingSeat"`
	Cards        map[Seat]Card `json:"playedCards"`
}

// TrickResult carries the winning seat and the trick's card-point value.
type TrickResult struct {
	Winner Seat
	Points int
}

func NewTrick(startingSeat Seat) *Trick {
	return &Trick{
		StartingSeat: startingSeat,
		Cards:        make(map[Seat]Card, NumSeats),
	}
}

// IsComplete reports whether all four seats have played.
func (t *Trick) IsComplete() bool {
	return len(t.Cards) == NumSeats
}

// CurrentTurn derives the seat to play next from the starting seat and the
// number of cards already down. It is recomputed on every query.
func (t *Trick) CurrentTurn() (Seat, error) {
	if t.IsComplete() {
		return NoSeat, ErrTrickFull
	}
	return t.StartingSeat.Advance(len(t.Cards)), nil
}

// Play records the seat's card. It fails without mutating the trick when it
// is not the seat's turn, the trick is full, or the seat already played.
func (t *Trick) Play(seat Seat, card Card) error {
	if _, ok := t.Cards[seat]; ok {
		return ErrSeatAlreadyPlayed
	}
	turn, err := t.CurrentTurn()
	if err != nil {
		return err
	}
	if seat != turn {
		return ErrNotYourTurn
	}
	t.Cards[seat] = card
	return nil
}

// LeadSuit returns the suit led by the starting seat, or false if nothing
// has been played yet.
func (t *Trick) LeadSuit() (Suit, bool) {
	card, ok := t.Cards[t.StartingSeat]
	if !ok {
		return "", false
	}
	return card.Suit, true
}

// HighestTrump returns the strongest trump rank played so far, or false if
// the trick holds no trump.
func (t *Trick) HighestTrump(trump Suit) (Rank, bool) {
	best := Rank("")
	found := false
	for _, card := range t.Cards {
		if card.Suit != trump {
			continue
		}
		if !found || card.Rank.OrderIndex(true) > best.OrderIndex(true) {
			best = card.Rank
			found = true
		}
	}
	return best, found
}

// Resolve determines the trick winner once all four cards are down: the
// highest trump if any trump was played, otherwise the highest card of the
// lead suit. Points are the sum of the four cards' values.
func (t *Trick) Resolve(trump Suit) (TrickResult, error) {
	if !t.IsComplete() {
		return TrickResult{}, ErrTrickFull
	}

	points := 0
	winner := t.StartingSeat
	best := t.Cards[winner]
	for i := 0; i < NumSeats; i++ {
		seat := t.StartingSeat.Advance(i)
		card := t.Cards[seat]
		points += card.Points(trump)

		if card.Suit == best.Suit || card.Suit == trump {
			if Compare(card, best, trump) > 0 {
				winner = seat
				best = card
			}
		}
	}

	return TrickResult{Winner: winner, Points: points}, nil
}
