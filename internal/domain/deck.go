package domain

import "math/rand"

const (
	// DeckSize is the number of cards in a Belote deck.
	DeckSize = 32
	// NumCardsPerSeat is each seat's hand size after trump is established.
	NumCardsPerSeat = 8
	// NumCardsBeforeTrump is each seat's hand size during trump negotiation.
	NumCardsBeforeTrump = 5
	// TotalCardPoints is the point value of the full deck before bonuses.
	TotalCardPoints = 152
)

// Dealer hands out cards one at a time for a single hand.
type Dealer interface {
	DealCard() (Card, error)
}

// DealerFactory produces a fresh dealer for each new hand.
type DealerFactory func() Dealer

// NewDeck returns the full 32-card deck in a fixed order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits() {
		for _, r := range Ranks() {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffledDealer deals from a shuffled deck and fails once it runs out.
type ShuffledDealer struct {
	deck []Card
	cur  int
}

// NewShuffledDealer shuffles a full deck with the provided rng.
func NewShuffledDealer(rng *rand.Rand) *ShuffledDealer {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return &ShuffledDealer{deck: deck}
}

// NewStackedDealer deals the given cards in order. Intended for tests that
// need a known deal.
func NewStackedDealer(deck []Card) *ShuffledDealer {
	return &ShuffledDealer{deck: deck}
}

func (d *ShuffledDealer) DealCard() (Card, error) {
	if d.cur >= len(d.deck) {
		return Card{}, ErrDeckExhausted
	}
	card := d.deck[d.cur]
	d.cur++
	return card, nil
}
