package domain

// Suit is one of the four card suits.
type Suit string

const (
	Spades   Suit = "Spades"
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
)

// Rank is one of the eight card ranks of a 32-card Belote deck.
type Rank string

const (
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Card is an immutable (suit, rank) pair. Value-equal cards are interchangeable.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return string(c.Rank) + " of " + string(c.Suit)
}

// Suits lists all suits in a fixed order.
func Suits() []Suit {
	return []Suit{Spades, Hearts, Diamonds, Clubs}
}

// Ranks lists all ranks in ascending non-trump strength.
func Ranks() []Rank {
	return []Rank{Seven, Eight, Nine, Jack, Queen, King, Ten, Ace}
}

// Strength orderings, weakest first. The trump ordering promotes the Jack
// and the Nine above every other rank.
var (
	nonTrumpOrder = map[Rank]int{
		Seven: 0, Eight: 1, Nine: 2, Jack: 3, Queen: 4, King: 5, Ten: 6, Ace: 7,
	}
	trumpOrder = map[Rank]int{
		Seven: 0, Eight: 1, Queen: 2, King: 3, Ten: 4, Ace: 5, Nine: 6, Jack: 7,
	}
)

// Card point values summed per trick. A full deck is worth 152 points
// before the last-trick bonus.
var (
	nonTrumpPoints = map[Rank]int{
		Seven: 0, Eight: 0, Nine: 0, Jack: 2, Queen: 3, King: 4, Ten: 10, Ace: 11,
	}
	trumpPoints = map[Rank]int{
		Seven: 0, Eight: 0, Queen: 3, King: 4, Ten: 10, Ace: 11, Nine: 14, Jack: 20,
	}
)

// OrderIndex returns the rank's position in the applicable strength
// ordering; higher means stronger.
func (r Rank) OrderIndex(trump bool) int {
	if trump {
		return trumpOrder[r]
	}
	return nonTrumpOrder[r]
}

// Points returns the rank's card-point value.
func (r Rank) Points(trump bool) int {
	if trump {
		return trumpPoints[r]
	}
	return nonTrumpPoints[r]
}

// Points returns the card's point value given the hand's trump suit.
func (c Card) Points(trump Suit) int {
	return c.Rank.Points(c.Suit == trump)
}

// Compare orders two cards for the given trump suit. It returns a positive
// value when a is stronger, negative when b is stronger, and zero when the
// cards are incomparable (different non-trump suits). It is a pairwise
// utility for picking the best card within a known candidate set, not a
// total order; trick resolution never relies on it across non-trump suits.
func Compare(a, b Card, trump Suit) int {
	if a.Suit == b.Suit {
		isTrump := a.Suit == trump
		return a.Rank.OrderIndex(isTrump) - b.Rank.OrderIndex(isTrump)
	}
	if a.Suit == trump {
		return 1
	}
	if b.Suit == trump {
		return -1
	}
	return 0
}
