package bot

import (
	"errors"
	"math/rand"

	"belote/internal/domain"
)

var ErrNoLegalMove = errors.New("no legal move available")

// Balanced is the default strategy: it bids on suit length, plays cheap,
// and spends strength only on tricks worth taking.
type Balanced struct{}

func (b *Balanced) CalculateMove(hand *domain.Hand, seat domain.Seat) (Move, error) {
	switch hand.Stage {
	case domain.StageTableTrumpSelection:
		return Move{Kind: MoveAcceptTrump, Accept: b.wantsTableTrump(hand, seat)}, nil
	case domain.StageFreeTrumpSelection:
		return Move{Kind: MoveSelectTrump, Suit: b.pickSuit(hand, seat)}, nil
	case domain.StageInProgress:
		card, err := b.pickCard(hand, seat)
		if err != nil {
			return Move{}, err
		}
		return Move{Kind: MovePlayCard, Card: card}, nil
	default:
		return Move{}, ErrNoLegalMove
	}
}

// wantsTableTrump accepts when the seat's five cards back the table suit:
// three of the suit, or its Jack with support.
func (b *Balanced) wantsTableTrump(hand *domain.Hand, seat domain.Seat) bool {
	suit := hand.TableSelection.TableTrumpCard.Suit
	count, hasJack := suitStrength(hand.SeatCards(seat), suit)
	return count >= 3 || (hasJack && count >= 2)
}

// pickSuit names the longest allowed suit when it is at least three cards,
// otherwise skips.
func (b *Balanced) pickSuit(hand *domain.Hand, seat domain.Seat) *domain.Suit {
	forbidden := hand.FreeSelection.ForbiddenSuit
	cards := hand.SeatCards(seat)

	var best domain.Suit
	bestCount := 0
	for _, suit := range domain.Suits() {
		if suit == forbidden {
			continue
		}
		count, _ := suitStrength(cards, suit)
		if count > bestCount {
			best = suit
			bestCount = count
		}
	}
	if bestCount < 3 {
		return nil
	}
	return &best
}

// pickCard plays the cheapest legal card unless the trick is worth taking
// and a legal card takes it; then it spends the cheapest winning card.
func (b *Balanced) pickCard(hand *domain.Hand, seat domain.Seat) (domain.Card, error) {
	legal := hand.LegalCards(seat)
	if len(legal) == 0 {
		return domain.Card{}, ErrNoLegalMove
	}

	trump := hand.Play.Trump
	trick := hand.Play.Trick

	best, contested := currentBest(trick, trump)
	if contested && trickPoints(trick, trump) >= 10 {
		if winner, ok := cheapestWinning(legal, best, trump); ok {
			return winner, nil
		}
	}
	return cheapest(legal, trump), nil
}

// Random plays a uniformly random legal move; the easy difficulty.
type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) CalculateMove(hand *domain.Hand, seat domain.Seat) (Move, error) {
	switch hand.Stage {
	case domain.StageTableTrumpSelection:
		return Move{Kind: MoveAcceptTrump, Accept: r.rng.Intn(4) == 0}, nil
	case domain.StageFreeTrumpSelection:
		if r.rng.Intn(4) != 0 {
			return Move{Kind: MoveSelectTrump}, nil
		}
		forbidden := hand.FreeSelection.ForbiddenSuit
		suits := make([]domain.Suit, 0, 3)
		for _, suit := range domain.Suits() {
			if suit != forbidden {
				suits = append(suits, suit)
			}
		}
		suit := suits[r.rng.Intn(len(suits))]
		return Move{Kind: MoveSelectTrump, Suit: &suit}, nil
	case domain.StageInProgress:
		legal := hand.LegalCards(seat)
		if len(legal) == 0 {
			return Move{}, ErrNoLegalMove
		}
		return Move{Kind: MovePlayCard, Card: legal[r.rng.Intn(len(legal))]}, nil
	default:
		return Move{}, ErrNoLegalMove
	}
}

func suitStrength(cards []domain.Card, suit domain.Suit) (count int, hasJack bool) {
	for _, card := range cards {
		if card.Suit != suit {
			continue
		}
		count++
		if card.Rank == domain.Jack {
			hasJack = true
		}
	}
	return count, hasJack
}

// currentBest returns the card currently taking the trick, walking the cards
// in play order.
func currentBest(trick *domain.Trick, trump domain.Suit) (domain.Card, bool) {
	best, ok := trick.Cards[trick.StartingSeat]
	if !ok {
		return domain.Card{}, false
	}
	for i := 1; i < domain.NumSeats; i++ {
		card, played := trick.Cards[trick.StartingSeat.Advance(i)]
		if !played {
			break
		}
		if (card.Suit == best.Suit || card.Suit == trump) && domain.Compare(card, best, trump) > 0 {
			best = card
		}
	}
	return best, true
}

func trickPoints(trick *domain.Trick, trump domain.Suit) int {
	points := 0
	for _, card := range trick.Cards {
		points += card.Points(trump)
	}
	return points
}

func cheapestWinning(legal []domain.Card, best domain.Card, trump domain.Suit) (domain.Card, bool) {
	var winner domain.Card
	found := false
	for _, card := range legal {
		if card.Suit != best.Suit && card.Suit != trump {
			continue
		}
		if domain.Compare(card, best, trump) <= 0 {
			continue
		}
		if !found || cheaper(card, winner, trump) {
			winner = card
			found = true
		}
	}
	return winner, found
}

func cheapest(legal []domain.Card, trump domain.Suit) domain.Card {
	pick := legal[0]
	for _, card := range legal[1:] {
		if cheaper(card, pick, trump) {
			pick = card
		}
	}
	return pick
}

func cheaper(a, b domain.Card, trump domain.Suit) bool {
	ap, bp := a.Points(trump), b.Points(trump)
	if ap != bp {
		return ap < bp
	}
	return a.Rank.OrderIndex(a.Suit == trump) < b.Rank.OrderIndex(b.Suit == trump)
}
