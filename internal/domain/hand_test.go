package domain

import (
	"errors"
	"testing"
)

// orderedDealer deals the unshuffled deck: seats receive consecutive runs
// and the 21st card (Queen of Diamonds) is turned up as the table trump.
func orderedDealer() Dealer {
	return NewStackedDealer(NewDeck())
}

func cardSet(cards ...Card) map[Card]bool {
	set := make(map[Card]bool, len(cards))
	for _, c := range cards {
		set[c] = true
	}
	return set
}

// playHand builds an in-progress hand directly, bypassing the deal.
func playHand(trump Suit, trick *Trick, hands map[Seat]map[Card]bool) *Hand {
	return &Hand{
		Stage:        StageInProgress,
		StartingSeat: trick.StartingSeat,
		Play:         &Play{Trump: trump, Trick: trick, Totals: zeroTotals()},
		cards:        hands,
	}
}

func TestNewHandDealsNegotiationRound(t *testing.T) {
	hand, err := NewHand(Seat1, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	if hand.Stage != StageTableTrumpSelection {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageTableTrumpSelection)
	}
	if hand.ID == "" {
		t.Error("hand should carry an identifier")
	}
	for _, seat := range Seats() {
		if got := len(hand.SeatCards(seat)); got != NumCardsBeforeTrump {
			t.Errorf("seat %d: got %d cards, want %d", seat, got, NumCardsBeforeTrump)
		}
	}
	if hand.TableSelection.TableTrumpCard != (Card{Diamonds, Queen}) {
		t.Errorf("table card: got %v", hand.TableSelection.TableTrumpCard)
	}
	if _, ok := hand.Trump(); ok {
		t.Error("trump must not be established during negotiation")
	}
}

func TestAcceptTableTrump(t *testing.T) {
	hand, err := NewHand(Seat1, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	if err := hand.AcceptTableTrump(Seat2, false); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("vote out of rotation: got %v, want ErrNotYourTurn", err)
	}
	if err := hand.AcceptTableTrump(Seat1, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := hand.AcceptTableTrump(Seat1, false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("second vote: got %v, want ErrAlreadyVoted", err)
	}

	// An accept at any rotation position transitions immediately.
	if err := hand.AcceptTableTrump(Seat2, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if hand.Stage != StageInProgress {
		t.Fatalf("stage after accept: got %s, want %s", hand.Stage, StageInProgress)
	}
	trump, ok := hand.Trump()
	if !ok || trump != Diamonds {
		t.Errorf("trump: got %s/%v, want Diamonds", trump, ok)
	}
	for _, seat := range Seats() {
		if got := len(hand.SeatCards(seat)); got != NumCardsPerSeat {
			t.Errorf("seat %d: got %d cards, want %d", seat, got, NumCardsPerSeat)
		}
	}

	// The taker holds the table trump card.
	holdsTable := false
	for _, c := range hand.SeatCards(Seat2) {
		if c == (Card{Diamonds, Queen}) {
			holdsTable = true
		}
	}
	if !holdsTable {
		t.Error("accepting seat should hold the table trump card")
	}

	// The hand's starting seat opens the first trick regardless of the taker.
	turn, err := hand.CurrentTurn()
	if err != nil || turn != Seat1 {
		t.Errorf("first lead: got %d/%v, want Seat1", turn, err)
	}
}

func TestAllDeclineMovesToFreeSelection(t *testing.T) {
	hand, err := NewHand(Seat2, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	for i := 0; i < NumSeats; i++ {
		if hand.Stage != StageTableTrumpSelection {
			t.Fatalf("transitioned early after %d declines", i)
		}
		turn, err := hand.CurrentTurn()
		if err != nil {
			t.Fatalf("CurrentTurn: %v", err)
		}
		if err := hand.AcceptTableTrump(turn, false); err != nil {
			t.Fatalf("decline %d: %v", i, err)
		}
	}

	if hand.Stage != StageFreeTrumpSelection {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageFreeTrumpSelection)
	}
	if hand.FreeSelection.ForbiddenSuit != Diamonds {
		t.Errorf("forbidden suit: got %s, want Diamonds", hand.FreeSelection.ForbiddenSuit)
	}
	if hand.TableSelection != nil {
		t.Error("table selection payload should be cleared")
	}
	if turn, _ := hand.CurrentTurn(); turn != Seat2 {
		t.Errorf("free selection starts at %d, want Seat2", turn)
	}
}

func TestSelectTrump(t *testing.T) {
	hand, err := NewHand(Seat1, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	for i := 0; i < NumSeats; i++ {
		turn, _ := hand.CurrentTurn()
		if err := hand.AcceptTableTrump(turn, false); err != nil {
			t.Fatalf("decline: %v", err)
		}
	}

	forbidden := Diamonds
	if err := hand.SelectTrump(Seat1, &forbidden); !errors.Is(err, ErrForbiddenTrumpSuit) {
		t.Errorf("forbidden suit: got %v, want ErrForbiddenTrumpSuit", err)
	}
	if err := hand.SelectTrump(Seat1, nil); err != nil {
		t.Fatalf("skip: %v", err)
	}

	spades := Spades
	if err := hand.SelectTrump(Seat2, &spades); err != nil {
		t.Fatalf("select: %v", err)
	}
	if hand.Stage != StageInProgress {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageInProgress)
	}
	trump, _ := hand.Trump()
	if trump != Spades {
		t.Errorf("trump: got %s, want Spades", trump)
	}
	if turn, _ := hand.CurrentTurn(); turn != Seat1 {
		t.Errorf("first lead: got %d, want Seat1 (hand's starting seat)", turn)
	}
}

func TestAllSkipPassesOut(t *testing.T) {
	hand, err := NewHand(Seat1, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	for i := 0; i < NumSeats; i++ {
		turn, _ := hand.CurrentTurn()
		if err := hand.AcceptTableTrump(turn, false); err != nil {
			t.Fatalf("decline: %v", err)
		}
	}
	for i := 0; i < NumSeats; i++ {
		turn, _ := hand.CurrentTurn()
		if err := hand.SelectTrump(turn, nil); err != nil {
			t.Fatalf("skip %d: %v", i, err)
		}
	}

	if hand.Stage != StageFinished {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageFinished)
	}
	if !hand.Final.PassedOut {
		t.Error("hand should be marked passed out")
	}
	totals := hand.Totals()
	if totals[Team1] != 0 || totals[Team2] != 0 {
		t.Errorf("passed-out totals: got %v, want zeros", totals)
	}
	if _, err := hand.CurrentTurn(); !errors.Is(err, ErrHandFinished) {
		t.Errorf("CurrentTurn on finished hand: got %v, want ErrHandFinished", err)
	}
	if err := hand.SelectTrump(Seat1, nil); !errors.Is(err, ErrIllegalMoveForStage) {
		t.Errorf("move on finished hand: got %v, want ErrIllegalMoveForStage", err)
	}
}

func TestJackTurnUpEstablishesTrumpImmediately(t *testing.T) {
	deck := NewDeck()
	// Move the Jack of Diamonds into the table card position.
	deck[19], deck[20] = deck[20], deck[19]
	if deck[20] != (Card{Diamonds, Jack}) {
		t.Fatalf("bad fixture: table card is %v", deck[20])
	}

	hand, err := NewHand(Seat3, NewStackedDealer(deck))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	if hand.Stage != StageInProgress {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageInProgress)
	}
	trump, _ := hand.Trump()
	if trump != Diamonds {
		t.Errorf("trump: got %s, want Diamonds", trump)
	}
	holdsJack := false
	for _, c := range hand.SeatCards(Seat3) {
		if c == (Card{Diamonds, Jack}) {
			holdsJack = true
		}
	}
	if !holdsJack {
		t.Error("starting seat should hold the turned-up Jack")
	}
	for _, seat := range Seats() {
		if got := len(hand.SeatCards(seat)); got != NumCardsPerSeat {
			t.Errorf("seat %d: got %d cards, want %d", seat, got, NumCardsPerSeat)
		}
	}
}

func TestSelectionTurnIsIdempotent(t *testing.T) {
	hand, err := NewHand(Seat4, orderedDealer())
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	first, _ := hand.CurrentTurn()
	second, _ := hand.CurrentTurn()
	if first != second || first != Seat4 {
		t.Errorf("repeated queries: %d then %d, want Seat4 both times", first, second)
	}
}

func TestLegalCards(t *testing.T) {
	tests := []struct {
		name  string
		trump Suit
		trick func() *Trick
		held  map[Card]bool
		want  []Card
	}{
		{
			name:  "opening lead is unconstrained",
			trump: Spades,
			trick: func() *Trick { return NewTrick(Seat2) },
			held:  cardSet(Card{Hearts, Ace}, Card{Clubs, Seven}),
			want:  []Card{{Clubs, Seven}, {Hearts, Ace}},
		},
		{
			name:  "must follow lead suit",
			trump: Spades,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Hearts, King}
				return tr
			},
			held: cardSet(Card{Hearts, Seven}, Card{Hearts, Ace}, Card{Spades, Jack}),
			want: []Card{{Hearts, Seven}, {Hearts, Ace}},
		},
		{
			name:  "void in lead suit must trump",
			trump: Spades,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Hearts, King}
				return tr
			},
			held: cardSet(Card{Spades, Seven}, Card{Spades, Ten}, Card{Clubs, Ace}),
			want: []Card{{Spades, Seven}, {Spades, Ten}},
		},
		{
			name:  "forced overtrump excludes losing trumps",
			trump: Spades,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Spades, Nine}
				return tr
			},
			held: cardSet(Card{Spades, Jack}, Card{Spades, Seven}),
			want: []Card{{Spades, Jack}},
		},
		{
			name:  "unbeatable trump lead allows any trump",
			trump: Spades,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Spades, Jack}
				return tr
			},
			held: cardSet(Card{Spades, Seven}, Card{Diamonds, Ace}),
			want: []Card{{Spades, Seven}},
		},
		{
			name:  "overtrump forced against mid-trick trump",
			trump: Hearts,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Clubs, King}
				tr.Cards[Seat2] = Card{Hearts, Queen}
				return tr
			},
			held: cardSet(Card{Hearts, Seven}, Card{Hearts, Ace}, Card{Diamonds, Nine}),
			want: []Card{{Hearts, Ace}},
		},
		{
			name:  "void everywhere plays anything",
			trump: Spades,
			trick: func() *Trick {
				tr := NewTrick(Seat1)
				tr.Cards[Seat1] = Card{Hearts, King}
				return tr
			},
			held: cardSet(Card{Diamonds, Seven}, Card{Clubs, Ace}),
			want: []Card{{Clubs, Ace}, {Diamonds, Seven}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trick := tt.trick()
			seat, err := trick.CurrentTurn()
			if err != nil {
				t.Fatalf("CurrentTurn: %v", err)
			}
			hand := playHand(tt.trump, trick, map[Seat]map[Card]bool{seat: tt.held})

			got := hand.LegalCards(seat)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("card %d: got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlayCardRejections(t *testing.T) {
	trick := NewTrick(Seat1)
	trick.Cards[Seat1] = Card{Hearts, King}
	hands := map[Seat]map[Card]bool{
		Seat2: cardSet(Card{Hearts, Seven}, Card{Spades, Ace}),
	}
	hand := playHand(Spades, trick, hands)

	if err := hand.PlayCard(Seat3, Card{Hearts, Seven}); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("wrong seat: got %v, want ErrNotYourTurn", err)
	}
	if err := hand.PlayCard(Seat2, Card{Clubs, Ace}); !errors.Is(err, ErrCardNotInHand) {
		t.Errorf("missing card: got %v, want ErrCardNotInHand", err)
	}
	if err := hand.PlayCard(Seat2, Card{Spades, Ace}); !errors.Is(err, ErrIllegalCard) {
		t.Errorf("suit obligation: got %v, want ErrIllegalCard", err)
	}

	// A rejection leaves the trick and the hand untouched.
	if len(trick.Cards) != 1 {
		t.Errorf("trick mutated by rejected plays: %v", trick.Cards)
	}
	if len(hand.SeatCards(Seat2)) != 2 {
		t.Errorf("hand mutated by rejected plays")
	}

	if err := hand.PlayCard(Seat2, Card{Hearts, Seven}); err != nil {
		t.Fatalf("legal play rejected: %v", err)
	}
}

func TestAcceptTrumpDuringPlayIsRejected(t *testing.T) {
	hand := playHand(Spades, NewTrick(Seat1), map[Seat]map[Card]bool{
		Seat1: cardSet(Card{Spades, Ace}),
	})
	if err := hand.AcceptTableTrump(Seat1, true); !errors.Is(err, ErrIllegalMoveForStage) {
		t.Errorf("got %v, want ErrIllegalMoveForStage", err)
	}
	if err := hand.SelectTrump(Seat1, nil); !errors.Is(err, ErrIllegalMoveForStage) {
		t.Errorf("got %v, want ErrIllegalMoveForStage", err)
	}
}

// TestFullHandConservation plays a complete hand where seat 1 holds all the
// trumps and checks that the two teams' totals sum to the full-deck constant
// plus the last-trick bonus.
func TestFullHandConservation(t *testing.T) {
	deck := []Card{
		// Seat 1: all spades (the trump suit).
		{Spades, Jack}, {Spades, Nine}, {Spades, Ace}, {Spades, Ten}, {Spades, King},
		// Seat 2: hearts.
		{Hearts, Ace}, {Hearts, Ten}, {Hearts, King}, {Hearts, Queen}, {Hearts, Jack},
		// Seat 3: diamonds.
		{Diamonds, Ace}, {Diamonds, Ten}, {Diamonds, King}, {Diamonds, Queen}, {Diamonds, Jack},
		// Seat 4: clubs.
		{Clubs, Ace}, {Clubs, Ten}, {Clubs, King}, {Clubs, Queen}, {Clubs, Jack},
		// Table trump card, taken by seat 1.
		{Spades, Seven},
		// Fill round: seat 1 to eight, then the others.
		{Spades, Queen}, {Spades, Eight},
		{Hearts, Nine}, {Hearts, Eight}, {Hearts, Seven},
		{Diamonds, Nine}, {Diamonds, Eight}, {Diamonds, Seven},
		{Clubs, Nine}, {Clubs, Eight}, {Clubs, Seven},
	}

	hand, err := NewHand(Seat1, NewStackedDealer(deck))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	if err := hand.AcceptTableTrump(Seat1, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	moves := 0
	for hand.Stage == StageInProgress {
		turn, err := hand.CurrentTurn()
		if err != nil {
			t.Fatalf("CurrentTurn after %d moves: %v", moves, err)
		}
		legal := hand.LegalCards(turn)
		if len(legal) == 0 {
			t.Fatalf("seat %d has no legal cards after %d moves", turn, moves)
		}
		if err := hand.PlayCard(turn, legal[0]); err != nil {
			t.Fatalf("move %d (seat %d, %v): %v", moves, turn, legal[0], err)
		}
		moves++
		if moves > NumSeats*TricksPerHand {
			t.Fatal("hand did not finish")
		}
	}

	if moves != NumSeats*TricksPerHand {
		t.Errorf("hand took %d moves, want %d", moves, NumSeats*TricksPerHand)
	}

	totals := hand.Totals()
	sum := totals[Team1] + totals[Team2]
	if sum != TotalCardPoints+LastTrickBonus {
		t.Errorf("point conservation: got %d, want %d", sum, TotalCardPoints+LastTrickBonus)
	}
	// Seat 1 holds every trump and wins every trick.
	if totals[Team1] != TotalCardPoints+LastTrickBonus {
		t.Errorf("Team1 totals: got %d, want %d", totals[Team1], TotalCardPoints+LastTrickBonus)
	}
}

func TestExhaustedDealerLeavesNegotiationIntact(t *testing.T) {
	// 21 cards cover the opening deal and the table card only; the fill on
	// acceptance must fail without touching the hand.
	hand, err := NewHand(Seat1, NewStackedDealer(NewDeck()[:21]))
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}

	if err := hand.AcceptTableTrump(Seat1, true); !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("accept on a short deck: got %v, want ErrDeckExhausted", err)
	}

	if hand.Stage != StageTableTrumpSelection {
		t.Fatalf("stage: got %s, want %s", hand.Stage, StageTableTrumpSelection)
	}
	if hand.TableSelection == nil {
		t.Fatal("table selection payload should survive the failed accept")
	}
	for _, seat := range Seats() {
		if got := len(hand.SeatCards(seat)); got != NumCardsBeforeTrump {
			t.Errorf("seat %d: got %d cards, want %d", seat, got, NumCardsBeforeTrump)
		}
	}
	for _, c := range hand.SeatCards(Seat1) {
		if c == (Card{Diamonds, Queen}) {
			t.Error("table card must not change hands on a failed accept")
		}
	}
}
