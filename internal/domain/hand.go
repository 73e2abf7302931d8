package domain

import (
	"sort"

	"github.com/google/uuid"
)

// TricksPerHand is the number of tricks in a full hand.
const TricksPerHand = 8

// LastTrickBonus is awarded once to the team that wins the final trick.
const LastTrickBonus = 10

// HandStage discriminates the hand state machine. A hand is always in
// exactly one stage and stages only move forward.
type HandStage string

const (
	StageTableTrumpSelection HandStage = "TableTrumpSelection"
	StageFreeTrumpSelection  HandStage = "FreeTrumpSelection"
	StageInProgress          HandStage = "InProgress"
	StageFinished            HandStage = "Finished"
)

// TableSelection is the payload for the first negotiation round over the
// turned-up table card. A recorded vote is always a decline; the first
// accept ends the stage immediately.
type TableSelection struct {
	TableTrumpCard Card          `json:"tableTrumpCard"`
	Voted          map[Seat]bool `json:"voted"`
}

// FreeSelection is the payload for the second negotiation round, where any
// suit but the declined table suit may be named.
type FreeSelection struct {
	TableTrumpCard Card          `json:"tableTrumpCard"`
	ForbiddenSuit  Suit          `json:"forbiddenSuit"`
	Skipped        map[Seat]bool `json:"skipped"`
}

// Play is the payload while tricks are being played.
type Play struct {
	Trump        Suit         `json:"trump"`
	Trick        *Trick       `json:"trick"`
	Totals       map[Team]int `json:"totals"`
	TricksPlayed int          `json:"tricksPlayed"`
}

// Final carries the finalized totals, including the last-trick bonus. A
// passed-out hand finishes with zero totals.
type Final struct {
	Totals    map[Team]int `json:"totals"`
	PassedOut bool         `json:"passedOut,omitempty"`
}

// Hand is one full deal of eight tricks, from trump negotiation to
// completion. Exactly one variant pointer is set per stage; the whole
// variant is replaced on every transition. Concealed cards are owned here
// for the life of the hand and never leave except as copies.
type Hand struct {
	ID           string    `json:"id"`
	Stage        HandStage `json:"stage"`
	StartingSeat Seat      `json:"startingSeat"`

	TableSelection *TableSelection `json:"tableSelection,omitempty"`
	FreeSelection  *FreeSelection  `json:"freeSelection,omitempty"`
	Play           *Play           `json:"play,omitempty"`
	Final          *Final          `json:"final,omitempty"`

	cards  map[Seat]map[Card]bool
	dealer Dealer
}

// NewHand deals five cards per seat, turns up the table trump card, and
// enters trump negotiation. A turned-up Jack establishes its suit as trump
// immediately, skipping negotiation.
func NewHand(startingSeat Seat, dealer Dealer) (*Hand, error) {
	h := &Hand{
		ID:           uuid.NewString(),
		Stage:        StageTableTrumpSelection,
		StartingSeat: startingSeat,
		cards:        make(map[Seat]map[Card]bool, NumSeats),
		dealer:       dealer,
	}
	for _, seat := range Seats() {
		h.cards[seat] = make(map[Card]bool, NumCardsPerSeat)
	}

	if err := h.dealTo(NumCardsBeforeTrump); err != nil {
		return nil, err
	}

	tableCard, err := dealer.DealCard()
	if err != nil {
		return nil, err
	}

	if tableCard.Rank == Jack {
		if err := h.establishTrump(tableCard.Suit, startingSeat, tableCard); err != nil {
			return nil, err
		}
		return h, nil
	}

	h.TableSelection = &TableSelection{
		TableTrumpCard: tableCard,
		Voted:          make(map[Seat]bool, NumSeats),
	}
	return h, nil
}

// CurrentTurn derives whose turn it is from the stage payload alone. It is
// idempotent and side-effect-free.
func (h *Hand) CurrentTurn() (Seat, error) {
	switch h.Stage {
	case StageTableTrumpSelection:
		return h.selectionTurn(h.TableSelection.Voted)
	case StageFreeTrumpSelection:
		return h.selectionTurn(h.FreeSelection.Skipped)
	case StageInProgress:
		return h.Play.Trick.CurrentTurn()
	default:
		return NoSeat, ErrHandFinished
	}
}

// AcceptTableTrump records the seat's vote on the table trump card. The
// first accept establishes its suit as trump; four declines move the hand
// to free trump selection.
func (h *Hand) AcceptTableTrump(seat Seat, accept bool) error {
	if h.Stage != StageTableTrumpSelection {
		return ErrIllegalMoveForStage
	}
	sel := h.TableSelection
	if sel.Voted[seat] {
		return ErrAlreadyVoted
	}
	if turn, err := h.selectionTurn(sel.Voted); err != nil || seat != turn {
		return ErrNotYourTurn
	}

	if accept {
		return h.establishTrump(sel.TableTrumpCard.Suit, seat, sel.TableTrumpCard)
	}

	sel.Voted[seat] = true
	if len(sel.Voted) == NumSeats {
		h.FreeSelection = &FreeSelection{
			TableTrumpCard: sel.TableTrumpCard,
			ForbiddenSuit:  sel.TableTrumpCard.Suit,
			Skipped:        make(map[Seat]bool, NumSeats),
		}
		h.TableSelection = nil
		h.Stage = StageFreeTrumpSelection
	}
	return nil
}

// SelectTrump records the seat's free-selection move: naming any suit other
// than the declined table suit, or nil to skip. When all four seats skip the
// hand finishes passed out, with zero totals.
func (h *Hand) SelectTrump(seat Seat, suit *Suit) error {
	if h.Stage != StageFreeTrumpSelection {
		return ErrIllegalMoveForStage
	}
	sel := h.FreeSelection
	if sel.Skipped[seat] {
		return ErrAlreadyVoted
	}
	if turn, err := h.selectionTurn(sel.Skipped); err != nil || seat != turn {
		return ErrNotYourTurn
	}

	if suit == nil {
		sel.Skipped[seat] = true
		if len(sel.Skipped) == NumSeats {
			h.FreeSelection = nil
			h.Stage = StageFinished
			h.Final = &Final{Totals: zeroTotals(), PassedOut: true}
		}
		return nil
	}

	if *suit == sel.ForbiddenSuit {
		return ErrForbiddenTrumpSuit
	}

	return h.establishTrump(*suit, seat, sel.TableTrumpCard)
}

// PlayCard validates and applies one card play. On the fourth card the
// trick resolves: the winner's team collects the points and leads the next
// trick, and the eighth resolution finishes the hand.
func (h *Hand) PlayCard(seat Seat, card Card) error {
	if h.Stage != StageInProgress {
		return ErrIllegalMoveForStage
	}

	turn, err := h.Play.Trick.CurrentTurn()
	if err != nil {
		return err
	}
	if seat != turn {
		return ErrNotYourTurn
	}
	if !h.cards[seat][card] {
		return ErrCardNotInHand
	}
	if !h.isLegal(seat, card) {
		return ErrIllegalCard
	}

	if err := h.Play.Trick.Play(seat, card); err != nil {
		return err
	}
	delete(h.cards[seat], card)

	if h.Play.Trick.IsComplete() {
		return h.resolveTrick()
	}
	return nil
}

// LegalCards computes the seat's playable set under the suit obligations of
// the current trick: follow the lead suit; otherwise trump, overtrumping
// when able; otherwise anything. The result is a sorted copy.
func (h *Hand) LegalCards(seat Seat) []Card {
	if h.Stage != StageInProgress {
		return nil
	}

	held := h.cards[seat]
	trick := h.Play.Trick
	trump := h.Play.Trump

	leadSuit, led := trick.LeadSuit()
	if !led {
		return sortedCards(held, trump)
	}

	var required Suit
	switch {
	case hasSuit(held, leadSuit):
		required = leadSuit
	case hasSuit(held, trump):
		required = trump
	default:
		return sortedCards(held, trump)
	}

	if required != trump {
		return sortedCards(filterSuit(held, required), trump)
	}

	trumps := filterSuit(held, trump)
	highest, trumpLed := trick.HighestTrump(trump)
	if trumpLed {
		over := make(map[Card]bool)
		for card := range trumps {
			if card.Rank.OrderIndex(true) > highest.OrderIndex(true) {
				over[card] = true
			}
		}
		// Forced overtrump only binds a seat that can actually beat the
		// trick; otherwise any trump is allowed.
		if len(over) > 0 {
			return sortedCards(over, trump)
		}
	}
	return sortedCards(trumps, trump)
}

// SeatCards returns a sorted copy of the seat's concealed hand.
func (h *Hand) SeatCards(seat Seat) []Card {
	trump := Suit("")
	if h.Play != nil {
		trump = h.Play.Trump
	}
	return sortedCards(h.cards[seat], trump)
}

// Trump returns the established trump suit, or false during negotiation.
func (h *Hand) Trump() (Suit, bool) {
	if h.Play == nil {
		return "", false
	}
	return h.Play.Trump, true
}

// Totals returns the hand's per-team point totals so far. Finished hands
// report finalized totals.
func (h *Hand) Totals() map[Team]int {
	var src map[Team]int
	switch {
	case h.Final != nil:
		src = h.Final.Totals
	case h.Play != nil:
		src = h.Play.Totals
	default:
		src = zeroTotals()
	}
	out := make(map[Team]int, len(src))
	for team, points := range src {
		out[team] = points
	}
	return out
}

func (h *Hand) isLegal(seat Seat, card Card) bool {
	for _, legal := range h.LegalCards(seat) {
		if legal == card {
			return true
		}
	}
	return false
}

func (h *Hand) resolveTrick() error {
	play := h.Play
	result, err := play.Trick.Resolve(play.Trump)
	if err != nil {
		return err
	}

	play.Totals[result.Winner.Team()] += result.Points
	play.TricksPlayed++

	if play.TricksPlayed == TricksPerHand {
		play.Totals[result.Winner.Team()] += LastTrickBonus
		h.Final = &Final{Totals: play.Totals}
		h.Play = nil
		h.Stage = StageFinished
		return nil
	}

	play.Trick = NewTrick(result.Winner)
	return nil
}

// selectionTurn replays completed selections in rotation order from the
// starting seat; the first seat without an entry is on turn.
func (h *Hand) selectionTurn(done map[Seat]bool) (Seat, error) {
	for i := 0; i < NumSeats; i++ {
		seat := h.StartingSeat.Advance(i)
		if !done[seat] {
			return seat, nil
		}
	}
	return NoSeat, ErrAlreadyVoted
}

// establishTrump gives the taker the table card, fills every seat to eight,
// and enters play. The fill is staged in full before the hand is touched, so
// a dealer failure leaves the hand exactly as it was.
func (h *Hand) establishTrump(trump Suit, taker Seat, tableCard Card) error {
	staged := map[Seat][]Card{taker: {tableCard}}
	for _, seat := range Seats() {
		for len(h.cards[seat])+len(staged[seat]) < NumCardsPerSeat {
			card, err := h.dealer.DealCard()
			if err != nil {
				return err
			}
			staged[seat] = append(staged[seat], card)
		}
	}
	for seat, cards := range staged {
		for _, card := range cards {
			h.cards[seat][card] = true
		}
	}

	h.TableSelection = nil
	h.FreeSelection = nil
	h.Stage = StageInProgress
	h.Play = &Play{
		Trump:  trump,
		Trick:  NewTrick(h.StartingSeat),
		Totals: zeroTotals(),
	}
	return nil
}

func (h *Hand) dealTo(target int) error {
	for _, seat := range Seats() {
		for len(h.cards[seat]) < target {
			card, err := h.dealer.DealCard()
			if err != nil {
				return err
			}
			h.cards[seat][card] = true
		}
	}
	return nil
}

func zeroTotals() map[Team]int {
	return map[Team]int{Team1: 0, Team2: 0}
}

func hasSuit(cards map[Card]bool, suit Suit) bool {
	for card := range cards {
		if card.Suit == suit {
			return true
		}
	}
	return false
}

func filterSuit(cards map[Card]bool, suit Suit) map[Card]bool {
	out := make(map[Card]bool)
	for card := range cards {
		if card.Suit == suit {
			out[card] = true
		}
	}
	return out
}

func sortedCards(cards map[Card]bool, trump Suit) []Card {
	out := make([]Card, 0, len(cards))
	for card := range cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		return out[i].Rank.OrderIndex(out[i].Suit == trump) < out[j].Rank.OrderIndex(out[j].Suit == trump)
	})
	return out
}
