package app

import (
	"errors"
	"math/rand"
	"time"

	"belote/internal/domain"
)

// Service contains the table use-cases operating on domain state. Every
// move goes through here; the service translates domain transitions into
// events for dispatch and never mutates state on a rejected move.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrTableNotSeated = errors.New("table does not have all seats filled")
	ErrNoActiveGame   = errors.New("no active game at the table")
	ErrUnknownUser    = errors.New("user has no seat at the table")
)

// Table is the app-level aggregate for one room: the domain match plus the
// seating chart and stake agreed in the lobby.
type Table struct {
	Game  *domain.Game
	Stake int64
	Users map[domain.Seat]string
	Names map[domain.Seat]string
}

// SeatOf returns the seat occupied by the user, or NoSeat.
func (t *Table) SeatOf(userID string) domain.Seat {
	for seat, uid := range t.Users {
		if uid == userID {
			return seat
		}
	}
	return domain.NoSeat
}

// UserAt returns the user occupying the seat, or "".
func (t *Table) UserAt(seat domain.Seat) string {
	return t.Users[seat]
}

// StartGame creates and starts a match for four seated users. users and
// names must cover every seat. The returned events carry the opening hand,
// with each seat's cards delivered privately.
func (s *Service) StartGame(users, names map[domain.Seat]string, stake int64) (*Table, []Event, error) {
	for _, seat := range domain.Seats() {
		if users[seat] == "" {
			return nil, nil, ErrTableNotSeated
		}
	}

	table := &Table{
		Game:  domain.NewGame(s.dealers()),
		Stake: stake,
		Users: users,
		Names: names,
	}
	if err := table.Game.Start(); err != nil {
		return nil, nil, err
	}

	events := []Event{{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			TargetScore: table.Game.TargetScore,
			Stake:       stake,
		},
	}}
	events = append(events, s.handOpenedEvents(table)...)
	return table, events, nil
}

// AcceptTrump applies a table-trump vote and emits the resulting events.
func (s *Service) AcceptTrump(table *Table, seat domain.Seat, accepted bool) ([]Event, error) {
	if table == nil || table.Game == nil {
		return nil, ErrNoActiveGame
	}
	game := table.Game
	before := captureProgress(game)

	if err := game.AcceptTableTrump(seat, accepted); err != nil {
		return nil, err
	}

	vote := Event{
		Kind: EventTableTrumpVoted,
		Payload: TableTrumpVotedPayload{
			Seat:         seat,
			Accepted:     accepted,
			NextTurnSeat: currentTurnOrNone(game),
		},
	}
	return append([]Event{vote}, s.progressEvents(table, before, seat)...), nil
}

// SelectTrump applies a free-selection move (nil suit skips) and emits the
// resulting events.
func (s *Service) SelectTrump(table *Table, seat domain.Seat, suit *domain.Suit) ([]Event, error) {
	if table == nil || table.Game == nil {
		return nil, ErrNoActiveGame
	}
	game := table.Game
	before := captureProgress(game)

	if err := game.SelectTrump(seat, suit); err != nil {
		return nil, err
	}

	vote := Event{
		Kind: EventTrumpSelected,
		Payload: TrumpSelectedPayload{
			Seat:         seat,
			Suit:         suit,
			NextTurnSeat: currentTurnOrNone(game),
		},
	}
	return append([]Event{vote}, s.progressEvents(table, before, seat)...), nil
}

// PlayCard applies one card play and emits the resulting events: the play
// itself, then any trick resolution, hand settlement, follow-up deal, or
// match end it triggered.
func (s *Service) PlayCard(table *Table, seat domain.Seat, card domain.Card) ([]Event, error) {
	if table == nil || table.Game == nil {
		return nil, ErrNoActiveGame
	}
	game := table.Game
	before := captureProgress(game)

	if err := game.PlayCard(seat, card); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventCardPlayed,
		Payload: CardPlayedPayload{
			Seat:         seat,
			Card:         card,
			NextTurnSeat: currentTurnOrNone(game),
		},
	}}

	// A completed fourth card resolves the trick the seat just played into.
	if before.trick != nil && before.trick.IsComplete() {
		result, err := before.trick.Resolve(before.trump)
		if err != nil {
			return nil, err
		}
		totals := handTotals(game, before)
		events = append(events, Event{
			Kind: EventTrickWon,
			Payload: TrickWonPayload{
				WinnerSeat: result.Winner,
				Points:     result.Points,
				Cards:      before.trick.Cards,
				Totals:     totals,
			},
		})
	}

	return append(events, s.progressEvents(table, before, seat)...), nil
}

// progress is the pre-move observation used to detect which transitions a
// single domain call performed.
type progress struct {
	handID string
	stage  domain.HandStage
	trump  domain.Suit
	trick  *domain.Trick
	scores map[domain.Team]int
	status domain.GameStatus
}

func captureProgress(game *domain.Game) progress {
	p := progress{
		status: game.Status,
		scores: map[domain.Team]int{
			domain.Team1: game.Scores[domain.Team1],
			domain.Team2: game.Scores[domain.Team2],
		},
	}
	if hand := game.Hand; hand != nil {
		p.handID = hand.ID
		p.stage = hand.Stage
		if hand.Play != nil {
			p.trump = hand.Play.Trump
			p.trick = hand.Play.Trick
		}
	}
	return p
}

// progressEvents compares the game against the pre-move observation and
// emits the follow-up events one domain call may have cascaded through:
// trump establishment, hand finish, next-hand deal, match end.
func (s *Service) progressEvents(table *Table, before progress, actor domain.Seat) []Event {
	game := table.Game
	var events []Event

	sameHand := game.Hand != nil && game.Hand.ID == before.handID
	if sameHand && before.stage != domain.StageInProgress && game.Hand.Stage == domain.StageInProgress {
		events = append(events, s.trumpEstablishedEvents(table, actor)...)
	}

	handOver := before.handID != "" &&
		(game.Hand == nil || game.Hand.ID != before.handID || game.Hand.Stage == domain.StageFinished)
	if handOver && before.stage != domain.StageFinished {
		events = append(events, Event{
			Kind: EventHandFinished,
			Payload: HandFinishedPayload{
				HandID:    before.handID,
				Totals:    handTotals(game, before),
				PassedOut: passedOut(game, before),
				Scores:    copyScores(game.Scores),
			},
		})
	}

	if game.Hand != nil && game.Hand.ID != before.handID {
		events = append(events, s.handOpenedEvents(table)...)
	}

	if before.status == domain.GameInProgress && game.Status == domain.GameFinished {
		winner := winningTeam(game)
		events = append(events, Event{
			Kind: EventMatchEnded,
			Payload: MatchEndedPayload{
				WinningTeam:    winner,
				Scores:         copyScores(game.Scores),
				BalanceChanges: Settle(table, winner),
			},
		})
	}

	return events
}

// handOpenedEvents announces the current hand and deals each seat its cards
// privately. A turned-up Jack opens the hand with trump already established.
func (s *Service) handOpenedEvents(table *Table) []Event {
	hand := table.Game.Hand
	started := HandStartedPayload{
		HandID:       hand.ID,
		HandNumber:   table.Game.HandNumber(),
		StartingSeat: hand.StartingSeat,
		Stage:        hand.Stage,
	}
	if hand.TableSelection != nil {
		card := hand.TableSelection.TableTrumpCard
		started.TableTrumpCard = &card
	}

	events := []Event{{Kind: EventHandStarted, Payload: started}}
	events = append(events, s.dealtEvents(table)...)

	if hand.Stage == domain.StageInProgress {
		events = append(events, Event{
			Kind: EventTrumpEstablished,
			Payload: TrumpEstablishedPayload{
				Seat:          hand.StartingSeat,
				Trump:         hand.Play.Trump,
				FirstTurnSeat: hand.StartingSeat,
			},
		})
	}
	return events
}

func (s *Service) trumpEstablishedEvents(table *Table, establisher domain.Seat) []Event {
	hand := table.Game.Hand
	events := []Event{{
		Kind: EventTrumpEstablished,
		Payload: TrumpEstablishedPayload{
			Seat:          establisher,
			Trump:         hand.Play.Trump,
			FirstTurnSeat: hand.StartingSeat,
		},
	}}
	// Seats were filled to eight on establishment; resend full hands.
	return append(events, s.dealtEvents(table)...)
}

func (s *Service) dealtEvents(table *Table) []Event {
	events := make([]Event, 0, domain.NumSeats)
	for _, seat := range domain.Seats() {
		events = append(events, Event{
			Kind: EventCardsDealt,
			Payload: CardsDealtPayload{
				Seat:  seat,
				Cards: table.Game.Hand.SeatCards(seat),
			},
			Recipients: []string{table.UserAt(seat)},
		})
	}
	return events
}

func (s *Service) dealers() domain.DealerFactory {
	rng := s.rng
	return func() domain.Dealer { return domain.NewShuffledDealer(rng) }
}

func currentTurnOrNone(game *domain.Game) domain.Seat {
	turn, err := game.CurrentTurn()
	if err != nil {
		return domain.NoSeat
	}
	return turn
}

// handTotals reports the observed hand's totals after the move. Once the
// hand has been replaced or cleared, its final totals are the score delta.
func handTotals(game *domain.Game, before progress) map[domain.Team]int {
	if game.Hand != nil && game.Hand.ID == before.handID {
		return game.Hand.Totals()
	}
	totals := make(map[domain.Team]int, 2)
	for _, team := range domain.Teams() {
		totals[team] = game.Scores[team] - before.scores[team]
	}
	return totals
}

func passedOut(game *domain.Game, before progress) bool {
	if game.Hand != nil && game.Hand.ID == before.handID && game.Hand.Final != nil {
		return game.Hand.Final.PassedOut
	}
	// A hand that finished without ever entering play was passed out.
	return before.stage == domain.StageFreeTrumpSelection
}

func winningTeam(game *domain.Game) domain.Team {
	switch {
	case game.Scores[domain.Team1] > game.Scores[domain.Team2]:
		return domain.Team1
	case game.Scores[domain.Team2] > game.Scores[domain.Team1]:
		return domain.Team2
	default:
		return domain.NoTeam
	}
}

func copyScores(scores map[domain.Team]int) map[domain.Team]int {
	out := make(map[domain.Team]int, len(scores))
	for team, points := range scores {
		out[team] = points
	}
	return out
}
