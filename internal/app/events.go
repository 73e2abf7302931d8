package app

import "belote/internal/domain"

// EventKind identifies emitted app events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted      EventKind = "game_started"
	EventHandStarted      EventKind = "hand_started"
	EventCardsDealt       EventKind = "cards_dealt"
	EventTableTrumpVoted  EventKind = "table_trump_voted"
	EventTrumpSelected    EventKind = "trump_selected"
	EventTrumpEstablished EventKind = "trump_established"
	EventCardPlayed       EventKind = "card_played"
	EventTrickWon         EventKind = "trick_won"
	EventHandFinished     EventKind = "hand_finished"
	EventMatchEnded       EventKind = "match_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	TargetScore int   `json:"targetScore"`
	Stake       int64 `json:"stake"`
}

type HandStartedPayload struct {
	HandID         string           `json:"handId"`
	HandNumber     int              `json:"handNumber"`
	StartingSeat   domain.Seat      `json:"startingSeat"`
	Stage          domain.HandStage `json:"stage"`
	TableTrumpCard *domain.Card     `json:"tableTrumpCard,omitempty"`
}

// CardsDealt is always delivered privately to the owning seat's user.
type CardsDealtPayload struct {
	Seat  domain.Seat   `json:"seat"`
	Cards []domain.Card `json:"cards"`
}

type TableTrumpVotedPayload struct {
	Seat         domain.Seat `json:"seat"`
	Accepted     bool        `json:"accepted"`
	NextTurnSeat domain.Seat `json:"nextTurnSeat,omitempty"`
}

type TrumpSelectedPayload struct {
	Seat         domain.Seat  `json:"seat"`
	Suit         *domain.Suit `json:"suit,omitempty"` // nil means skipped
	NextTurnSeat domain.Seat  `json:"nextTurnSeat,omitempty"`
}

type TrumpEstablishedPayload struct {
	Seat          domain.Seat `json:"seat"`
	Trump         domain.Suit `json:"trump"`
	FirstTurnSeat domain.Seat `json:"firstTurnSeat"`
}

type CardPlayedPayload struct {
	Seat         domain.Seat `json:"seat"`
	Card         domain.Card `json:"card"`
	NextTurnSeat domain.Seat `json:"nextTurnSeat,omitempty"`
}

type TrickWonPayload struct {
	WinnerSeat domain.Seat                 `json:"winnerSeat"`
	Points     int                         `json:"points"`
	Cards      map[domain.Seat]domain.Card `json:"cards"`
	Totals     map[domain.Team]int         `json:"totals"`
}

type HandFinishedPayload struct {
	HandID    string              `json:"handId"`
	Totals    map[domain.Team]int `json:"totals"`
	PassedOut bool                `json:"passedOut,omitempty"`
	Scores    map[domain.Team]int `json:"scores"`
}

type MatchEndedPayload struct {
	WinningTeam    domain.Team         `json:"winningTeam"`
	Scores         map[domain.Team]int `json:"scores"`
	BalanceChanges map[string]int64    `json:"balanceChanges"`
}
