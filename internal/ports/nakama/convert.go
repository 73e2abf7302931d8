package nakama

import (
	"encoding/json"
	"fmt"

	"belote/internal/app"
	"belote/internal/domain"
)

// matchLabel is indexed by Nakama for matchmaking queries.
type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	State string `json:"state"`
	Tier  string `json:"tier,omitempty"`
}

func (l matchLabel) marshal() (string, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match label: %w", err)
	}
	return string(raw), nil
}

// Client request payloads.

type chooseTeamRequest struct {
	Team domain.Team `json:"team"`
}

type acceptTrumpRequest struct {
	Accept bool `json:"accept"`
}

type selectTrumpRequest struct {
	Suit *domain.Suit `json:"suit"` // null skips
}

type playCardRequest struct {
	Card domain.Card `json:"card"`
}

// gameErrorEvent is sent only to the user whose action was rejected.
type gameErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// lobbySeat describes one roster slot while the table is in the lobby.
type lobbySeat struct {
	Seat        domain.Seat `json:"seat"`
	UserID      string      `json:"userId,omitempty"`
	DisplayName string      `json:"displayName,omitempty"`
	Team        domain.Team `json:"team,omitempty"` // requested, not final
	IsOwner     bool        `json:"isOwner,omitempty"`
	IsBot       bool        `json:"isBot,omitempty"`
}

// lobbyState is the broadcast table view before a game starts.
type lobbyState struct {
	Seats []lobbySeat `json:"seats"`
	Tier  string      `json:"tier,omitempty"`
}

// eventOpCodes maps app event kinds onto wire op codes.
var eventOpCodes = map[app.EventKind]int64{
	app.EventGameStarted:      OpGameStarted,
	app.EventHandStarted:      OpHandStarted,
	app.EventCardsDealt:       OpCardsDealt,
	app.EventTableTrumpVoted:  OpTableTrumpVoted,
	app.EventTrumpSelected:    OpTrumpSelected,
	app.EventTrumpEstablished: OpTrumpEstablished,
	app.EventCardPlayed:       OpCardPlayed,
	app.EventTrickWon:         OpTrickWon,
	app.EventHandFinished:     OpHandFinished,
	app.EventMatchEnded:       OpMatchEnded,
}

func validSuit(suit domain.Suit) bool {
	for _, s := range domain.Suits() {
		if s == suit {
			return true
		}
	}
	return false
}

func validCard(card domain.Card) bool {
	if !validSuit(card.Suit) {
		return false
	}
	for _, r := range domain.Ranks() {
		if r == card.Rank {
			return true
		}
	}
	return false
}
