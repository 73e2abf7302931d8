package app

import "belote/internal/domain"

// SeatInfo is the public description of one occupied seat.
type SeatInfo struct {
	UserID      string      `json:"userId"`
	DisplayName string      `json:"displayName"`
	Team        domain.Team `json:"team"`
}

// HandView is the public projection of the current hand: the stage payload
// as a tagged union (absent variants are omitted, never null) plus derived
// turn and card-count information. Concealed cards never appear here.
type HandView struct {
	ID           string           `json:"id"`
	Stage        domain.HandStage `json:"stage"`
	StartingSeat domain.Seat      `json:"startingSeat"`
	CurrentTurn  domain.Seat      `json:"currentTurn,omitempty"`

	TableSelection *domain.TableSelection `json:"tableSelection,omitempty"`
	FreeSelection  *domain.FreeSelection  `json:"freeSelection,omitempty"`
	Play           *domain.Play           `json:"play,omitempty"`
	Final          *domain.Final          `json:"final,omitempty"`

	CardCounts map[domain.Seat]int `json:"cardCounts"`
}

// StateSnapshot is the broadcast view of a table. It is JSON round-trip
// safe and identical for every recipient.
type StateSnapshot struct {
	MatchID     string                        `json:"matchId"`
	Status      domain.GameStatus             `json:"status"`
	Seats       map[domain.Seat]SeatInfo      `json:"seats"`
	Teams       map[domain.Team][]domain.Seat `json:"teams"`
	Scores      map[domain.Team]int           `json:"scores"`
	TargetScore int                           `json:"targetScore"`
	Stake       int64                         `json:"stake"`
	HandNumber  int                           `json:"handNumber"`
	Hand        *HandView                     `json:"hand,omitempty"`
}

// SeatView is a snapshot extended with one seat's private information.
type SeatView struct {
	StateSnapshot
	Seat       domain.Seat   `json:"seat"`
	Cards      []domain.Card `json:"cards"`
	LegalCards []domain.Card `json:"legalCards,omitempty"`
}

// Snapshot builds the broadcast view of the table.
func Snapshot(table *Table, matchID string) *StateSnapshot {
	game := table.Game
	snap := &StateSnapshot{
		MatchID:     matchID,
		Status:      game.Status,
		Seats:       make(map[domain.Seat]SeatInfo, domain.NumSeats),
		Teams:       make(map[domain.Team][]domain.Seat, 2),
		Scores:      copyScores(game.Scores),
		TargetScore: game.TargetScore,
		Stake:       table.Stake,
		HandNumber:  game.HandNumber(),
	}

	for _, seat := range domain.Seats() {
		userID := table.UserAt(seat)
		if userID == "" {
			continue
		}
		snap.Seats[seat] = SeatInfo{
			UserID:      userID,
			DisplayName: table.Names[seat],
			Team:        seat.Team(),
		}
		snap.Teams[seat.Team()] = append(snap.Teams[seat.Team()], seat)
	}

	if hand := game.Hand; hand != nil {
		view := &HandView{
			ID:             hand.ID,
			Stage:          hand.Stage,
			StartingSeat:   hand.StartingSeat,
			TableSelection: copyTableSelection(hand.TableSelection),
			FreeSelection:  copyFreeSelection(hand.FreeSelection),
			Play:           copyPlay(hand.Play),
			Final:          copyFinal(hand.Final),
			CardCounts:     make(map[domain.Seat]int, domain.NumSeats),
		}
		if turn, err := hand.CurrentTurn(); err == nil {
			view.CurrentTurn = turn
		}
		for _, seat := range domain.Seats() {
			view.CardCounts[seat] = len(hand.SeatCards(seat))
		}
		snap.Hand = view
	}

	return snap
}

// The variant payloads below are deep-copied: views leave the app layer and
// must never alias live hand state.

func copyTableSelection(sel *domain.TableSelection) *domain.TableSelection {
	if sel == nil {
		return nil
	}
	out := *sel
	out.Voted = copySeatFlags(sel.Voted)
	return &out
}

func copyFreeSelection(sel *domain.FreeSelection) *domain.FreeSelection {
	if sel == nil {
		return nil
	}
	out := *sel
	out.Skipped = copySeatFlags(sel.Skipped)
	return &out
}

func copyPlay(play *domain.Play) *domain.Play {
	if play == nil {
		return nil
	}
	out := *play
	out.Totals = copyScores(play.Totals)
	if play.Trick != nil {
		trick := *play.Trick
		trick.Cards = make(map[domain.Seat]domain.Card, len(play.Trick.Cards))
		for seat, card := range play.Trick.Cards {
			trick.Cards[seat] = card
		}
		out.Trick = &trick
	}
	return &out
}

func copyFinal(final *domain.Final) *domain.Final {
	if final == nil {
		return nil
	}
	out := *final
	out.Totals = copyScores(final.Totals)
	return &out
}

func copySeatFlags(in map[domain.Seat]bool) map[domain.Seat]bool {
	out := make(map[domain.Seat]bool, len(in))
	for seat, flag := range in {
		out[seat] = flag
	}
	return out
}

// ViewFor builds the snapshot extended with the seat's concealed cards and,
// on the seat's turn during play, its legal plays.
func ViewFor(table *Table, matchID string, seat domain.Seat) *SeatView {
	view := &SeatView{
		StateSnapshot: *Snapshot(table, matchID),
		Seat:          seat,
	}

	hand := table.Game.Hand
	if hand == nil {
		return view
	}
	view.Cards = hand.SeatCards(seat)

	if turn, err := hand.CurrentTurn(); err == nil && turn == seat && hand.Stage == domain.StageInProgress {
		view.LegalCards = hand.LegalCards(seat)
	}
	return view
}
