package app

import (
	"errors"
	"testing"

	"belote/internal/domain"
)

func testUsers() (map[domain.Seat]string, map[domain.Seat]string) {
	users := map[domain.Seat]string{
		domain.Seat1: "u1",
		domain.Seat2: "u2",
		domain.Seat3: "u3",
		domain.Seat4: "u4",
	}
	names := map[domain.Seat]string{
		domain.Seat1: "Ann",
		domain.Seat2: "Bob",
		domain.Seat3: "Kim",
		domain.Seat4: "Dee",
	}
	return users, names
}

// orderedTable starts a table dealing the unshuffled deck every hand. The
// turned-up table card is then the Queen of Diamonds, so negotiation always
// runs.
func orderedTable(t *testing.T, stake int64) (*Service, *Table, []Event) {
	t.Helper()
	users, names := testUsers()
	table := &Table{
		Game:  domain.NewGame(func() domain.Dealer { return domain.NewStackedDealer(domain.NewDeck()) }),
		Stake: stake,
		Users: users,
		Names: names,
	}
	if err := table.Game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	svc := NewService(nil)
	return svc, table, svc.handOpenedEvents(table)
}

func eventsOfKind(events []Event, kind EventKind) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestStartGameRequiresFullTable(t *testing.T) {
	users, names := testUsers()
	users[domain.Seat3] = ""

	svc := NewService(nil)
	if _, _, err := svc.StartGame(users, names, 100); !errors.Is(err, ErrTableNotSeated) {
		t.Fatalf("got %v, want ErrTableNotSeated", err)
	}
}

func TestStartGameDealsOpeningHand(t *testing.T) {
	users, names := testUsers()
	svc := NewService(nil)

	table, events, err := svc.StartGame(users, names, 100)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if table.Game.Status != domain.GameInProgress {
		t.Fatalf("status: got %s", table.Game.Status)
	}

	if len(events) == 0 || events[0].Kind != EventGameStarted {
		t.Fatal("first event should be game_started")
	}
	if len(events[0].Recipients) != 0 {
		t.Error("game_started should broadcast")
	}

	started := eventsOfKind(events, EventHandStarted)
	if len(started) != 1 {
		t.Fatalf("hand_started events: got %d, want 1", len(started))
	}
	payload := started[0].Payload.(HandStartedPayload)
	if payload.HandNumber != 1 || payload.StartingSeat != domain.Seat1 {
		t.Errorf("hand_started: %+v", payload)
	}

	dealt := eventsOfKind(events, EventCardsDealt)
	if len(dealt) != domain.NumSeats {
		t.Fatalf("cards_dealt events: got %d, want %d", len(dealt), domain.NumSeats)
	}
	for _, ev := range dealt {
		p := ev.Payload.(CardsDealtPayload)
		if len(ev.Recipients) != 1 || ev.Recipients[0] != users[p.Seat] {
			t.Errorf("seat %d deal should go only to %s, got %v", p.Seat, users[p.Seat], ev.Recipients)
		}
	}
}

func TestAcceptTrumpEstablishesAndRedeals(t *testing.T) {
	svc, table, _ := orderedTable(t, 100)

	events, err := svc.AcceptTrump(table, domain.Seat1, true)
	if err != nil {
		t.Fatalf("AcceptTrump: %v", err)
	}

	vote := events[0].Payload.(TableTrumpVotedPayload)
	if vote.Seat != domain.Seat1 || !vote.Accepted {
		t.Errorf("vote payload: %+v", vote)
	}

	established := eventsOfKind(events, EventTrumpEstablished)
	if len(established) != 1 {
		t.Fatalf("trump_established events: got %d, want 1", len(established))
	}
	p := established[0].Payload.(TrumpEstablishedPayload)
	if p.Seat != domain.Seat1 || p.Trump != domain.Diamonds || p.FirstTurnSeat != domain.Seat1 {
		t.Errorf("trump_established payload: %+v", p)
	}

	dealt := eventsOfKind(events, EventCardsDealt)
	if len(dealt) != domain.NumSeats {
		t.Fatalf("redeal events: got %d, want %d", len(dealt), domain.NumSeats)
	}
	for _, ev := range dealt {
		cards := ev.Payload.(CardsDealtPayload).Cards
		if len(cards) != domain.NumCardsPerSeat {
			t.Errorf("redeal size: got %d, want %d", len(cards), domain.NumCardsPerSeat)
		}
	}
}

func TestPassedOutHandRollsToNext(t *testing.T) {
	svc, table, _ := orderedTable(t, 100)

	for i := 0; i < domain.NumSeats; i++ {
		turn, err := table.Game.CurrentTurn()
		if err != nil {
			t.Fatalf("CurrentTurn: %v", err)
		}
		if _, err := svc.AcceptTrump(table, turn, false); err != nil {
			t.Fatalf("decline: %v", err)
		}
	}

	var last []Event
	for i := 0; i < domain.NumSeats; i++ {
		turn, err := table.Game.CurrentTurn()
		if err != nil {
			t.Fatalf("CurrentTurn: %v", err)
		}
		events, err := svc.SelectTrump(table, turn, nil)
		if err != nil {
			t.Fatalf("skip: %v", err)
		}
		last = events
	}

	finished := eventsOfKind(last, EventHandFinished)
	if len(finished) != 1 {
		t.Fatalf("hand_finished events: got %d, want 1", len(finished))
	}
	p := finished[0].Payload.(HandFinishedPayload)
	if !p.PassedOut {
		t.Error("hand should be passed out")
	}
	if p.Totals[domain.Team1] != 0 || p.Totals[domain.Team2] != 0 {
		t.Errorf("passed-out totals: %v", p.Totals)
	}

	started := eventsOfKind(last, EventHandStarted)
	if len(started) != 1 {
		t.Fatalf("hand_started events: got %d, want 1", len(started))
	}
	next := started[0].Payload.(HandStartedPayload)
	if next.HandNumber != 2 || next.StartingSeat != domain.Seat2 {
		t.Errorf("next hand: %+v", next)
	}
}

func TestPlayCardEmitsTrickAndMatchEvents(t *testing.T) {
	deck := []domain.Card{
		{Suit: domain.Spades, Rank: domain.Jack}, {Suit: domain.Spades, Rank: domain.Nine},
		{Suit: domain.Spades, Rank: domain.Ace}, {Suit: domain.Spades, Rank: domain.Ten},
		{Suit: domain.Spades, Rank: domain.King},
		{Suit: domain.Hearts, Rank: domain.Ace}, {Suit: domain.Hearts, Rank: domain.Ten},
		{Suit: domain.Hearts, Rank: domain.King}, {Suit: domain.Hearts, Rank: domain.Queen},
		{Suit: domain.Hearts, Rank: domain.Jack},
		{Suit: domain.Diamonds, Rank: domain.Ace}, {Suit: domain.Diamonds, Rank: domain.Ten},
		{Suit: domain.Diamonds, Rank: domain.King}, {Suit: domain.Diamonds, Rank: domain.Queen},
		{Suit: domain.Diamonds, Rank: domain.Jack},
		{Suit: domain.Clubs, Rank: domain.Ace}, {Suit: domain.Clubs, Rank: domain.Ten},
		{Suit: domain.Clubs, Rank: domain.King}, {Suit: domain.Clubs, Rank: domain.Queen},
		{Suit: domain.Clubs, Rank: domain.Jack},
		{Suit: domain.Spades, Rank: domain.Seven},
		{Suit: domain.Spades, Rank: domain.Queen}, {Suit: domain.Spades, Rank: domain.Eight},
		{Suit: domain.Hearts, Rank: domain.Nine}, {Suit: domain.Hearts, Rank: domain.Eight},
		{Suit: domain.Hearts, Rank: domain.Seven},
		{Suit: domain.Diamonds, Rank: domain.Nine}, {Suit: domain.Diamonds, Rank: domain.Eight},
		{Suit: domain.Diamonds, Rank: domain.Seven},
		{Suit: domain.Clubs, Rank: domain.Nine}, {Suit: domain.Clubs, Rank: domain.Eight},
		{Suit: domain.Clubs, Rank: domain.Seven},
	}

	users, names := testUsers()
	table := &Table{
		Game:  domain.NewGame(func() domain.Dealer { return domain.NewStackedDealer(deck) }),
		Stake: 50,
		Users: users,
		Names: names,
	}
	if err := table.Game.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	table.Game.TargetScore = 100 // one swept hand ends the match

	svc := NewService(nil)
	if _, err := svc.AcceptTrump(table, domain.Seat1, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	var last []Event
	for table.Game.Status == domain.GameInProgress {
		turn, err := table.Game.CurrentTurn()
		if err != nil {
			t.Fatalf("CurrentTurn: %v", err)
		}
		legal := table.Game.Hand.LegalCards(turn)
		events, err := svc.PlayCard(table, turn, legal[0])
		if err != nil {
			t.Fatalf("PlayCard: %v", err)
		}
		if won := eventsOfKind(events, EventTrickWon); len(won) == 1 {
			if p := won[0].Payload.(TrickWonPayload); p.WinnerSeat != domain.Seat1 {
				t.Errorf("trick winner: got %d, want Seat1", p.WinnerSeat)
			}
		}
		last = events
	}

	finished := eventsOfKind(last, EventHandFinished)
	if len(finished) != 1 {
		t.Fatalf("hand_finished events: got %d, want 1", len(finished))
	}
	totals := finished[0].Payload.(HandFinishedPayload).Totals
	want := domain.TotalCardPoints + domain.LastTrickBonus
	if totals[domain.Team1] != want || totals[domain.Team2] != 0 {
		t.Errorf("hand totals: %v, want Team1=%d", totals, want)
	}

	ended := eventsOfKind(last, EventMatchEnded)
	if len(ended) != 1 {
		t.Fatalf("match_ended events: got %d, want 1", len(ended))
	}
	p := ended[0].Payload.(MatchEndedPayload)
	if p.WinningTeam != domain.Team1 {
		t.Errorf("winning team: got %d", p.WinningTeam)
	}
	wantChanges := map[string]int64{"u1": 50, "u3": 50, "u2": -50, "u4": -50}
	for userID, amount := range wantChanges {
		if p.BalanceChanges[userID] != amount {
			t.Errorf("balance change for %s: got %d, want %d", userID, p.BalanceChanges[userID], amount)
		}
	}
}

func TestRejectedMoveEmitsNothing(t *testing.T) {
	svc, table, _ := orderedTable(t, 100)

	events, err := svc.PlayCard(table, domain.Seat1, domain.Card{Suit: domain.Spades, Rank: domain.Seven})
	if !errors.Is(err, domain.ErrIllegalMoveForStage) {
		t.Fatalf("got %v, want ErrIllegalMoveForStage", err)
	}
	if events != nil {
		t.Errorf("rejected move emitted %d events", len(events))
	}

	events, err = svc.AcceptTrump(table, domain.Seat2, true)
	if !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("got %v, want ErrNotYourTurn", err)
	}
	if events != nil {
		t.Errorf("rejected vote emitted %d events", len(events))
	}
	if table.Game.Hand.Stage != domain.StageTableTrumpSelection {
		t.Error("rejected moves must not advance the stage")
	}
}

func TestSettleDraw(t *testing.T) {
	_, table, _ := orderedTable(t, 100)
	if changes := Settle(table, domain.NoTeam); len(changes) != 0 {
		t.Errorf("draw settlement: %v", changes)
	}
}
