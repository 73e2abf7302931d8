package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"

	"belote/internal/app"
	"belote/internal/bot"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats       [4]string              `json:"seats"`        // user ID per roster slot; index i is seat i+1
	TeamChoices map[string]domain.Team `json:"team_choices"` // requested team per user; final seating balances 2v2
	OwnerSeat   int                    `json:"owner_seat"`   // roster index of the match owner
	Tier        string                 `json:"tier"`         // stake tier the table was opened at
	Tick        int64                  `json:"tick"`

	Presences map[string]runtime.Presence `json:"-"` // userID -> presence for targeted messaging
	App       *app.Service                `json:"-"`
	Table     *app.Table                  `json:"-"` // nil while in the lobby
	Economy   ports.EconomyPort           `json:"-"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the roster index belongs to a connected human.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first roster index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	state := &MatchState{
		TeamChoices: make(map[string]domain.Team),
		Presences:   make(map[string]runtime.Presence),
		App:         app.NewService(nil),
		OwnerSeat:   -1,
		Bots:        make(map[string]*bot.Agent),
		Economy:     NewNakamaEconomyAdapter(nk),
	}

	if tier, ok := params["tier"].(string); ok {
		state.Tier = tier
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["belote_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["belote_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["belote_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["belote_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}

	if state.BotMinDelay == 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay == 0 {
		state.BotMaxDelay = 3
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = 5
		if cfg := config.GetGameConfig(); cfg != nil && cfg.BotAutoFillDelaySeconds > 0 {
			state.BotAutoFillDelay = cfg.BotAutoFillDelaySeconds
		}
	}

	label, err := matchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "belote",
		State: "lobby",
		Tier:  state.Tier,
	}.marshal()
	if err != nil {
		logger.Error("MatchInit: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Rejoining a running game is always allowed for a seated user.
	if matchState.Table != nil && matchState.Table.SeatOf(presence.GetUserId()) != domain.NoSeat {
		return state, true, ""
	}

	// Allow join if there is an empty seat OR a bot to replace (if game hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Table == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userId := p.GetUserId()
		matchState.Presences[userId] = p

		// A seated user reconnecting to a running game keeps their seat and
		// displaces any substitute agent.
		if matchState.Table != nil {
			if seat := matchState.Table.SeatOf(userId); seat != domain.NoSeat {
				delete(matchState.Bots, userId)
				mh.sendSeatView(ctx, matchState, dispatcher, logger, seat)
				continue
			}
		}

		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = userId
				assigned = true
				break
			}
		}

		if !assigned && matchState.Table == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in slot %d", seatUserId, userId, i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = userId
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userId)
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human slot %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastTableState(ctx, matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userId := p.GetUserId()
		delete(matchState.Presences, userId)
		delete(matchState.TeamChoices, userId)

		if matchState.Table != nil {
			// Mid-game the seat stays occupied; a substitute agent plays until
			// the user reconnects or the match ends.
			if seat := matchState.Table.SeatOf(userId); seat != domain.NoSeat {
				if _, exists := matchState.Bots[userId]; !exists {
					agent, err := bot.NewAgent(userId)
					if err == nil {
						matchState.Bots[userId] = agent
						logger.Info("MatchLeave: Substitute agent playing seat %d for %s", seat, userId)
					}
				}
				continue
			}
		}

		for i, seatUserId := range matchState.Seats {
			if seatUserId == userId {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, slot %d freed.", userId, i)
				break
			}
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
	}

	if matchState.Table == nil && shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}
	if matchState.Table != nil && len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating abandoned game.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpChooseTeam:
			mh.handleChooseTeam(ctx, matchState, dispatcher, logger, msg)
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpAcceptTrump:
			mh.handleAcceptTrump(ctx, matchState, dispatcher, logger, msg)
		case OpSelectTrump:
			mh.handleSelectTrump(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleChooseTeam(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if state.Table != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game already started")
		return
	}

	var request chooseTeamRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid team choice payload")
		return
	}
	if request.Team != domain.Team1 && request.Team != domain.Team2 {
		mh.sendError(state, dispatcher, logger, senderID, 400, "team must be 1 or 2")
		return
	}

	state.TeamChoices[senderID] = request.Team
	mh.broadcastTableState(ctx, state, dispatcher, logger)
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSlot := mh.rosterSlot(state, senderID)

	logger.Info("StartGame: Request from %s (slot=%d, owner_slot=%d, occupied=%d)", senderID, senderSlot, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Table != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game already started")
		return
	}
	if senderSlot != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_slot=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the owner can start the game")
		return
	}
	if state.GetOccupiedSeatCount() < app.PlayersToStartGame {
		mh.sendError(state, dispatcher, logger, senderID, 400, "all four seats must be filled")
		return
	}

	users, names := mh.assignSeating(state)
	stake := config.GetStake(state.Tier)

	table, events, err := state.App.StartGame(users, names, stake)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 500, err.Error())
		return
	}
	state.Table = table

	// The roster now mirrors the final seating.
	for _, seat := range domain.Seats() {
		state.Seats[int(seat)-1] = users[seat]
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastTableState(ctx, state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game started at stake %d.", stake)
}

// assignSeating turns the lobby roster and requested teams into the final
// 2v2 seating: the first two users asking for a team get it, everyone else
// balances the smaller side, and partners sit across (seats 1,3 vs 2,4).
// Seating within a team is randomized.
func (mh *matchHandler) assignSeating(state *MatchState) (map[domain.Seat]string, map[domain.Seat]string) {
	var team1, team2, rest []string
	for _, userId := range state.Seats {
		if userId == "" {
			continue
		}
		switch state.TeamChoices[userId] {
		case domain.Team1:
			if len(team1) < 2 {
				team1 = append(team1, userId)
			} else {
				rest = append(rest, userId)
			}
		case domain.Team2:
			if len(team2) < 2 {
				team2 = append(team2, userId)
			} else {
				rest = append(rest, userId)
			}
		default:
			rest = append(rest, userId)
		}
	}
	for _, userId := range rest {
		if len(team1) < 2 {
			team1 = append(team1, userId)
		} else {
			team2 = append(team2, userId)
		}
	}

	rand.Shuffle(len(team1), func(i, j int) { team1[i], team1[j] = team1[j], team1[i] })
	rand.Shuffle(len(team2), func(i, j int) { team2[i], team2[j] = team2[j], team2[i] })

	users := map[domain.Seat]string{
		domain.Seat1: team1[0],
		domain.Seat3: team1[1],
		domain.Seat2: team2[0],
		domain.Seat4: team2[1],
	}
	names := make(map[domain.Seat]string, domain.NumSeats)
	for seat, userId := range users {
		names[seat] = mh.displayName(state, userId)
	}
	return users, names
}

func (mh *matchHandler) handleAcceptTrump(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.seatedSender(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	var request acceptTrumpRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid accept trump payload")
		return
	}

	events, err := state.App.AcceptTrump(state.Table, seat, request.Accept)
	if err != nil {
		logger.Warn("handleAcceptTrump: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleSelectTrump(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.seatedSender(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	var request selectTrumpRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid select trump payload")
		return
	}
	if request.Suit != nil && !validSuit(*request.Suit) {
		mh.sendError(state, dispatcher, logger, senderID, 400, "unknown suit")
		return
	}

	events, err := state.App.SelectTrump(state.Table, seat, request.Suit)
	if err != nil {
		logger.Warn("handleSelectTrump: User %s (seat %d) rejected: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.seatedSender(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	var request playCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid play card payload")
		return
	}
	if !validCard(request.Card) {
		mh.sendError(state, dispatcher, logger, senderID, 400, "unknown card")
		return
	}

	events, err := state.App.PlayCard(state.Table, seat, request.Card)
	if err != nil {
		logger.Warn("handlePlayCard: User %s (seat %d) rejected playing %v: %v", senderID, seat, request.Card, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

// seatedSender resolves the sender to a seat in the running game, reporting
// errors to them alone.
func (mh *matchHandler) seatedSender(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string) (domain.Seat, bool) {
	if state.Table == nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, "game not started")
		return domain.NoSeat, false
	}
	seat := state.Table.SeatOf(senderID)
	if seat == domain.NoSeat {
		mh.sendError(state, dispatcher, logger, senderID, 403, "you are not seated at this table")
		return domain.NoSeat, false
	}
	return seat, true
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill the lobby with bots when a lone human has waited long enough.
	if state.Table == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount >= 1 && humanCount < len(state.Seats) && state.GetOpenSeatsCount() > 0 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" {
						identity := bot.GetBotIdentity(i)
						botID := identity.UserID
						state.Seats[i] = botID

						agent, err := bot.NewAgent(botID)
						if err != nil {
							logger.Error("Failed to create bot agent for %s: %v", botID, err)
						} else {
							state.Bots[botID] = agent
						}

						logger.Info("processBots: Added bot %s (%s) to slot %d", identity.Username, botID, i)
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastTableState(ctx, state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot turns in-game.
	game := state.Table.Game
	if game.Status != domain.GameInProgress {
		return
	}
	turn, err := game.CurrentTurn()
	if err != nil {
		return
	}
	userID := state.Table.UserAt(turn)

	agentControlled := isBotUserId(userID) || state.Presences[userID] == nil
	if !agentControlled {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[userID]
	if !exists {
		agent, err = bot.NewAgent(userID)
		if err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[userID] = agent
	}

	move, err := agent.Play(game, turn)
	if err != nil {
		logger.Error("processBots: Bot %s failed to calculate move: %v", userID, err)
		return
	}

	var events []app.Event
	switch move.Kind {
	case bot.MoveAcceptTrump:
		events, err = state.App.AcceptTrump(state.Table, turn, move.Accept)
	case bot.MoveSelectTrump:
		events, err = state.App.SelectTrump(state.Table, turn, move.Suit)
	case bot.MovePlayCard:
		events, err = state.App.PlayCard(state.Table, turn, move.Card)
	default:
		logger.Error("processBots: Bot %s produced unknown move kind %s", userID, move.Kind)
		return
	}
	if err != nil {
		logger.Error("processBots: Bot %s move rejected: %v", userID, err)
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

// broadcastTableState sends the public view of the table: the lobby roster
// before a game, the snapshot plus per-seat private views during one.
func (mh *matchHandler) broadcastTableState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Table == nil {
		view := lobbyState{Tier: state.Tier}
		for i, userId := range state.Seats {
			entry := lobbySeat{Seat: domain.Seat(i + 1)}
			if userId != "" {
				entry.UserID = userId
				entry.DisplayName = mh.displayName(state, userId)
				entry.Team = state.TeamChoices[userId]
				entry.IsOwner = i == state.OwnerSeat
				entry.IsBot = isBotUserId(userId)
			}
			view.Seats = append(view.Seats, entry)
		}
		raw, err := json.Marshal(view)
		if err != nil {
			logger.Error("broadcastTableState: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpTableState, raw, nil, nil, true)
		return
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	raw, err := json.Marshal(app.Snapshot(state.Table, matchID))
	if err != nil {
		logger.Error("broadcastTableState: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpTableState, raw, nil, nil, true)

	for _, seat := range domain.Seats() {
		mh.sendSeatView(ctx, state, dispatcher, logger, seat)
	}
}

// sendSeatView sends the seat's private view to its connected user.
func (mh *matchHandler) sendSeatView(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat domain.Seat) {
	if state.Table == nil {
		return
	}
	presence, ok := state.Presences[state.Table.UserAt(seat)]
	if !ok {
		return
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	raw, err := json.Marshal(app.ViewFor(state.Table, matchID, seat))
	if err != nil {
		logger.Error("sendSeatView: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSeatView, raw, []runtime.Presence{presence}, nil, true)
}

// dispatchEvents converts app events to wire messages. Targeted events go
// only to their connected recipients; a match end settles the stakes and
// returns the table to the lobby.
func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		opCode, known := eventOpCodes[ev.Kind]
		if !known {
			logger.Warn("Unknown event kind: %v", ev.Kind)
			continue
		}

		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
			continue
		}

		var recipients []runtime.Presence
		if len(ev.Recipients) > 0 {
			for _, uid := range ev.Recipients {
				if p, ok := state.Presences[uid]; ok {
					recipients = append(recipients, p)
				}
			}

			// If we had intended recipients but none are connected (e.g. they
			// are bots), we MUST NOT broadcast to everyone else.
			if len(recipients) == 0 {
				continue
			}
		}

		dispatcher.BroadcastMessage(opCode, raw, recipients, nil, true)

		if ev.Kind == app.EventMatchEnded {
			if payload, ok := ev.Payload.(app.MatchEndedPayload); ok {
				mh.settleMatch(ctx, state, logger, payload)
			}
			state.Table = nil
			state.BotWaitUntil = 0
			mh.updateLabel(state, dispatcher, logger)
		}
	}
}

// settleMatch applies the stake settlement to human wallets.
func (mh *matchHandler) settleMatch(ctx context.Context, state *MatchState, logger runtime.Logger, payload app.MatchEndedPayload) {
	if state.Economy == nil {
		return
	}

	updates := make([]ports.WalletUpdate, 0, len(payload.BalanceChanges))
	for userID, amount := range payload.BalanceChanges {
		if isBotUserId(userID) {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: userID,
			Amount: amount,
			Metadata: map[string]interface{}{
				"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
				"reason":   "game_settlement",
			},
		})
	}
	if len(updates) == 0 {
		return
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("Failed to update balances: %v", err)
	}
}

// sendError sends a gameErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	raw, err := json.Marshal(gameErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal gameErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, raw, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) rosterSlot(state *MatchState, userID string) int {
	for i, seatUserId := range state.Seats {
		if seatUserId == userID {
			return i
		}
	}
	return -1
}

func (mh *matchHandler) displayName(state *MatchState, userID string) string {
	if p, exists := state.Presences[userID]; exists {
		if name := p.GetUsername(); name != "" {
			return name
		}
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	matchState := "lobby"
	if state.Table != nil {
		matchState = "playing"
	}

	label, err := matchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "belote",
		State: matchState,
		Tier:  state.Tier,
	}.marshal()
	if err != nil {
		logger.Error("UpdateLabel: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
