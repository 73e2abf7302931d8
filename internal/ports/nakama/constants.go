package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcVoiceToken is the Nakama RPC id clients call to sign voice channel tokens.
	RpcVoiceToken = "voice_token"

	// MatchNameBelote is the authoritative match handler name registered with Nakama.
	MatchNameBelote = "belote_match"

	// MatchLabelKey_OpenSeats is the label key matchmaking queries filter on.
	MatchLabelKey_OpenSeats = "open"
)

// Op codes for client messages and server events. All payloads are JSON.
const (
	// Client -> Server
	OpChooseTeam  int64 = 1
	OpStartGame   int64 = 2
	OpAcceptTrump int64 = 3
	OpSelectTrump int64 = 4
	OpPlayCard    int64 = 5

	// Server -> Client events
	OpTableState       int64 = 101
	OpSeatView         int64 = 102 // send privately
	OpGameStarted      int64 = 103
	OpHandStarted      int64 = 104
	OpCardsDealt       int64 = 105 // send privately
	OpTableTrumpVoted  int64 = 106
	OpTrumpSelected    int64 = 107
	OpTrumpEstablished int64 = 108
	OpCardPlayed       int64 = 109
	OpTrickWon         int64 = 110
	OpHandFinished     int64 = 111
	OpMatchEnded       int64 = 112
	OpGameError        int64 = 113
)
