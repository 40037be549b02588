package nakama

const (
	// RpcCreateGame creates a private match and returns its id and join code.
	RpcCreateGame = "create_game"
	// RpcJoinGame resolves a join code to a match id.
	RpcJoinGame = "join_game"
	// RpcQuickMatch finds or creates an open lobby.
	RpcQuickMatch = "quick_match"
	// RpcVoiceToken signs Vivox access tokens for table voice chat.
	RpcVoiceToken = "voice_token"

	// MatchNameHearts is the authoritative match handler name registered
	// with Nakama.
	MatchNameHearts = "hearts_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpSetReady  int64 = 1
	OpStartGame int64 = 2
	OpPassCards int64 = 3
	OpPlayCard  int64 = 4
	OpChat      int64 = 5

	// Server -> Client events
	OpGameCreated   int64 = 101
	OpPlayerJoined  int64 = 102
	OpPlayerUpdated int64 = 103
	OpPlayerLeft    int64 = 104
	OpGameStarted   int64 = 105
	OpCardsDealt    int64 = 106 // sent privately
	OpPassingPhase  int64 = 107
	OpCardsReceived int64 = 108 // sent privately
	OpTurnChanged   int64 = 109
	OpCardPlayed    int64 = 110
	OpTrickComplete int64 = 111
	OpRoundComplete int64 = 112
	OpGameOver      int64 = 113
	OpChatMessage   int64 = 114
	OpAbandoned     int64 = 115
	OpGameError     int64 = 116 // sent privately
	OpStateSnapshot int64 = 117 // sent privately
)
