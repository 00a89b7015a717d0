package nakama

const (
	// RpcChatParse is the Nakama RPC id clients call to segment a message for display.
	RpcChatParse = "chat_parse"

	// RpcTableChatJoin is the Nakama RPC id clients call to find or create a table chat.
	RpcTableChatJoin = "table_chat_join"

	// MatchNameTableChat is the authoritative match handler name registered with Nakama.
	MatchNameTableChat = "tienlen_table_chat"

	// HookChannelMessageSend is the realtime message id the mention hook runs after.
	HookChannelMessageSend = "ChannelMessageSend"

	// MetricsPath serves chat metrics in the Prometheus text format.
	MetricsPath = "/chat/metrics"

	// ChatConfigPath is the chat configuration file, relative to the module data dir.
	ChatConfigPath = "data/chat_config.json"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpChatSend int64 = 1 // UTF-8 message text

	// Server -> Client events
	OpChatMessage  int64 = 101
	OpMentionAlert int64 = 102 // send privately
	OpChatError    int64 = 103 // send privately
	OpRoster       int64 = 104
)

// gRPC status codes used for runtime errors.
const (
	codeInvalidArgument = 3
	codeInternal        = 13
)
