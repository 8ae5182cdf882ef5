package stream

// MessageType tags every message pushed to a subscriber.
type MessageType string

const (
	// MessageUpdate replaces one category fragment on the page.
	MessageUpdate MessageType = "update"
	// MessageTimestamp refreshes the last-updated indicator. Sent at most
	// once per tick, and only when at least one category update fired.
	MessageTimestamp MessageType = "timestamp"
	// MessageHeartbeat keeps an otherwise silent connection alive.
	MessageHeartbeat MessageType = "heartbeat"
	// MessageShutdown tells the client to close and not reconnect.
	MessageShutdown MessageType = "shutdown"
)

// SwapReplace directs the client to replace the target fragment wholesale.
const SwapReplace = "replace"

// Message is one unit of fan-out traffic. Target is the fragment identifier
// for update messages and empty otherwise.
type Message struct {
	Type   MessageType `json:"type"`
	Target string      `json:"target,omitempty"`
	Swap   string      `json:"swap,omitempty"`
	Data   any         `json:"data,omitempty"`
}

// Update builds a fragment-replacement message.
func Update(target string, data any) Message {
	return Message{Type: MessageUpdate, Target: target, Swap: SwapReplace, Data: data}
}

// Timestamp builds the last-updated message.
func Timestamp(data any) Message {
	return Message{Type: MessageTimestamp, Target: "timestamp", Swap: SwapReplace, Data: data}
}
