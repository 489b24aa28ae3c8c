package chat

// Sender identifies the author of one message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one immutable utterance in a session log.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
