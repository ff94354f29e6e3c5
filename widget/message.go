package widget

import "time"

// Role is a transcript message author
type Role string

// Roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation transcript. Messages are immutable
// once appended; transcript order is append order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	AudioURL  string    `json:"audio_url,omitempty"`

	// synthetic marks locally fabricated assistant messages, like the
	// connection fallback. They render in the transcript but are never voiced.
	synthetic bool
}
