package models

import "sync"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the wire name of the role
func (r Role) String() string {
	return string(r)
}

// Message is a single chat turn. Treat it as immutable once created.
type Message struct {
	Role    Role
	Content string
}

// NewUserMessage creates a message authored by the user
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a message authored by the assistant
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Conversation is an ordered, append-only sequence of messages.
// Alternation between roles is not enforced.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the conversation and returns the new length
func (c *Conversation) Append(msg Message) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return len(c.messages)
}

// Messages returns a copy of the messages in chronological order
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// Len returns the number of messages
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent message, or false when the conversation is empty
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastByRole returns the most recent message authored by role
func (c *Conversation) LastByRole(role Role) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == role {
			return c.messages[i], true
		}
	}
	return Message{}, false
}
