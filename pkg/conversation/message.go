package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a role string coming from an external caller.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleSystem:
		return RoleSystem, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", errors.Errorf("unknown role %q", s)
	}
}

// Message is a single utterance in a transcript. Messages are immutable once
// appended; append order is the only ordering the system guarantees.
//
// Time is optional and is left at the zero value when the caller did not
// supply a timestamp.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"timestamp,omitempty"`
}

func NewMessage(role Role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
		Time:    time.Now(),
	}
}

func (m Message) View() string {
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(m.Content, "\n"))
}

// Conversation is an ordered transcript. The slice is treated as immutable:
// Append* helpers return a new slice and never mutate the receiver's backing
// array in a way visible to the caller.
type Conversation []Message

func (c Conversation) AppendUser(text string) Conversation {
	return c.append(NewMessage(RoleUser, text))
}

func (c Conversation) AppendAssistant(text string) Conversation {
	return c.append(NewMessage(RoleAssistant, text))
}

func (c Conversation) append(msg Message) Conversation {
	ret := make(Conversation, len(c), len(c)+1)
	copy(ret, c)
	return append(ret, msg)
}

// FirstUserMessage returns the earliest user-role message, if any.
func (c Conversation) FirstUserMessage() (Message, bool) {
	for _, msg := range c {
		if msg.Role == RoleUser {
			return msg, true
		}
	}
	return Message{}, false
}

// Validate checks that the transcript is non-empty and only carries known
// roles. An empty transcript is rejected before it ever reaches persistence.
func (c Conversation) Validate() error {
	if len(c) == 0 {
		return errors.New("conversation has no messages")
	}
	for i, msg := range c {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return errors.Errorf("message %d has unknown role %q", i, msg.Role)
		}
	}
	return nil
}
