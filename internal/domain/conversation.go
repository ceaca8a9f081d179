package domain

import (
	"fmt"
	"strings"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// ConversationState is the ordered history of one chat session. Turns
// alternate user/assistant starting with user. The value is owned by the
// caller; the composer returns an extended copy instead of mutating it.
type ConversationState struct {
	Turns []Turn
}

// Len returns the number of recorded turns.
func (c ConversationState) Len() int { return len(c.Turns) }

// WithExchange returns a copy of c with one (user, assistant) pair appended.
func (c ConversationState) WithExchange(user, assistant string) ConversationState {
	turns := make([]Turn, len(c.Turns), len(c.Turns)+2)
	copy(turns, c.Turns)
	turns = append(turns,
		Turn{Role: RoleUser, Content: user},
		Turn{Role: RoleAssistant, Content: assistant},
	)
	return ConversationState{Turns: turns}
}

// Validate checks strict user/assistant alternation and that every user
// turn has been answered.
func (c ConversationState) Validate() error {
	if len(c.Turns)%2 != 0 {
		return fmt.Errorf("turn %d: user turn has no assistant reply", len(c.Turns)-1)
	}
	for i, t := range c.Turns {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if t.Role != want {
			return fmt.Errorf("turn %d: expected role %s, got %s", i, want, t.Role)
		}
	}
	return nil
}

// Transcript renders the history as "User: ..." / "Assistant: ..." lines.
func (c ConversationState) Transcript() string {
	var b strings.Builder
	for _, t := range c.Turns {
		switch t.Role {
		case RoleUser:
			b.WriteString("User: ")
		default:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}
