// Package chat owns the per-conversation message logs and the coarse
// unread/status bookkeeping, and drives assistant auto-replies.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowhub/assistant"
)

// ErrNotFound signals the requested conversation does not exist.
var ErrNotFound = errors.New("chat: conversation not found")

// Assistant generates an auto-reply from a role-tagged conversation window.
type Assistant interface {
	GenerateReply(ctx context.Context, turns []assistant.Turn) (string, error)
}

// turnWindow is how many recent messages feed the assistant.
const turnWindow = 5

const clockLayout = "3:04 PM"

// Store owns conversations and their append-only message logs. Sequences
// are mutated copy-on-write under a mutex.
type Store struct {
	mu        sync.RWMutex
	chats     []Chat
	messages  map[string][]Message
	composing map[string]bool

	gateway     Assistant
	idGenerator func() string
	now         func() time.Time
}

// NewStore builds an empty conversation store. The gateway may be nil when
// no assistant is configured; AssistantReply then fails cleanly.
func NewStore(gateway Assistant) *Store {
	return &Store{
		messages:    make(map[string][]Message),
		composing:   make(map[string]bool),
		gateway:     gateway,
		idGenerator: func() string { return "msg-" + uuid.NewString() },
		now:         time.Now,
	}
}

// WithIDGenerator overrides message/conversation ID generation.
func (s *Store) WithIDGenerator(gen func() string) *Store {
	s.idGenerator = gen
	return s
}

// WithClock overrides the time source used for display timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Seed replaces store contents with startup fixtures.
func (s *Store) Seed(chats []Chat, messages map[string][]Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = make([]Chat, len(chats))
	copy(s.chats, chats)
	s.messages = make(map[string][]Message, len(messages))
	for id, log := range messages {
		next := make([]Message, len(log))
		copy(next, log)
		s.messages[id] = next
	}
}

// Chats returns all conversations.
func (s *Store) Chats() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// Find returns the conversation with the given ID.
func (s *Store) Find(conversationID string) (Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.ID == conversationID {
			return c, nil
		}
	}
	return Chat{}, ErrNotFound
}

// Messages returns the conversation's message log in append order.
func (s *Store) Messages(conversationID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.messages[conversationID]
	out := make([]Message, len(log))
	copy(out, log)
	return out
}

// NewConversation registers a conversation with the given counterparty and
// returns it.
func (s *Store) NewConversation(name, address, profileImage string) Chat {
	c := Chat{
		ID:           s.idGenerator(),
		Name:         name,
		Address:      address,
		ProfileImage: profileImage,
	}

	s.mu.Lock()
	next := make([]Chat, len(s.chats), len(s.chats)+1)
	copy(next, s.chats)
	s.chats = append(next, c)
	s.mu.Unlock()

	return c
}

// SendMessage appends a message from the local participant and refreshes
// the conversation's display fields.
func (s *Store) SendMessage(conversationID, content string) Message {
	msg := Message{
		ID:        s.idGenerator(),
		Content:   content,
		Sender:    SenderMe,
		Timestamp: s.now().Format(clockLayout),
	}
	s.append(conversationID, msg)
	s.updateChat(conversationID, func(c *Chat) {
		c.LastMessage = content
		c.LastMessageTime = "Just now"
	})
	return msg
}

// AppendSystem appends a system-marker message, e.g. an escrow event
// announcement. It satisfies the deal package's conversation hook.
func (s *Store) AppendSystem(conversationID, content string) {
	s.append(conversationID, Message{
		ID:        s.idGenerator(),
		Content:   content,
		Sender:    SenderSystem,
		Timestamp: s.now().Format(clockLayout),
	})
}

// MarkAsRead clears the unread flag. Idempotent.
func (s *Store) MarkAsRead(conversationID string) {
	s.updateChat(conversationID, func(c *Chat) {
		c.Unread = false
	})
}

// SetStatus overwrites the free-text status label. The core writes the
// StatusLabel constants; callers are not validated.
func (s *Store) SetStatus(conversationID, label string) {
	s.updateChat(conversationID, func(c *Chat) {
		c.Status = label
	})
}

// Composing reports whether an assistant reply is in flight for the
// conversation.
func (s *Store) Composing(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.composing[conversationID]
}

// AssistantReply sends the recent conversation window to the assistant and
// appends the reply attributed to the counterparty. On gateway failure
// nothing is appended and the error surfaces to the caller; there is no
// retry. Overlapping calls for the same conversation are not serialized.
func (s *Store) AssistantReply(ctx context.Context, conversationID string) (Message, error) {
	c, err := s.Find(conversationID)
	if err != nil {
		return Message{}, err
	}
	if s.gateway == nil {
		return Message{}, fmt.Errorf("chat: no assistant configured")
	}

	s.setComposing(conversationID, true)
	defer s.setComposing(conversationID, false)

	content, err := s.gateway.GenerateReply(ctx, s.recentTurns(conversationID))
	if err != nil {
		return Message{}, fmt.Errorf("chat: assistant reply: %w", err)
	}

	msg := Message{
		ID:        s.idGenerator(),
		Content:   content,
		Sender:    c.Address,
		Timestamp: s.now().Format(clockLayout),
	}
	s.append(conversationID, msg)
	s.updateChat(conversationID, func(c *Chat) {
		c.LastMessage = content
		c.LastMessageTime = "Just now"
	})

	return msg, nil
}

// recentTurns maps the last messages onto role-tagged turns. System-marker
// messages carry no role in the completion format and are skipped.
func (s *Store) recentTurns(conversationID string) []assistant.Turn {
	s.mu.RLock()
	log := s.messages[conversationID]
	s.mu.RUnlock()

	turns := make([]assistant.Turn, 0, turnWindow)
	for i := len(log) - 1; i >= 0 && len(turns) < turnWindow; i-- {
		m := log[i]
		if m.Sender == SenderSystem {
			continue
		}
		role := assistant.RoleAssistant
		if m.Sender == SenderMe {
			role = assistant.RoleUser
		}
		turns = append(turns, assistant.Turn{Role: role, Content: m.Content})
	}

	// restore chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

func (s *Store) append(conversationID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.messages[conversationID]
	next := make([]Message, len(log), len(log)+1)
	copy(next, log)
	s.messages[conversationID] = append(next, msg)
}

func (s *Store) updateChat(conversationID string, fn func(*Chat)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Chat, len(s.chats))
	copy(next, s.chats)
	for i := range next {
		if next[i].ID == conversationID {
			fn(&next[i])
			s.chats = next
			return
		}
	}
}

func (s *Store) setComposing(conversationID string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v {
		s.composing[conversationID] = true
		return
	}
	delete(s.composing, conversationID)
}
