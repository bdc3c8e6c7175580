// Package deal owns the per-conversation milestone sequences and applies
// escrow state transitions, each gated by a simulated blockchain call.
package deal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"flowhub/chat"
	"flowhub/notify"
	"flowhub/tx"
)

// ErrNotFound signals the requested milestone does not exist.
var ErrNotFound = errors.New("deal: milestone not found")

// ConversationHook receives the conversation-side effects of milestone
// lifecycle events: system messages and derived status labels.
type ConversationHook interface {
	AppendSystem(conversationID, content string)
	SetStatus(conversationID, label string)
}

// Recorder archives confirmed lifecycle events, typically to the timeline
// repository. Archive failures must not undo the applied mutation.
type Recorder interface {
	Record(ctx context.Context, conversationID, eventType string, payload map[string]any) error
}

// Store owns milestone state. Collections are mutated copy-on-write under a
// mutex; the mutex is not held across the simulated call, so overlapping
// operations on the same milestone interleave last-write-wins (the
// reference behavior).
type Store struct {
	mu         sync.RWMutex
	milestones map[string][]Milestone

	sim           *tx.Simulator
	call          tx.Action
	notifier      notify.Notifier
	conversations ConversationHook
	recorder      Recorder
	idGenerator   func() string
}

// NewStore builds an empty milestone store wired to the given simulator.
func NewStore(sim *tx.Simulator, notifier notify.Notifier) *Store {
	return &Store{
		milestones:  make(map[string][]Milestone),
		sim:         sim,
		call:        tx.SimulatedCall(tx.DefaultCallDelay),
		notifier:    notifier,
		idGenerator: func() string { return "milestone-" + uuid.NewString() },
	}
}

// WithCall overrides the contract-call action, e.g. to force rejection in
// tests.
func (s *Store) WithCall(call tx.Action) *Store {
	s.call = call
	return s
}

// WithIDGenerator overrides milestone ID generation.
func (s *Store) WithIDGenerator(gen func() string) *Store {
	s.idGenerator = gen
	return s
}

// WithConversationHook wires the conversation store for system messages and
// status labels.
func (s *Store) WithConversationHook(hook ConversationHook) *Store {
	s.conversations = hook
	return s
}

// WithRecorder wires the timeline archive.
func (s *Store) WithRecorder(rec Recorder) *Store {
	s.recorder = rec
	return s
}

// Seed replaces the store contents. Intended for session startup fixtures.
func (s *Store) Seed(data map[string][]Milestone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.milestones = make(map[string][]Milestone, len(data))
	for id, seq := range data {
		next := make([]Milestone, len(seq))
		copy(next, seq)
		s.milestones[id] = next
	}
}

// Milestones returns the conversation's milestone sequence in creation
// order.
func (s *Store) Milestones(conversationID string) []Milestone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.milestones[conversationID]
	out := make([]Milestone, len(seq))
	copy(out, seq)
	return out
}

// Get returns a single milestone.
func (s *Store) Get(conversationID, milestoneID string) (Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.milestones[conversationID] {
		if m.ID == milestoneID {
			return m, nil
		}
	}
	return Milestone{}, ErrNotFound
}

// CreateMilestone submits the simulated escrow call and, on success, appends
// a new active milestone to the end of the conversation's sequence. Input
// validation is the UI layer's job; the store accepts what it is given.
func (s *Store) CreateMilestone(ctx context.Context, conversationID, title string, amount float64) (Milestone, error) {
	formatted := strconv.FormatFloat(amount, 'f', 1, 64)
	meta := tx.Meta{
		Title:       "Create Milestone",
		Description: "Creating milestone: " + title,
		Type:        tx.TypeMilestone,
		Value:       formatted + " LYX",
	}

	txID, err := s.sim.Submit(ctx, s.call, meta, tx.Callbacks{})
	if err != nil {
		return Milestone{}, err
	}

	m := Milestone{
		ID:     s.idGenerator(),
		Title:  title,
		Amount: formatted,
		Status: StatusActive,
	}

	s.mu.Lock()
	seq := s.milestones[conversationID]
	next := make([]Milestone, len(seq), len(seq)+1)
	copy(next, seq)
	s.milestones[conversationID] = append(next, m)
	s.mu.Unlock()

	s.notify("Milestone Created", fmt.Sprintf("%s milestone for %s LYX has been created.", title, formatted), notify.LevelInfo)
	if s.conversations != nil {
		hash := ""
		if t, ok := s.sim.Get(txID); ok {
			hash = shortHash(t.Hash)
		}
		s.conversations.AppendSystem(conversationID, fmt.Sprintf("Created a milestone for %s LYX. Transaction hash: %s", formatted, hash))
		s.conversations.SetStatus(conversationID, chat.StatusLabelInProgress)
	}
	s.record(ctx, conversationID, "MILESTONE_CREATED", map[string]any{
		"milestone_id": m.ID,
		"title":        title,
		"amount":       formatted,
	})

	return m, nil
}

// CompleteMilestone submits the simulated call and, on success, marks the
// milestone completed. Callers are expected to only offer this from an
// active milestone; the store does not re-check the precondition.
func (s *Store) CompleteMilestone(ctx context.Context, conversationID, milestoneID string) (Milestone, error) {
	m, err := s.Get(conversationID, milestoneID)
	if err != nil {
		return Milestone{}, err
	}

	meta := tx.Meta{
		Title:       "Complete Milestone",
		Description: "Completing milestone: " + m.Title,
		Type:        tx.TypeMilestone,
		Value:       m.Amount + " LYX",
	}
	if _, err := s.sim.Submit(ctx, s.call, meta, tx.Callbacks{}); err != nil {
		return Milestone{}, err
	}

	updated, err := s.apply(conversationID, milestoneID, func(m *Milestone) {
		m.Status = StatusCompleted
	})
	if err != nil {
		return Milestone{}, err
	}

	s.notify("Milestone Completed", "The milestone has been marked as completed.", notify.LevelInfo)
	if s.conversations != nil {
		s.conversations.SetStatus(conversationID, chat.StatusLabelMilestoneCompleted)
	}
	s.record(ctx, conversationID, "MILESTONE_COMPLETED", map[string]any{
		"milestone_id": milestoneID,
	})

	return updated, nil
}

// ReleaseFunds submits the simulated payout call and emits the success
// notification. It deliberately leaves milestone status untouched, matching
// the reference behavior; callers pair it with their own cleanup.
func (s *Store) ReleaseFunds(ctx context.Context, conversationID, milestoneID string) error {
	m, err := s.Get(conversationID, milestoneID)
	if err != nil {
		return err
	}

	meta := tx.Meta{
		Title:       "Release Funds",
		Description: fmt.Sprintf("Releasing %s LYX for milestone: %s", m.Amount, m.Title),
		Type:        tx.TypeRelease,
		Value:       m.Amount + " LYX",
	}
	if _, err := s.sim.Submit(ctx, s.call, meta, tx.Callbacks{}); err != nil {
		return err
	}

	s.notify("Funds Released", "The funds have been released to the freelancer.", notify.LevelInfo)
	if s.conversations != nil {
		s.conversations.SetStatus(conversationID, chat.StatusLabelMilestonePaid)
	}
	s.record(ctx, conversationID, "FUNDS_RELEASED", map[string]any{
		"milestone_id": milestoneID,
		"amount":       m.Amount,
	})

	return nil
}

// MarkDisputed transitions the milestone to disputed, attaching the arbiter
// and reason. The dispute service calls this after its simulated call
// succeeds.
func (s *Store) MarkDisputed(conversationID, milestoneID, reason, arbiter string) (Milestone, error) {
	return s.apply(conversationID, milestoneID, func(m *Milestone) {
		m.Status = StatusDisputed
		m.DisputeReason = reason
		m.Arbiter = arbiter
	})
}

// ResolveDisputed transitions a disputed milestone to completed when funds
// go to the freelancer, or back to active otherwise. Dispute metadata stays
// on the record as history.
func (s *Store) ResolveDisputed(conversationID, milestoneID string, releaseToFreelancer bool) (Milestone, error) {
	return s.apply(conversationID, milestoneID, func(m *Milestone) {
		if releaseToFreelancer {
			m.Status = StatusCompleted
		} else {
			m.Status = StatusActive
		}
	})
}

// apply mutates one milestone copy-on-write: the whole sequence is copied,
// modified and swapped in, so readers never observe a partial write.
func (s *Store) apply(conversationID, milestoneID string, fn func(*Milestone)) (Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.milestones[conversationID]
	next := make([]Milestone, len(seq))
	copy(next, seq)
	for i := range next {
		if next[i].ID == milestoneID {
			fn(&next[i])
			s.milestones[conversationID] = next
			return next[i], nil
		}
	}
	return Milestone{}, ErrNotFound
}

func (s *Store) notify(title, description string, level notify.Level) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(notify.Notification{Title: title, Description: description, Level: level})
}

func (s *Store) record(ctx context.Context, conversationID, eventType string, payload map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, conversationID, eventType, payload); err != nil {
		s.notify("Timeline Archive", "Could not archive "+eventType+": "+err.Error(), notify.LevelDestructive)
	}
}

func shortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}
