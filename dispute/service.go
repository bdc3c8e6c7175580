// Package dispute drives the milestone dispute sub-flow: opening a
// dispute against an active milestone and resolving it either way, each
// gated by a simulated blockchain call.
package dispute

import (
	"context"

	"flowhub/chat"
	"flowhub/deal"
	"flowhub/notify"
	"flowhub/tx"
)

// DefaultArbiter is the demo arbiter assigned to every new dispute. A
// real deployment would pick from an arbiter registry.
const DefaultArbiter = "0x9f2E4B7c1A8D3f5E6b0C2a4D8e1F7b3C5a9D0e2F"

// Milestones is the slice of the milestone store the dispute flow
// needs.
type Milestones interface {
	Get(conversationID, milestoneID string) (deal.Milestone, error)
	MarkDisputed(conversationID, milestoneID, reason, arbiter string) (deal.Milestone, error)
	ResolveDisputed(conversationID, milestoneID string, releaseToFreelancer bool) (deal.Milestone, error)
}

// Service coordinates dispute transitions against the milestone store.
type Service struct {
	deals Milestones
	sim   *tx.Simulator
	call  tx.Action

	notifier      notify.Notifier
	conversations deal.ConversationHook
	recorder      deal.Recorder
	arbiter       string
}

// NewService builds a dispute service over the given milestone store and
// simulator.
func NewService(deals Milestones, sim *tx.Simulator, notifier notify.Notifier) *Service {
	return &Service{
		deals:    deals,
		sim:      sim,
		call:     tx.SimulatedCall(tx.DefaultCallDelay),
		notifier: notifier,
		arbiter:  DefaultArbiter,
	}
}

// WithCall overrides the contract-call action, e.g. to force rejection
// in tests.
func (s *Service) WithCall(call tx.Action) *Service {
	s.call = call
	return s
}

// WithArbiter overrides the arbiter attached to new disputes.
func (s *Service) WithArbiter(arbiter string) *Service {
	s.arbiter = arbiter
	return s
}

// WithConversationHook wires the conversation store for status labels.
func (s *Service) WithConversationHook(hook deal.ConversationHook) *Service {
	s.conversations = hook
	return s
}

// WithRecorder wires the timeline archive.
func (s *Service) WithRecorder(rec deal.Recorder) *Service {
	s.recorder = rec
	return s
}

// Create submits the simulated dispute call and, on success, marks the
// milestone disputed with the reason and the service's arbiter. The
// milestone is untouched when the call is rejected or fails; the call's
// error passes through unchanged.
func (s *Service) Create(ctx context.Context, conversationID, milestoneID, reason string) (deal.Milestone, error) {
	m, err := s.deals.Get(conversationID, milestoneID)
	if err != nil {
		return deal.Milestone{}, err
	}

	meta := tx.Meta{
		Title:       "Create Dispute",
		Description: "Creating dispute for milestone: " + m.Title,
		Type:        tx.TypeDispute,
	}
	if _, err := s.sim.Submit(ctx, s.call, meta, tx.Callbacks{}); err != nil {
		return deal.Milestone{}, err
	}

	updated, err := s.deals.MarkDisputed(conversationID, milestoneID, reason, s.arbiter)
	if err != nil {
		return deal.Milestone{}, err
	}

	s.notify("Dispute Created", "The milestone has been marked as disputed", notify.LevelDestructive)
	if s.conversations != nil {
		s.conversations.SetStatus(conversationID, chat.StatusLabelInDispute)
	}
	s.record(ctx, conversationID, "DISPUTE_CREATED", map[string]any{
		"milestone_id": milestoneID,
		"reason":       reason,
		"arbiter":      s.arbiter,
	})

	return updated, nil
}

// Resolve submits the simulated resolution call and settles the dispute:
// funds to the freelancer completes the milestone, funds back to the
// client reactivates it.
func (s *Service) Resolve(ctx context.Context, conversationID, milestoneID string, releaseToFreelancer bool) (deal.Milestone, error) {
	m, err := s.deals.Get(conversationID, milestoneID)
	if err != nil {
		return deal.Milestone{}, err
	}

	meta := tx.Meta{
		Title:       "Resolve Dispute",
		Description: "Resolving dispute for milestone: " + m.Title,
		Type:        tx.TypeResolution,
	}
	if _, err := s.sim.Submit(ctx, s.call, meta, tx.Callbacks{}); err != nil {
		return deal.Milestone{}, err
	}

	updated, err := s.deals.ResolveDisputed(conversationID, milestoneID, releaseToFreelancer)
	if err != nil {
		return deal.Milestone{}, err
	}

	if releaseToFreelancer {
		s.notify("Dispute Resolved", "Funds have been released to the freelancer.", notify.LevelInfo)
		if s.conversations != nil {
			s.conversations.SetStatus(conversationID, chat.StatusLabelMilestoneCompleted)
		}
	} else {
		s.notify("Dispute Resolved", "Funds have been returned to the client.", notify.LevelInfo)
		if s.conversations != nil {
			s.conversations.SetStatus(conversationID, chat.StatusLabelInProgress)
		}
	}
	s.record(ctx, conversationID, "DISPUTE_RESOLVED", map[string]any{
		"milestone_id":           milestoneID,
		"released_to_freelancer": releaseToFreelancer,
	})

	return updated, nil
}

func (s *Service) notify(title, description string, level notify.Level) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(notify.Notification{Title: title, Description: description, Level: level})
}

func (s *Service) record(ctx context.Context, conversationID, eventType string, payload map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, conversationID, eventType, payload); err != nil {
		s.notify("Timeline Archive", "Could not archive "+eventType+": "+err.Error(), notify.LevelDestructive)
	}
}
