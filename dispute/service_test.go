package dispute

import (
	"context"
	"errors"
	"testing"

	"flowhub/chat"
	"flowhub/deal"
	"flowhub/notify"
	"flowhub/tx"
)

func instantCall(ctx context.Context) (string, error) { return "", nil }

func rejectCall(ctx context.Context) (string, error) {
	return "", errors.New("user rejected the request")
}

func newTestService() (*Service, *deal.Store, *fakeHook) {
	sim := tx.NewSimulator(nil, tx.WithConfirmDelay(0))
	deals := deal.NewStore(sim, notify.Discard{}).WithCall(instantCall)
	deals.Seed(deal.DefaultSeed())

	hook := &fakeHook{}
	svc := NewService(deals, sim, notify.Discard{}).
		WithCall(instantCall).
		WithConversationHook(hook)
	return svc, deals, hook
}

func TestCreateDispute(t *testing.T) {
	svc, deals, hook := newTestService()

	m, err := svc.Create(context.Background(), "1", "2", "Work not delivered on time")
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	if m.Status != deal.StatusDisputed {
		t.Fatalf("expected status %s got %s", deal.StatusDisputed, m.Status)
	}
	if m.DisputeReason != "Work not delivered on time" {
		t.Fatalf("expected the reason attached, got %q", m.DisputeReason)
	}
	if m.Arbiter != DefaultArbiter {
		t.Fatalf("expected arbiter %q got %q", DefaultArbiter, m.Arbiter)
	}

	if got, _ := deals.Get("1", "2"); got.Status != deal.StatusDisputed {
		t.Fatalf("store not updated: %+v", got)
	}
	if hook.lastStatus != chat.StatusLabelInDispute {
		t.Fatalf("expected status label %q got %q", chat.StatusLabelInDispute, hook.lastStatus)
	}
}

func TestCreateDisputeOnCompletedMilestone(t *testing.T) {
	svc, deals, _ := newTestService()

	// "1" is seeded completed; completed work can still be disputed
	m, err := svc.Create(context.Background(), "1", "1", "bad work")
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	if m.Status != deal.StatusDisputed {
		t.Fatalf("expected status %s got %s", deal.StatusDisputed, m.Status)
	}
	if got, _ := deals.Get("1", "1"); got.DisputeReason != "bad work" {
		t.Fatalf("expected the reason attached, got %+v", got)
	}
}

func TestCreateDisputeRejectedLeavesState(t *testing.T) {
	svc, deals, hook := newTestService()
	svc.WithCall(rejectCall)

	_, err := svc.Create(context.Background(), "1", "2", "reason")
	if err == nil || !tx.IsRejection(err) {
		t.Fatalf("expected the rejection error unchanged, got %v", err)
	}

	got, _ := deals.Get("1", "2")
	if got.Status != deal.StatusActive || got.DisputeReason != "" || got.Arbiter != "" {
		t.Fatalf("rejected dispute must leave the milestone untouched, got %+v", got)
	}
	if hook.lastStatus != "" {
		t.Fatalf("rejected dispute must not touch the conversation, got %q", hook.lastStatus)
	}
}

func TestCreateDisputeUnknownMilestone(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Create(context.Background(), "1", "nope", "reason"); !errors.Is(err, deal.ErrNotFound) {
		t.Fatalf("expected deal.ErrNotFound, got %v", err)
	}
}

func TestResolveToFreelancer(t *testing.T) {
	svc, deals, hook := newTestService()

	if _, err := svc.Create(context.Background(), "1", "2", "reason"); err != nil {
		t.Fatalf("create dispute: %v", err)
	}

	m, err := svc.Resolve(context.Background(), "1", "2", true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.Status != deal.StatusCompleted {
		t.Fatalf("expected status %s got %s", deal.StatusCompleted, m.Status)
	}
	// dispute metadata stays as history
	if m.DisputeReason == "" || m.Arbiter == "" {
		t.Fatalf("expected dispute metadata kept, got %+v", m)
	}
	if got, _ := deals.Get("1", "2"); got.Status != deal.StatusCompleted {
		t.Fatalf("store not updated: %+v", got)
	}
	if hook.lastStatus != chat.StatusLabelMilestoneCompleted {
		t.Fatalf("expected status label %q got %q", chat.StatusLabelMilestoneCompleted, hook.lastStatus)
	}
}

func TestResolveToClient(t *testing.T) {
	svc, deals, hook := newTestService()

	if _, err := svc.Create(context.Background(), "1", "2", "reason"); err != nil {
		t.Fatalf("create dispute: %v", err)
	}

	m, err := svc.Resolve(context.Background(), "1", "2", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.Status != deal.StatusActive {
		t.Fatalf("expected the milestone reactivated, got %s", m.Status)
	}
	if got, _ := deals.Get("1", "2"); got.Status != deal.StatusActive {
		t.Fatalf("store not updated: %+v", got)
	}
	if hook.lastStatus != chat.StatusLabelInProgress {
		t.Fatalf("expected status label %q got %q", chat.StatusLabelInProgress, hook.lastStatus)
	}
}

func TestResolveRejectedLeavesDispute(t *testing.T) {
	svc, deals, _ := newTestService()

	if _, err := svc.Create(context.Background(), "1", "2", "reason"); err != nil {
		t.Fatalf("create dispute: %v", err)
	}

	svc.WithCall(rejectCall)
	if _, err := svc.Resolve(context.Background(), "1", "2", true); err == nil {
		t.Fatal("expected rejection")
	}
	if got, _ := deals.Get("1", "2"); got.Status != deal.StatusDisputed {
		t.Fatalf("rejected resolution must leave the dispute open, got %s", got.Status)
	}
}

func TestCustomArbiter(t *testing.T) {
	svc, _, _ := newTestService()
	svc.WithArbiter("0x0000000000000000000000000000000000000001")

	m, err := svc.Create(context.Background(), "1", "2", "reason")
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	if m.Arbiter != "0x0000000000000000000000000000000000000001" {
		t.Fatalf("expected the overridden arbiter, got %q", m.Arbiter)
	}
}

type fakeHook struct {
	system     []string
	lastStatus string
}

func (f *fakeHook) AppendSystem(conversationID, content string) {
	f.system = append(f.system, content)
}

func (f *fakeHook) SetStatus(conversationID, label string) {
	f.lastStatus = label
}
