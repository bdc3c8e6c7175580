package test

import (
	"context"
	"flag"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"

	"flowhub/chat"
	"flowhub/deal"
	"flowhub/notify"
	"flowhub/tx"
)

var (
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent workers")
	flOps         = flag.Int("ops", 50, "operations per worker")
)

func instantCall(ctx context.Context) (string, error) { return "", nil }

// TestConcurrentMilestoneTraffic drives overlapping milestone creation,
// completion and chat traffic through the wired stores and checks the
// aggregate state afterwards. Concurrent readers verify snapshots never
// expose a partial write.
func TestConcurrentMilestoneTraffic(t *testing.T) {
	flag.Parse()
	workers := *flConcurrency
	ops := *flOps

	sim := tx.NewSimulator(notify.Discard{}, tx.WithConfirmDelay(0))
	chats := chat.NewStore(nil)
	chats.Seed(chat.DefaultChats(), chat.DefaultMessages())
	deals := deal.NewStore(sim, notify.Discard{}).
		WithCall(instantCall).
		WithConversationHook(chats)

	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		conversationID := fmt.Sprintf("%d", w%4+1)
		g.Go(func() error {
			for i := 0; i < ops; i++ {
				m, err := deals.CreateMilestone(gctx, conversationID, fmt.Sprintf("work %d", i), 1.5)
				if err != nil {
					return fmt.Errorf("create milestone: %w", err)
				}
				if _, err := deals.CompleteMilestone(gctx, conversationID, m.ID); err != nil {
					return fmt.Errorf("complete milestone: %w", err)
				}
				chats.SendMessage(conversationID, fmt.Sprintf("update %d", i))
			}
			return nil
		})
		g.Go(func() error {
			for i := 0; i < ops; i++ {
				for _, m := range deals.Milestones(conversationID) {
					if m.ID == "" {
						return fmt.Errorf("observed a partially written milestone")
					}
				}
				for _, msg := range chats.Messages(conversationID) {
					if msg.ID == "" {
						return fmt.Errorf("observed a partially written message")
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	var created int
	for conv := 1; conv <= 4; conv++ {
		for _, m := range deals.Milestones(fmt.Sprintf("%d", conv)) {
			if m.Status != deal.StatusCompleted {
				t.Fatalf("milestone %s should be completed, got %s", m.ID, m.Status)
			}
			created++
		}
	}
	if want := workers * ops; created != want {
		t.Fatalf("expected %d milestones, got %d", want, created)
	}

	if pending := sim.Pending(); len(pending) != 0 {
		t.Fatalf("expected no pending transactions, got %d", len(pending))
	}
	if all := sim.All(); len(all) != 2*workers*ops {
		t.Fatalf("expected %d transactions recorded, got %d", 2*workers*ops, len(all))
	}
}
