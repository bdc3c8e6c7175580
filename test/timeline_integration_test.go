package test

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"flowhub/db"
	"flowhub/test/infra"
	"flowhub/timeline"
)

// TestTimelineArchiveRoundtrip runs against a disposable Postgres. Set
// STRESS_TEST_PG_DSN to reuse an existing database instead of Docker.
func TestTimelineArchiveRoundtrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if os.Getenv("STRESS_TEST_PG_DSN") == "" && !dockerAvailable(ctx) {
		t.Skip("no docker and no STRESS_TEST_PG_DSN; skipping")
	}

	pgC, dsn, err := infra.StartPostgres16(ctx, "")
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer func() { _ = pgC.Terminate(context.Background()) }()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := timeline.NewRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	if err := repo.Record(ctx, "1", "MILESTONE_CREATED", map[string]any{
		"milestone_id": "m-1",
		"title":        "Design Mockups",
		"amount":       "5.0",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Record(ctx, "1", "FUNDS_RELEASED", map[string]any{
		"milestone_id": "m-1",
		"amount":       "5.0",
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.Record(ctx, "2", "DISPUTE_CREATED", nil); err != nil {
		t.Fatalf("record with nil payload: %v", err)
	}

	events, err := repo.List(ctx, "1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for conversation 1, got %d", len(events))
	}
	if events[0].Type != "MILESTONE_CREATED" || events[1].Type != "FUNDS_RELEASED" {
		t.Fatalf("events out of append order: %+v", events)
	}
	if events[0].Payload["title"] != "Design Mockups" {
		t.Fatalf("payload not preserved: %+v", events[0].Payload)
	}
	if events[0].CreatedAt.IsZero() {
		t.Fatal("expected a created_at timestamp")
	}

	other, err := repo.List(ctx, "2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) != 1 || len(other[0].Payload) != 0 {
		t.Fatalf("expected one event with an empty payload, got %+v", other)
	}
}

func dockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "info")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
