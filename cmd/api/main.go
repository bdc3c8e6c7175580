package main

import (
	"context"
	"log/slog"
	"os"

	"flowhub/assistant"
	"flowhub/chat"
	"flowhub/config"
	"flowhub/db"
	"flowhub/deal"
	"flowhub/dispute"
	"flowhub/notify"
	"flowhub/profile"
	"flowhub/timeline"
	"flowhub/tx"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(envOrDefault("FLOWHUB_CONFIG", "flowhub.yaml"))
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	notifier := notify.NewLogNotifier(logger)

	sim := tx.NewSimulator(notifier, tx.WithConfirmDelay(cfg.ConfirmDelay))

	var gateway *assistant.Gateway
	if cfg.OpenAIKey != "" {
		var opts []assistant.GatewayOption
		if cfg.OpenAIModel != "" {
			opts = append(opts, assistant.WithModel(cfg.OpenAIModel))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, assistant.WithBaseURL(cfg.OpenAIKey, cfg.OpenAIBaseURL))
		}
		gateway = assistant.NewGateway(cfg.OpenAIKey, notifier, opts...)
	} else {
		logger.Info("assistant disabled, no API key configured")
	}

	chats := chat.NewStore(gateway)
	chats.Seed(chat.DefaultChats(), chat.DefaultMessages())

	deals := deal.NewStore(sim, notifier).
		WithCall(tx.SimulatedCall(cfg.CallDelay)).
		WithConversationHook(chats)
	deals.Seed(deal.DefaultSeed())

	disputes := dispute.NewService(deals, sim, notifier).
		WithConversationHook(chats)

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("bootstrap database pool", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		archive := timeline.NewRepository(pool)
		if err := archive.EnsureSchema(ctx); err != nil {
			logger.Error("ensure timeline schema", "err", err)
			os.Exit(1)
		}
		deals.WithRecorder(archive)
		disputes.WithRecorder(archive)
		logger.Info("timeline archive enabled")
	}

	profiles := profile.NewService(stubWallet{}, nil, cfg.SessionSecret)

	logger.Info("flowhub core ready",
		"chats", len(chats.Chats()),
		"milestones", len(deals.Milestones("1")),
		"assistant", gateway != nil,
		"disputes", disputes != nil,
		"profiles", profiles != nil,
	)
}

// stubWallet stands in for the browser extension boundary in the demo
// binary.
type stubWallet struct{}

func (stubWallet) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"}, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
