// Package assistant wraps the chat-completion service that produces
// auto-replies and contextual suggestions. The service is an external
// collaborator: errors are surfaced to the user and never retried here.
package assistant

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"flowhub/notify"
)

// Turn roles, matching the chat-completion wire format.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message of the conversation window sent to the
// model.
type Turn struct {
	Role    string
	Content string
}

// SuggestionType is the coarse category of a suggested action.
type SuggestionType string

const (
	SuggestionDeal    SuggestionType = "deal"
	SuggestionEscrow  SuggestionType = "escrow"
	SuggestionDispute SuggestionType = "dispute"
)

// Suggestion is a proposed next action for a conversation.
type Suggestion struct {
	Text string
	Type SuggestionType
}

const (
	defaultModel = openai.GPT4o

	replySystemPrompt = "You are an AI assistant for LUKSO Flow Hub. Help with contract negotiations, " +
		"milestone tracking, and project management. Be concise, helpful, and professional. " +
		"When suggesting actions, focus on escrow contracts and milestone management."

	suggestSystemPrompt = "You are a helpful AI assistant for LUKSO Flow Hub. Provide brief, " +
		"actionable suggestions for contract negotiations and milestone management."

	replyMaxTokens   = 150
	suggestMaxTokens = 100
	temperature      = 0.7

	// historyWindow bounds how much recent conversation feeds a suggestion.
	historyWindow = 5
)

// Gateway is the chat-completion client.
type Gateway struct {
	client   *openai.Client
	model    string
	notifier notify.Notifier
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithModel overrides the completion model.
func WithModel(model string) GatewayOption {
	return func(g *Gateway) { g.model = model }
}

// WithBaseURL points the client at a compatible endpoint, e.g. a test
// server or OpenRouter.
func WithBaseURL(apiKey, baseURL string) GatewayOption {
	return func(g *Gateway) {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		g.client = openai.NewClientWithConfig(cfg)
	}
}

// NewGateway builds a Gateway. A nil notifier drops the user-facing error
// notifications.
func NewGateway(apiKey string, notifier notify.Notifier, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client:   openai.NewClient(apiKey),
		model:    defaultModel,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateReply completes the conversation window into an assistant reply.
func (g *Gateway) GenerateReply(ctx context.Context, turns []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: replySystemPrompt,
	})
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		g.notifyError()
		return "", fmt.Errorf("assistant: generate reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		g.notifyError()
		return "", fmt.Errorf("assistant: empty completion")
	}

	return resp.Choices[0].Message.Content, nil
}

// SuggestAction asks for a next-step suggestion based on recent
// conversation lines and free-text context, and classifies the result.
func (g *Gateway) SuggestAction(ctx context.Context, history []string, currentContext string) (Suggestion, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	prompt := fmt.Sprintf(
		"Based on this conversation: \n%s\n\nCurrent context: %s\n\n"+
			"Suggest a helpful action for this project conversation. Focus on milestone management, "+
			"escrow contracts, or dispute resolution if relevant.",
		strings.Join(history, "\n"), currentContext)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   suggestMaxTokens,
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("assistant: suggest action: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, fmt.Errorf("assistant: empty suggestion")
	}

	text := resp.Choices[0].Message.Content
	return Suggestion{Text: text, Type: DetermineType(text)}, nil
}

// DetermineType classifies a suggestion by keyword: dispute language wins
// over escrow language, and anything else is a plain deal suggestion.
func DetermineType(suggestion string) SuggestionType {
	lower := strings.ToLower(suggestion)
	switch {
	case strings.Contains(lower, "dispute") ||
		strings.Contains(lower, "conflict") ||
		strings.Contains(lower, "disagreement"):
		return SuggestionDispute
	case strings.Contains(lower, "escrow") ||
		strings.Contains(lower, "payment") ||
		strings.Contains(lower, "milestone"):
		return SuggestionEscrow
	default:
		return SuggestionDeal
	}
}

func (g *Gateway) notifyError() {
	if g.notifier == nil {
		return
	}
	g.notifier.Notify(notify.Notification{
		Title:       "AI Assistant Error",
		Description: "Could not generate response. Please try again later.",
		Level:       notify.LevelDestructive,
	})
}
