package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowhub/notify"
)

func completionServer(t *testing.T, content string, capture *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if capture != nil {
			*capture = req.Messages
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestGenerateReply(t *testing.T) {
	var messages []map[string]any
	srv := completionServer(t, "Happy to help with the milestone.", &messages)
	defer srv.Close()

	gw := NewGateway("test-key", nil, WithBaseURL("test-key", srv.URL+"/v1"))

	reply, err := gw.GenerateReply(context.Background(), []Turn{
		{Role: RoleUser, Content: "Can we split the payment into milestones?"},
	})
	if err != nil {
		t.Fatalf("generate reply: %v", err)
	}
	if reply != "Happy to help with the milestone." {
		t.Fatalf("unexpected reply %q", reply)
	}

	if len(messages) != 2 {
		t.Fatalf("expected system prompt plus one turn, got %d messages", len(messages))
	}
	if messages[0]["role"] != "system" {
		t.Fatalf("expected a leading system prompt, got %+v", messages[0])
	}
	if messages[1]["role"] != RoleUser {
		t.Fatalf("expected the user turn forwarded, got %+v", messages[1])
	}
}

func TestGenerateReplyErrorNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &recordingNotifier{}
	gw := NewGateway("test-key", rec, WithBaseURL("test-key", srv.URL+"/v1"))

	if _, err := gw.GenerateReply(context.Background(), nil); err == nil {
		t.Fatal("expected an error from the failing endpoint")
	}
	if len(rec.ns) != 1 || rec.ns[0].Title != "AI Assistant Error" {
		t.Fatalf("expected the user-facing error notification, got %+v", rec.ns)
	}
	if rec.ns[0].Level != notify.LevelDestructive {
		t.Fatalf("expected a destructive notification, got %s", rec.ns[0].Level)
	}
}

func TestSuggestActionClassifies(t *testing.T) {
	srv := completionServer(t, "Consider opening a dispute to resolve the disagreement.", nil)
	defer srv.Close()

	gw := NewGateway("test-key", nil, WithBaseURL("test-key", srv.URL+"/v1"))

	suggestion, err := gw.SuggestAction(context.Background(),
		[]string{"me: the work is late", "them: I need more time"},
		"milestone 2 overdue")
	if err != nil {
		t.Fatalf("suggest action: %v", err)
	}
	if suggestion.Type != SuggestionDispute {
		t.Fatalf("expected type %s got %s", SuggestionDispute, suggestion.Type)
	}
	if suggestion.Text == "" {
		t.Fatal("expected suggestion text")
	}
}

func TestDetermineType(t *testing.T) {
	cases := []struct {
		text string
		want SuggestionType
	}{
		{"You should open a dispute", SuggestionDispute},
		{"There seems to be a conflict here", SuggestionDispute},
		{"A disagreement over scope", SuggestionDispute},
		{"Set up an escrow contract", SuggestionEscrow},
		{"Release the payment", SuggestionEscrow},
		{"Create the next milestone", SuggestionEscrow},
		{"Schedule a call to align on scope", SuggestionDeal},
		{"", SuggestionDeal},
		// dispute language wins over escrow language
		{"Dispute the milestone payment", SuggestionDispute},
	}
	for _, tc := range cases {
		if got := DetermineType(tc.text); got != tc.want {
			t.Errorf("DetermineType(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

type recordingNotifier struct {
	ns []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.ns = append(r.ns, n)
}
