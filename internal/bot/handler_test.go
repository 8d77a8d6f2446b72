package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
	"github.com/kailas-cloud/paperbot/internal/usecase/reply"
	"github.com/kailas-cloud/paperbot/internal/usecase/search"
)

// --- Mocks ---

type mockSearcher struct {
	mu           sync.Mutex
	result       search.Result
	lastQuery    string
	lastPatterns []string
	searchCalls  int
	keyCalls     int
}

func (m *mockSearcher) Search(_ context.Context, text string) search.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastQuery = text
	return m.result
}

func (m *mockSearcher) SearchKeys(_ context.Context, patterns ...string) search.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyCalls++
	m.lastPatterns = patterns
	return m.result
}

type mockSender struct {
	mu      sync.Mutex
	replies []Reply
	failAt  int // 1-based, 0 = never
	err     error
}

func (m *mockSender) Send(_ context.Context, r Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt > 0 && len(m.replies)+1 == m.failAt {
		return m.err
	}
	m.replies = append(m.replies, r)
	return nil
}

func (m *mockSender) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.replies))
	for _, r := range m.replies {
		out = append(out, r.Text)
	}
	return out
}

func newTestHandler(s *mockSearcher, sender *mockSender, maxLen int) *Handler {
	return NewHandler(s, reply.NewFormatter(maxLen), sender, "https://wg21.link/index.json", nil)
}

func rangesResult() search.Result {
	return search.Result{Papers: []paper.Paper{
		paper.New("P0001", "paper", "Ranges", "Eric Niebler", "https://wg21.link/p0001"),
	}}
}

// --- Tests ---

func TestHandle_PaperCommand(t *testing.T) {
	s := &mockSearcher{result: rangesResult()}
	sender := &mockSender{}
	h := newTestHandler(s, sender, 2500)

	err := h.Handle(context.Background(), Message{ChatID: 42, MessageID: 7, Command: "paper", Text: "/paper rang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.lastQuery != "rang" {
		t.Errorf("query = %q, want %q", s.lastQuery, "rang")
	}
	if len(sender.replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(sender.replies))
	}
	r := sender.replies[0]
	if r.ChatID != 42 || r.ReplyTo != 7 {
		t.Errorf("reply addressed to chat %d msg %d", r.ChatID, r.ReplyTo)
	}
	if !strings.Contains(r.Text, "Ranges from Eric Niebler\nhttps://wg21.link/p0001") {
		t.Errorf("unexpected text %q", r.Text)
	}
}

func TestHandle_SearchAlias(t *testing.T) {
	s := &mockSearcher{result: rangesResult()}
	h := newTestHandler(s, &mockSender{}, 2500)

	if err := h.Handle(context.Background(), Message{Command: "search", Text: "/search niebler"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.searchCalls != 1 || s.lastQuery != "niebler" {
		t.Errorf("search calls = %d, query = %q", s.searchCalls, s.lastQuery)
	}
}

func TestHandle_PaperWithoutArgument(t *testing.T) {
	s := &mockSearcher{result: rangesResult()}
	sender := &mockSender{}
	h := newTestHandler(s, sender, 2500)

	if err := h.Handle(context.Background(), Message{Command: "paper", Text: "/paper"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.searchCalls != 0 {
		t.Error("search must not run without an argument")
	}
	if got := sender.texts(); len(got) != 1 || got[0] != UsageHint {
		t.Errorf("got %q, want usage hint", got)
	}
}

func TestHandle_NothingFound(t *testing.T) {
	sender := &mockSender{}
	h := newTestHandler(&mockSearcher{}, sender, 2500)

	if err := h.Handle(context.Background(), Message{Command: "paper", Text: "/paper zzz"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sender.texts()
	if len(got) != 1 || !strings.Contains(got[0], reply.NothingFound) {
		t.Errorf("got %q, want nothing-found notice", got)
	}
}

func TestHandle_CappedSplitsMessages(t *testing.T) {
	var papers []paper.Paper
	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("P%04d", i+1)
		papers = append(papers, paper.New(key, "paper", "Title "+key, "Author", "https://wg21.link/"+key))
	}
	sender := &mockSender{}
	h := newTestHandler(&mockSearcher{result: search.Result{Papers: papers, Capped: true}}, sender, 300)

	if err := h.Handle(context.Background(), Message{Command: "paper", Text: "/paper title"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sender.texts()
	if len(got) < 2 {
		t.Fatalf("expected several messages, got %d", len(got))
	}
	if !strings.HasSuffix(got[len(got)-1], reply.MoreResults) {
		t.Error("last message lacks overflow notice")
	}
	if !strings.Contains(got[0], "P0001") {
		t.Error("first message must hold the first match")
	}
}

func TestHandle_StaticCommands(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"help", HelpText},
		{"start", HelpText},
		{"about", "https://wg21.link/index.json"},
	}

	for _, tc := range tests {
		t.Run(tc.command, func(t *testing.T) {
			sender := &mockSender{}
			h := newTestHandler(&mockSearcher{}, sender, 2500)
			if err := h.Handle(context.Background(), Message{Command: tc.command, Text: "/" + tc.command}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := sender.texts()
			if len(got) != 1 || !strings.Contains(got[0], tc.want) {
				t.Errorf("got %q, want text containing %q", got, tc.want)
			}
		})
	}
}

func TestHandle_UnknownCommandIgnored(t *testing.T) {
	sender := &mockSender{}
	s := &mockSearcher{}
	h := newTestHandler(s, sender, 2500)

	if err := h.Handle(context.Background(), Message{Command: "weather", Text: "/weather"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.replies) != 0 || s.searchCalls+s.keyCalls != 0 {
		t.Error("unknown command must be ignored")
	}
}

func TestHandle_Mentions(t *testing.T) {
	s := &mockSearcher{result: rangesResult()}
	sender := &mockSender{}
	h := newTestHandler(s, sender, 2500)

	err := h.Handle(context.Background(), Message{Text: "have you read [P0001] and <n4567R1>?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.keyCalls != 1 {
		t.Fatalf("key search calls = %d, want 1", s.keyCalls)
	}
	if strings.Join(s.lastPatterns, ",") != "P0001,n4567r1" {
		t.Errorf("patterns = %v", s.lastPatterns)
	}
	if got := sender.texts(); len(got) != 1 || !strings.Contains(got[0], "Ranges") {
		t.Errorf("got %q", got)
	}
}

func TestHandle_PlainTextWithoutMentionsIgnored(t *testing.T) {
	s := &mockSearcher{result: rangesResult()}
	sender := &mockSender{}
	h := newTestHandler(s, sender, 2500)

	if err := h.Handle(context.Background(), Message{Text: "good morning, P1234"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.keyCalls != 0 || len(sender.replies) != 0 {
		t.Error("text without bracketed mentions must be ignored")
	}
}

func TestHandle_SendFailureStopsAndReturnsError(t *testing.T) {
	var papers []paper.Paper
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("P%04d", i+1)
		papers = append(papers, paper.New(key, "paper", "Title "+key, "Author", "https://wg21.link/"+key))
	}
	sendErr := errors.New("chat not found")
	sender := &mockSender{failAt: 2, err: sendErr}
	h := newTestHandler(&mockSearcher{result: search.Result{Papers: papers}}, sender, 100)

	err := h.Handle(context.Background(), Message{Command: "paper", Text: "/paper title"})
	if !errors.Is(err, sendErr) {
		t.Fatalf("error = %v, want wrapped send error", err)
	}
	if len(sender.replies) != 1 {
		t.Errorf("sent %d replies before failure, want 1", len(sender.replies))
	}
}
