package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockCompleter implements Completer for testing.
type mockCompleter struct {
	response string
	err      error
	delay    time.Duration
	got      ChatRequest
}

func (m *mockCompleter) Complete(ctx context.Context, req ChatRequest) (string, error) {
	m.got = req
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

func TestReply_UsesPersonaHistoryAndMessage(t *testing.T) {
	mock := &mockCompleter{response: "The iPhone 13 has a great camera."}
	r := NewResponder(mock, Options{Model: "gpt-3.5-turbo", Temperature: 0.7, MaxTokens: 300})

	history := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	got := r.Reply(context.Background(), history, "tell me about the camera")
	if got != "The iPhone 13 has a great camera." {
		t.Errorf("Reply() = %q", got)
	}

	msgs := mock.got.Messages
	if len(msgs) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != Persona {
		t.Errorf("messages[0] = %+v, want system persona", msgs[0])
	}
	if msgs[3].Role != "user" || msgs[3].Content != "tell me about the camera" {
		t.Errorf("messages[3] = %+v, want current message", msgs[3])
	}
	if mock.got.Model != "gpt-3.5-turbo" || mock.got.MaxTokens != 300 {
		t.Errorf("request = %+v, want configured model and max tokens", mock.got)
	}
}

func TestReply_ErrorBecomesApology(t *testing.T) {
	mock := &mockCompleter{err: errors.New("provider down")}
	r := NewResponder(mock, Options{})

	if got := r.Reply(context.Background(), nil, "hello"); got != Apology {
		t.Errorf("Reply() = %q, want apology", got)
	}
}

func TestReply_TimeoutBecomesApology(t *testing.T) {
	mock := &mockCompleter{response: "late", delay: time.Second}
	r := NewResponder(mock, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	got := r.Reply(context.Background(), nil, "hello")
	if got != Apology {
		t.Errorf("Reply() = %q, want apology", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Reply() took %v, want it bounded by the timeout", elapsed)
	}
}

func TestBuildMessages_KeepsLastTenTurns(t *testing.T) {
	var history []Message
	for i := range 30 {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}

	msgs := BuildMessages("sys", history, "now", DefaultHistoryMessages)
	if len(msgs) != 22 {
		t.Fatalf("len(messages) = %d, want 22", len(msgs))
	}
	if msgs[1].Content != "m10" {
		t.Errorf("oldest history message = %q, want %q", msgs[1].Content, "m10")
	}
	if msgs[21].Content != "now" {
		t.Errorf("last message = %q, want %q", msgs[21].Content, "now")
	}
}

func TestBuildMessages_SkipsEmptyContent(t *testing.T) {
	msgs := BuildMessages("", []Message{{Role: "user", Content: ""}}, "q", 10)
	if len(msgs) != 1 || msgs[0].Content != "q" {
		t.Errorf("BuildMessages() = %+v, want only the query", msgs)
	}
}
