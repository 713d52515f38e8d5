package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkucukkoc/fitcal-backend/config"
)

func TestStreamAccumulatorPrefixExtension(t *testing.T) {
	var acc streamAccumulator

	deltas := []string{
		acc.push("Hi"),
		acc.push("Hi there"),
		acc.push("Hi there!"),
	}

	want := []string{"Hi", " there", "!"}
	for i := range want {
		if deltas[i] != want[i] {
			t.Errorf("delta[%d] = %q, want %q", i, deltas[i], want[i])
		}
	}
	if joined := strings.Join(deltas, ""); joined != acc.text {
		t.Errorf("concatenated deltas %q != accumulated %q", joined, acc.text)
	}
	if acc.text != "Hi there!" {
		t.Errorf("accumulated = %q, want %q", acc.text, "Hi there!")
	}
}

func TestStreamAccumulatorNonMonotonic(t *testing.T) {
	var acc streamAccumulator

	if got := acc.push("Hello"); got != "Hello" {
		t.Errorf("first delta = %q", got)
	}
	// shrinking cumulative text must not slice negatively
	if got := acc.push("Hi"); got != "Hi" {
		t.Errorf("non-monotonic delta = %q, want full new text", got)
	}
	if acc.text != "HelloHi" {
		t.Errorf("accumulated = %q", acc.text)
	}
}

func TestStreamAccumulatorIgnoresEmptyAndRepeats(t *testing.T) {
	var acc streamAccumulator
	acc.push("abc")
	if got := acc.push(""); got != "" {
		t.Errorf("empty cumulative produced delta %q", got)
	}
	if got := acc.push("abc"); got != "" {
		t.Errorf("repeated cumulative produced delta %q", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := StripCodeFence(tc.in); got != tc.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAnalyzeImageWithoutKey(t *testing.T) {
	dev := NewGeminiService(config.GeminiConfig{Env: "development"})
	analysis, err := dev.AnalyzeImage(context.Background(), []byte{1}, "image/jpeg", "tr")
	if err != nil {
		t.Fatalf("development mock failed: %v", err)
	}
	if analysis.Name == "" || len(analysis.Items) == 0 {
		t.Errorf("mock analysis incomplete: %+v", analysis)
	}

	prod := NewGeminiService(config.GeminiConfig{Env: "production"})
	if _, err := prod.AnalyzeImage(context.Background(), []byte{1}, "image/jpeg", "tr"); !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("production without key: err = %v, want ErrModelNotConfigured", err)
	}
}

func TestChatWithoutKeyFailsHard(t *testing.T) {
	g := NewGeminiService(config.GeminiConfig{Env: "development"})
	if _, err := g.CompleteChat(context.Background(), "ctx", nil, nil); !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("CompleteChat err = %v, want ErrModelNotConfigured", err)
	}
	if _, err := g.StreamChat(context.Background(), "ctx", nil, nil, nil); !errors.Is(err, ErrModelNotConfigured) {
		t.Errorf("StreamChat err = %v, want ErrModelNotConfigured", err)
	}
}

func sseFrame(text string) string {
	return fmt.Sprintf("data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":%q}]}}]}\n\n", text)
}

func TestStreamChatDeltasAndMalformedFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// cumulative frames with a malformed one in the middle
		fmt.Fprint(w, sseFrame("Hi"))
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, sseFrame("Hi there"))
		fmt.Fprint(w, sseFrame("Hi there!"))
	}))
	defer srv.Close()

	g := NewGeminiService(config.GeminiConfig{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		ChatModel: "test-model",
	})

	var deltas []string
	final, err := g.StreamChat(context.Background(), "ctx", []ChatTurn{{Role: "user", Content: "hi"}}, nil, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}
	if final != "Hi there!" {
		t.Errorf("final = %q, want %q", final, "Hi there!")
	}
	want := []string{"Hi", " there", "!"}
	if len(deltas) != len(want) {
		t.Fatalf("deltas = %v, want %v", deltas, want)
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Errorf("delta[%d] = %q, want %q", i, deltas[i], want[i])
		}
	}
}

func TestCompleteChatEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`)
	}))
	defer srv.Close()

	g := NewGeminiService(config.GeminiConfig{APIKey: "test-key", BaseURL: srv.URL, ChatModel: "test-model"})
	if _, err := g.CompleteChat(context.Background(), "ctx", []ChatTurn{{Role: "user", Content: "hi"}}, nil); !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestSummarizeIsBestEffort(t *testing.T) {
	// no key: silently yields nothing
	g := NewGeminiService(config.GeminiConfig{Env: "development"})
	if got := g.Summarize(context.Background(), "User: hi"); got != "" {
		t.Errorf("Summarize without key = %q, want empty", got)
	}

	// upstream error: still nothing, no panic
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g = NewGeminiService(config.GeminiConfig{APIKey: "k", BaseURL: srv.URL, ChatModel: "m"})
	if got := g.Summarize(context.Background(), "User: hi"); got != "" {
		t.Errorf("Summarize with failing upstream = %q, want empty", got)
	}
}
