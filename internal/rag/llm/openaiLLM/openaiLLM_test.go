package openaiLLM

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/DocChat/internal/domain/ragErrors"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(raw, &req)
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request %s", raw)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Use the portal."}}]}`)
	}))
	defer srv.Close()

	answer, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL}).Generate(context.Background(), "How do I apply?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if answer != "Use the portal." {
		t.Errorf("answer = %q", answer)
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded","param":null}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(Options{APIKey: "test", BaseURL: srv.URL}).Generate(context.Background(), "q")
	var pe *ragErrors.ProviderError
	if !errors.As(err, &pe) || !pe.Retryable {
		t.Fatalf("expected retryable ProviderError, got %T", err)
	}
}
