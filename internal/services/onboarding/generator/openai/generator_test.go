package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1773133200,
  "model": "gpt-4o-mini-2024-07-18",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Dear Globex, please add your tax id.  "}}],
  "usage": {"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52}
}`

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected api key error")
	}
	generator, err := New(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if generator.Model() != DefaultModel {
		t.Fatalf("model = %q, want %q", generator.Model(), DefaultModel)
	}
}

func TestGenerateSendsPromptsAndReadsCompletion(t *testing.T) {
	t.Parallel()

	var captured struct {
		path   string
		auth   string
		fields map[string]any
	}
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured.path = req.URL.Path
		captured.auth = req.Header.Get("Authorization")
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &captured.fields); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		return jsonResponse(req, http.StatusOK, completionBody), nil
	})}

	generator, err := New(Config{
		APIKey:     "sk-test",
		BaseURL:    "https://llm.example.com/v1",
		HTTPClient: client,
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	got, err := generator.Generate(context.Background(), "You write polite emails.", "Vendor Information:\nName: Globex\n")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Text != "Dear Globex, please add your tax id." {
		t.Fatalf("text = %q", got.Text)
	}
	if got.Model != "gpt-4o-mini-2024-07-18" || got.Tokens != 52 {
		t.Fatalf("generation = %+v", got)
	}
	if !strings.HasSuffix(captured.path, "/chat/completions") {
		t.Fatalf("path = %q", captured.path)
	}
	if captured.auth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", captured.auth)
	}
	if captured.fields["model"] != DefaultModel {
		t.Fatalf("model field = %v", captured.fields["model"])
	}
	messages, ok := captured.fields["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v", captured.fields["messages"])
	}
}

func TestGenerateReturnsErrorOnFailureStatus(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(req, http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`), nil
	})}
	generator, err := New(Config{APIKey: "sk-test", BaseURL: "https://llm.example.com/v1/", HTTPClient: client})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := generator.Generate(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected generation error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGenerateRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`), nil
	})}
	generator, err := New(Config{APIKey: "sk-test", BaseURL: "https://llm.example.com/v1", HTTPClient: client})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if _, err := generator.Generate(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected empty choices error")
	}
	if _, err := generator.Generate(context.Background(), "", " "); err == nil {
		t.Fatal("expected empty prompt error")
	}
}
