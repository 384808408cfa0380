package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHTTPClientGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"message\":\"hola\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "sk-test", "", time.Second, zap.NewNop())
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"message":"hola"}` {
		t.Fatalf("unexpected content %q", out)
	}
	if got.Model != defaultOpenAIModel || got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "prompt" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if c.Model() != defaultOpenAIModel {
		t.Fatalf("unexpected model %s", c.Model())
	}
}

func TestHTTPClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, "status=429"},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`, "bad model"},
		{"empty", http.StatusOK, `{"choices":[]}`, "empty response"},
		{"garbage", http.StatusOK, `not json`, "unmarshal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, "k", "m", time.Second, nil).Generate(context.Background(), "p")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestHTTPClientHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPClient(srv.URL, "k", "m", 5*time.Second, nil).Generate(ctx, "p"); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestNewFromOptions(t *testing.T) {
	ctx := context.Background()

	client, err := NewFromOptions(ctx, ProviderOptions{Provider: "openai"}, nil)
	if err != nil || client != nil {
		t.Fatalf("expected no client without credentials, got %v (%v)", client, err)
	}
	client, err = NewFromOptions(ctx, ProviderOptions{Provider: "gemini"}, nil)
	if err != nil || client != nil {
		t.Fatalf("expected no gemini client without credentials, got %v (%v)", client, err)
	}

	client, err = NewFromOptions(ctx, ProviderOptions{Provider: " OpenAI ", APIKey: "sk", Model: "gpt-test"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	httpClient, ok := client.(*HTTPClient)
	if !ok || httpClient.Model() != "gpt-test" {
		t.Fatalf("expected http client with model, got %T", client)
	}

	if _, err := NewFromOptions(ctx, ProviderOptions{Provider: "llama"}, nil); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestMockClientSequence(t *testing.T) {
	m := &MockClient{Response: "fin", Responses: []MockResponse{{Text: "uno"}, {Text: "dos"}}}
	for _, want := range []string{"uno", "dos", "fin", "fin"} {
		got, _ := m.Generate(context.Background(), "p")
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if m.Calls != 4 || len(m.Prompts) != 4 {
		t.Fatalf("expected 4 recorded calls, got %d", m.Calls)
	}
}
