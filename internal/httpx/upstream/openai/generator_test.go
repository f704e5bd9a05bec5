package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			"bare object",
			`{"title":"A"}`,
			`{"title":"A"}`,
			true,
		},
		{
			"wrapped in prose",
			"Here is your article:\n{\"title\":\"A\"}\nEnjoy!",
			`{"title":"A"}`,
			true,
		},
		{
			"code fence",
			"```json\n{\"title\":\"A\"}\n```",
			`{"title":"A"}`,
			true,
		},
		{
			"nested object",
			`{"a":{"b":1},"c":2}`,
			`{"a":{"b":1},"c":2}`,
			true,
		},
		{
			"braces inside string literal",
			`{"title":"use {curly} braces"}`,
			`{"title":"use {curly} braces"}`,
			true,
		},
		{
			"escaped quote inside string",
			`{"title":"she said \"hi\" {x}"}`,
			`{"title":"she said \"hi\" {x}"}`,
			true,
		},
		{
			"no object",
			"plain text only",
			"",
			false,
		},
		{
			"unbalanced",
			`{"title":"A"`,
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstJSONObject(tt.text)
			if ok != tt.ok {
				t.Fatalf("firstJSONObject ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("firstJSONObject = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDraft(t *testing.T) {
	t.Run("valid draft", func(t *testing.T) {
		draft, err := parseDraft(`{"title":"Autumn Menu","content":"Body text","excerpt":"Short"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if draft.Title != "Autumn Menu" || draft.Content != "Body text" || draft.Excerpt != "Short" {
			t.Errorf("unexpected draft: %+v", draft)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		_, err := parseDraft(`{"content":"Body"}`)
		if !errors.Is(err, ErrNoJSONPayload) {
			t.Errorf("expected ErrNoJSONPayload, got %v", err)
		}
	})

	t.Run("missing content rejected", func(t *testing.T) {
		_, err := parseDraft(`{"title":"A"}`)
		if !errors.Is(err, ErrNoJSONPayload) {
			t.Errorf("expected ErrNoJSONPayload, got %v", err)
		}
	})

	t.Run("no json in text", func(t *testing.T) {
		_, err := parseDraft("Sorry, I cannot help with that.")
		if !errors.Is(err, ErrNoJSONPayload) {
			t.Errorf("expected ErrNoJSONPayload, got %v", err)
		}
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		_, err := parseDraft(`{"title": broken}`)
		if !errors.Is(err, ErrNoJSONPayload) {
			t.Errorf("expected ErrNoJSONPayload, got %v", err)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("successful generation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Errorf("unexpected auth header %q", got)
			}

			var req CompletionRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Model != "gpt-4o-mini" {
				t.Errorf("unexpected model %q", req.Model)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("expected system + user messages, got %+v", req.Messages)
			}

			json.NewEncoder(w).Encode(map[string]interface{}{
				"model": "gpt-4o-mini",
				"choices": []map[string]interface{}{
					{"message": map[string]string{
						"role":    "assistant",
						"content": "```json\n{\"title\":\"Fresh Menu\",\"content\":\"Body\",\"excerpt\":\"E\"}\n```",
					}},
				},
				"usage": map[string]int{"total_tokens": 123},
			})
		}))
		defer srv.Close()

		g := NewGenerator(New(WithBaseURL(srv.URL)))
		out, err := g.Generate(context.Background(), GenerateInput{
			APIKey:    "sk-test",
			Model:     "gpt-4o-mini",
			Prompt:    "Write about the new menu",
			MaxTokens: 500,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.Title != "Fresh Menu" {
			t.Errorf("unexpected title %q", out.Title)
		}
		if out.TokensUsed != 123 {
			t.Errorf("expected 123 tokens, got %d", out.TokensUsed)
		}
		if out.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model %q", out.Model)
		}
	})

	t.Run("api error surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "invalid api key", "type": "invalid_request_error"},
			})
		}))
		defer srv.Close()

		g := NewGenerator(New(WithBaseURL(srv.URL)))
		_, err := g.Generate(context.Background(), GenerateInput{APIKey: "bad", Model: "gpt-4o-mini", Prompt: "x"})
		if err == nil {
			t.Fatal("expected error")
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T: %v", err, err)
		}
	})

	t.Run("empty choices rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
		}))
		defer srv.Close()

		g := NewGenerator(New(WithBaseURL(srv.URL)))
		_, err := g.Generate(context.Background(), GenerateInput{APIKey: "sk", Model: "m", Prompt: "x"})
		if !errors.Is(err, ErrEmptyCompletion) {
			t.Errorf("expected ErrEmptyCompletion, got %v", err)
		}
	})
}
