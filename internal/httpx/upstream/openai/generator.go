package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// systemInstruction pins the response to a machine-readable shape. Models
// still wrap the JSON in prose often enough that extraction stays tolerant.
const systemInstruction = `You are a content writer for a restaurant marketing platform.
Respond with a single JSON object of the form {"title": "...", "content": "...", "excerpt": "..."}.
The content field holds the full article body. Do not include anything outside the JSON object.`

// GenerateInput represents input for one content generation call
type GenerateInput struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	Language    string
}

// GenerateOutput represents a parsed content draft
type GenerateOutput struct {
	Title      string
	Content    string
	Excerpt    string
	TokensUsed int
	Model      string
	Duration   time.Duration
}

// Generator turns prompts into structured content drafts via the completion
// API
type Generator struct {
	client *Client
}

// NewGenerator creates a new content generator
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Errors produced by generation
var (
	ErrEmptyCompletion = errors.New("completion response contained no choices")
	ErrNoJSONPayload   = errors.New("no JSON object found in completion text")
)

// Generate calls the completion API and parses the draft out of the reply.
// Any failure aborts this generation attempt only; the caller treats it as a
// no-op for the path.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	prompt := in.Prompt
	if in.Language != "" && in.Language != "en" {
		prompt += fmt.Sprintf("\nWrite the article in language code %q.", in.Language)
	}

	start := time.Now()
	resp, err := g.client.CreateCompletion(ctx, in.APIKey, CompletionRequest{
		Model: in.Model,
		Messages: []Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	draft, err := parseDraft(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &GenerateOutput{
		Title:      draft.Title,
		Content:    draft.Content,
		Excerpt:    draft.Excerpt,
		TokensUsed: resp.Usage.TotalTokens,
		Model:      resp.Model,
		Duration:   duration,
	}, nil
}

type draftPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// parseDraft extracts the first balanced JSON object from the completion text
// and unmarshals it. The model may wrap the JSON in prose or code fences.
func parseDraft(text string) (*draftPayload, error) {
	raw, ok := firstJSONObject(text)
	if !ok {
		return nil, ErrNoJSONPayload
	}

	var draft draftPayload
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSONPayload, err)
	}
	if draft.Title == "" || draft.Content == "" {
		return nil, ErrNoJSONPayload
	}

	return &draft, nil
}

// firstJSONObject returns the first balanced {...} substring, tracking brace
// depth outside of string literals
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
