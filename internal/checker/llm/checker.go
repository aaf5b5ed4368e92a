// Package llm is a checking-service adapter backed by an OpenAI-compatible
// chat model: the model is prompted to emit matches as JSON, which are
// translated into validation outputs. Useful where no rule service is
// deployed; the engine treats it like any other checker.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dshills/prosecheck/internal/checker"
	"github.com/dshills/prosecheck/internal/logging"
	"github.com/dshills/prosecheck/internal/textrange"
	"github.com/dshills/prosecheck/internal/validate"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You are a grammar and style checker. Given a text
block, report problems as a JSON array. Each element must be
{"from": int, "to": int, "message": string, "category": string,
"suggestions": [string]} where from/to are byte offsets into the given
text (half-open). Categories: grammar, style, spelling. Report nothing
else: no prose, no code fences, just the JSON array.`

// builtinCategories is what this adapter can produce; there is no remote
// category list to fetch.
var builtinCategories = []validate.Category{
	{ID: "grammar", Name: "Grammar", Colour: "#d32f2f"},
	{ID: "style", Name: "Style", Colour: "#f9a825"},
	{ID: "spelling", Name: "Spelling", Colour: "#1565c0"},
}

// Option configures a Checker.
type Option func(*Checker)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(c *Checker) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log.WithComponent("llm")
		}
	}
}

// Checker validates text by prompting a chat model. Safe for concurrent
// use.
type Checker struct {
	client *openai.Client
	model  string
	log    *logging.Logger
}

// New creates a checker using the given API key.
func New(apiKey string, opts ...Option) (*Checker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm checker: API key not set")
	}
	c := &Checker{
		client: openai.NewClient(apiKey),
		model:  DefaultModel,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// llmMatch is the JSON shape the model is asked to emit. Offsets are
// relative to the submitted text.
type llmMatch struct {
	From        int      `json:"from"`
	To          int      `json:"to"`
	Message     string   `json:"message"`
	Category    string   `json:"category"`
	Suggestions []string `json:"suggestions"`
}

// Check implements checker.Checker.
func (c *Checker) Check(ctx context.Context, in validate.Input, categoryIDs []string) ([]validate.Output, error) {
	user := in.Text
	if len(categoryIDs) > 0 {
		user = fmt.Sprintf("Only report these categories: %s.\n\n%s",
			strings.Join(categoryIDs, ", "), in.Text)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm check: %w: %v", checker.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm check: empty completion: %w", checker.ErrBadResponse)
	}

	matches, err := parseMatches(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("llm check: %w: %v", checker.ErrBadResponse, err)
	}

	outputs := make([]validate.Output, 0, len(matches))
	for _, m := range matches {
		r := textrange.New(in.Range.From+m.From, in.Range.From+m.To).Clamp(in.Range.To)
		if r.Empty() {
			continue
		}
		outputs = append(outputs, validate.Output{
			ID:          fmt.Sprintf("%s:%d:%d", m.Category, r.From, r.To),
			Range:       r,
			Text:        sliceInput(in.Text, m.From, m.To),
			Message:     m.Message,
			Category:    categoryByID(m.Category),
			Suggestions: m.Suggestions,
		})
	}
	c.log.Debug("llm check %s produced %d matches", in.ID, len(outputs))
	return outputs, nil
}

// Categories implements checker.Checker.
func (c *Checker) Categories(_ context.Context) ([]validate.Category, error) {
	cats := make([]validate.Category, len(builtinCategories))
	copy(cats, builtinCategories)
	return cats, nil
}

// parseMatches decodes the model's reply, tolerating stray code fences.
func parseMatches(content string) ([]llmMatch, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var matches []llmMatch
	if err := json.Unmarshal([]byte(content), &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func sliceInput(text string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if to <= from {
		return ""
	}
	return text[from:to]
}

func categoryByID(id string) validate.Category {
	for _, cat := range builtinCategories {
		if cat.ID == id {
			return cat
		}
	}
	return validate.Category{ID: id, Name: id}
}
