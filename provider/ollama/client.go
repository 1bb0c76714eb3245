// Package ollama generates completions with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vitalia"
)

type sender interface {
	Send(ctx context.Context, endpoint string, payload any, out any) error
}

type options struct {
	Temperature   float32 `json:"temperature,omitempty"`
	TopP          float32 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

type Client struct {
	endpoint string
	model    string
	sender   sender
	options  options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	Temperature  float32
	TopP         float32
	Sender       sender
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.ModelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("sender is required")
	}

	return &Client{
		model:    opts.ModelID,
		sender:   opts.Sender,
		endpoint: strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			RepeatPenalty: 1.05,
			NumCtx:        8192,
		},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Format   string        `json:"format,omitempty"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Generate sends the prompt as a single user message. Structured prompts set
// the json format so the server constrains its output.
func (c *Client) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "operation", prompt.Operation, "prompt_len", len(prompt.Text))

	req := wireRequest{
		Model:    c.model,
		Messages: []wireMessage{{Role: "user", Content: prompt.Text}},
		Stream:   false,
		Options:  c.options,
	}
	if prompt.Structured {
		req.Format = "json"
	}

	var wr wireResponse
	if err := c.sender.Send(ctx, c.endpoint, req, &wr); err != nil {
		return "", err
	}

	if strings.TrimSpace(wr.Message.Content) == "" {
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "response has no message content"}
	}
	return wr.Message.Content, nil
}
