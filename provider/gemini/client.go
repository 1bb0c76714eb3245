// Package gemini calls the Gemini generateContent API, over REST by default
// or through the official SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"vitalia"
)

const jsonMimeType = "application/json"

type sender interface {
	Send(ctx context.Context, endpoint string, payload any, out any) error
}

// Client is the REST client. Retries and backoff are the sender's concern.
type Client struct {
	endpoint string
	model    string
	sender   sender
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	APIKey       string
	Sender       sender
}

// NewClient does not validate the API key; a missing key surfaces as a
// request failure once retries run out.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.ModelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("sender is required")
	}

	return &Client{
		endpoint: fmt.Sprintf("%s/models/%s:generateContent?key=%s",
			strings.TrimRight(opts.BaseEndpoint, "/"),
			opts.ModelID,
			url.QueryEscape(opts.APIKey),
		),
		model:  opts.ModelID,
		sender: opts.Sender,
	}, nil
}

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type wireRequest struct {
	Contents         []wireContent     `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type wireCandidate struct {
	Content      wireContent `json:"content"`
	FinishReason string      `json:"finishReason,omitempty"`
}

type wireResponse struct {
	Candidates []wireCandidate `json:"candidates"`
}

func newWireRequest(prompt vitalia.Prompt) wireRequest {
	req := wireRequest{
		Contents: []wireContent{{Parts: []wirePart{{Text: prompt.Text}}}},
	}
	if prompt.Structured {
		req.GenerationConfig = &generationConfig{ResponseMimeType: jsonMimeType}
	}
	return req
}

// Generate returns the text of the first part of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked",
		"model", c.model,
		"operation", prompt.Operation,
		"structured", prompt.Structured,
		"prompt_len", len(prompt.Text),
	)

	var wr wireResponse
	if err := c.sender.Send(ctx, c.endpoint, newWireRequest(prompt), &wr); err != nil {
		return "", err
	}

	if len(wr.Candidates) == 0 || len(wr.Candidates[0].Content.Parts) == 0 {
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "response has no candidate text"}
	}

	text := wr.Candidates[0].Content.Parts[0].Text
	slog.Info("LLM_CLIENT: Response received",
		"operation", prompt.Operation,
		"finish_reason", wr.Candidates[0].FinishReason,
		"content_len", len(text),
	)
	return text, nil
}
