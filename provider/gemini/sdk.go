package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"vitalia"
	"vitalia/transport"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// SDKClient calls Gemini through generative-ai-go. Every call goes through the
// same retry policy as the REST client.
type SDKClient struct {
	client     *genai.Client
	structured contentGenerator
	freeform   contentGenerator
	retrier    *transport.Retrier
}

func NewSDKClient(ctx context.Context, apiKey, modelID string, policy transport.Policy) (*SDKClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	structured := client.GenerativeModel(modelID)
	structured.ResponseMIMEType = jsonMimeType

	return &SDKClient{
		client:     client,
		structured: structured,
		freeform:   client.GenerativeModel(modelID),
		retrier:    transport.NewRetrier(policy),
	}, nil
}

func (c *SDKClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *SDKClient) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked via SDK",
		"operation", prompt.Operation,
		"structured", prompt.Structured,
		"prompt_len", len(prompt.Text),
	)

	model := c.freeform
	if prompt.Structured {
		model = c.structured
	}

	var resp *genai.GenerateContentResponse
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := model.GenerateContent(ctx, genai.Text(prompt.Text))
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", err
	}

	text, ok := textFromResponse(resp)
	if !ok {
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "response has no candidate text"}
	}
	return text, nil
}

// textFromResponse joins the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return "", false
	}

	var b strings.Builder
	found := false
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
			found = true
		}
	}
	return b.String(), found
}
