// Package bedrock generates completions with the Amazon Bedrock Converse API.
package bedrock

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"vitalia"
	"vitalia/transport"
)

const (
	// defaultModelID is an inference profile ID, not a foundation model ID.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// A full daily plan with steps does not fit in 1k tokens.
	defaultMaxTokens = 4096

	defaultTemperature = 0.2
	defaultTopP        = 0.9

	jsonOnlyInstruction = "Responde únicamente con un objeto JSON válido, sin texto adicional ni bloques de código."
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Client struct {
	brc     bedrockRuntimeClient
	opts    Options
	retrier *transport.Retrier
}

func NewClient(brc bedrockRuntimeClient, opts Options, policy transport.Policy) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{
		brc:     brc,
		opts:    opts,
		retrier: transport.NewRetrier(policy),
	}
}

func (c *Client) buildInput(prompt vitalia.Prompt) *bedrockruntime.ConverseInput {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.ModelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt.Text}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}
	if prompt.Structured {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: jsonOnlyInstruction}}
	}
	return in
}

// Generate retries failed Converse calls. A response that stopped early is a
// validation failure and is not retried.
func (c *Client) Generate(ctx context.Context, prompt vitalia.Prompt) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "operation", prompt.Operation, "prompt_len", len(prompt.Text))

	in := c.buildInput(prompt)

	var out *bedrockruntime.ConverseOutput
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		o, err := c.brc.Converse(ctx, in)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "operation", prompt.Operation, "error", err)
		return "", err
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	switch out.StopReason {
	case "max_tokens":
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit")
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "model hit MaxTokens limit"}

	case "guardrail_intervened", "content_filtered":
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "response blocked by safety filters"}
	}

	text := textFromOutput(out)
	if text == "" {
		return "", &vitalia.ValidationError{Operation: prompt.Operation, Reason: "response has no text content"}
	}
	return text, nil
}

// textFromOutput joins the non-empty text blocks of the assistant message.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	return strings.Join(texts, "\n")
}
