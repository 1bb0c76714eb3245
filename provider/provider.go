// Package provider builds the configured Generator.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"vitalia"
	"vitalia/provider/bedrock"
	"vitalia/provider/gemini"
	"vitalia/provider/mock"
	"vitalia/provider/ollama"
	"vitalia/transport"
)

const (
	NameGemini    = "gemini"
	NameGeminiSDK = "gemini-sdk"
	NameOllama    = "ollama"
	NameBedrock   = "bedrock"
	NameMock      = "mock"
)

// Names lists every supported provider.
var Names = []string{NameGemini, NameGeminiSDK, NameOllama, NameBedrock, NameMock}

func noopClose() error { return nil }

// LenientJSON reports whether the named provider may wrap structured
// responses in prose. Bedrock only gets a system instruction asking for JSON;
// the others request a JSON response mode.
func LenientJSON(name string) bool {
	return name == NameBedrock
}

// bedrockLoadOptions turns off the SDK retryer so that the provider's
// Retrier is the only retry layer.
func bedrockLoadOptions() []func(*awsconfig.LoadOptions) error {
	return []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
}

// New returns the Generator named by cfg.Name and a function releasing its
// resources. A nil httpClient is replaced by one honoring retry.RequestTimeout.
func New(ctx context.Context, cfg vitalia.ProviderConfig, retry vitalia.RetryConfig, httpClient vitalia.HTTPClient) (vitalia.Generator, func() error, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: retry.RequestTimeout}
	}
	policy := transport.PolicyFromConfig(retry)

	slog.Info("SETUP: Creating provider",
		"provider", cfg.Name,
		"model", cfg.ModelID,
		"max_retries", policy.MaxRetries,
		"initial_backoff", policy.InitialBackoff,
	)

	switch cfg.Name {
	case NameGemini:
		c, err := gemini.NewClient(gemini.ClientOpts{
			BaseEndpoint: cfg.BaseGeminiEndpoint,
			ModelID:      cfg.ModelID,
			APIKey:       cfg.APIKey,
			Sender:       transport.NewClient(httpClient, policy),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return c, noopClose, nil

	case NameGeminiSDK:
		c, err := gemini.NewSDKClient(ctx, cfg.APIKey, cfg.ModelID, policy)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case NameOllama:
		c, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.BaseOllamaEndpoint,
			ModelID:      cfg.ModelID,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			Sender:       transport.NewClient(httpClient, policy),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return c, noopClose, nil

	case NameBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, bedrockLoadOptions()...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		c := bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Options{
			ModelID:     cfg.ModelID,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}, policy)
		return c, noopClose, nil

	case NameMock:
		c, err := mock.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return c, noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider %q (supported: %v)", cfg.Name, Names)
	}
}
