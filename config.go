package vitalia

import "time"

type ProviderConfig struct {
	Name               string  `env:"VITALIA_PROVIDER,default=gemini"`
	ModelID            string  `env:"MODEL_ID,default=gemini-2.5-flash-preview-09-2025"`
	APIKey             string  `env:"GEMINI_API_KEY"`
	BaseGeminiEndpoint string  `env:"BASE_GEMINI_ENDPOINT,default=https://generativelanguage.googleapis.com/v1beta"`
	BaseOllamaEndpoint string  `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	MaxTokens          int32   `env:"MAX_TOKENS,default=1024"`
	Temperature        float32 `env:"TEMPERATURE,default=0.2"`
	TopP               float32 `env:"TOP_P,default=0.9"`
}

// RetryConfig controls the backoff applied to every outbound completion request.
// MaxRetries counts retries after the first attempt.
type RetryConfig struct {
	MaxRetries     int           `env:"MAX_RETRIES,default=5"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF,default=1s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
}

type AppConfig struct {
	ArtifactsPantryPath  string `env:"ARTIFACTS_PANTRY_PATH"`
	ArtifactsS3Bucket    string `env:"ARTIFACTS_S3_BUCKET"`
	ArtifactsPantryS3Key string `env:"ARTIFACTS_PANTRY_S3_KEY"`
	SlackWebhookURL      string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel         string `env:"SLACK_CHANNEL,default=#vitalia"`
	ListenAddr           string `env:"LISTEN_ADDR,default=:8080"`
	ExchangeLogDir       string `env:"EXCHANGE_LOG_DIR,default=./logs"`
}
