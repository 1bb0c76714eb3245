package provider

import (
	"testing"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBedrockLoadOptions(t *testing.T) {
	var lo awsconfig.LoadOptions
	for _, opt := range bedrockLoadOptions() {
		require.NoError(t, opt(&lo))
	}

	// one SDK attempt per Retrier attempt
	assert.Equal(t, 1, lo.RetryMaxAttempts)
}

func TestLenientJSON(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: NameGemini, want: false},
		{name: NameGeminiSDK, want: false},
		{name: NameOllama, want: false},
		{name: NameBedrock, want: true},
		{name: NameMock, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LenientJSON(tt.name))
		})
	}
}
