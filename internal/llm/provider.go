package llm

import (
	"fmt"
	"net/http"

	"github.com/quorumlabs/quorum/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// NewClient creates a capability client for the given provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(provider, apiKey string) (domain.CapabilityClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return &Client{c: &openAICompleter{apiKey: apiKey, httpClient: &http.Client{}}}, nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return &Client{c: &geminiCompleter{apiKey: apiKey, httpClient: &http.Client{}}}, nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: openai, gemini, mock)", provider)
	}
}
