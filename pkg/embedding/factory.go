package embedding

import "fmt"

// NewProvider selects the embedding backend by name
func NewProvider(providerType, baseURL, model, apiKey string) (Provider, error) {
	switch providerType {
	case "ollama", "":
		return NewOllamaProvider(baseURL, model), nil
	case "gemini":
		return NewGeminiProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
