package factory

import (
	"fmt"

	"voc-chatbot-be/pkg/llm"
	"voc-chatbot-be/pkg/llm/huggingface"
	"voc-chatbot-be/pkg/llm/ollama"
)

func NewProvider(providerType, modelName, baseURL, apiKey string) (llm.Provider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
