package embedding

import "context"

// Task types hint the backend how the vector will be used
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// Provider defines the interface for generating text embeddings. The
// context bounds the backend call; query-time embedding runs inside the
// turn budget.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) (*Response, error)
}

// ResponseEmbedding carries the vector values
type ResponseEmbedding struct {
	Values []float32 `json:"values"`
}

// Response is the provider-agnostic embedding result
type Response struct {
	Embedding ResponseEmbedding `json:"embedding"`
}
