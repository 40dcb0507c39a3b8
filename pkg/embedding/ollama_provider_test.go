package embedding

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerateNormalizesVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": [3, 4]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	res, err := p.Generate(context.Background(), "hello", TaskQuery)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	values := res.Embedding.Values
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	var magnitude float64
	for _, v := range values {
		magnitude += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(magnitude)-1) > 1e-6 {
		t.Errorf("vector magnitude = %v, want 1", math.Sqrt(magnitude))
	}
}

func TestOllamaGenerateHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the request open until the client gives up.
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewOllamaProvider(srv.URL, "nomic-embed-text")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(ctx, "hello", TaskQuery)
	if err == nil {
		t.Fatal("expected an error once the context deadline expired")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Generate blocked %v past the deadline", elapsed)
	}
}
