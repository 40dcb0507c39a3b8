package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Fatalf("chunks = %v, want the input unchanged", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	chunks := SplitText(text, 60, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Consecutive chunks share the overlap region.
	tail := chunks[0][len(chunks[0])-20:]
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("chunk 1 does not start with the 20-char tail of chunk 0")
	}

	// No content is lost.
	joined := chunks[0]
	for i := 1; i < len(chunks); i++ {
		joined += chunks[i][20:]
	}
	if joined != text {
		t.Error("reassembled chunks do not match the input")
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := SplitText(text, 10, 15)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 non-overlapping chunks, got %d", len(chunks))
	}
}
