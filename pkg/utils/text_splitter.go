package utils

// Chunking defaults for knowledge-case documents. One chunk stays well
// inside the embedding models' context limits; the overlap keeps a symptom
// list readable when it straddles a boundary.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
)

// SplitText cuts text into rune-based chunks of roughly chunkSize, carrying
// 'overlap' runes between neighbours. Inputs that fit in one chunk come back
// unchanged. The split is character-based, not token-aware; embedding
// backends tolerate a cut mid-word better than a dropped tail.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		// Degenerate overlap: fall back to disjoint chunks.
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
