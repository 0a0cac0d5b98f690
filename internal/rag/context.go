package rag

import (
	"fmt"
	"strings"

	"policyrag/internal/models"
)

// BuildContext formats retrieved chunks as one grounding block per chunk,
// labeled by rank position ("[Chunk 1]", "[Chunk 2]", ...), in the order
// given. The labels are what the generator cites, so they must stay stable.
// No results yields an empty string.
func BuildContext(results []models.RetrievedChunk) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Chunk %d] %s", i+1, r.Text)
	}
	return strings.Join(blocks, "\n\n")
}
