package util

import "strings"

// ChunkText splits text into overlapping windows of at most chunkSize runes.
// Consecutive windows share overlap runes so passage boundaries do not cut
// sentences off from their context. Blank windows are dropped.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	step := chunkSize - overlap

	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
