package domain

import "strings"

// Chunk is a bounded text window cut from a longer document. Start and
// End are rune offsets into the trimmed source text.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// ChunkText splits text into windows of chunkSize runes where each
// window repeats the last overlap runes of the previous one. Windows
// are measured in runes so a multi-byte character is never split at a
// window edge. Windows that are empty after trimming are dropped.
// Pure function of its arguments.
//
// The advance step is clamped to at least one rune: with
// overlap >= chunkSize the window would otherwise never move forward.
func ChunkText(text string, chunkSize, overlap int) []Chunk {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}

	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	n := len(runes)
	for i := 0; i < n; i += step {
		j := i + chunkSize
		if j > n {
			j = n
		}
		if window := strings.TrimSpace(string(runes[i:j])); window != "" {
			chunks = append(chunks, Chunk{Text: window, Start: i, End: j})
		}
		if j == n {
			break
		}
	}
	return chunks
}
