package chunker

import (
	"errors"
	"fmt"
	"strings"

	"videoquiz/internal/models"
)

// DefaultMaxWords is the chunk size used when none is configured
const DefaultMaxWords = 2000

// ErrInvalidArgument is returned for a non-positive chunk size
var ErrInvalidArgument = errors.New("invalid argument")

// Split breaks a transcript into chunks of at most maxWords whitespace-delimited words.
// Words inside a chunk are re-joined with single spaces. An empty transcript yields
// exactly one chunk with empty content.
func Split(transcript string, maxWords int) ([]models.TranscriptChunk, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("%w: max words must be positive, got %d", ErrInvalidArgument, maxWords)
	}

	words := strings.Fields(transcript)
	if len(words) == 0 {
		return []models.TranscriptChunk{{ChunkID: 1, Content: ""}}, nil
	}

	numChunks := (len(words) + maxWords - 1) / maxWords
	chunks := make([]models.TranscriptChunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * maxWords
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.TranscriptChunk{
			ChunkID: i + 1,
			Content: strings.Join(words[start:end], " "),
		})
	}
	return chunks, nil
}

// Join reassembles chunk contents with the given separator
func Join(chunks []models.TranscriptChunk, sep string) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, sep)
}
