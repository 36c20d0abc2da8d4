package kg

import (
	"regexp"
	"strconv"
	"strings"

	"kgtool/internal/logger"
)

var chunkMarker = regexp.MustCompile(`No\.: (\d+) of all the chunks`)

// Segment is the text between one chunk marker and the next
type Segment struct {
	ID    string // digits as written in the marker
	Index int
	Text  string // trimmed
}

// SourceID returns the chunk reference used by entities and relationships.
func (s Segment) SourceID() string {
	return "chunk_" + s.ID
}

// MarkerCount returns how many chunk markers appear in text.
func MarkerCount(text string) int {
	return len(chunkMarker.FindAllStringIndex(text, -1))
}

// SplitChunks cuts text at every chunk marker. Segments whose body is empty
// after trimming are dropped with a warning.
func SplitChunks(text string) []Segment {
	matches := chunkMarker.FindAllStringSubmatchIndex(text, -1)
	logger.Info("Located chunk markers", "count", len(matches))

	segments := make([]Segment, 0, len(matches))
	for i, m := range matches {
		id := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		body := strings.TrimSpace(text[m[1]:end])
		if body == "" {
			logger.Warn("Chunk body is empty, skipping", "chunk", id)
			continue
		}

		index, err := strconv.Atoi(id)
		if err != nil {
			logger.Warn("Chunk index out of range, skipping", "chunk", id, "err", err)
			continue
		}

		segments = append(segments, Segment{ID: id, Index: index, Text: body})
	}
	return segments
}
