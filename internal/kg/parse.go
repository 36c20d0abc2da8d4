package kg

import (
	"fmt"
	"os"

	"kgtool/internal/logger"
)

// ParseFile reads path and parses it with Parse.
func ParseFile(path string) (*Payload, *Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse turns a chunked extraction export into a payload. Nothing is
// returned unless the whole input validates.
func Parse(text string) (*Payload, *Report, error) {
	p := &Payload{
		Entities:      []Entity{},
		Relationships: []Relationship{},
		Chunks:        []Chunk{},
	}

	for _, seg := range SplitChunks(text) {
		sourceID := seg.SourceID()

		if original, ok := ExtractOriginalText(seg.Text); ok {
			p.Chunks = append(p.Chunks, Chunk{
				Content:          original,
				SourceID:         sourceID,
				SourceChunkIndex: seg.Index,
			})
			logger.Debug("Chunk extracted", "chunk", seg.ID, "chars", len(original))
		} else {
			logger.Warn("Chunk has no original text", "chunk", seg.ID)
		}

		p.Entities = append(p.Entities, ExtractEntities(seg.Text, sourceID)...)
		p.Relationships = append(p.Relationships, ExtractRelationships(seg.Text, sourceID)...)
	}

	logger.Info("Parse complete",
		"entities", len(p.Entities),
		"relationships", len(p.Relationships),
		"chunks", len(p.Chunks))

	report, err := Validate(p.Entities, p.Relationships, p.Chunks)
	if err != nil {
		return nil, nil, err
	}
	return p, report, nil
}
