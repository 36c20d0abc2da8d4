package kg

import (
	"errors"
	"fmt"

	"kgtool/internal/logger"
)

// ErrDataIntegrity marks input that cannot be turned into a knowledge graph.
var ErrDataIntegrity = errors.New("data integrity")

// maxListedMissing caps how many undefined entity names are logged.
const maxListedMissing = 10

// EndpointPair identifies a relationship by its endpoints
type EndpointPair struct {
	Src string `json:"src_id"`
	Tgt string `json:"tgt_id"`
}

// Report holds the non-fatal findings of Validate
type Report struct {
	UniqueEntities int `json:"unique_entities"`
	// MissingEntities lists relationship endpoints that are not defined as
	// entities, in order of first reference.
	MissingEntities []string       `json:"missing_entities"`
	MissingKeywords []EndpointPair `json:"missing_keywords"`
}

// Validate checks the assembled records. It returns an error wrapping
// ErrDataIntegrity for empty names, types, endpoints, or when no chunk
// survived; everything else is reported as a warning.
func Validate(entities []Entity, relationships []Relationship, chunks []Chunk) (*Report, error) {
	names := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if e.EntityName == "" {
			logger.Error("Empty entity name", "entity", fmt.Sprintf("%+v", e))
			return nil, fmt.Errorf("%w: entity name cannot be empty: %+v", ErrDataIntegrity, e)
		}
		if e.EntityType == "" {
			logger.Error("Empty entity type", "entity", fmt.Sprintf("%+v", e))
			return nil, fmt.Errorf("%w: entity type cannot be empty: %+v", ErrDataIntegrity, e)
		}
		names[e.EntityName] = struct{}{}
	}
	logger.Info("Entities validated", "unique", len(names))

	report := &Report{UniqueEntities: len(names)}
	seen := make(map[string]bool)
	addMissing := func(name string) {
		if _, ok := names[name]; ok || seen[name] {
			return
		}
		seen[name] = true
		report.MissingEntities = append(report.MissingEntities, name)
	}

	for _, r := range relationships {
		if r.SrcID == "" {
			logger.Error("Empty relationship source", "relationship", fmt.Sprintf("%+v", r))
			return nil, fmt.Errorf("%w: source id cannot be empty: %+v", ErrDataIntegrity, r)
		}
		if r.TgtID == "" {
			logger.Error("Empty relationship target", "relationship", fmt.Sprintf("%+v", r))
			return nil, fmt.Errorf("%w: target id cannot be empty: %+v", ErrDataIntegrity, r)
		}
		if r.Keywords == "" {
			logger.Warn("Relationship missing keywords", "src", r.SrcID, "tgt", r.TgtID)
			report.MissingKeywords = append(report.MissingKeywords, EndpointPair{Src: r.SrcID, Tgt: r.TgtID})
		}
		addMissing(r.SrcID)
		addMissing(r.TgtID)
	}

	if n := len(report.MissingEntities); n > 0 {
		logger.Warn("Relationships reference undefined entities", "count", n)
		for i, name := range report.MissingEntities {
			if i == maxListedMissing {
				logger.Warn(fmt.Sprintf("... and %d more", n-maxListedMissing))
				break
			}
			logger.Warn("Undefined entity", "name", name)
		}
	} else {
		logger.Info("Relationships validated: all endpoints defined")
	}

	if len(chunks) == 0 {
		logger.Error("No text chunks found")
		return nil, fmt.Errorf("%w: no chunks found", ErrDataIntegrity)
	}
	logger.Info("Chunks validated", "count", len(chunks))

	return report, nil
}
