package db

// Node kinds
const (
	KindEntity = "entity"
	KindChunk  = "chunk"
)

// PlaceholderType is the entity type given to relationship endpoints that
// were never defined as entities.
const PlaceholderType = "UNKNOWN"

// GraphFieldSep joins merged descriptions and chunk references.
const GraphFieldSep = "<SEP>"

// Node represents a row in the nodes table
type Node struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	EntityType  *string `json:"entity_type"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	ChunkID     *string `json:"chunk_id"`
	ChunkIndex  *int    `json:"chunk_index"`
	Placeholder bool    `json:"placeholder"`
	CreatedAt   int64   `json:"created_at"` // Unix millis
	UpdatedAt   int64   `json:"updated_at"` // Unix millis
}

// Edge represents a row in the edges table
type Edge struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id"`
	TargetID    string  `json:"target_id"`
	Description *string `json:"description"`
	Keywords    *string `json:"keywords"`
	Weight      float64 `json:"weight"`
	ChunkID     *string `json:"chunk_id"`
	CreatedAt   int64   `json:"created_at"` // Unix millis
	UpdatedAt   int64   `json:"updated_at"`
}
