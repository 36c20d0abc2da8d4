package kg

import "context"

// Chunk is the original text of one numbered chunk
type Chunk struct {
	Content          string `json:"content"`
	SourceID         string `json:"source_id"`          // "chunk_<N>"
	SourceChunkIndex int    `json:"source_chunk_index"` // <N>
}

// Entity is one ("entity"|name|type|description) record
type Entity struct {
	EntityName  string `json:"entity_name"`
	EntityType  string `json:"entity_type"`
	Description string `json:"description"`
	SourceID    string `json:"source_id"`
}

// Relationship is one ("relationship"|src|tgt|description|weight|keywords) record
type Relationship struct {
	SrcID       string  `json:"src_id"`
	TgtID       string  `json:"tgt_id"`
	Description string  `json:"description"`
	Keywords    string  `json:"keywords"`
	Weight      float64 `json:"weight"`
	SourceID    string  `json:"source_id"`
}

// Payload is the parsed knowledge graph handed to a Sink
type Payload struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Chunks        []Chunk        `json:"chunks"`
}

// Sink accepts an assembled payload. The SQLite store in internal/db
// implements it.
type Sink interface {
	InsertCustomKG(ctx context.Context, p *Payload) error
}
