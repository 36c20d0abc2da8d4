package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"kgtool/internal/kg"
	"kgtool/internal/logger"
)

var _ kg.Sink = (*DB)(nil)

// InsertCustomKG stores a parsed payload in one transaction. Chunks and
// entities are upserted by name; repeated entities and relationships merge
// their descriptions and chunk references. Relationship endpoints that are
// not defined as entities get a placeholder node.
func (d *DB) InsertCustomKG(ctx context.Context, p *kg.Payload) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	w := &writer{
		tx:       tx,
		ctx:      ctx,
		fts:      d.hasFTS,
		now:      time.Now().UnixMilli(),
		tallies:  tallyTypes(p.Entities),
		resolved: make(map[string]string),
	}

	for _, c := range p.Chunks {
		if err := w.upsertChunk(c); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.SourceID, err)
		}
	}
	for _, e := range p.Entities {
		if err := w.upsertEntity(e); err != nil {
			return fmt.Errorf("inserting entity %q: %w", e.EntityName, err)
		}
	}
	for _, r := range p.Relationships {
		if err := w.upsertRelationship(r); err != nil {
			return fmt.Errorf("inserting relationship %q -> %q: %w", r.SrcID, r.TgtID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	logger.Info("Knowledge graph stored",
		"chunks", len(p.Chunks),
		"entities", len(p.Entities),
		"relationships", len(p.Relationships),
		"placeholders", w.placeholders,
		"db", d.Path)
	return nil
}

type writer struct {
	tx           *sql.Tx
	ctx          context.Context
	fts          bool
	now          int64
	placeholders int

	tallies  map[string]*typeTally
	resolved map[string]string // entity name -> type chosen for this payload
}

// typeTally counts the types given to one entity name, in first-seen order.
type typeTally struct {
	order  []string
	counts map[string]int
}

func (t *typeTally) add(entityType string) {
	if t.counts[entityType] == 0 {
		t.order = append(t.order, entityType)
	}
	t.counts[entityType]++
}

func tallyTypes(entities []kg.Entity) map[string]*typeTally {
	tallies := make(map[string]*typeTally)
	for _, e := range entities {
		t, ok := tallies[e.EntityName]
		if !ok {
			t = &typeTally{counts: make(map[string]int)}
			tallies[e.EntityName] = t
		}
		t.add(e.EntityType)
	}
	return tallies
}

// entityType returns the most frequent type among the payload's definitions
// of name plus the stored type, if any. Ties go to the type seen first, the
// stored type counting last.
func (w *writer) entityType(name, stored string) string {
	if t, ok := w.resolved[name]; ok {
		return t
	}

	t := &typeTally{counts: make(map[string]int)}
	if batch, ok := w.tallies[name]; ok {
		for _, et := range batch.order {
			t.order = append(t.order, et)
			t.counts[et] = batch.counts[et]
		}
	}
	if stored != "" {
		t.add(stored)
	}

	best := ""
	for _, et := range t.order {
		if best == "" || t.counts[et] > t.counts[best] {
			best = et
		}
	}
	w.resolved[name] = best
	return best
}

func (w *writer) upsertChunk(c kg.Chunk) error {
	id, err := w.lookup(KindChunk, c.SourceID)
	if err != nil {
		return err
	}
	if id == "" {
		id = uuid.NewString()
		_, err = w.tx.ExecContext(w.ctx, `
			INSERT INTO nodes (id, kind, name, content, chunk_id, chunk_index, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, KindChunk, c.SourceID, c.Content, c.SourceID, c.SourceChunkIndex, w.now, w.now)
	} else {
		_, err = w.tx.ExecContext(w.ctx, `
			UPDATE nodes SET content = ?, chunk_index = ?, updated_at = ? WHERE id = ?
		`, c.Content, c.SourceChunkIndex, w.now, id)
	}
	if err != nil {
		return err
	}
	return w.index(id, c.SourceID, "", c.Content)
}

func (w *writer) upsertEntity(e kg.Entity) error {
	var (
		id          string
		storedType  sql.NullString
		description sql.NullString
		chunkID     sql.NullString
		placeholder bool
	)
	err := w.tx.QueryRowContext(w.ctx, `
		SELECT id, entity_type, description, chunk_id, placeholder FROM nodes WHERE kind = ? AND name = ?
	`, KindEntity, e.EntityName).Scan(&id, &storedType, &description, &chunkID, &placeholder)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = w.tx.ExecContext(w.ctx, `
			INSERT INTO nodes (id, kind, name, entity_type, description, chunk_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, KindEntity, e.EntityName, w.entityType(e.EntityName, ""), e.Description, e.SourceID, w.now, w.now)
		if err != nil {
			return err
		}
		return w.index(id, e.EntityName, e.Description, "")
	case err != nil:
		return err
	}

	// A placeholder is replaced outright by the real definition.
	merged := e.Description
	chunks := e.SourceID
	stored := ""
	if !placeholder {
		merged = mergeField(description.String, e.Description)
		chunks = mergeField(chunkID.String, e.SourceID)
		stored = storedType.String
	}
	_, err = w.tx.ExecContext(w.ctx, `
		UPDATE nodes SET entity_type = ?, description = ?, chunk_id = ?, placeholder = 0, updated_at = ?
		WHERE id = ?
	`, w.entityType(e.EntityName, stored), merged, chunks, w.now, id)
	if err != nil {
		return err
	}
	return w.index(id, e.EntityName, merged, "")
}

func (w *writer) upsertRelationship(r kg.Relationship) error {
	srcID, err := w.ensureEndpoint(r.SrcID, r.SourceID)
	if err != nil {
		return err
	}
	tgtID, err := w.ensureEndpoint(r.TgtID, r.SourceID)
	if err != nil {
		return err
	}

	var (
		id          string
		description sql.NullString
		keywords    sql.NullString
		chunkID     sql.NullString
		weight      float64
	)
	err = w.tx.QueryRowContext(w.ctx, `
		SELECT id, description, keywords, chunk_id, weight FROM edges WHERE source_id = ? AND target_id = ?
	`, srcID, tgtID).Scan(&id, &description, &keywords, &chunkID, &weight)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = w.tx.ExecContext(w.ctx, `
			INSERT INTO edges (id, source_id, target_id, description, keywords, weight, chunk_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), srcID, tgtID, r.Description, r.Keywords, r.Weight, r.SourceID, w.now, w.now)
		return err
	case err != nil:
		return err
	}

	_, err = w.tx.ExecContext(w.ctx, `
		UPDATE edges SET description = ?, keywords = ?, weight = ?, chunk_id = ?, updated_at = ?
		WHERE id = ?
	`, mergeField(description.String, r.Description),
		mergeKeywords(keywords.String, r.Keywords),
		weight+r.Weight,
		mergeField(chunkID.String, r.SourceID),
		w.now, id)
	return err
}

// ensureEndpoint returns the node ID for an entity name, creating a
// placeholder entity if the name is unknown.
func (w *writer) ensureEndpoint(name, chunkRef string) (string, error) {
	id, err := w.lookup(KindEntity, name)
	if err != nil || id != "" {
		return id, err
	}
	id = uuid.NewString()
	_, err = w.tx.ExecContext(w.ctx, `
		INSERT INTO nodes (id, kind, name, entity_type, description, chunk_id, placeholder, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`, id, KindEntity, name, PlaceholderType, PlaceholderType, chunkRef, w.now, w.now)
	if err != nil {
		return "", err
	}
	w.placeholders++
	logger.Debug("Created placeholder entity", "name", name)
	return id, w.index(id, name, "", "")
}

func (w *writer) lookup(kind, name string) (string, error) {
	var id string
	err := w.tx.QueryRowContext(w.ctx, `SELECT id FROM nodes WHERE kind = ? AND name = ?`, kind, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (w *writer) index(id, name, description, content string) error {
	if !w.fts {
		return nil
	}
	if _, err := w.tx.ExecContext(w.ctx, `DELETE FROM nodes_fts WHERE node_id = ?`, id); err != nil {
		return fmt.Errorf("updating search index: %w", err)
	}
	_, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO nodes_fts (node_id, name, description, content) VALUES (?, ?, ?, ?)
	`, id, name, description, content)
	if err != nil {
		return fmt.Errorf("updating search index: %w", err)
	}
	return nil
}

// mergeField appends value to a GraphFieldSep-joined list unless it is
// already present or empty.
func mergeField(existing, value string) string {
	if existing == "" {
		return value
	}
	if value == "" {
		return existing
	}
	for _, part := range strings.Split(existing, GraphFieldSep) {
		if part == value {
			return existing
		}
	}
	return existing + GraphFieldSep + value
}

// mergeKeywords unions two comma-separated keyword lists, keeping first-seen order.
func mergeKeywords(existing, value string) string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range []string{existing, value} {
		for _, kw := range strings.Split(list, ",") {
			kw = strings.TrimSpace(kw)
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return strings.Join(out, ", ")
}
