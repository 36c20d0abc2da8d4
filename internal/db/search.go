package db

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// BuildFTSQuery preprocesses a natural language query for FTS5.
// Splits on whitespace, removes stopwords and words < 3 chars, trims punctuation,
// quotes each term and joins with " OR ".
func BuildFTSQuery(query string) string {
	words := strings.Fields(query)
	var filtered []string
	for _, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if len([]rune(trimmed)) < 3 {
			continue
		}
		if stopwords[strings.ToLower(trimmed)] {
			continue
		}
		filtered = append(filtered, `"`+strings.ReplaceAll(trimmed, `"`, `""`)+`"`)
	}
	return strings.Join(filtered, " OR ")
}

// SearchNodes performs FTS5 search over entity names, descriptions and chunk
// text. Returns empty slice if the preprocessed query is empty or FTS is unavailable.
func (d *DB) SearchNodes(query string, limit int) ([]Node, error) {
	ftsQuery := BuildFTSQuery(query)
	if ftsQuery == "" || !d.hasFTS {
		return []Node{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.conn.Query(`
		SELECT n.id, n.kind, n.name, n.entity_type, n.description, n.content,
		       n.chunk_id, n.chunk_index, n.placeholder, n.created_at, n.updated_at
		FROM nodes_fts
		JOIN nodes n ON n.id = nodes_fts.node_id
		WHERE nodes_fts MATCH ?1
		ORDER BY nodes_fts.rank
		LIMIT ?2
	`, ftsQuery, limit)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return []Node{}, nil
		}
		return nil, err
	}
	nodes, err := collectNodes(rows)
	if nodes == nil && err == nil {
		nodes = []Node{}
	}
	return nodes, err
}
