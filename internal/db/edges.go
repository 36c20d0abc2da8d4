package db

import "database/sql"

const edgeColumns = `id, source_id, target_id, description, keywords, weight,
	chunk_id, created_at, updated_at`

// scanEdge scans a row into an Edge. The row must have all 9 columns in standard order.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	err := scanner.Scan(
		&e.ID, &e.SourceID, &e.TargetID, &e.Description, &e.Keywords, &e.Weight,
		&e.ChunkID, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func collectEdges(rows *sql.Rows) ([]Edge, error) {
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// AllEdges returns all edges in insertion order
func (d *DB) AllEdges() ([]Edge, error) {
	rows, err := d.conn.Query(`SELECT ` + edgeColumns + ` FROM edges ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	return collectEdges(rows)
}

// EdgesForEntity returns all edges where the named entity is source OR target.
func (d *DB) EdgesForEntity(name string) ([]Edge, error) {
	n, err := d.GetEntity(name)
	if err != nil || n == nil {
		return nil, err
	}
	rows, err := d.conn.Query(`
		SELECT `+edgeColumns+`
		FROM edges WHERE source_id = ? OR target_id = ?
		ORDER BY weight DESC, rowid
	`, n.ID, n.ID)
	if err != nil {
		return nil, err
	}
	return collectEdges(rows)
}

// CountEdges returns the number of edges.
func (d *DB) CountEdges() (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count)
	return count, err
}
