package db

import (
	"database/sql"
	"errors"
)

const nodeColumns = `id, kind, name, entity_type, description, content,
	chunk_id, chunk_index, placeholder, created_at, updated_at`

// scanNode scans a row into a Node. The row must have all 11 columns in standard order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	err := scanner.Scan(
		&n.ID, &n.Kind, &n.Name, &n.EntityType, &n.Description, &n.Content,
		&n.ChunkID, &n.ChunkIndex, &n.Placeholder, &n.CreatedAt, &n.UpdatedAt,
	)
	return n, err
}

func collectNodes(rows *sql.Rows) ([]Node, error) {
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// AllNodes returns every node of the given kind ordered by name.
// An empty kind returns all nodes.
func (d *DB) AllNodes(kind string) ([]Node, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if kind == "" {
		rows, err = d.conn.Query(`SELECT ` + nodeColumns + ` FROM nodes ORDER BY kind, name`)
	} else {
		rows, err = d.conn.Query(`SELECT `+nodeColumns+` FROM nodes WHERE kind = ? ORDER BY name`, kind)
	}
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// GetNode returns a single node by ID, or nil if not found
func (d *DB) GetNode(id string) (*Node, error) {
	row := d.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetEntity returns the entity node with the given name, or nil if not found
func (d *DB) GetEntity(name string) (*Node, error) {
	row := d.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE kind = ? AND name = ?`, KindEntity, name)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CountNodes returns the number of nodes of the given kind.
func (d *DB) CountNodes(kind string) (int, error) {
	var count int
	err := d.conn.QueryRow("SELECT COUNT(*) FROM nodes WHERE kind = ?", kind).Scan(&count)
	return count, err
}
