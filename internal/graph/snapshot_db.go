package graph

import (
	"kgtool/internal/db"
	"kgtool/internal/kg"
)

// SnapshotFromDB loads the entity graph from the store
func SnapshotFromDB(d *db.DB) (*GraphSnapshot, error) {
	dbNodes, err := d.AllNodes(db.KindEntity)
	if err != nil {
		return nil, err
	}
	dbEdges, err := d.AllEdges()
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(dbNodes))
	nodes := make([]*NodeInfo, 0, len(dbNodes))
	for _, n := range dbNodes {
		names[n.ID] = n.Name
		entityType := ""
		if n.EntityType != nil {
			entityType = *n.EntityType
		}
		nodes = append(nodes, &NodeInfo{
			Name:        n.Name,
			EntityType:  entityType,
			Placeholder: n.Placeholder,
		})
	}

	edges := make([]EdgeInfo, 0, len(dbEdges))
	for _, e := range dbEdges {
		keywords := ""
		if e.Keywords != nil {
			keywords = *e.Keywords
		}
		edges = append(edges, EdgeInfo{
			Source:   names[e.SourceID],
			Target:   names[e.TargetID],
			Weight:   e.Weight,
			Keywords: keywords,
		})
	}

	return NewSnapshot(nodes, edges), nil
}

// SnapshotFromPayload builds the entity graph a payload would produce once
// stored: undefined relationship endpoints become placeholder nodes.
func SnapshotFromPayload(p *kg.Payload) *GraphSnapshot {
	nodes := make([]*NodeInfo, 0, len(p.Entities))
	defined := make(map[string]bool, len(p.Entities))
	for _, e := range p.Entities {
		if defined[e.EntityName] {
			continue
		}
		defined[e.EntityName] = true
		nodes = append(nodes, &NodeInfo{Name: e.EntityName, EntityType: e.EntityType})
	}

	edges := make([]EdgeInfo, 0, len(p.Relationships))
	for _, r := range p.Relationships {
		for _, name := range []string{r.SrcID, r.TgtID} {
			if !defined[name] {
				defined[name] = true
				nodes = append(nodes, &NodeInfo{Name: name, EntityType: db.PlaceholderType, Placeholder: true})
			}
		}
		edges = append(edges, EdgeInfo{
			Source:   r.SrcID,
			Target:   r.TgtID,
			Weight:   r.Weight,
			Keywords: r.Keywords,
		})
	}

	return NewSnapshot(nodes, edges)
}
