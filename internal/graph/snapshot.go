package graph

import "sort"

// NodeInfo is an entity as seen by the analyzers, decoupled from DB types
type NodeInfo struct {
	Name        string
	EntityType  string
	Placeholder bool // referenced by a relationship but never defined
}

// EdgeInfo is a relationship between two entity names
type EdgeInfo struct {
	Source   string
	Target   string
	Weight   float64
	Keywords string
}

// GraphSnapshot holds an entity graph with precomputed adjacency lists
type GraphSnapshot struct {
	Nodes  map[string]*NodeInfo
	Edges  []EdgeInfo          // edges whose endpoints are both in Nodes
	Adj    map[string][]string // undirected
	OutAdj map[string][]string // directed: source -> targets
	InAdj  map[string][]string // directed: target -> sources

	// Dangling counts input edges dropped because an endpoint is unknown.
	Dangling int
}

// NewSnapshot builds a GraphSnapshot from raw nodes and edges. Repeated
// node names keep the first definition.
func NewSnapshot(nodes []*NodeInfo, edges []EdgeInfo) *GraphSnapshot {
	s := &GraphSnapshot{
		Nodes:  make(map[string]*NodeInfo, len(nodes)),
		Adj:    make(map[string][]string),
		OutAdj: make(map[string][]string),
		InAdj:  make(map[string][]string),
	}

	for _, n := range nodes {
		if _, ok := s.Nodes[n.Name]; ok {
			continue
		}
		s.Nodes[n.Name] = n
		s.Adj[n.Name] = nil // ensure entry exists
		s.OutAdj[n.Name] = nil
		s.InAdj[n.Name] = nil
	}

	for _, e := range edges {
		_, okSrc := s.Nodes[e.Source]
		_, okTgt := s.Nodes[e.Target]
		if !okSrc || !okTgt {
			s.Dangling++
			continue
		}
		s.Edges = append(s.Edges, e)
		s.Adj[e.Source] = append(s.Adj[e.Source], e.Target)
		s.Adj[e.Target] = append(s.Adj[e.Target], e.Source)
		s.OutAdj[e.Source] = append(s.OutAdj[e.Source], e.Target)
		s.InAdj[e.Target] = append(s.InAdj[e.Target], e.Source)
	}

	return s
}

// NodeNames returns a sorted list of all node names (for deterministic output)
func (s *GraphSnapshot) NodeNames() []string {
	names := make([]string, 0, len(s.Nodes))
	for name := range s.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlaceholderCount returns how many nodes stand in for undefined entities.
func (s *GraphSnapshot) PlaceholderCount() int {
	count := 0
	for _, n := range s.Nodes {
		if n.Placeholder {
			count++
		}
	}
	return count
}
