package graph

import "sort"

// HubNode is an entity with high connectivity
type HubNode struct {
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
	Degree     int    `json:"degree"`
	InDegree   int    `json:"in_degree"`
	OutDegree  int    `json:"out_degree"`
}

// DegreeBucket is one bucket in the degree histogram
type DegreeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TopologyReport contains topology analysis results
type TopologyReport struct {
	TotalNodes        int            `json:"total_nodes"`
	TotalEdges        int            `json:"total_edges"`
	NumComponents     int            `json:"num_components"`
	LargestComponent  int            `json:"largest_component"`
	SmallestComponent int            `json:"smallest_component"`
	OrphanCount       int            `json:"orphan_count"`
	Orphans           []string       `json:"orphans"`
	DegreeHistogram   []DegreeBucket `json:"degree_histogram"`
	Hubs              []HubNode      `json:"hubs"`
	EntityTypes       map[string]int `json:"entity_types"`
}

// ComputeTopology analyzes graph topology: components, orphans, degree distribution, hubs
func ComputeTopology(snap *GraphSnapshot, hubThreshold, topN int) *TopologyReport {
	totalNodes := len(snap.Nodes)
	if totalNodes == 0 {
		return &TopologyReport{
			DegreeHistogram: defaultHistogram(),
			EntityTypes:     map[string]int{},
		}
	}

	names := snap.NodeNames()
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	uf := NewUnionFind(len(names))
	for _, e := range snap.Edges {
		uf.Union(index[e.Source], index[e.Target])
	}

	components := uf.Components()
	largest, smallest := 0, totalNodes
	for _, c := range components {
		if len(c) > largest {
			largest = len(c)
		}
		if len(c) < smallest {
			smallest = len(c)
		}
	}

	var orphans []string
	buckets := [7]int{}
	types := make(map[string]int)
	var hubs []HubNode
	for _, name := range names {
		degree := len(snap.Adj[name])
		if degree == 0 {
			orphans = append(orphans, name)
		}
		buckets[degreeBucket(degree)]++
		types[snap.Nodes[name].EntityType]++

		if degree > hubThreshold {
			hubs = append(hubs, HubNode{
				Name:       name,
				EntityType: snap.Nodes[name].EntityType,
				Degree:     degree,
				InDegree:   len(snap.InAdj[name]),
				OutDegree:  len(snap.OutAdj[name]),
			})
		}
	}

	orphanCount := len(orphans)
	if len(orphans) > topN {
		orphans = orphans[:topN]
	}

	histogram := defaultHistogram()
	for i := range histogram {
		histogram[i].Count = buckets[i]
	}

	sort.SliceStable(hubs, func(i, j int) bool { return hubs[i].Degree > hubs[j].Degree })
	if len(hubs) > topN {
		hubs = hubs[:topN]
	}

	return &TopologyReport{
		TotalNodes:        totalNodes,
		TotalEdges:        len(snap.Edges),
		NumComponents:     len(components),
		LargestComponent:  largest,
		SmallestComponent: smallest,
		OrphanCount:       orphanCount,
		Orphans:           orphans,
		DegreeHistogram:   histogram,
		Hubs:              hubs,
		EntityTypes:       types,
	}
}

func defaultHistogram() []DegreeBucket {
	return []DegreeBucket{
		{Label: "0"}, {Label: "1"}, {Label: "2-3"},
		{Label: "4-7"}, {Label: "8-15"}, {Label: "16-31"}, {Label: "32+"},
	}
}

func degreeBucket(degree int) int {
	switch {
	case degree == 0:
		return 0
	case degree == 1:
		return 1
	case degree <= 3:
		return 2
	case degree <= 7:
		return 3
	case degree <= 15:
		return 4
	case degree <= 31:
		return 5
	default:
		return 6
	}
}
