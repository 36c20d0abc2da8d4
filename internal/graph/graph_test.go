package graph

import (
	"context"
	"math"
	"sort"
	"testing"

	"kgtool/internal/db"
	"kgtool/internal/kg"
)

func quickSnapshot(names []string, edges [][2]string) *GraphSnapshot {
	var nodes []*NodeInfo
	for _, name := range names {
		nodes = append(nodes, &NodeInfo{Name: name, EntityType: "CONCEPT"})
	}
	var edgeInfos []EdgeInfo
	for _, e := range edges {
		edgeInfos = append(edgeInfos, EdgeInfo{Source: e[0], Target: e[1], Weight: 1})
	}
	return NewSnapshot(nodes, edgeInfos)
}

// --- UnionFind ---

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)
	if !uf.Union(0, 1) {
		t.Error("first union should merge")
	}
	if uf.Union(1, 0) {
		t.Error("repeated union should not merge")
	}
	uf.Union(3, 4)
	uf.Union(4, 1)

	if uf.Find(0) != uf.Find(3) {
		t.Error("0 and 3 should share a root")
	}
	if uf.Size(4) != 4 {
		t.Errorf("Size(4) = %d, want 4", uf.Size(4))
	}

	comps := uf.Components()
	if len(comps) != 2 {
		t.Fatalf("got %d components, want 2", len(comps))
	}
	sizes := []int{len(comps[0]), len(comps[1])}
	sort.Ints(sizes)
	if sizes[0] != 1 || sizes[1] != 4 {
		t.Errorf("component sizes = %v", sizes)
	}
}

// --- Snapshot ---

func TestNewSnapshot_DanglingEdgesCounted(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B"}, [][2]string{{"A", "B"}, {"A", "X"}})
	if len(snap.Edges) != 1 || snap.Dangling != 1 {
		t.Errorf("edges=%d dangling=%d, want 1 and 1", len(snap.Edges), snap.Dangling)
	}
}

func TestNewSnapshot_DuplicateNamesKeepFirst(t *testing.T) {
	snap := NewSnapshot([]*NodeInfo{
		{Name: "A", EntityType: "PERSON"},
		{Name: "A", EntityType: "ORG"},
	}, nil)
	if len(snap.Nodes) != 1 || snap.Nodes["A"].EntityType != "PERSON" {
		t.Errorf("nodes = %+v", snap.Nodes)
	}
}

func TestSnapshotFromPayload_Placeholders(t *testing.T) {
	p := &kg.Payload{
		Entities: []kg.Entity{
			{EntityName: "Alice", EntityType: "PERSON"},
			{EntityName: "Bob", EntityType: "PERSON"},
		},
		Relationships: []kg.Relationship{
			{SrcID: "Alice", TgtID: "Bob", Weight: 2},
			{SrcID: "Bob", TgtID: "Zebulon", Weight: 1},
		},
	}
	snap := SnapshotFromPayload(p)
	if len(snap.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(snap.Nodes))
	}
	if !snap.Nodes["Zebulon"].Placeholder {
		t.Error("Zebulon should be a placeholder")
	}
	if snap.PlaceholderCount() != 1 {
		t.Errorf("PlaceholderCount() = %d", snap.PlaceholderCount())
	}
	if len(snap.Edges) != 2 || snap.Dangling != 0 {
		t.Errorf("edges=%d dangling=%d", len(snap.Edges), snap.Dangling)
	}
}

func TestSnapshotFromDB(t *testing.T) {
	d, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	p := &kg.Payload{
		Entities: []kg.Entity{{EntityName: "Alice", EntityType: "PERSON", SourceID: "chunk_1"}},
		Relationships: []kg.Relationship{
			{SrcID: "Alice", TgtID: "Zebulon", Keywords: "rumour", Weight: 1, SourceID: "chunk_1"},
		},
		Chunks: []kg.Chunk{{Content: "text", SourceID: "chunk_1", SourceChunkIndex: 1}},
	}
	if err := d.InsertCustomKG(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	snap, err := SnapshotFromDB(d)
	if err != nil {
		t.Fatalf("SnapshotFromDB failed: %v", err)
	}
	if len(snap.Nodes) != 2 {
		t.Errorf("chunks must not appear as nodes, got %d nodes", len(snap.Nodes))
	}
	if len(snap.Edges) != 1 || snap.Edges[0].Source != "Alice" || snap.Edges[0].Keywords != "rumour" {
		t.Errorf("edges = %+v", snap.Edges)
	}
	if !snap.Nodes["Zebulon"].Placeholder {
		t.Error("Zebulon should be a placeholder")
	}
}

// --- Topology ---

func TestTopology_EmptyGraph(t *testing.T) {
	r := ComputeTopology(NewSnapshot(nil, nil), 4, 10)
	if r.TotalNodes != 0 || r.TotalEdges != 0 || r.NumComponents != 0 {
		t.Errorf("empty graph should have all zeros, got nodes=%d edges=%d components=%d",
			r.TotalNodes, r.TotalEdges, r.NumComponents)
	}
	if len(r.DegreeHistogram) != 7 {
		t.Errorf("histogram should have 7 buckets, got %d", len(r.DegreeHistogram))
	}
}

func TestTopology_TwoComponents(t *testing.T) {
	snap := quickSnapshot(
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"D", "E"}},
	)
	r := ComputeTopology(snap, 4, 10)
	if r.NumComponents != 2 {
		t.Errorf("NumComponents = %d, want 2", r.NumComponents)
	}
	if r.LargestComponent != 3 || r.SmallestComponent != 2 {
		t.Errorf("largest=%d smallest=%d, want 3 and 2", r.LargestComponent, r.SmallestComponent)
	}
	if r.EntityTypes["CONCEPT"] != 5 {
		t.Errorf("EntityTypes = %v", r.EntityTypes)
	}
}

func TestTopology_Orphans(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C", "D"}, [][2]string{{"A", "B"}})
	r := ComputeTopology(snap, 4, 1)
	if r.OrphanCount != 2 {
		t.Errorf("OrphanCount = %d, want 2", r.OrphanCount)
	}
	if len(r.Orphans) != 1 || r.Orphans[0] != "C" {
		t.Errorf("Orphans should be truncated to topN in name order, got %v", r.Orphans)
	}
	if r.DegreeHistogram[0].Count != 2 || r.DegreeHistogram[1].Count != 2 {
		t.Errorf("histogram = %+v", r.DegreeHistogram)
	}
}

func TestTopology_Hubs(t *testing.T) {
	names := []string{"hub", "a", "b", "c", "d", "e"}
	var edges [][2]string
	for _, n := range names[1:] {
		edges = append(edges, [2]string{"hub", n})
	}
	r := ComputeTopology(quickSnapshot(names, edges), 3, 10)
	if len(r.Hubs) != 1 {
		t.Fatalf("got %d hubs, want 1", len(r.Hubs))
	}
	h := r.Hubs[0]
	if h.Name != "hub" || h.Degree != 5 || h.OutDegree != 5 || h.InDegree != 0 {
		t.Errorf("hub = %+v", h)
	}
}

// --- Health ---

func TestHealthScore_Perfect(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"B", "C"}})
	r := Analyze(snap, DefaultConfig())
	if math.Abs(r.HealthScore-1.0) > 1e-9 {
		t.Errorf("HealthScore = %f, want 1.0", r.HealthScore)
	}
}

func TestHealthScore_PlaceholdersLowerReferential(t *testing.T) {
	p := &kg.Payload{
		Entities: []kg.Entity{{EntityName: "A", EntityType: "T"}, {EntityName: "B", EntityType: "T"}},
		Relationships: []kg.Relationship{
			{SrcID: "A", TgtID: "B"},
			{SrcID: "B", TgtID: "ghost"},
		},
	}
	r := Analyze(SnapshotFromPayload(p), DefaultConfig())
	if r.HealthBreakdown.Referential != 0.5 {
		t.Errorf("Referential = %f, want 0.5", r.HealthBreakdown.Referential)
	}
	if r.Placeholders != 1 {
		t.Errorf("Placeholders = %d, want 1", r.Placeholders)
	}
	if r.HealthScore < 0 || r.HealthScore > 1 {
		t.Errorf("HealthScore out of range: %f", r.HealthScore)
	}
}

func TestHealthScore_Range(t *testing.T) {
	snap := quickSnapshot([]string{"A", "B", "C", "D", "E"}, nil)
	r := Analyze(snap, DefaultConfig())
	if r.HealthScore < 0 || r.HealthScore > 1 {
		t.Errorf("HealthScore out of range: %f", r.HealthScore)
	}
	if r.HealthBreakdown.Connectivity != 0 {
		t.Errorf("all orphans should zero connectivity, got %f", r.HealthBreakdown.Connectivity)
	}
}
