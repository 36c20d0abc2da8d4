package graph

import "math"

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Referential  float64 `json:"referential"`
}

// AnalysisReport is the full analysis result
type AnalysisReport struct {
	HealthScore     float64         `json:"health_score"`
	HealthBreakdown HealthBreakdown `json:"health_breakdown"`
	Topology        *TopologyReport `json:"topology"`
	Placeholders    int             `json:"placeholders"`
	Dangling        int             `json:"dangling_edges"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	HubThreshold int
	TopN         int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		HubThreshold: 10,
		TopN:         50,
	}
}

// Analyze computes topology and a composite health score in [0, 1].
//
//	connectivity: 1 at no orphans, 0 once 20% of entities are orphans
//	components:   1 / number of components
//	referential:  share of edges whose endpoints are both defined entities
func Analyze(snap *GraphSnapshot, config *AnalyzerConfig) *AnalysisReport {
	topology := ComputeTopology(snap, config.HubThreshold, config.TopN)
	total := float64(topology.TotalNodes)

	var connectivity, components float64
	referential := 1.0

	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.OrphanCount)/total, 0.2)*5.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}
	if n := len(snap.Edges) + snap.Dangling; n > 0 {
		resolved := 0
		for _, e := range snap.Edges {
			if !snap.Nodes[e.Source].Placeholder && !snap.Nodes[e.Target].Placeholder {
				resolved++
			}
		}
		referential = float64(resolved) / float64(n)
	}

	healthScore := 0.5*connectivity + 0.3*components + 0.2*referential

	return &AnalysisReport{
		HealthScore: healthScore,
		HealthBreakdown: HealthBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Referential:  referential,
		},
		Topology:     topology,
		Placeholders: snap.PlaceholderCount(),
		Dangling:     snap.Dangling,
	}
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
