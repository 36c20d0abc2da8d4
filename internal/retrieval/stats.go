package retrieval

// Stats summarizes a set of retrieval records
type Stats struct {
	TotalQueries             int            `json:"total_queries"`
	ModeDistribution         map[string]int `json:"mode_distribution"`
	AvgEntitiesPerQuery      float64        `json:"avg_entities_per_query"`
	AvgRelationshipsPerQuery float64        `json:"avg_relationships_per_query"`
	AvgChunksPerQuery        float64        `json:"avg_chunks_per_query"`
	QueriesWithNoResults     int            `json:"queries_with_no_results"`
}

// Statistics loads file (the session file when empty) and summarizes it.
// It returns nil when there are no records.
func (l *Logger) Statistics(file string) *Stats {
	return Summarize(l.Load(file))
}

// Summarize computes Stats over results, or nil for an empty slice.
func Summarize(results []RetrievalResult) *Stats {
	if len(results) == 0 {
		return nil
	}

	s := &Stats{
		TotalQueries:     len(results),
		ModeDistribution: make(map[string]int),
	}

	var entities, relationships, chunks int
	for _, r := range results {
		s.ModeDistribution[string(r.QueryMode)]++

		entities += len(r.Entities)
		relationships += len(r.Relationships)
		chunks += len(r.TextChunks)

		if len(r.Entities) == 0 && len(r.Relationships) == 0 && len(r.TextChunks) == 0 {
			s.QueriesWithNoResults++
		}
	}

	n := float64(len(results))
	s.AvgEntitiesPerQuery = float64(entities) / n
	s.AvgRelationshipsPerQuery = float64(relationships) / n
	s.AvgChunksPerQuery = float64(chunks) / n
	return s
}
