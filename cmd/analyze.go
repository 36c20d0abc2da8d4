package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"kgtool/internal/graph"
	"kgtool/internal/kg"
)

var (
	analyzeJSON         bool
	analyzeFile         string
	analyzeTopN         int
	analyzeHubThreshold int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze entity graph structure: components, orphans, hubs, health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := loadSnapshot()
		if err != nil {
			return err
		}

		config := &graph.AnalyzerConfig{
			HubThreshold: analyzeHubThreshold,
			TopN:         analyzeTopN,
		}

		report := graph.Analyze(snap, config)

		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printHumanReadable(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Analyze a parsed export instead of the store")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of top items to show per section")
	analyzeCmd.Flags().IntVar(&analyzeHubThreshold, "hub-threshold", 15, "Minimum degree to consider an entity a hub")
	rootCmd.AddCommand(analyzeCmd)
}

func loadSnapshot() (*graph.GraphSnapshot, error) {
	if analyzeFile != "" {
		payload, _, err := kg.ParseFile(analyzeFile)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", analyzeFile, err)
		}
		return graph.SnapshotFromPayload(payload), nil
	}

	d, err := OpenDatabase(true)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	snap, err := graph.SnapshotFromDB(d)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	return snap, nil
}

func printHumanReadable(w io.Writer, report *graph.AnalysisReport) {
	barLen := int(report.HealthScore * 20)
	if barLen > 20 {
		barLen = 20
	}
	bar := strings.Repeat("█", barLen) + strings.Repeat("░", 20-barLen)
	fmt.Fprintf(w, "\n  Graph Health: %.0f%%  [%s]\n", report.HealthScore*100, bar)
	fmt.Fprintf(w, "  breakdown: connectivity=%.2f components=%.2f referential=%.2f\n\n",
		report.HealthBreakdown.Connectivity,
		report.HealthBreakdown.Components,
		report.HealthBreakdown.Referential)

	t := report.Topology
	printHeading(w, "TOPOLOGY")
	fmt.Fprintf(w, "  Entities: %d  Relationships: %d  Components: %d\n", t.TotalNodes, t.TotalEdges, t.NumComponents)
	fmt.Fprintf(w, "  Largest component: %d  Smallest: %d\n", t.LargestComponent, t.SmallestComponent)
	if report.Placeholders > 0 {
		fmt.Fprintf(w, "  Placeholders: %d entities referenced but never defined\n", report.Placeholders)
	}

	if t.OrphanCount > 0 {
		fmt.Fprintf(w, "  Orphans: %d unconnected entities\n", t.OrphanCount)
		limit := 5
		if len(t.Orphans) < limit {
			limit = len(t.Orphans)
		}
		for _, name := range t.Orphans[:limit] {
			fmt.Fprintf(w, "    - %s\n", truncName(name, 50))
		}
		if t.OrphanCount > limit {
			fmt.Fprintf(w, "    ... and %d more\n", t.OrphanCount-limit)
		}
	}

	fmt.Fprintln(w, "\n  Degree distribution:")
	for _, b := range t.DegreeHistogram {
		if b.Count > 0 {
			barWidth := int(math.Log2(float64(b.Count))) + 2
			fmt.Fprintf(w, "    %5s: %4d  %s\n", b.Label, b.Count, strings.Repeat("=", barWidth))
		}
	}

	if len(t.Hubs) > 0 {
		fmt.Fprintln(w, "\n  Top hubs (degree > threshold):")
		for _, hub := range t.Hubs {
			fmt.Fprintf(w, "    %s degree=%d (in=%d, out=%d)  [%s]\n",
				truncName(hub.Name, 40), hub.Degree, hub.InDegree, hub.OutDegree, hub.EntityType)
		}
	}

	if len(t.EntityTypes) > 0 {
		fmt.Fprintln(w, "\n  Entity types:")
		types := make([]string, 0, len(t.EntityTypes))
		for k := range t.EntityTypes {
			types = append(types, k)
		}
		sort.Slice(types, func(i, j int) bool {
			if t.EntityTypes[types[i]] != t.EntityTypes[types[j]] {
				return t.EntityTypes[types[i]] > t.EntityTypes[types[j]]
			}
			return types[i] < types[j]
		})
		for _, k := range types {
			fmt.Fprintf(w, "    %-20s %d\n", truncName(k, 20), t.EntityTypes[k])
		}
	}

	fmt.Fprintln(w)
}
