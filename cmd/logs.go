package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"kgtool/internal/retrieval"
)

var (
	logsJSON       bool
	logsExportFrom string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect, summarize and export retrieval logs",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retrieval log sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := NewRetrievalLogger()
		if err != nil {
			return err
		}
		files, err := l.LogFiles()
		if err != nil {
			return fmt.Errorf("listing logs: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(files) == 0 {
			fmt.Fprintf(w, "No retrieval logs in %s\n", l.Dir)
			return nil
		}
		for _, f := range files {
			info, err := os.Stat(f)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "  %s  %8s  %s\n",
				filepath.Base(f), humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
		}
		return nil
	},
}

var logsStatsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarize one log file, or every session in the log directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := NewRetrievalLogger()
		if err != nil {
			return err
		}

		var stats *retrieval.Stats
		if len(args) == 1 {
			stats = l.Statistics(args[0])
		} else {
			files, err := l.LogFiles()
			if err != nil {
				return fmt.Errorf("listing logs: %w", err)
			}
			var all []retrieval.RetrievalResult
			for _, f := range files {
				all = append(all, l.Load(f)...)
			}
			stats = retrieval.Summarize(all)
		}

		w := cmd.OutOrStdout()
		if logsJSON {
			if stats == nil {
				fmt.Fprintln(w, "{}")
				return nil
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		printStats(w, stats)
		return nil
	},
}

var logsExportCmd = &cobra.Command{
	Use:   "export <output>",
	Short: "Export retrieval logs as one JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := NewRetrievalLogger()
		if err != nil {
			return err
		}
		l.Export(args[0], logsExportFrom)
		return nil
	},
}

var logsAppendCmd = &cobra.Command{
	Use:   "append <file|->",
	Short: "Append retrieval results (JSON objects) to a new log session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("reading results: %w", err)
			}
			defer f.Close()
			r = f
		}

		results, err := decodeResults(r)
		if err != nil {
			return err
		}

		l, err := NewRetrievalLogger()
		if err != nil {
			return err
		}
		for _, res := range results {
			l.Log(res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Appended %d result(s) to %s\n", len(results), l.LogFile)
		return nil
	},
}

func init() {
	logsStatsCmd.Flags().BoolVar(&logsJSON, "json", false, "Output as JSON")
	logsExportCmd.Flags().StringVar(&logsExportFrom, "from", "", "Export a single log file instead of the whole directory")

	logsCmd.AddCommand(logsListCmd, logsStatsCmd, logsExportCmd, logsAppendCmd)
	rootCmd.AddCommand(logsCmd)
}

// decodeResults reads a stream of JSON objects. Missing timestamps are set
// to the current time.
func decodeResults(r io.Reader) ([]retrieval.RetrievalResult, error) {
	dec := json.NewDecoder(r)
	var results []retrieval.RetrievalResult
	for {
		var res retrieval.RetrievalResult
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding result %d: %w", len(results)+1, err)
		}
		if !res.QueryMode.Valid() {
			return nil, fmt.Errorf("result %d: unknown query mode %q", len(results)+1, res.QueryMode)
		}
		if res.Timestamp == 0 {
			res.Timestamp = float64(time.Now().UnixMilli()) / 1000
		}
		results = append(results, res)
	}
	return results, nil
}

func printStats(w io.Writer, s *retrieval.Stats) {
	if s == nil {
		fmt.Fprintln(w, "No retrieval records")
		return
	}

	fmt.Fprintln(w)
	printHeading(w, "RETRIEVAL STATISTICS")
	printTree(w, [][2]string{
		{"Total queries", humanize.Comma(int64(s.TotalQueries))},
		{"Avg entities", fmt.Sprintf("%.2f", s.AvgEntitiesPerQuery)},
		{"Avg relationships", fmt.Sprintf("%.2f", s.AvgRelationshipsPerQuery)},
		{"Avg chunks", fmt.Sprintf("%.2f", s.AvgChunksPerQuery)},
		{"No results", humanize.Comma(int64(s.QueriesWithNoResults))},
	})

	modes := make([]string, 0, len(s.ModeDistribution))
	for m := range s.ModeDistribution {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	fmt.Fprintln(w, "\n  Mode distribution:")
	for _, m := range modes {
		fmt.Fprintf(w, "    %-8s %d\n", m, s.ModeDistribution[m])
	}
	fmt.Fprintln(w)
}
