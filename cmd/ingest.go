package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"kgtool/internal/kg"
	"kgtool/internal/logger"
)

var (
	ingestDryRun bool
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Parse a chunked extraction export and load it into the knowledge graph store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		logger.Info("Parsing knowledge graph export", "file", path, "size", humanize.Bytes(uint64(info.Size())))

		payload, report, err := kg.ParseFile(path)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		stored := ""
		if !ingestDryRun {
			d, err := OpenDatabase(false)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.InsertCustomKG(cmd.Context(), payload); err != nil {
				return fmt.Errorf("storing knowledge graph: %w", err)
			}
			stored = d.Path
		}

		if ingestJSON {
			output := struct {
				File          string     `json:"file"`
				Store         string     `json:"store,omitempty"`
				Entities      int        `json:"entities"`
				Relationships int        `json:"relationships"`
				Chunks        int        `json:"chunks"`
				Report        *kg.Report `json:"report"`
			}{
				File:          path,
				Store:         stored,
				Entities:      len(payload.Entities),
				Relationships: len(payload.Relationships),
				Chunks:        len(payload.Chunks),
				Report:        report,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(output)
		}

		printIngestSummary(cmd.OutOrStdout(), filepath.Base(path), payload, report, stored)
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Parse and validate only, do not write the store")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func printIngestSummary(w io.Writer, name string, p *kg.Payload, report *kg.Report, stored string) {
	fmt.Fprintln(w)
	printHeading(w, "PARSE RESULT: "+name)
	printTree(w, [][2]string{
		{"Entities", humanize.Comma(int64(len(p.Entities)))},
		{"Unique entities", humanize.Comma(int64(report.UniqueEntities))},
		{"Relationships", humanize.Comma(int64(len(p.Relationships)))},
		{"Chunks", humanize.Comma(int64(len(p.Chunks)))},
	})

	if n := len(report.MissingEntities); n > 0 {
		limit := 10
		if n < limit {
			limit = n
		}
		fmt.Fprintf(w, "\n  %s %d undefined entities referenced: %s\n",
			warnStyle.Render("!"), n, strings.Join(report.MissingEntities[:limit], ", "))
		if n > limit {
			fmt.Fprintf(w, "    ... and %d more\n", n-limit)
		}
	}
	if n := len(report.MissingKeywords); n > 0 {
		fmt.Fprintf(w, "  %s %d relationships without keywords\n", warnStyle.Render("!"), n)
	}

	if stored != "" {
		fmt.Fprintf(w, "\n  Stored in %s\n", stored)
	} else {
		fmt.Fprintln(w, "\n  Dry run: nothing stored")
	}
	fmt.Fprintln(w)
}
