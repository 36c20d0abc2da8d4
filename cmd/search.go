package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"kgtool/internal/db"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over stored entities and chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase(true)
		if err != nil {
			return err
		}
		defer d.Close()

		query := strings.Join(args, " ")
		results, err := d.SearchNodes(query, searchLimit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		w := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		if len(results) == 0 {
			fmt.Fprintf(w, "No matches for: %s\n", query)
			return nil
		}
		for i, n := range results {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, describeNode(n))
		}
		fmt.Fprintf(w, "\n%d match(es)\n", len(results))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "JSON output")
	rootCmd.AddCommand(searchCmd)
}

func describeNode(n db.Node) string {
	if n.Kind == db.KindChunk {
		content := ""
		if n.Content != nil {
			content = strings.ReplaceAll(*n.Content, "\n", " ")
		}
		return fmt.Sprintf("[chunk] %s  %s", n.Name, truncName(content, 60))
	}

	entityType := "?"
	if n.EntityType != nil {
		entityType = *n.EntityType
	}
	desc := ""
	if n.Description != nil {
		desc = strings.Split(*n.Description, db.GraphFieldSep)[0]
	}
	return fmt.Sprintf("[%s] %s  %s", entityType, n.Name, truncName(desc, 60))
}
