package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"kgtool/internal/config"
	"kgtool/internal/db"
	"kgtool/internal/logger"
	"kgtool/internal/retrieval"
)

var (
	workingDir string
	logDir     string
	dbPath     string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "kgtool",
	Short:         "Load extracted knowledge graphs and inspect retrieval logs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{Output: cmd.ErrOrStderr(), Debug: debug})
		config.LoadEnv()

		cfg = config.Load()
		if cmd.Flags().Changed("working-dir") {
			cfg.WorkingDir = workingDir
		}
		if cmd.Flags().Changed("log-dir") {
			cfg.LogDir = logDir
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if debug {
			cfg.Debug = true
		}
		if cfg.Debug && !debug {
			logger.Init(logger.Options{Output: cmd.ErrOrStderr(), Debug: true})
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workingDir, "working-dir", config.DefaultWorkingDir, "Directory holding the knowledge graph store (env KG_WORKING_DIR)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", config.DefaultLogDir, "Directory holding retrieval logs (env RETRIEVAL_LOG_DIR)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite store (env KG_DB, default <working-dir>/kg.db)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (env KG_DEBUG)")
}

// DiscoverDB returns the store path using priority: flag > env > working dir.
// With mustExist the store has to be present already.
func DiscoverDB(mustExist bool) (string, error) {
	path := cfg.StorePath()
	if !mustExist {
		return path, nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no knowledge graph store at %s (run 'kgtool ingest' first, or set --db / KG_DB)", path)
	}
	return path, nil
}

// OpenDatabase discovers and opens the store
func OpenDatabase(mustExist bool) (*db.DB, error) {
	path, err := DiscoverDB(mustExist)
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

// NewRetrievalLogger opens a retrieval log session in the configured directory
func NewRetrievalLogger() (*retrieval.Logger, error) {
	return retrieval.NewLogger(cfg.LogDir)
}
