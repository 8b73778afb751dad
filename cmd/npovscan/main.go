package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/npovlab/npovscan/internal/config"
	"github.com/npovlab/npovscan/internal/database"
	"github.com/npovlab/npovscan/internal/discover"
	"github.com/npovlab/npovscan/internal/export"
	"github.com/npovlab/npovscan/internal/labeler"
	"github.com/npovlab/npovscan/internal/llm"
	"github.com/npovlab/npovscan/internal/mediawiki"
	"github.com/npovlab/npovscan/internal/pipeline"
	"github.com/npovlab/npovscan/internal/report"
	"github.com/npovlab/npovscan/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "npovscan",
	Short:   "Wikipedia neutrality edit analysis",
	Long:    "npovscan samples Wikipedia articles, extracts revision-history features, labels diffs for neutral-point-of-view impact and trains a small classifier on the results.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("npovscan", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/npovscan/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the wiki, discovery feeds, and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Store:")
		fmt.Printf("  Articles: %d\n", stats.Articles)
		fmt.Printf("  Revisions queued: %d (%d pending, %d done, %d failed)\n",
			stats.Targets, stats.PendingTargets, stats.DoneTargets, stats.FailedTargets)
		fmt.Printf("  Feature rows: %d\n", stats.Features)
		fmt.Println("\nLabels:")
		fmt.Printf("  Human: %d\n", stats.HumanLabels)
		fmt.Printf("  LLM: %d\n", stats.LLMLabels)
		fmt.Println("\nTraining:")
		fmt.Printf("  Stored models: %d\n", stats.TreeModels)
		fmt.Printf("  Recorded runs: %d\n", stats.Runs)
		return nil
	},
}

// --- discover command ---

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Sample candidate articles from feeds and the random API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		wiki := mediawiki.NewClient(cfg.Wiki, mediawiki.NewCache())
		d := discover.NewDiscoverer(cfg.Discovery, db, wiki)
		result := d.Discover(context.Background())

		fmt.Println("\nDiscovery complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New articles: %d\n", result.NewArticles)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		if result.Errors > 0 {
			fmt.Printf("  Errors: %d\n", result.Errors)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nArticles by source:")
			// Sort sources by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- extract command ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract revision-history features for queued revisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		wiki := mediawiki.NewClient(cfg.Wiki, mediawiki.NewCache())
		result, exErr := pipeline.Extract(context.Background(), cfg, db, wiki)
		if result != nil {
			fmt.Println("\nExtraction finished:")
			fmt.Printf("  Newly queued: %d\n", result.Seeded)
			fmt.Printf("  Extracted: %d\n", result.Extracted)
			fmt.Printf("  Failed: %d\n", result.Failed)
			if result.Pending > 0 {
				fmt.Printf("  Still pending: %d\n", result.Pending)
			}
		}
		return exErr
	},
}

// --- label command ---

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Label unlabeled diffs with the configured LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		provider := llm.CreateProvider(cfg.Labeling)
		if provider == nil {
			return fmt.Errorf("no LLM provider available; start Ollama or set the API key")
		}

		lab := labeler.NewLabeler(db, provider, cfg.Labeling.MaxTokens)
		result := lab.LabelAll(context.Background())

		fmt.Println("\nLabeling complete:")
		fmt.Printf("  Labeled: %d\n", result.Processed)
		fmt.Printf("  Unparseable: %d\n", result.Unparseable)
		fmt.Printf("  Skipped (no diff): %d\n", result.Skipped)
		if result.Errors > 0 {
			fmt.Printf("  Errors: %d\n", result.Errors)
		}
		return nil
	},
}

// --- labels command ---

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage human labels",
}

var labelsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import human labels from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := export.ImportLabels(db, args[0])
		if err != nil {
			return fmt.Errorf("importing labels: %w", err)
		}
		fmt.Printf("Imported %d labels from %s\n", n, args[0])
		return nil
	},
}

func init() {
	labelsCmd.AddCommand(labelsImportCmd)
}

// --- compare command ---

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare LLM labels against human labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pairs, err := db.GetLabelPairs()
		if err != nil {
			return fmt.Errorf("loading label pairs: %w", err)
		}

		fmt.Print(report.ComparisonReport(labeler.Compare(pairs)))
		return nil
	},
}

// --- train command ---

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a decision-tree classifier on labeled features",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := pipeline.Train(db, cfg.Training)
		if err != nil {
			return err
		}

		fmt.Print(result.Report)
		return nil
	},
}

// --- export command ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the CSV artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		exp := export.NewExporter(db, cfg.GetDataDir())
		paths, err := exp.WriteAll()
		if err != nil {
			return err
		}

		fmt.Println("Exported:")
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
		return nil
	},
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: discover -> extract -> label -> compare -> train -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(context.Background())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/6: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if !dryRun && result.Err() == nil {
			fmt.Println("\nPipeline complete! Run 'npovscan serve' to browse the results.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		if port == 0 {
			port = 8000
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "npovscan.db")
	return database.Open(dbPath)
}
