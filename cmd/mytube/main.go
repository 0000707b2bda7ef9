package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/MyTube/internal/collect"
	"github.com/TobiSchelling/MyTube/internal/config"
	"github.com/TobiSchelling/MyTube/internal/database"
	"github.com/TobiSchelling/MyTube/internal/engine"
	"github.com/TobiSchelling/MyTube/internal/logging"
	"github.com/TobiSchelling/MyTube/internal/pipeline"
	"github.com/TobiSchelling/MyTube/internal/server"
	"github.com/TobiSchelling/MyTube/internal/youtube"
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
	Use:     "mytube",
	Short:   "Personal YouTube recommendations",
	Long:    "MyTube collects popular videos, learns from your likes and dislikes, and ranks what to watch next.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			initLogging("info", "console")
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
		initLogging(cfg.Logging.Level, cfg.Logging.Format)
		logging.Debug().Str("config", path).Msg("config loaded")
		return nil
	},
}

func initLogging(level, format string) {
	if verbose {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: format,
		Caller: verbose,
	})
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(likedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mytube", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/mytube/",
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
		fmt.Println("Set YOUTUBE_API_KEY (or the variable named by youtube.api_key_env) and edit the search queries.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and model status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		status, err := a.engine.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Videos:")
		fmt.Printf("  Total collected: %d\n", stats.TotalVideos)
		fmt.Printf("  With features: %d\n", stats.FeaturedVideos)
		fmt.Printf("  Unrated: %d\n", stats.UnratedVideos)
		fmt.Println("\nRatings:")
		fmt.Printf("  Total: %d\n", stats.TotalRatings)
		fmt.Printf("  Liked: %d\n", stats.LikedVideos)
		fmt.Printf("  Disliked: %d\n", stats.DislikedVideos)
		fmt.Println("\nModel:")
		fmt.Printf("  State: %s\n", status.State)
		if status.State == engine.StateTrained {
			fmt.Printf("  Version: %d\n", status.ModelVersion)
			fmt.Printf("  Trained on: %d samples\n", status.TrainedSamples)
		} else {
			fmt.Printf("  Needs %d ratings with at least one like and one dislike\n", cfg.Recommend.TrainThreshold)
		}
		fmt.Println("\nYouTube API:")
		if cfg.APIKey() == "" {
			fmt.Printf("  Not configured (set %s)\n", cfg.YouTube.APIKeyEnv)
		} else {
			fmt.Println("  Configured")
		}
		return nil
	},
}

// --- bootstrap command ---

var dryRun bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Run the initial load: acquire -> persist -> train",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		pipe := pipeline.New(a.collector, a.db, a.engine, a.rotator.Bootstrap(), cfg.Search.PerQueryLimit)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(cmd.Context())
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if err := result.Failed(); err != nil {
			return err
		}
		if !dryRun {
			fmt.Println("\nBootstrap complete! Run 'mytube serve' to start rating videos.")
		}
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- search command ---

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for more candidate videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.replenisher.Replenish(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Queries: %s\n", strings.Join(result.Queries, ", "))
		fmt.Printf("  Relevant videos found: %d\n", result.Found)
		fmt.Printf("  New videos: %d\n", result.NewVideos)
		if len(result.Failed) > 0 {
			fmt.Println("\nFailed calls:")
			for _, f := range result.Failed {
				fmt.Printf("  %s (%s): %v\n", f.Source, f.Op, f.Err)
			}
		}
		return nil
	},
}

// --- recommend command ---

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print the current recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.engine.Recommendations(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No unrated videos. Run 'mytube bootstrap' or 'mytube search' first.")
			return nil
		}

		fmt.Printf("Recommendations (%s):\n\n", a.engine.State())
		printRecommendations(recs)
		return nil
	},
}

// --- rate command ---

var rateCmd = &cobra.Command{
	Use:       "rate [video-id] [like|dislike]",
	Short:     "Rate a video",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"like", "dislike"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var liked bool
		switch strings.ToLower(args[1]) {
		case "like", "up", "y":
			liked = true
		case "dislike", "down", "n":
			liked = false
		default:
			return fmt.Errorf("invalid rating %q: use like or dislike", args[1])
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.engine.RateVideo(cmd.Context(), args[0], liked)
		if err != nil {
			if errors.Is(err, database.ErrVideoNotFound) {
				return fmt.Errorf("video %s not found", args[0])
			}
			return err
		}

		fmt.Printf("Rated %s (%d ratings total)\n", args[0], result.TotalRatings)
		if result.Retrained {
			fmt.Println("Model retrained.")
		}
		return nil
	},
}

// --- liked command ---

var likedCmd = &cobra.Command{
	Use:   "liked",
	Short: "List liked videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		liked, err := a.engine.LikedVideos(cmd.Context())
		if err != nil {
			return err
		}
		if len(liked) == 0 {
			fmt.Println("No liked videos yet.")
			return nil
		}
		printRecommendations(liked)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := server.New(server.Options{
			Engine:         a.engine,
			Replenisher:    a.replenisher,
			Stats:          a.db,
			RequestTimeout: cfg.RequestTimeout(),
		})
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 5000, "Port to run server on")
}

// --- reset command ---

var (
	resetYes bool
	resetAll bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all ratings (and with --all, all videos)",
	RunE: func(cmd *cobra.Command, args []string) error {
		what := "all ratings"
		if resetAll {
			what = "all ratings, videos and features"
		}
		if !resetYes {
			fmt.Printf("This deletes %s. Continue? [y/N]: ", what)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.TrimSpace(strings.ToLower(answer))
			if answer != "y" && answer != "yes" {
				return fmt.Errorf("aborted")
			}
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if resetAll {
			err = db.Reset(cmd.Context())
		} else {
			err = db.ResetRatings(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %s.\n", what)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Also delete collected videos and features")
}

func printRecommendations(recs []engine.Recommendation) {
	for i, r := range recs {
		fmt.Printf("  %2d. [%3.0f%%] %s\n", i+1, r.Probability*100, r.Video.Title)
		fmt.Printf("      %s · %s · %s\n", r.Video.ChannelName, server.FormatViewCount(r.Video.ViewCount), r.Video.URL)
	}
}

// app holds the components every data command needs.
type app struct {
	db          *database.DB
	collector   *collect.Collector
	rotator     *collect.QueryRotator
	replenisher *collect.Replenisher
	engine      *engine.Engine
}

func (a *app) Close() error {
	return a.db.Close()
}

// openApp wires store, YouTube providers, acquisition and the engine, then
// restores the model from stored ratings.
func openApp(ctx context.Context) (*app, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}

	client := youtube.NewClient(youtube.Options{
		APIKey:            cfg.APIKey(),
		BaseURL:           cfg.YouTube.BaseURL,
		PublishedAfter:    cfg.PublishedAfterTime(),
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Burst:             cfg.YouTube.Burst,
		Timeout:           cfg.ClientTimeout(),
	})
	var feeds collect.FeedProvider
	if len(cfg.Search.Channels) > 0 {
		feeds = youtube.NewFeedClient(cfg.YouTube.FeedBaseURL, cfg.ClientTimeout())
	}

	collector := collect.NewCollector(client, feeds, cfg.Search.Channels)
	rotator := collect.NewQueryRotator(cfg.Search.Queries, cfg.Search.BootstrapQueries, cfg.Search.ReplenishMaxQueries, db)
	replenisher := collect.NewReplenisher(collector, db, rotator, cfg.Search.PerQueryLimit)

	engCfg := engine.DefaultConfig()
	engCfg.TrainThreshold = cfg.Recommend.TrainThreshold
	engCfg.PoolCheckLimit = cfg.Recommend.PoolCheckLimit
	engCfg.PoolMinimum = cfg.Recommend.PoolMinimum
	engCfg.MaxResults = cfg.Recommend.MaxResults
	eng := engine.New(db, replenisher, engCfg)
	if err := eng.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		db:          db,
		collector:   collector,
		rotator:     rotator,
		replenisher: replenisher,
		engine:      eng,
	}, nil
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "mytube.db")
	return database.Open(dbPath)
}
