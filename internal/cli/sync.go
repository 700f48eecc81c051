package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"multisync/pkg/config"
	"multisync/pkg/hasher"
	"multisync/pkg/logging"
	"multisync/pkg/models"
	"multisync/pkg/output"
	"multisync/pkg/sync"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Destinations []string
	Move         bool
	Comparison   string
	Verify       bool
	Hash         string
	Threshold    int
	Bandwidth    string
	DryRun       bool
	CreateDest   bool
	Output       string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync SOURCE... --dest DIR [--dest DIR...]",
		Short: "Copy or move sources to one or more destinations",
		Long: `Synchronize a list of source paths to one or more destination directories.
All destinations are written in parallel per item. With --move, sources are
deleted only after every destination confirmed success.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSync,
	}

	cmd.Flags().StringArrayVarP(&syncFlags.Destinations, "dest", "d", nil, "destination directory (repeatable, required)")
	cmd.MarkFlagRequired("dest")

	cmd.Flags().BoolVar(&syncFlags.Move, "move", false, "delete sources after all destinations succeeded")
	cmd.Flags().StringVar(&syncFlags.Comparison, "comparison", "", "comparison method: sizetime, hash")
	cmd.Flags().BoolVar(&syncFlags.Verify, "verify", false, "re-hash destinations after copy")
	cmd.Flags().StringVar(&syncFlags.Hash, "hash", "", "hash algorithm: xxh64, sha256, md5")
	cmd.Flags().IntVar(&syncFlags.Threshold, "threshold", 0, "consecutive store errors before a destination is abandoned")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit (e.g. \"10M\", \"1G\")")
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "compare only, don't copy or delete")
	cmd.Flags().BoolVar(&syncFlags.CreateDest, "create-dest", false, "create destination directories if they don't exist")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")

	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadOrDefault(globalFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	sources, destinations, err := resolvePaths(args, syncFlags.Destinations, syncFlags.CreateDest)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	opts.Move = syncFlags.Move
	opts.DryRun = syncFlags.DryRun
	if syncFlags.Bandwidth != "" {
		limit, err := parseBandwidth(syncFlags.Bandwidth)
		if err != nil {
			return err
		}
		opts.BandwidthLimit = limit
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()

	observer := buildObserver(cfg)

	engine := sync.New(observer, logger)
	result, err := engine.Sync(ctx, sources, destinations, opts)
	if err != nil {
		return err
	}

	if code := result.Status.ExitCode(); code != 0 {
		logger.Close()
		os.Exit(code)
	}
	return nil
}

// applyFlagsToConfig overrides config values with explicit flags
func applyFlagsToConfig(cfg *config.Config) {
	if syncFlags.Comparison != "" {
		cfg.Sync.Comparison = models.CompareMethod(syncFlags.Comparison)
	}
	if syncFlags.Verify {
		cfg.Sync.Verify = true
	}
	if syncFlags.Hash != "" {
		cfg.Sync.HashAlgorithm = hasher.Algorithm(syncFlags.Hash)
	}
	if syncFlags.Threshold > 0 {
		cfg.Sync.StoreThreshold = syncFlags.Threshold
	}
	if syncFlags.Output != "" {
		cfg.Output.Format = syncFlags.Output
	}
	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}
	if syncFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = syncFlags.LogFile
	}
	if syncFlags.LogFormat != "" {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if syncFlags.LogLevel != "" {
		cfg.Logging.Level = syncFlags.LogLevel
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// buildLogger creates the configured logger, or a null logger when
// logging is disabled
func buildLogger(cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNullLogger(), nil
	}
	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:   cfg.Logging.File,
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// buildObserver creates the progress observer for the selected output format
func buildObserver(cfg *config.Config) sync.Observer {
	if cfg.Output.Quiet {
		return sync.NopObserver{}
	}
	switch cfg.Output.Format {
	case "json":
		return output.NewJSONObserver(os.Stdout)
	default:
		return output.NewHumanObserver(os.Stdout)
	}
}

// parseBandwidth parses a human bandwidth string like "500K" or "10M"
// into bytes per second
func parseBandwidth(s string) (int64, error) {
	var multiplier int64 = 1
	num := s
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1024
		num = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1024 * 1024
		num = s[:len(s)-1]
	case 'g', 'G':
		multiplier = 1024 * 1024 * 1024
		num = s[:len(s)-1]
	}

	var value int64
	if _, err := fmt.Sscanf(num, "%d", &value); err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid bandwidth limit: %q", s)
	}
	return value * multiplier, nil
}
