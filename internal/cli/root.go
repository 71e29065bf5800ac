package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/activity"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	configcmd "github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/config"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/install"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/packs"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/serve"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/servers"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/versions"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
)

var (
	// Global flags
	cfgFile string
	jsonOut bool
	quiet   bool
	verbose bool

	// Global logger
	logger *slog.Logger
)

// NewRootCommand creates and returns the root cobra command
func NewRootCommand(version, commit, date, builtBy string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vtinstaller",
		Short: "Install Vanilla Tweaks packs on Minecraft servers through Wings",
		Long: `vtinstaller installs Vanilla Tweaks datapacks, resource packs and crafting
tweaks onto Minecraft servers managed by FeatherPanel.

It provides:
  - An HTTP API the panel plugin calls (vtinstaller serve)
  - Catalog browsing with fuzzy filtering
  - World discovery and Minecraft version detection
  - One-shot installs from the command line
  - An activity log of completed installs

Server files are only ever touched through the Wings daemon API.`,
		Example: `  # Write a default config file
  vtinstaller config init

  # Run the HTTP API
  vtinstaller serve

  # Browse the datapack catalog for 1.21
  vtinstaller packs --mc-version 1.21 --filter armor

  # Install two datapacks into the default world
  vtinstaller install 8d5e1c1a --pack "Armor Stands=armor_stand" --pack "Survival=graves"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := initConfig()
			if err != nil {
				if cmd.Annotations[cmdutil.SkipConfigAnnotation] == "" {
					return fmt.Errorf("failed to initialize config: %w", err)
				}
				cfg = config.DefaultConfig()
			}

			cmdutil.SetGlobals(cmdutil.Globals{
				ConfigPath: path,
				Config:     cfg,
				JSON:       jsonOut,
				Quiet:      quiet,
			})

			if err := initLogger(cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/vtinstaller/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	// Mark json and quiet as mutually exclusive
	rootCmd.MarkFlagsMutuallyExclusive("json", "quiet")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(NewVersionCommand(version, commit, date, builtBy))
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewPacksCommand())
	rootCmd.AddCommand(NewVersionsCommand())
	rootCmd.AddCommand(NewWorldsCommand())
	rootCmd.AddCommand(NewDetectVersionCommand())
	rootCmd.AddCommand(NewInstallCommand())
	rootCmd.AddCommand(NewActivityCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return serve.NewCommand()
}

// NewPacksCommand creates the packs command
func NewPacksCommand() *cobra.Command {
	return packs.NewCommand()
}

// NewVersionsCommand creates the versions command
func NewVersionsCommand() *cobra.Command {
	return versions.NewCommand()
}

// NewWorldsCommand creates the worlds command
func NewWorldsCommand() *cobra.Command {
	return servers.NewWorldsCommand()
}

// NewDetectVersionCommand creates the detect-version command
func NewDetectVersionCommand() *cobra.Command {
	return servers.NewDetectVersionCommand()
}

// NewInstallCommand creates the install command
func NewInstallCommand() *cobra.Command {
	return install.NewCommand()
}

// NewActivityCommand creates the activity command
func NewActivityCommand() *cobra.Command {
	return activity.NewCommand()
}

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	return configcmd.NewCommand()
}

// initLogger initializes the global logger. --quiet and --verbose win over
// the configured level; --json switches to the JSON handler.
func initLogger(lc config.LoggingConfig) error {
	var level slog.Level

	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	default:
		if err := level.UnmarshalText([]byte(strings.ToUpper(lc.Level))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOut || lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)

	return nil
}

// initConfig loads the config file named by --config, or the default path,
// and returns the path it used. Environment overrides are applied by
// config.Load.
func initConfig() (string, *config.Config, error) {
	path, err := configPath()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(path)
	return path, cfg, err
}

// configPath returns the --config value or the default config location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// PrintError reports err on w, as an error envelope in JSON mode.
func PrintError(w io.Writer, err error) {
	cmdutil.PrintError(w, err, IsJSONOutput())
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	return logger
}

// IsJSONOutput returns true if JSON output is enabled
func IsJSONOutput() bool {
	return jsonOut
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quiet
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}
