package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	appconfig "github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
)

const redacted = "********"

// NewCommand creates the config command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Create and inspect the vtinstaller configuration file.

Every value can be overridden with a VTINSTALLER_* environment variable,
e.g. VTINSTALLER_SERVER_ADDR or VTINSTALLER_CATALOG_CACHE_SIZE.`,
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Example: `  vtinstaller config init
  vtinstaller config init --config ./vtinstaller.yaml --force`,
		Annotations: map[string]string{cmdutil.SkipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func runConfigInit(stdout io.Writer, force bool) error {
	path := cmdutil.ConfigPath()
	if path == "" {
		return fmt.Errorf("config path is not known")
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	if err := appconfig.Save(path, appconfig.DefaultConfig()); err != nil {
		return err
	}

	if cmdutil.IsJSONOutput() {
		return cmdutil.WriteJSON(stdout, map[string]string{"path": path}, "config file written")
	}
	cmdutil.Printf(stdout, "%s Wrote %s\n", cmdutil.SuccessStyle.Render("✓"), path)
	return nil
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and environment
overrides are applied. Tokens are redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigShow(stdout io.Writer) error {
	raw, err := yaml.Marshal(redact(cmdutil.Config()))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if cmdutil.IsJSONOutput() {
		var data map[string]any
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("convert config: %w", err)
		}
		return cmdutil.WriteJSON(stdout, data, "")
	}

	_, err = stdout.Write(raw)
	return err
}

// redact returns a copy of c with every secret replaced.
func redact(c *appconfig.Config) *appconfig.Config {
	out := *c
	if out.Server.APIToken != "" {
		out.Server.APIToken = redacted
	}

	out.Wings.Nodes = make(map[string]appconfig.NodeConfig, len(c.Wings.Nodes))
	for id, node := range c.Wings.Nodes {
		if node.Token != "" {
			node.Token = redacted
		}
		out.Wings.Nodes[id] = node
	}
	return &out
}
