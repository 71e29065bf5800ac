package versions

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/minecraft"
)

// VersionsFlags holds all flags for the versions command
type VersionsFlags struct {
	Limit       int
	ManifestURL string
}

// NewCommand creates the versions command
func NewCommand() *cobra.Command {
	flags := &VersionsFlags{}

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List Minecraft release lines",
		Long: `List the MAJOR.MINOR release lines from the Mojang version manifest,
newest first. Vanilla Tweaks publishes one catalog per line.`,
		Example: `  # Latest ten release lines
  vtinstaller versions

  # All release lines as JSON
  vtinstaller versions --limit 0 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().IntVar(&flags.Limit, "limit", 10, "maximum number of lines (0 for all)")
	cmd.Flags().StringVar(&flags.ManifestURL, "manifest-url", minecraft.VersionManifestURL, "version manifest URL")
	_ = cmd.Flags().MarkHidden("manifest-url")

	return cmd
}

func runVersions(ctx context.Context, stdout io.Writer, flags *VersionsFlags) error {
	client := minecraft.NewClient(&minecraft.Config{ManifestURL: flags.ManifestURL})

	manifest, err := client.GetVersionManifest(ctx)
	if err != nil {
		return err
	}
	lines := minecraft.ReleaseLines(manifest.Versions, flags.Limit)

	if cmdutil.IsJSONOutput() {
		return cmdutil.WriteJSON(stdout, map[string]any{
			"latest":   manifest.Latest.Release,
			"versions": lines,
		}, "")
	}

	cmdutil.Printf(stdout, "%s %s\n", cmdutil.TitleStyle.Render("Latest release:"), manifest.Latest.Release)
	for _, line := range lines {
		cmdutil.Printf(stdout, "  %s\n", line)
	}
	return nil
}
