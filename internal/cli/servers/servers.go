// Package servers holds the commands that inspect a single server.
package servers

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/minecraft"
)

// NewWorldsCommand creates the worlds command
func NewWorldsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worlds <server>",
		Short: "List the worlds of a server",
		Long: `List the world directories of a server. A directory is a world when it
contains a level.dat file. The default world is listed first.`,
		Example: `  vtinstaller worlds 8d5e1c1a-6f0e-4e5b-9a3a-2f2f6b1d0c11`,
		Args:    cmdutil.RequireServerID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorlds(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	return cmd
}

func runWorlds(ctx context.Context, stdout io.Writer, serverID string) error {
	return cmdutil.WithApp(func(a *cmdutil.App) error {
		target, err := a.Resolver.Resolve(ctx, serverID)
		if err != nil {
			return err
		}

		worlds, err := minecraft.ListWorlds(ctx, target.FS, "")
		if err != nil {
			return err
		}

		if cmdutil.IsJSONOutput() {
			return cmdutil.WriteJSON(stdout, map[string]any{"worlds": worlds}, "")
		}

		if len(worlds) == 0 {
			cmdutil.Printf(stdout, "No worlds found on %s.\n", target.UUID)
			return nil
		}

		rows := make([][]string, 0, len(worlds))
		for _, w := range worlds {
			rows = append(rows, []string{w.Name, w.Path})
		}
		cmdutil.Table(stdout, []string{"NAME", "PATH"}, rows)
		return nil
	})
}

// NewDetectVersionCommand creates the detect-version command
func NewDetectVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect-version <server>",
		Short: "Detect the Minecraft version of a server",
		Long: `Detect the MAJOR.MINOR Minecraft version of a server from the entries of
its versions directory.`,
		Example: `  vtinstaller detect-version 8d5e1c1a-6f0e-4e5b-9a3a-2f2f6b1d0c11`,
		Args:    cmdutil.RequireServerID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetectVersion(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	return cmd
}

func runDetectVersion(ctx context.Context, stdout io.Writer, serverID string) error {
	return cmdutil.WithApp(func(a *cmdutil.App) error {
		target, err := a.Resolver.Resolve(ctx, serverID)
		if err != nil {
			return err
		}

		version, ok := minecraft.DetectVersion(ctx, target.FS, minecraft.VersionsDir)

		if cmdutil.IsJSONOutput() {
			var v *string
			if ok {
				v = &version
			}
			return cmdutil.WriteJSON(stdout, map[string]any{"version": v}, "")
		}

		if !ok {
			cmdutil.Printf(stdout, "%s\n", cmdutil.MutedStyle.Render("Version could not be detected."))
			return nil
		}
		cmdutil.Printf(stdout, "%s\n", version)
		return nil
	})
}
