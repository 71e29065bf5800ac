package install

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/installer"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/minecraft"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

// InstallFlags holds all flags for the install command
type InstallFlags struct {
	World     string
	MCVersion string
	Type      string
	Packs     []string
	User      string
}

// NewCommand creates the install command
func NewCommand() *cobra.Command {
	flags := &InstallFlags{}

	cmd := &cobra.Command{
		Use:   "install <server>",
		Short: "Install packs on a server",
		Long: `Install Vanilla Tweaks packs into <world>/datapacks on a server.

Packs are selected with --pack "Category=name". Several names of the same
category may be separated by commas. When --mc-version is omitted the
version is detected from the server's versions directory.`,
		Example: `  # Install two datapacks
  vtinstaller install 8d5e1c1a --pack "Armor Stands=armor_stand" --pack "Survival=graves"

  # Crafting tweaks into a custom world
  vtinstaller install 8d5e1c1a --type craftingtweaks --world survival \
    --mc-version 1.21 --pack "Quality of Life=dropper_to_dispenser,back_to_blocks"`,
		Args: cmdutil.RequireServerID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.World, "world", minecraft.DefaultWorld, "target world directory")
	cmd.Flags().StringVar(&flags.MCVersion, "mc-version", "", "Minecraft version (detected when omitted)")
	cmd.Flags().StringVar(&flags.Type, "type", string(vanillatweaks.DefaultPackType), "pack type (datapacks, resourcepacks, craftingtweaks)")
	cmd.Flags().StringArrayVar(&flags.Packs, "pack", nil, `pack to install as "Category=name[,name...]" (repeatable)`)
	cmd.Flags().StringVar(&flags.User, "user", os.Getenv("USER"), "user recorded in the activity log")
	_ = cmd.MarkFlagRequired("pack")

	return cmd
}

func runInstall(ctx context.Context, stdout io.Writer, serverID string, flags *InstallFlags) error {
	selection, err := parseSelection(flags.Packs)
	if err != nil {
		return err
	}
	packType, err := vanillatweaks.ParsePackType(flags.Type)
	if err != nil {
		return err
	}

	return cmdutil.WithApp(func(a *cmdutil.App) error {
		target, err := a.Resolver.Resolve(ctx, serverID)
		if err != nil {
			return err
		}

		version := strings.TrimSpace(flags.MCVersion)
		if version == "" {
			detected, ok := minecraft.DetectVersion(ctx, target.FS, minecraft.VersionsDir)
			if !ok {
				return fmt.Errorf("could not detect the Minecraft version of %s; pass --mc-version", target.UUID)
			}
			slog.Info("detected Minecraft version", "server", target.UUID, "version", detected)
			version = detected
		}

		result, err := a.Installer.Install(ctx, target.FS, installer.Job{
			ServerUUID: target.UUID,
			User:       flags.User,
			MCVersion:  version,
			PackType:   packType,
			Selection:  selection,
			World:      flags.World,
		})
		if err != nil {
			return err
		}

		message := fmt.Sprintf("Installed %d %s into %s", result.PacksCount, result.PackType, result.World)
		if cmdutil.IsJSONOutput() {
			return cmdutil.WriteJSON(stdout, result, message)
		}

		cmdutil.Printf(stdout, "%s %s\n", cmdutil.SuccessStyle.Render("✓"), message)
		cmdutil.Printf(stdout, "%s\n", cmdutil.MutedStyle.Render(fmt.Sprintf("  %d file(s) written to %s/datapacks", result.FilesWritten, result.World)))
		return nil
	})
}

// parseSelection turns "Category=a,b" values into a Selection.
func parseSelection(values []string) (vanillatweaks.Selection, error) {
	selection := vanillatweaks.Selection{}
	for _, v := range values {
		category, names, ok := strings.Cut(v, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("invalid --pack %q: expected Category=name", v)
		}
		for _, name := range strings.Split(names, ",") {
			selection.Add(category, strings.TrimSpace(name))
		}
	}

	selection = selection.Normalize()
	if selection.Empty() {
		return nil, fmt.Errorf("no packs selected")
	}
	return selection, nil
}
