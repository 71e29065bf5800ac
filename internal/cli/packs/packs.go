package packs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/api"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/vanillatweaks"
)

// PacksFlags holds all flags for the packs command
type PacksFlags struct {
	MCVersion string
	Type      string
	Filter    string
}

// PackItem is one pack in the packs output.
type PackItem struct {
	Category     string   `json:"category"`
	Name         string   `json:"name"`
	Display      string   `json:"display"`
	Description  string   `json:"description,omitempty"`
	Incompatible []string `json:"incompatible,omitempty"`
}

// packSource adapts pack items to fuzzy matching on name, display name and
// category.
type packSource []PackItem

func (s packSource) String(i int) string {
	return s[i].Name + " " + s[i].Display + " " + s[i].Category
}

func (s packSource) Len() int {
	return len(s)
}

// NewCommand creates the packs command
func NewCommand() *cobra.Command {
	flags := &PacksFlags{}

	cmd := &cobra.Command{
		Use:   "packs",
		Short: "List the Vanilla Tweaks catalog",
		Long: `List the packs Vanilla Tweaks offers for a Minecraft version.

Use --filter to fuzzy match pack names, display names and categories.
Matches are ordered best first.`,
		Example: `  # List all 1.21 datapacks
  vtinstaller packs

  # Resource packs for 1.20
  vtinstaller packs --mc-version 1.20 --type resourcepacks

  # Fuzzy filter
  vtinstaller packs --filter "armr stnd"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPacks(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.MCVersion, "mc-version", api.DefaultVersion, "Minecraft version")
	cmd.Flags().StringVar(&flags.Type, "type", string(vanillatweaks.DefaultPackType), "pack type (datapacks, resourcepacks, craftingtweaks)")
	cmd.Flags().StringVar(&flags.Filter, "filter", "", "fuzzy filter")

	return cmd
}

func runPacks(ctx context.Context, stdout io.Writer, flags *PacksFlags) error {
	packType, err := vanillatweaks.ParsePackType(flags.Type)
	if err != nil {
		return err
	}
	version := strings.TrimSpace(flags.MCVersion)

	return cmdutil.WithApp(func(a *cmdutil.App) error {
		catalog, err := a.Catalog.Catalog(ctx, version, packType)
		if err != nil {
			return err
		}

		items := filterPacks(flattenCatalog(catalog), flags.Filter)

		if cmdutil.IsJSONOutput() {
			return cmdutil.WriteJSON(stdout, map[string]any{
				"mc_version": version,
				"type":       packType,
				"packs":      items,
				"count":      len(items),
			}, "")
		}

		if len(items) == 0 {
			cmdutil.Printf(stdout, "No packs match %q.\n", flags.Filter)
			return nil
		}

		cmdutil.Printf(stdout, "%s\n\n", cmdutil.TitleStyle.Render(fmt.Sprintf("Vanilla Tweaks %s for %s", packType, version)))
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{item.Category, item.Name, item.Display, item.Description})
		}
		cmdutil.Table(stdout, []string{"CATEGORY", "NAME", "TITLE", "DESCRIPTION"}, rows)
		return nil
	})
}

// flattenCatalog lists every pack in catalog order.
func flattenCatalog(catalog *vanillatweaks.PackCatalog) []PackItem {
	items := make([]PackItem, 0)
	for _, cat := range catalog.Categories {
		for _, p := range cat.Packs {
			items = append(items, PackItem{
				Category:     cat.Name,
				Name:         p.Name,
				Display:      p.Title(),
				Description:  p.Description,
				Incompatible: p.Incompatible,
			})
		}
	}
	return items
}

// filterPacks returns the fuzzy matches of filter, best first. A blank
// filter returns items unchanged.
func filterPacks(items []PackItem, filter string) []PackItem {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return items
	}

	matches := fuzzy.FindFrom(filter, packSource(items))
	out := make([]PackItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}
