package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
)

// VersionInfo contains version information for the application
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	BuiltBy string `json:"built_by"`
}

// NewVersionCommand creates the version command
func NewVersionCommand(version, commit, date, builtBy string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print detailed version information including build commit and date.",
		Example: `  # Display version information
  vtinstaller version

  # Output in JSON format
  vtinstaller version --json`,
		Annotations: map[string]string{cmdutil.SkipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout(), VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
				BuiltBy: builtBy,
			})
		},
	}

	return cmd
}

// printVersion prints version information in the appropriate format
func printVersion(w io.Writer, info VersionInfo) error {
	if IsJSONOutput() {
		return cmdutil.WriteJSON(w, info, "")
	}

	_, err := fmt.Fprintf(w, "vtinstaller version %s\nCommit: %s\nBuilt: %s\nBuilt by: %s\n",
		info.Version, info.Commit, info.Date, info.BuiltBy)
	if err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}
