package activity

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	activitylog "github.com/featherpanel-com/MinecraftDatapackInstaller/internal/activity"
	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/cli/cmdutil"
)

// ActivityFlags holds all flags for the activity command
type ActivityFlags struct {
	Limit int
}

// NewCommand creates the activity command
func NewCommand() *cobra.Command {
	flags := &ActivityFlags{}

	cmd := &cobra.Command{
		Use:   "activity [server]",
		Short: "Show recent installs",
		Long: `Show the most recent installs recorded in the activity database, newest
first. Without a server id, installs on every server are shown.

Requires activity.database to be set in the config file.`,
		Example: `  vtinstaller activity 8d5e1c1a-6f0e-4e5b-9a3a-2f2f6b1d0c11 --limit 5`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverID := ""
			if len(args) == 1 {
				serverID = args[0]
			}
			return runActivity(cmd.Context(), cmd.OutOrStdout(), serverID, flags)
		},
	}

	cmd.Flags().IntVar(&flags.Limit, "limit", 20, "maximum number of records")

	return cmd
}

func runActivity(ctx context.Context, stdout io.Writer, serverID string, flags *ActivityFlags) error {
	if flags.Limit < 1 {
		return fmt.Errorf("limit must be >= 1, got %d", flags.Limit)
	}
	if cmdutil.Config().Activity.Database == "" {
		return fmt.Errorf("activity database is not configured (set activity.database)")
	}

	store, err := activitylog.Open(cmdutil.Config().Activity.Database)
	if err != nil {
		return fmt.Errorf("open activity database: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	records, err := store.Recent(ctx, serverID, flags.Limit)
	if err != nil {
		return err
	}

	if cmdutil.IsJSONOutput() {
		return cmdutil.WriteJSON(stdout, map[string]any{"records": records, "count": len(records)}, "")
	}

	if len(records) == 0 {
		cmdutil.Printf(stdout, "No activity recorded.\n")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format(time.DateTime),
			r.ServerUUID,
			r.User,
			r.World,
			r.PackType,
			r.MCVersion,
			strconv.Itoa(r.PacksCount),
			strconv.Itoa(r.FilesWritten),
		})
	}
	cmdutil.Table(stdout, []string{"TIME", "SERVER", "USER", "WORLD", "TYPE", "VERSION", "PACKS", "FILES"}, rows)
	return nil
}
