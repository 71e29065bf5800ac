package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// Output is the envelope of every --json response.
type Output struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON prints a success envelope around data.
func WriteJSON(w io.Writer, data any, message string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Output{Status: "success", Data: data, Message: message}); err != nil {
		return fmt.Errorf("encode JSON output: %w", err)
	}
	return nil
}

// PrintError reports err on w, as an error envelope when asJSON is set.
func PrintError(w io.Writer, err error, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(Output{Status: "error", Error: err.Error()})
		return
	}
	_, _ = fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
}

// Printf writes human output unless --quiet is set.
func Printf(w io.Writer, format string, args ...any) {
	if IsQuiet() {
		return
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

// RequireServerID validates that exactly one server id is provided.
func RequireServerID(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("server id is required\nUsage: %s\n\nRun '%s --help' for more information", cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("only one server id allowed, got: %v\nUsage: %s\n\nRun '%s --help' for more information", args, cmd.UseLine(), cmd.CommandPath())
	}
	if strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("server id cannot be empty")
	}
	return nil
}

// Table renders rows as left-aligned columns sized to their widest cell.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string, style func(string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				cell = fmt.Sprintf("%-*s", widths[i], cell)
			}
			parts[i] = cell
		}
		_, _ = fmt.Fprintln(w, style(strings.TrimRight(strings.Join(parts, "  "), " ")))
	}

	line(header, func(s string) string { return TableHeaderStyle.Render(s) })
	for _, row := range rows {
		line(row, func(s string) string { return s })
	}
}
