package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/capcast/pkg/capset"
)

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printTable writes tab-aligned rows, trimming trailing padding.
func printTable(out io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

// targetName renders an entry as "Trait + Movable", or the bare name when it
// carries no markers.
func targetName(e capset.Entry[string]) string {
	if e.Markers == capset.NoMarkers {
		return e.Type
	}
	return e.Type + " + " + e.Markers.String()
}

func markerNames(s capset.MarkerSet) []string {
	names := make([]string, 0, s.Len())
	for _, m := range s.Markers() {
		names = append(names, m.String())
	}
	return names
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
