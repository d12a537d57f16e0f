package theme

import (
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// NewTable creates a borderless, left-aligned table writing to w (stdout when nil).
// Headers are bold cyan when t has colors enabled.
func NewTable(w io.Writer, t Theme, header ...string) *tablewriter.Table {
	if w == nil {
		w = os.Stdout
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	if t != nil && t.IsEnabled() {
		headerColors := make([]tablewriter.Colors, len(header))
		for i := range headerColors {
			headerColors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
		}
		table.SetHeaderColor(headerColors...)
	}
	return table
}
