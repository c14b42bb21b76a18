package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	// Headers returns the column headers for the table.
	Headers() []string
	// Rows returns the data rows for the table.
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(data.Rows())

	table.Render()
	return nil
}

// Pairs is an ordered list of key/value rows.
type Pairs [][2]string

// Headers implements TableRenderer.
func (p Pairs) Headers() []string {
	return []string{"Key", "Value"}
}

// Rows implements TableRenderer.
func (p Pairs) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, pair := range p {
		rows = append(rows, []string{pair[0], pair[1]})
	}
	return rows
}
