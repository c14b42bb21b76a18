package output

import (
	"github.com/marmos91/scaffold/pkg/validation"
)

// IssueTable renders validation issues one per row.
type IssueTable []validation.Issue

// Headers implements TableRenderer.
func (t IssueTable) Headers() []string {
	return []string{"Variable", "Code", "Message"}
}

// Rows implements TableRenderer.
func (t IssueTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, issue := range t {
		path := issue.PathString()
		if path == "" {
			path = "-"
		}
		rows = append(rows, []string{path, issue.Code, issue.Message})
	}
	return rows
}
