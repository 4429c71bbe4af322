package dbx

import (
	"fmt"
	"strings"
)

// Assignments collects "column = $n" pairs for partial UPDATE statements.
// Placeholders are numbered in the order columns are added; Next returns the
// number to use for the first WHERE argument.
type Assignments struct {
	cols []string
	args []any
}

func (a *Assignments) Add(column string, value any) {
	a.args = append(a.args, value)
	a.cols = append(a.cols, fmt.Sprintf("%s = $%d", column, len(a.args)))
}

func (a *Assignments) Empty() bool { return len(a.cols) == 0 }

func (a *Assignments) Next() int { return len(a.args) + 1 }

// SQL renders the SET list.
func (a *Assignments) SQL() string { return strings.Join(a.cols, ", ") }

// Args returns the collected values followed by extra.
func (a *Assignments) Args(extra ...any) []any {
	out := make([]any, 0, len(a.args)+len(extra))
	out = append(out, a.args...)
	return append(out, extra...)
}
