package database

import (
	"strconv"
	"strings"
)

// WhereBuilder assembles a WHERE clause with numbered $n placeholders.
// Conditions are joined with AND.
type WhereBuilder struct {
	conditions []string
	args       []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// Add appends "column = $n".
func (w *WhereBuilder) Add(column string, value any) {
	w.AddComparison(column, "=", value)
}

// AddComparison appends "column op $n". op must be a trusted SQL operator.
func (w *WhereBuilder) AddComparison(column, op string, value any) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions,
		quoteIdentifier(column)+" "+op+" $"+strconv.Itoa(len(w.args)))
}

// NextArgIndex returns the placeholder number the next argument will take.
func (w *WhereBuilder) NextArgIndex() int {
	return len(w.args) + 1
}

// Build returns " WHERE ..." (empty without conditions) and its arguments.
func (w *WhereBuilder) Build() (string, []any) {
	if len(w.conditions) == 0 {
		return "", w.args
	}
	return " WHERE " + strings.Join(w.conditions, " AND "), w.args
}

// quoteIdentifier safely quotes a SQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
