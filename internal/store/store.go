// Package store holds the data-access layer. Each method runs one
// parameterized statement against the injected pool and wraps driver
// errors so the underlying cause stays reachable through errors.As.
package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no row matches the given id.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyUpdate is returned when a partial update carries no fields.
	ErrEmptyUpdate = errors.New("no fields to update")
)

// assignments collects "column = ?" pairs for an UPDATE statement.
type assignments struct {
	cols []string
	args []interface{}
}

func (a *assignments) add(col string, val interface{}) {
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, val)
}

// setIf adds col only when the optional field was supplied.
func setIf[T any](a *assignments, col string, v *T) {
	if v != nil {
		a.add(col, *v)
	}
}

// build renders "UPDATE table SET ... WHERE id = ?" and its arguments.
// It refuses to render a statement with an empty SET list.
func (a *assignments) build(table string, id int64) (string, []interface{}, error) {
	if len(a.cols) == 0 {
		return "", nil, ErrEmptyUpdate
	}
	query := "UPDATE " + table + " SET " + strings.Join(a.cols, ", ") + " WHERE id = ?"
	args := append(append([]interface{}{}, a.args...), id)
	return query, args, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
