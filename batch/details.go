package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/go-kratos/qaeval/dataset"
)

const (
	inputsPrefix  = "inputs."
	outputsPrefix = "outputs."

	previewWidth = 40
)

var (
	// ErrUnknownColumn is returned when a selected column is not in the details table.
	ErrUnknownColumn = errors.New("batch: unknown column")
	// ErrLineFailed is returned when selecting from a line whose flow run failed.
	ErrLineFailed = errors.New("batch: line failed")
)

// Details is the per-line table of a run. Columns are named
// "inputs.<name>" and "outputs.<name>".
type Details []Line

// Columns returns the sorted union of all column names.
func (d Details) Columns() []string {
	seen := make(map[string]struct{})
	for _, line := range d {
		for k := range line.Inputs {
			seen[inputsPrefix+k] = struct{}{}
		}
		for k := range line.Outputs {
			seen[outputsPrefix+k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	slices.Sort(columns)
	return columns
}

// Value returns the value of column for the line at index i.
func (d Details) Value(i int, column string) (any, bool) {
	line := d[i]
	switch {
	case strings.HasPrefix(column, inputsPrefix):
		v, ok := line.Inputs[strings.TrimPrefix(column, inputsPrefix)]
		return v, ok
	case strings.HasPrefix(column, outputsPrefix):
		v, ok := line.Outputs[strings.TrimPrefix(column, outputsPrefix)]
		return v, ok
	default:
		return nil, false
	}
}

// Column is a selected column and the field name it is renamed to.
type Column struct {
	Name   string
	Rename string
}

// Select extracts exactly the given columns from every line, renaming them.
// All other columns are dropped. A failed line or a missing value is an error.
func (d Details) Select(columns ...Column) ([]dataset.Row, error) {
	rows := make([]dataset.Row, 0, len(d))
	for i, line := range d {
		if line.Status == StatusFailed {
			return nil, fmt.Errorf("%w: line %d: %v", ErrLineFailed, line.Index, line.Err)
		}
		row := make(dataset.Row, len(columns))
		for _, c := range columns {
			v, ok := d.Value(i, c.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %s (line %d)", ErrUnknownColumn, c.Name, line.Index)
			}
			row[c.Rename] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Preview renders the first n lines as a table.
func (d Details) Preview(n int) string {
	if n > len(d) {
		n = len(d)
	}
	columns := d.Columns()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(append([]string{""}, columns...)...)
	for i := 0; i < n; i++ {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, strconv.Itoa(d[i].Index))
		for _, c := range columns {
			v, ok := d.Value(i, c)
			if !ok {
				cells = append(cells, "NaN")
				continue
			}
			cells = append(cells, truncate(format(v), previewWidth))
		}
		t.Row(cells...)
	}
	return t.Render()
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return "None"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
