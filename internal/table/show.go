package table

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"
)

// ShowOptions controls the console rendering of a table.
type ShowOptions struct {
	// Rows caps the number of data rows printed. Zero means 20.
	Rows int
	// Truncate cuts cells longer than this many runes and right-aligns
	// every cell. Zero disables truncation and left-aligns.
	Truncate int
}

const (
	defaultShowRows = 20
	minColWidth     = 3
)

// Show writes t as a bordered grid followed by a blank line:
//
//	+----+-----+
//	|id  |name |
//	+----+-----+
//	|1   |alpha|
//	+----+-----+
//
// NULL cells print as "null". When t has more rows than opts.Rows a trailer
// line "only showing top N rows" follows the grid.
func Show(w io.Writer, t *Table, opts ShowOptions) error {
	limit := opts.Rows
	if limit <= 0 {
		limit = defaultShowRows
	}
	more := t.Len() > limit
	n := t.Len()
	if more {
		n = limit
	}

	cells := make([][]string, 0, n+1)
	header := make([]string, len(t.Schema))
	for i, c := range t.Schema {
		header[i] = cut(c.Name, opts.Truncate)
	}
	cells = append(cells, header)
	for _, r := range t.Rows[:n] {
		line := make([]string, len(r))
		for i, v := range r {
			line[i] = cut(FormatValue(t.Schema[i].Type, v), opts.Truncate)
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(t.Schema))
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, line := range cells {
		for i, s := range line {
			if dw := DisplayWidth(s); dw > widths[i] {
				widths[i] = dw
			}
		}
	}

	var sb strings.Builder
	sep := separator(widths)
	sb.WriteString(sep)
	writeLine(&sb, cells[0], widths, opts.Truncate > 0)
	sb.WriteString(sep)
	for _, line := range cells[1:] {
		writeLine(&sb, line, widths, opts.Truncate > 0)
	}
	sb.WriteString(sep)
	if more {
		noun := "rows"
		if limit == 1 {
			noun = "row"
		}
		fmt.Fprintf(&sb, "only showing top %d %s\n", limit, noun)
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

// PrintSchema writes the schema tree of t followed by a blank line:
//
//	root
//	 |-- id: integer (nullable = true)
func PrintSchema(w io.Writer, t *Table) error {
	var sb strings.Builder
	sb.WriteString("root\n")
	for _, c := range t.Schema {
		fmt.Fprintf(&sb, " |-- %s: %s (nullable = %t)\n", c.Name, c.Type, c.Nullable)
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// DisplayWidth is the number of terminal cells s occupies. East Asian wide and
// fullwidth runes count as two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func cut(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit < 4 {
		return string(rs[:limit])
	}
	return string(rs[:limit-3]) + "..."
}

func separator(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteByte('+')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func writeLine(sb *strings.Builder, line []string, widths []int, alignRight bool) {
	sb.WriteByte('|')
	for i, s := range line {
		pad := strings.Repeat(" ", widths[i]-DisplayWidth(s))
		if alignRight {
			sb.WriteString(pad)
			sb.WriteString(s)
		} else {
			sb.WriteString(s)
			sb.WriteString(pad)
		}
		sb.WriteByte('|')
	}
	sb.WriteByte('\n')
}
