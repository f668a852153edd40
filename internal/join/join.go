// Package join combines two tables on a single key column.
//
// The right table is indexed in a hash table keyed by the xxh3 hash of each
// key's text form; candidates are confirmed by comparing the text itself, so
// hash collisions cannot produce false matches. NULL keys never match.
package join

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"dfpipe/internal/table"
)

// Kind selects which unmatched rows are kept.
type Kind string

const (
	FullOuter Kind = "full_outer"
	Inner     Kind = "inner"
	Left      Kind = "left"
	Right     Kind = "right"
)

// ParseKind accepts the Spark spellings of the supported join types. Empty
// means FullOuter.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "fullouter", "full", "outer":
		return FullOuter, nil
	case "inner":
		return Inner, nil
	case "left", "leftouter":
		return Left, nil
	case "right", "rightouter":
		return Right, nil
	}
	return "", fmt.Errorf("join: unknown join type %q", s)
}

func (k Kind) keepLeft() bool  { return k == FullOuter || k == Left }
func (k Kind) keepRight() bool { return k == FullOuter || k == Right }

// Spec names the key columns on each side.
type Spec struct {
	LeftOn  string
	RightOn string
	Kind    Kind
}

// CollisionSuffix is appended to right-side column names that already exist
// on the left (compared case-insensitively).
const CollisionSuffix = "_right"

// Tables joins left and right on spec.
//
// The output schema is every left column followed by every right column, all
// nullable. Rows come out in left order, each followed by its matches in right
// order; unmatched right rows follow at the end in right order.
func Tables(left, right *table.Table, spec Spec) (*table.Table, error) {
	kind := spec.Kind
	if kind == "" {
		kind = FullOuter
	}
	li := left.Index(spec.LeftOn)
	if li < 0 {
		return nil, fmt.Errorf("join: left table %s: cannot resolve column %q", left.Name, spec.LeftOn)
	}
	ri := right.Index(spec.RightOn)
	if ri < 0 {
		return nil, fmt.Errorf("join: right table %s: cannot resolve column %q", right.Name, spec.RightOn)
	}

	schema := joinedSchema(left.Schema, right.Schema)
	lw, rw := len(left.Schema), len(right.Schema)
	lt, rt := left.Schema[li].Type, right.Schema[ri].Type

	idx := buildIndex(right.Rows, ri, rt)
	matchedRight := make([]bool, len(right.Rows))

	rows := make([][]any, 0, len(left.Rows))
	for _, lr := range left.Rows {
		found := false
		if key, ok := keyOf(lr[li], lt); ok {
			for _, r := range idx.lookup(key) {
				found = true
				matchedRight[r] = true
				rows = append(rows, concat(lr, right.Rows[r], lw, rw))
			}
		}
		if !found && kind.keepLeft() {
			rows = append(rows, concat(lr, nil, lw, rw))
		}
	}
	if kind.keepRight() {
		for r, rr := range right.Rows {
			if !matchedRight[r] {
				rows = append(rows, concat(nil, rr, lw, rw))
			}
		}
	}

	return table.New(left.Name, schema, rows)
}

type entry struct {
	key string
	row int
}

// index maps xxh3(key) to the right rows holding that key, in row order.
type index map[uint64][]entry

func buildIndex(rows [][]any, col int, typ table.Type) index {
	idx := make(index, len(rows))
	for r, row := range rows {
		key, ok := keyOf(row[col], typ)
		if !ok {
			continue
		}
		h := xxh3.HashString(key)
		idx[h] = append(idx[h], entry{key: key, row: r})
	}
	return idx
}

func (idx index) lookup(key string) []int {
	var out []int
	for _, e := range idx[xxh3.HashString(key)] {
		if e.key == key {
			out = append(out, e.row)
		}
	}
	return out
}

func keyOf(v any, typ table.Type) (string, bool) {
	if v == nil {
		return "", false
	}
	return table.FormatValue(typ, v), true
}

func joinedSchema(left, right []table.Column) []table.Column {
	out := make([]table.Column, 0, len(left)+len(right))
	taken := make(map[string]struct{}, len(left)+len(right))
	for _, c := range left {
		c.Nullable = true
		out = append(out, c)
		taken[strings.ToLower(c.Name)] = struct{}{}
	}
	for _, c := range right {
		c.Nullable = true
		for {
			if _, dup := taken[strings.ToLower(c.Name)]; !dup {
				break
			}
			c.Name += CollisionSuffix
		}
		out = append(out, c)
		taken[strings.ToLower(c.Name)] = struct{}{}
	}
	return out
}

// concat lays out a joined row; a nil side is NULL-filled.
func concat(l, r []any, lw, rw int) []any {
	out := make([]any, lw+rw)
	copy(out, l)
	copy(out[lw:], r)
	return out
}
