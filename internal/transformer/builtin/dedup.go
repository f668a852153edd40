package builtin

import (
	"fmt"
	"sort"
	"strings"

	"dfpipe/internal/table"
)

// DeDup collapses rows sharing the same key and keeps one winner per key:
//
//   - "keep-first"   : the earliest occurrence
//   - "keep-last"    : the latest occurrence (default)
//   - "most-complete": the row with the most non-NULL, non-empty cells;
//     ties break by keep-last
//
// Winners come out in the order of their original positions. A key built from
// NULL cells still groups rows; NULL is a distinct key part.
type DeDup struct {
	Keys []string

	Policy string

	// PreferFields weigh more heavily in most-complete selection. Ties still
	// break by keep-last.
	PreferFields []string
}

func (d DeDup) Apply(t *table.Table) (*table.Table, error) {
	if t.Len() == 0 || len(d.Keys) == 0 {
		return t, nil
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	switch policy {
	case "":
		policy = "keep-last"
	case "keep-first", "keep-last", "most-complete":
	default:
		return nil, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	keyIdx := make([]int, len(d.Keys))
	for i, k := range d.Keys {
		keyIdx[i] = t.Index(k)
		if keyIdx[i] < 0 {
			return nil, fmt.Errorf("dedup: cannot resolve key column %q among %v", k, t.Names())
		}
	}
	prefer := make(map[int]struct{}, len(d.PreferFields))
	for _, f := range d.PreferFields {
		if i := t.Index(f); i >= 0 {
			prefer[i] = struct{}{}
		}
	}

	keyOf := func(row []any) string {
		var b strings.Builder
		for n, i := range keyIdx {
			if n > 0 {
				b.WriteByte('\x1f')
			}
			if row[i] == nil {
				b.WriteByte('\x00')
				continue
			}
			b.WriteString(table.FormatValue(t.Schema[i].Type, row[i]))
		}
		return b.String()
	}

	scoreOf := func(row []any) int {
		score, bonus := 0, 0
		for i, v := range row {
			if v == nil || v == "" {
				continue
			}
			score++
			if _, ok := prefer[i]; ok {
				bonus++
			}
		}
		return score*10 + bonus
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[string]slot, t.Len())
	for i, row := range t.Rows {
		key := keyOf(row)
		switch policy {
		case "keep-first":
			if _, exists := winners[key]; !exists {
				winners[key] = slot{index: i}
			}
		case "most-complete":
			s := slot{index: i, score: scoreOf(row)}
			if prev, exists := winners[key]; !exists || s.score >= prev.score {
				winners[key] = s
			}
		default:
			winners[key] = slot{index: i}
		}
	}

	keep := make([]int, 0, len(winners))
	for _, s := range winners {
		keep = append(keep, s.index)
	}
	sort.Ints(keep)

	out := t.Filter(func([]any) bool { return false })
	for _, i := range keep {
		out.Rows = append(out.Rows, append([]any(nil), t.Rows[i]...))
	}
	return out, nil
}
