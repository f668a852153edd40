// Package datetime translates Spark/Java style datetime patterns
// ("yyyy-MM-dd'T'HH:mm:ss[.SSS][ZZZ]") into Go time layouts.
//
// Supported letters: yyyy yy MM M dd d HH hh mm ss SSS a Z ZZ ZZZ X XX XXX.
// Quoted text ('T') is literal and '' is a single quote. Square brackets mark
// optional sections: they are dropped when formatting and tried both ways
// when parsing.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

// Pattern is a compiled datetime pattern.
type Pattern struct {
	source   string
	format   string
	parsings []string
}

type segment struct {
	layout   string
	optional bool
}

// Compile parses a Spark-style pattern.
func Compile(pattern string) (*Pattern, error) {
	segs, err := tokenize(pattern)
	if err != nil {
		return nil, err
	}

	var format strings.Builder
	var optIdx []int
	for i, s := range segs {
		if s.optional {
			optIdx = append(optIdx, i)
			continue
		}
		format.WriteString(s.layout)
	}

	// Most specific first: every optional section present, then fewer.
	n := len(optIdx)
	parsings := make([]string, 0, 1<<n)
	seen := map[string]struct{}{}
	for mask := (1 << n) - 1; mask >= 0; mask-- {
		keep := make(map[int]bool, n)
		for b, idx := range optIdx {
			keep[idx] = mask&(1<<b) != 0
		}
		var sb strings.Builder
		for i, s := range segs {
			if s.optional && !keep[i] {
				continue
			}
			sb.WriteString(s.layout)
		}
		l := sb.String()
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		parsings = append(parsings, l)
	}

	return &Pattern{source: pattern, format: format.String(), parsings: parsings}, nil
}

// MustCompile is Compile for patterns known at build time.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.source }

// Layout returns the Go layout used for formatting.
func (p *Pattern) Layout() string { return p.format }

// Format renders t (converted to UTC) with optional sections omitted.
func (p *Pattern) Format(t time.Time) string {
	return t.UTC().Format(p.format)
}

// Parse tries every expansion of the optional sections and returns the first
// successful parse, in UTC.
func (p *Pattern) Parse(s string) (time.Time, error) {
	var firstErr error
	for _, l := range p.parsings {
		t, err := time.Parse(l, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("datetime: %q does not match pattern %q: %w", s, p.source, firstErr)
}

var letterLayouts = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"HH":   "15",
	"hh":   "03",
	"mm":   "04",
	"ss":   "05",
	"SSS":  "000",
	"a":    "PM",
	"Z":    "-0700",
	"ZZ":   "-0700",
	"ZZZ":  "-0700",
	"X":    "-07",
	"XX":   "-0700",
	"XXX":  "-07:00",
}

func tokenize(pattern string) ([]segment, error) {
	var (
		segs     []segment
		cur      strings.Builder
		optional bool
		rs       = []rune(pattern)
	)
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, segment{layout: cur.String(), optional: optional})
			cur.Reset()
		}
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\'':
			if i+1 < len(rs) && rs[i+1] == '\'' {
				cur.WriteRune('\'')
				i++
				continue
			}
			j := i + 1
			for j < len(rs) && rs[j] != '\'' {
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("datetime: unterminated quote in %q", pattern)
			}
			cur.WriteString(string(rs[i+1 : j]))
			i = j
		case r == '[':
			if optional {
				return nil, fmt.Errorf("datetime: nested optional section in %q", pattern)
			}
			flush()
			optional = true
		case r == ']':
			if !optional {
				return nil, fmt.Errorf("datetime: unbalanced ']' in %q", pattern)
			}
			flush()
			optional = false
		case isLetter(r):
			j := i
			for j < len(rs) && rs[j] == r {
				j++
			}
			run := string(rs[i:j])
			l, ok := letterLayouts[run]
			if !ok {
				return nil, fmt.Errorf("datetime: unsupported pattern letters %q in %q", run, pattern)
			}
			if run == "SSS" {
				prev := cur.String()
				if !strings.HasSuffix(prev, ".") && !strings.HasSuffix(prev, ",") {
					return nil, fmt.Errorf("datetime: SSS must follow '.' or ',' in %q", pattern)
				}
			}
			cur.WriteString(l)
			i = j - 1
		default:
			cur.WriteRune(r)
		}
	}
	if optional {
		return nil, fmt.Errorf("datetime: unterminated optional section in %q", pattern)
	}
	flush()
	return segs, nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
