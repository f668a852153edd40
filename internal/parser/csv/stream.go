// Package csv streams CSV input into string rows for table loading.
//
// StreamCSV emits rows one by one without whole-file buffering. The header row
// is mandatory and is handed to the caller before any data row, so the caller
// can fix the table layout first.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"dfpipe/internal/config"
)

// Options configures the reader. Zero values are usable.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each data cell.
	TrimSpace bool

	// NormalizeHeader rewrites header cells with NormalizeFieldName.
	NormalizeHeader bool

	// HeaderMap renames header cells (matched after BOM strip and trim).
	// It wins over NormalizeHeader.
	HeaderMap map[string]string
}

// FromConfigOptions reads Options from a table's options bag:
//
//	comma (string), trim_space (bool, default true),
//	normalize_header (bool), header_map (object)
func FromConfigOptions(o config.Options) Options {
	return Options{
		Comma:           o.Rune("comma", ','),
		TrimSpace:       o.Bool("trim_space", true),
		NormalizeHeader: o.Bool("normalize_header", false),
		HeaderMap:       o.StringMap("header_map"),
	}
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// StreamCSV reads r and sends data rows into out.
//
// Behavior:
//   - The header is read first, normalized, and passed to onHeader. An error
//     from onHeader aborts the stream.
//   - Rows whose width differs from the header are reported via onError and
//     skipped; so are rows encoding/csv cannot parse.
//   - Returns nil at EOF. The caller is responsible for closing out.
func StreamCSV(
	ctx context.Context,
	r io.Reader,
	opt Options,
	onHeader func(header []string) error,
	out chan<- []string,
	onError func(line int, err error),
) error {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	// Width is enforced after reading so one bad row does not end the stream.
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("read csv header: empty input")
		}
		return fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h, opt)
	if err := onHeader(headers); err != nil {
		return err
	}

	line := 1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++

		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("read line %d: %w", line, err)
			}
			if onError != nil {
				onError(line, fmt.Errorf("parse: %w", err))
			}
			continue
		}
		if len(rec) != len(headers) {
			if onError != nil {
				onError(line, fmt.Errorf("incorrect number of fields: expected %d, got %d", len(headers), len(rec)))
			}
			continue
		}

		row := make([]string, len(rec))
		for i, v := range rec {
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// normalizeHeaders strips a UTF-8 BOM from the first cell, trims every cell,
// then applies HeaderMap or NormalizeFieldName.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimSpace(strings.TrimPrefix(c, utf8BOM))
		}
		if m, ok := opt.HeaderMap[c]; ok {
			res[i] = m
			continue
		}
		if opt.NormalizeHeader {
			c = NormalizeFieldName(c)
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}

// NormalizeFieldName converts arbitrary header text into a lowercase ASCII
// identifier suitable for SQL schemas:
//  1. lowercase
//  2. strip accents (NFD, remove Mn, NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if empty
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "col"
	}
	return out
}
