// Package json streams JSON objects into Record maps for table loading.
//
// Accepted input shapes:
//
//   - newline-delimited objects (NDJSON): {"id":1}\n{"id":2}
//   - a root array of objects, when allow_arrays is set: [{"id":1},{"id":2}]
//
// Numbers are kept as json.Number so integer columns do not lose precision.
package json

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"dfpipe/internal/config"
)

// Record is one decoded JSON object.
type Record map[string]any

// Options controls decoding.
type Options struct {
	// AllowArrays accepts a single top-level array of objects.
	AllowArrays bool
}

// FromConfigOptions reads Options from a table's options bag:
//
//	allow_arrays (bool)
func FromConfigOptions(o config.Options) Options {
	return Options{AllowArrays: o.Bool("allow_arrays", false)}
}

// StreamJSON decodes r and sends each object to out. Non-object values at the
// top level (or inside the root array) are reported via onError and skipped.
// Returns nil at EOF; a syntax error ends the stream. The caller closes out.
func StreamJSON(
	ctx context.Context,
	r io.Reader,
	opt Options,
	out chan<- Record,
	onError func(n int, err error),
) error {
	br := bufio.NewReader(r)
	inArray := false
	if opt.AllowArrays {
		b, err := firstNonSpace(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("json: %w", err)
		}
		inArray = b == '['
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()
	if inArray {
		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("json: %w", err)
		}
	}

	n := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if inArray && !dec.More() {
			// Closing bracket; trailing content is ignored.
			_, _ = dec.Token()
			return nil
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("json: value %d: %w", n+1, err)
		}
		n++

		obj, ok := raw.(map[string]any)
		if !ok {
			if onError != nil {
				onError(n, fmt.Errorf("value is %T, not an object", raw))
			}
			continue
		}
		select {
		case out <- Record(obj):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// firstNonSpace peeks past leading whitespace without consuming the first
// significant byte.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Keys returns the sorted union of keys over recs.
func Keys(recs []Record) []string {
	seen := map[string]struct{}{}
	for _, r := range recs {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Text renders a decoded JSON value as a table cell: NULL stays nil, strings
// and numbers keep their text, booleans become "true"/"false", and nested
// objects or arrays are re-encoded as compact JSON.
func Text(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return strings.TrimSpace(string(b))
	}
}
