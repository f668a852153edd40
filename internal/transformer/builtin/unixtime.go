package builtin

import (
	"strconv"
	"time"

	"dfpipe/internal/datetime"
	"dfpipe/internal/table"
)

// DefaultTimestampPattern is the output pattern used when none is configured.
const DefaultTimestampPattern = "yyyy-MM-dd'T'HH:mm:ss[.SSS][ZZZ]"

// FromUnixTime renders an epoch value as a formatted timestamp string.
//
// Only the first Digits characters of the input are read (default 10), so a
// 13-digit millisecond value is truncated to whole seconds: 1648770933000
// becomes 2022-03-31T23:55:33. Sub-second digits are dropped, never rounded.
// A prefix that is not an integer yields NULL.
type FromUnixTime struct {
	Input   string
	Output  string
	Digits  int
	Pattern string
}

func (f FromUnixTime) Apply(t *table.Table) (*table.Table, error) {
	pattern := f.Pattern
	if pattern == "" {
		pattern = DefaultTimestampPattern
	}
	p, err := datetime.Compile(pattern)
	if err != nil {
		return nil, err
	}
	digits := f.Digits
	if digits <= 0 {
		digits = 10
	}
	return derive(t, f.Input, f.Output, table.String, func(s string) any {
		secs, err := strconv.ParseInt(substring(s, 1, digits), 10, 64)
		if err != nil {
			return nil
		}
		return p.Format(time.Unix(secs, 0))
	})
}
