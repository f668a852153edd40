package builtin

import (
	"strconv"

	"dfpipe/internal/table"
)

// StartTimeMillis derives a millisecond epoch string from an ISO-8601
// timestamp of the exact form yyyy-MM-ddTHH:mm:ss.SSS+zzzz.
//
// Legacy behavior, kept byte-compatible: the value is the epoch seconds of the
// UTC calendar day (time of day discarded) followed by the characters at
// positions 21..23 of the raw input. 2021-12-27T08:20:29.842+0000 becomes
// 1640563200842. Any other input shape gives a meaningless but stable result.
type StartTimeMillis struct {
	Input  string
	Output string
}

func (m StartTimeMillis) Apply(t *table.Table) (*table.Table, error) {
	return derive(t, m.Input, m.Output, table.String, func(s string) any {
		return startTimeMillis(s)
	})
}

func startTimeMillis(s string) any {
	ts, ok := ParseTimestamp(s)
	if !ok {
		return nil
	}
	return strconv.FormatInt(dateOf(ts).Unix(), 10) + substring(s, 21, 3)
}
