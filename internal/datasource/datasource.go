// Package datasource defines where table bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a byte stream for a table loader. The caller closes it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
