package dataset

import (
	"fmt"
	"io"
	"os"
)

// Source opens the raw bytes behind a source key. Keeping file access
// behind this interface keeps the transform pipeline free of I/O and lets
// tests feed in-memory data.
type Source interface {
	Open(key string) (io.ReadCloser, error)
}

// FileSource opens source keys as local filesystem paths.
type FileSource struct{}

func (FileSource) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("open data source: %w", err)
	}
	return f, nil
}
