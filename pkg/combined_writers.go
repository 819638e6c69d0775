package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans log lines out to a console stream and a log file.
// A failing writer does not stop the others.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: writers,
	}
}

// Write reports the bytes accepted across all writers; errors are combined.
func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		n += written
		err = multierr.Append(err, werr)
	}
	return n, err
}

// Close closes every writer that is an io.Closer, except the process
// standard streams which are never owned by the writer.
func (cw *CombinedWriter) Close() error {
	var err error
	for _, w := range cw.Writers {
		if isStdStream(w) {
			continue
		}
		if c, ok := w.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
