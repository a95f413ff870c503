// Package xio has io helpers that honour context cancellation.
package xio

import (
	"context"
	"errors"
	"io"
)

const defaultChunkSize = 32 * 1024

type chunk struct {
	data []byte
	err  error
}

// Copy copies from src to dst until EOF, a read or write error, or ctx is
// done. Each Write receives at most chunkSize bytes; zero or less selects a
// 32KiB buffer. Reads happen on their own goroutine so a blocked reader does
// not delay cancellation; that goroutine exits on its next read after ctx is
// done.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	reads := make(chan chunk)
	go func() {
		buf := make([]byte, chunkSize)
		for {
			n, err := src.Read(buf)
			c := chunk{data: append([]byte(nil), buf[:n]...), err: err}
			select {
			case reads <- c:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		case c := <-reads:
			if len(c.data) > 0 {
				n, err := dst.Write(c.data)
				written += int64(n)
				if err != nil {
					return written, err
				}
			}
			if errors.Is(c.err, io.EOF) {
				return written, nil
			}
			if c.err != nil {
				return written, c.err
			}
		}
	}
}

// WriterFunc adapts a function to io.Writer. The function must not retain p.
type WriterFunc func(p []byte) (int, error)

func (f WriterFunc) Write(p []byte) (int, error) { return f(p) }
