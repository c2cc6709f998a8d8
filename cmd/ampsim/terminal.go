package main

import (
	"bytes"
	"io"
)

// crlfWriter translates LF to CRLF for terminals in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}

	return len(p), nil
}

// readKeys forwards single bytes from r until it fails.
func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			keys <- buf[0]
		}

		if err != nil {
			return
		}
	}
}
