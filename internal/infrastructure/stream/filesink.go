// Package stream provides the concrete sinks and the readiness poller
// backing application/stream.Handler.
package stream

import (
	"fmt"
	"os"
)

// FileSink appends each line to Path, opening the file fresh for every
// write and closing it immediately after. It deliberately holds no
// cached *os.File: if an external tool rotates Path (rename or truncate),
// the very next write transparently lands in the new file, with no
// SIGHUP or reopen signal required.
type FileSink struct {
	Path string
	Perm os.FileMode
}

// NewFileSink creates a FileSink writing to path with mode 0644.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path, Perm: 0o644}
}

// Write implements application/stream.Sink.
func (s *FileSink) Write(line string) error {
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.Perm) // #nosec G304 - operator-configured path
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return nil
}
