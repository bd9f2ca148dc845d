package xlog

import (
	"io"
	"os"
)

// ConsoleOutput writes to stderr.
type ConsoleOutput struct{}

func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

func (c *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	_, err := os.Stderr.Write(formatted)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

// FileOutput writes to an already-open file. The caller owns opening it
// (typically with os.O_APPEND|os.O_CREATE|os.O_WRONLY) and Close releases
// it.
type FileOutput struct {
	w io.WriteCloser
}

func NewFileOutput(w io.WriteCloser) *FileOutput {
	return &FileOutput{w: w}
}

func (f *FileOutput) Write(_ *Entry, formatted []byte) error {
	_, err := f.w.Write(formatted)
	return err
}

func (f *FileOutput) Close() error { return f.w.Close() }

// NullOutput discards everything. Useful in tests that want a Logger but no
// output noise.
type NullOutput struct{}

func (NullOutput) Write(*Entry, []byte) error { return nil }
func (NullOutput) Close() error               { return nil }
