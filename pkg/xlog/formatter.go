package xlog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONFormatter renders an Entry as a single line of JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+3)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["level"] = e.Level.String()
	out["msg"] = e.Message
	out["ts"] = e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")

	buf, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("xlog: marshal entry: %w", err)
	}
	return append(buf, '\n'), nil
}

// TextFormatter renders an Entry as a human-readable single line, suitable
// for interactive terminals.
type TextFormatter struct{}

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(e.Timestamp.Format("15:04:05.000"))
	buf.WriteByte(' ')
	buf.WriteString(e.Level.String())
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	for k, v := range e.Fields {
		fmt.Fprintf(&buf, " %s=%v", k, v)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
