// Package sse re-emits engine events to the browser as a typed event stream:
// data-framed JSON records terminated by a [DONE] sentinel.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Writer frames JSON payloads onto an SSE response, flushing after every
// frame so deltas reach the client immediately.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter prepares the response for streaming and returns a frame writer.
func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteFrame emits one data frame carrying the JSON encoding of v.
func (w *Writer) WriteFrame(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// WriteDone emits the terminal sentinel.
func (w *Writer) WriteDone() error {
	if _, err := io.WriteString(w.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// Client protocol frames.
type textStartFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type textDeltaFrame struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

type textEndFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type toolInputFrame struct {
	Type       string         `json:"type"`
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input"`
}

type errorFrame struct {
	Type      string `json:"type"`
	ErrorText string `json:"errorText"`
}
