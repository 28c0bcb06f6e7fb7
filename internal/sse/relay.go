package sse

import (
	"fmt"
	"io"
	"strings"

	"github.com/pharmassist/pharmassist/internal/llm"
)

// Relay pumps engine events into client protocol frames.
//
// Text is grouped into blocks: a block opens on the first delta after a tool
// notice (or at stream start) and closes lazily, so every tool notice for a
// turn is on the wire before that turn's text-end. The sentinel is always
// written, even after an error frame.
type Relay struct {
	writer *Writer

	blockSeq    int
	blockID     string
	noticeSeen  bool
	transcript  strings.Builder
	toolsCalled []string
}

func NewRelay(w *Writer) *Relay {
	return &Relay{writer: w}
}

// Transcript returns the text forwarded so far, across all blocks.
func (r *Relay) Transcript() string { return r.transcript.String() }

// ToolsCalled returns the tool names announced so far, in emission order.
func (r *Relay) ToolsCalled() []string { return r.toolsCalled }

// Run drains the stream into the writer. The [DONE] sentinel is emitted on
// every path; the returned error reports the stream failure, if any.
func (r *Relay) Run(stream llm.Stream) error {
	defer r.writer.WriteDone()

	for {
		event, err := stream.Recv()
		if err == io.EOF {
			return r.closeBlock()
		}
		if err != nil {
			r.closeBlock()
			r.writer.WriteFrame(errorFrame{Type: "error", ErrorText: err.Error()})
			return err
		}

		if err := r.emit(event); err != nil {
			return err
		}
	}
}

func (r *Relay) emit(event llm.Event) error {
	switch event.Type {
	case llm.EventTextDelta:
		// A notice ends the previous turn's block; its text-end goes out
		// before the next turn's text begins.
		if r.noticeSeen {
			if err := r.closeBlock(); err != nil {
				return err
			}
			r.noticeSeen = false
		}
		if r.blockID == "" {
			r.blockSeq++
			r.blockID = fmt.Sprintf("txt_%d", r.blockSeq)
			if err := r.writer.WriteFrame(textStartFrame{Type: "text-start", ID: r.blockID}); err != nil {
				return err
			}
		}
		r.transcript.WriteString(event.Text)
		return r.writer.WriteFrame(textDeltaFrame{Type: "text-delta", ID: r.blockID, Delta: event.Text})

	case llm.EventToolExecuted:
		r.noticeSeen = true
		r.toolsCalled = append(r.toolsCalled, event.ToolName)
		return r.writer.WriteFrame(toolInputFrame{
			Type:       "tool-input-available",
			ToolCallID: event.ToolCallID,
			ToolName:   event.ToolName,
			Input:      event.ToolInput,
		})

	case llm.EventDone:
		return r.closeBlock()

	case llm.EventError:
		if err := r.closeBlock(); err != nil {
			return err
		}
		text := "stream failed"
		if event.Err != nil {
			text = event.Err.Error()
		}
		return r.writer.WriteFrame(errorFrame{Type: "error", ErrorText: text})
	}
	return nil
}

func (r *Relay) closeBlock() error {
	if r.blockID == "" {
		return nil
	}
	id := r.blockID
	r.blockID = ""
	return r.writer.WriteFrame(textEndFrame{Type: "text-end", ID: id})
}
