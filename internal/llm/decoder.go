package llm

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// doneSentinel terminates a chat completion stream.
const doneSentinel = "[DONE]"

// Decoder turns a raw streamed byte sequence into StreamEvents. Frames are
// newline-delimited "data: <json>" blocks separated by blank lines. Incomplete
// frames are buffered across read boundaries; a partial frame is never emitted.
type Decoder struct {
	r       *bufio.Reader
	pending []StreamEvent
	done    bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next decoded event, or io.EOF after the [DONE] sentinel.
// Malformed frames yield a StreamDecodeError event and decoding continues.
func (d *Decoder) Next() (StreamEvent, error) {
	for {
		if len(d.pending) > 0 {
			event := d.pending[0]
			d.pending = d.pending[1:]
			return event, nil
		}
		if d.done {
			return StreamEvent{}, io.EOF
		}

		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.TrimSpace(line) == "" {
				d.done = true
				continue
			}
			if err != io.EOF {
				return StreamEvent{}, err
			}
			// Final line arrived without a trailing newline; fall through.
		}

		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == doneSentinel {
			d.done = true
			continue
		}

		d.pending = append(d.pending, decodeChunk(data)...)
	}
}

// Wire shapes of the inbound chat completion stream.
type chatChunk struct {
	Choices []chatChoice   `json:"choices"`
	Error   *chatChunkFail `json:"error"`
}

type chatChoice struct {
	Delta        chatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

type chatDelta struct {
	Content   *string         `json:"content"`
	ToolCalls []chatToolDelta `json:"tool_calls"`
}

type chatToolDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatChunkFail struct {
	Message string `json:"message"`
}

func (f *chatChunkFail) UnmarshalJSON(data []byte) error {
	// Backends emit either {"error": "text"} or {"error": {"message": "text"}}.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Message = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	f.Message = obj.Message
	return nil
}

func decodeChunk(data string) []StreamEvent {
	var chunk chatChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return []StreamEvent{{
			Type: StreamDecodeError,
			Err:  fmt.Errorf("malformed stream frame: %w", err),
		}}
	}
	if chunk.Error != nil {
		return []StreamEvent{{
			Type: StreamDecodeError,
			Err:  errors.New(chunk.Error.Message),
		}}
	}
	if len(chunk.Choices) == 0 {
		return nil
	}

	choice := chunk.Choices[0]
	var events []StreamEvent
	if choice.Delta.Content != nil && *choice.Delta.Content != "" {
		events = append(events, StreamEvent{Type: StreamTextDelta, Text: *choice.Delta.Content})
	}
	for _, tc := range choice.Delta.ToolCalls {
		events = append(events, StreamEvent{
			Type: StreamToolCall,
			Fragment: ToolCallFragment{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				ArgsChunk: tc.Function.Arguments,
			},
		})
	}
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		events = append(events, StreamEvent{Type: StreamFinish, FinishReason: *choice.FinishReason})
	}
	return events
}
