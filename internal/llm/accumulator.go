package llm

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// BufferState tracks a call buffer's lifecycle. A buffer transitions into
// Resolved or Failed exactly once; repeated finish signals are no-ops.
type BufferState int

const (
	BufferPending BufferState = iota
	BufferReady
	BufferResolved
	BufferFailed
)

// CallBuffer reassembles one streamed tool call. Fragments for the same index
// append argument text in arrival order; the first non-empty name wins.
type CallBuffer struct {
	ID    string
	Index int
	Name  string

	args  strings.Builder
	state BufferState
}

// Args returns the accumulated argument text.
func (b *CallBuffer) Args() string { return b.args.String() }

// State returns the buffer's current lifecycle state.
func (b *CallBuffer) State() BufferState { return b.state }

// MarkResolved transitions the buffer into its terminal resolved state.
// Returns false if the buffer already reached a terminal state, which callers
// use to enforce at-most-once execution per call id.
func (b *CallBuffer) MarkResolved() bool {
	if b.state == BufferResolved || b.state == BufferFailed {
		return false
	}
	b.state = BufferResolved
	return true
}

// MarkFailed transitions the buffer into its terminal failed state.
func (b *CallBuffer) MarkFailed() bool {
	if b.state == BufferResolved || b.state == BufferFailed {
		return false
	}
	b.state = BufferFailed
	return true
}

// Accumulator reassembles fragmented tool calls within a single turn.
// Buffers are keyed by fragment index: call ids may arrive only on the first
// fragment, so index is the stable correlation key.
type Accumulator struct {
	byIndex map[int]*CallBuffer
	order   []int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{byIndex: make(map[int]*CallBuffer)}
}

// Add folds one fragment into its buffer, allocating the buffer on the first
// fragment for an index. An id is generated when the backend supplies none.
func (a *Accumulator) Add(frag ToolCallFragment) {
	buf, ok := a.byIndex[frag.Index]
	if !ok {
		buf = &CallBuffer{Index: frag.Index}
		a.byIndex[frag.Index] = buf
		a.order = append(a.order, frag.Index)
	}
	if frag.ID != "" && buf.ID == "" {
		buf.ID = frag.ID
	}
	if frag.Name != "" && buf.Name == "" {
		buf.Name = frag.Name
	}
	if frag.ArgsChunk != "" {
		buf.args.WriteString(frag.ArgsChunk)
	}
	if buf.ID == "" {
		buf.ID = "call_" + uuid.NewString()
	}
}

// Finish transitions pending buffers to Ready. Buffers already in a terminal
// state are left untouched, so duplicate finish signals never re-arm a call.
// A buffer that accumulated argument text but never received a name cannot be
// dispatched; it is failed and returned so the caller can record the loss.
func (a *Accumulator) Finish() []*CallBuffer {
	var orphaned []*CallBuffer
	for _, idx := range a.order {
		buf := a.byIndex[idx]
		if buf.state != BufferPending {
			continue
		}
		if buf.Name != "" {
			buf.state = BufferReady
			continue
		}
		if buf.args.Len() > 0 {
			buf.state = BufferFailed
			orphaned = append(orphaned, buf)
		}
	}
	return orphaned
}

// Ready returns buffers awaiting resolution in declaration order.
func (a *Accumulator) Ready() []*CallBuffer {
	sort.Ints(a.order)
	ready := make([]*CallBuffer, 0, len(a.order))
	for _, idx := range a.order {
		if buf := a.byIndex[idx]; buf.state == BufferReady {
			ready = append(ready, buf)
		}
	}
	return ready
}

// Len reports the number of distinct calls seen this turn.
func (a *Accumulator) Len() int { return len(a.byIndex) }
