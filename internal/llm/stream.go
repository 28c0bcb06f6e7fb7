package llm

import (
	"context"
	"io"
	"sync"
)

// eventStream adapts a producer goroutine writing to a channel into a Stream.
// The producer runs until it returns or the stream is closed; a non-nil return
// error is delivered to the consumer before io.EOF.
type eventStream struct {
	events chan Event
	errCh  chan error
	cancel context.CancelFunc

	closeOnce sync.Once
	err       error
	done      bool
}

// NewEventStream runs the producer in a goroutine and exposes its events as
// a Stream.
func NewEventStream(ctx context.Context, run func(ctx context.Context, events chan<- Event) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &eventStream{
		events: make(chan Event, 16),
		errCh:  make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		s.errCh <- run(ctx, s.events)
		close(s.events)
	}()
	return s
}

func (s *eventStream) Recv() (Event, error) {
	if s.done {
		if s.err != nil {
			err := s.err
			s.err = nil
			return Event{Type: EventError, Err: err}, err
		}
		return Event{}, io.EOF
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		if err := <-s.errCh; err != nil {
			return Event{Type: EventError, Err: err}, err
		}
		return Event{}, io.EOF
	}
	return event, nil
}

func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		// Drain so the producer goroutine can exit.
		go func() {
			for range s.events {
			}
		}()
	})
	return nil
}
