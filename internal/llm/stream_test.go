package llm

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestEventStreamDeliversAndEOFs(t *testing.T) {
	stream := NewEventStream(context.Background(), func(_ context.Context, events chan<- Event) error {
		events <- Event{Type: EventTextDelta, Text: "a"}
		events <- Event{Type: EventDone}
		return nil
	})

	event, err := stream.Recv()
	if err != nil || event.Text != "a" {
		t.Fatalf("unexpected first recv: %+v, %v", event, err)
	}
	event, err = stream.Recv()
	if err != nil || event.Type != EventDone {
		t.Fatalf("unexpected second recv: %+v, %v", event, err)
	}
	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("EOF must be sticky, got %v", err)
	}
}

func TestEventStreamSurfacesProducerError(t *testing.T) {
	boom := errors.New("backend gone")
	stream := NewEventStream(context.Background(), func(_ context.Context, events chan<- Event) error {
		events <- Event{Type: EventTextDelta, Text: "partial"}
		return boom
	})

	if _, err := stream.Recv(); err != nil {
		t.Fatal(err)
	}
	event, err := stream.Recv()
	if !errors.Is(err, boom) {
		t.Fatalf("expected producer error, got %v", err)
	}
	if event.Type != EventError {
		t.Fatalf("expected error event, got %+v", event)
	}
	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("expected EOF after error, got %v", err)
	}
}

func TestEventStreamCloseCancelsProducer(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})
	stream := NewEventStream(context.Background(), func(ctx context.Context, events chan<- Event) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})

	<-started
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}
	<-stopped
}
