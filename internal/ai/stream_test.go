package ai

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestStream_RecvInOrder(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"event_type\":\"text_generation\",\"text\":\"hello\"}\n" +
			"\n" +
			"data: {\"event_type\":\"text_generation\",\"text\":\" world\"}\n" +
			"\n" +
			"data: {\"event_type\":\"stream_end\"}\n"))

	s := newStream(body)

	want := []string{"hello", " world"}
	for i, text := range want {
		event, err := s.Recv()
		if err != nil {
			t.Fatalf("Recv() #%d error = %v", i, err)
		}
		if event.EventType != EventTextGeneration {
			t.Errorf("event #%d type = %v, want %v", i, event.EventType, EventTextGeneration)
		}
		if event.Text != text {
			t.Errorf("event #%d text = %q, want %q", i, event.Text, text)
		}
	}

	event, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv() end error = %v", err)
	}
	if !event.End() {
		t.Errorf("event type = %v, want %v", event.EventType, EventStreamEnd)
	}

	// After the end marker the stream is exhausted
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("Recv() after end = %v, want io.EOF", err)
	}
}

func TestStream_TruncatedUpstream(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: {\"event_type\":\"text_generation\",\"text\":\"partial\"}\n"))

	s := newStream(body)

	if _, err := s.Recv(); err != nil {
		t.Fatalf("Recv() error = %v", err)
	}

	_, err := s.Recv()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Recv() on truncated stream = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestStream_MalformedEvent(t *testing.T) {
	body := io.NopCloser(strings.NewReader("data: {not json}\n"))

	s := newStream(body)

	if _, err := s.Recv(); err == nil {
		t.Error("Recv() on malformed event = nil, want error")
	}
}

func TestStream_SkipsNonDataLines(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		": keepalive comment\n" +
			"event: message\n" +
			"data: {\"event_type\":\"stream_end\"}\n"))

	s := newStream(body)

	event, err := s.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if !event.End() {
		t.Errorf("event type = %v, want %v", event.EventType, EventStreamEnd)
	}
}
