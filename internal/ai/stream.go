package ai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event types emitted by the analyze stream
const (
	EventTextGeneration = "text_generation"
	EventStreamEnd      = "stream_end"
)

// StreamEvent is one typed event from the analyze stream: either a text
// fragment or the end-of-stream marker.
type StreamEvent struct {
	EventType string `json:"event_type"`
	Text      string `json:"text,omitempty"`
}

// End reports whether this event is the stream-end marker
func (e *StreamEvent) End() bool {
	return e.EventType == EventStreamEnd
}

// EventStream yields analyze events until the stream-end marker.
// Recv returns io.EOF after the end marker has been delivered.
type EventStream interface {
	Recv() (*StreamEvent, error)
	Close() error
}

// stream parses the service's SSE-style line protocol: each event is a
// single "data: <json>" line, blank lines separate events.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newStream(body io.ReadCloser) *stream {
	scanner := bufio.NewScanner(body)
	// Fragments are small but summaries can make single events long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &stream{body: body, scanner: scanner}
}

// Recv returns the next event from the stream
func (s *stream) Recv() (*StreamEvent, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &event); err != nil {
			return nil, fmt.Errorf("failed to decode stream event: %w", err)
		}

		if event.End() {
			s.done = true
		}
		return &event, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream read error: %w", err)
	}

	// Upstream closed without an end marker
	return nil, io.ErrUnexpectedEOF
}

// Close releases the underlying response body
func (s *stream) Close() error {
	return s.body.Close()
}
