package provider

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is one parsed server-sent event: an optional named event type
// and the concatenation of every "data:" line in the event, joined by "\n"
// per the SSE spec.
type SSEEvent struct {
	Event string
	Data  string
}

// SSEScanner reads an SSE byte stream and yields one SSEEvent per blank-line
// delimited block. It is shared by every provider adapter so that each one
// only has to know its own event/data field semantics, not how to split an
// octet stream into events.
type SSEScanner struct {
	sc      *bufio.Scanner
	cur     SSEEvent
	dataBuf []string
	err     error
	done    bool
}

// NewSSEScanner wraps r for line-oriented SSE parsing.
func NewSSEScanner(r io.Reader) *SSEScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &SSEScanner{sc: sc}
}

// Next advances to the next event, returning false when the stream is
// exhausted or an unrecoverable read error occurred (see Err).
func (s *SSEScanner) Next() bool {
	if s.done {
		return false
	}
	s.cur = SSEEvent{}
	s.dataBuf = s.dataBuf[:0]

	for s.sc.Scan() {
		line := s.sc.Text()
		if line == "" {
			if len(s.dataBuf) == 0 && s.cur.Event == "" {
				continue // keep-alive blank line between events
			}
			s.cur.Data = strings.Join(s.dataBuf, "\n")
			return true
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			s.cur.Event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			s.dataBuf = append(s.dataBuf, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"):
			// comment/keep-alive, ignore
		default:
			// ignore unknown fields (id:, retry:, ...)
		}
	}

	s.done = true
	if err := s.sc.Err(); err != nil {
		s.err = err
		return false
	}
	// Flush a trailing event with no terminating blank line.
	if len(s.dataBuf) > 0 || s.cur.Event != "" {
		s.cur.Data = strings.Join(s.dataBuf, "\n")
		return true
	}
	return false
}

// Current returns the event produced by the last successful Next call.
func (s *SSEScanner) Current() SSEEvent { return s.cur }

// Err returns the first read error encountered, if any.
func (s *SSEScanner) Err() error { return s.err }
