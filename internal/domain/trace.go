package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TraceEvent is one entry in a run's audit trail.
type TraceEvent struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// RunTrace collects the audit trail of a single research run: the plan, every
// round's queries, gate decisions, ingestion accepts and rejects, scores, and
// conflict outcomes. Safe for concurrent use; queries within a round log from
// parallel goroutines.
type RunTrace struct {
	mu     sync.Mutex
	events []TraceEvent
}

func NewRunTrace() *RunTrace {
	return &RunTrace{}
}

// Log appends an event.
func (t *RunTrace) Log(kind, message string, fields map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, TraceEvent{
		At:      time.Now().UTC(),
		Kind:    kind,
		Message: message,
		Fields:  fields,
	})
}

func (t *RunTrace) Logf(kind, format string, args ...any) {
	t.Log(kind, fmt.Sprintf(format, args...), nil)
}

// Events returns a copy of the trail in log order.
func (t *RunTrace) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Render formats the trail as plain text, one event per line.
func (t *RunTrace) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sb strings.Builder
	for _, ev := range t.events {
		sb.WriteString(ev.At.Format(time.RFC3339))
		sb.WriteString(" [")
		sb.WriteString(ev.Kind)
		sb.WriteString("] ")
		sb.WriteString(ev.Message)
		if len(ev.Fields) > 0 {
			sb.WriteString(" ")
			fmt.Fprintf(&sb, "%v", ev.Fields)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
