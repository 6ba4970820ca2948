// Package trace implements the append-only JSONL audit trail of patch runs.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ormasoftchile/catpatch/pkg/patch"
)

// EventType enumerates all trace event types.
type EventType string

const (
	EventRunStart        EventType = "run_start"
	EventRuleEvaluated   EventType = "rule_evaluated"
	EventDocumentWritten EventType = "document_written"
	EventRunComplete     EventType = "run_complete"
)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer writes trace events to an append-only JSONL stream.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	c     io.Closer
	runID string
	enc   *json.Encoder
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{
		w:     w,
		runID: runID,
		enc:   json.NewEncoder(w),
	}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, runID)
	tw.c = f
	return tw, nil
}

// RunID returns the identifier stamped on every event.
func (tw *Writer) RunID() string { return tw.runID }

// Close closes the underlying file, if the writer owns one.
func (tw *Writer) Close() error {
	if tw == nil || tw.c == nil {
		return nil
	}
	return tw.c.Close()
}

// Emit writes a single trace event. A nil writer discards events.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	if tw == nil {
		return nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()

	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     tw.runID,
		Data:      data,
	}
	return tw.enc.Encode(evt)
}

// EmitRunStart emits a run_start event.
func (tw *Writer) EmitRunStart(target string, rules int, digest string, dryRun bool) error {
	return tw.Emit(EventRunStart, map[string]any{
		"target":  target,
		"rules":   rules,
		"digest":  digest,
		"dry_run": dryRun,
	})
}

// EmitRuleEvaluated emits a rule_evaluated event.
func (tw *Writer) EmitRuleEvaluated(r patch.RuleResult) error {
	data := map[string]any{
		"rule":   r.Rule,
		"kind":   string(r.Kind),
		"status": string(r.Status),
	}
	if r.Changed() {
		data["offset"] = r.Offset
		data["added"] = r.Added
	}
	if r.Missing != "" {
		data["missing"] = r.Missing
	}
	return tw.Emit(EventRuleEvaluated, data)
}

// EmitDocumentWritten emits a document_written event.
func (tw *Writer) EmitDocumentWritten(path string, size int) error {
	return tw.Emit(EventDocumentWritten, map[string]any{
		"path":  path,
		"bytes": size,
	})
}

// EmitRunComplete emits a run_complete event.
func (tw *Writer) EmitRunComplete(status string, res *patch.Result, duration time.Duration) error {
	data := map[string]any{
		"status":   status,
		"duration": duration.String(),
	}
	if res != nil {
		data["applied"] = res.Count(patch.StatusApplied)
		data["changed"] = res.Changed()
		data["bytes_before"] = len(res.Original)
		data["bytes_after"] = len(res.Text)
	}
	return tw.Emit(EventRunComplete, data)
}
