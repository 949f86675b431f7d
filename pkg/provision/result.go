package provision

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aetherlink/aetherprov/pkg/firmware"
)

// Op is the kind of operation a result describes.
type Op string

const (
	OpBuild Op = "build"
	OpFlash Op = "flash"
)

// OperationResult is the outcome of one build or flash for one role. Err
// carries the classified cause for failed operations; Message is always a
// single line fit for the operator.
type OperationResult struct {
	Role     firmware.Role
	Op       Op
	OK       bool
	Message  string
	Err      error
	Duration time.Duration
}

// Line renders the final status line for this result.
func (r OperationResult) Line() string {
	status := "OK"
	if !r.OK {
		status = "FAILED"
	}
	line := fmt.Sprintf("%s %s %s (%s)", r.Op, r.Role, status, r.Duration.Round(time.Millisecond))
	if r.Message != "" {
		line += ": " + r.Message
	}
	return line
}

// Reporter receives the operator-facing progress stream.
type Reporter interface {
	Progressf(format string, args ...any)
}

// WriterReporter serializes progress lines onto one writer so output stays
// readable when builds run in parallel.
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterReporter returns a reporter writing newline-terminated lines to w.
func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{w: w}
}

func (r *WriterReporter) Progressf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format+"\n", args...)
}
