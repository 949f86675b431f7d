// Package openocd invokes the OpenOCD debug-probe driver to program a
// firmware image. Each flash is one short-lived process given a single
// composite command; the exit status and the marker lines in the captured
// output are the only results.
package openocd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Marker lines OpenOCD prints while executing `program ... verify reset exit`.
const (
	MarkerProgramFinished = "** Programming Finished **"
	MarkerProgramFailed   = "** Programming Failed **"
	MarkerVerifiedOK      = "** Verified OK **"
	MarkerVerifyFailed    = "** Verify Failed **"
	MarkerResetting       = "** Resetting Target **"
)

// ErrVerifyUnconfirmed reports a zero exit status without the verified
// marker in the output. Exit status alone cannot distinguish a verified
// write from a run that silently skipped verification, so the marker is
// required.
var ErrVerifyUnconfirmed = errors.New("verify not confirmed by openocd output")

// Request names the scripts and image for one flash.
type Request struct {
	InterfaceCfg string
	TargetCfg    string
	Artifact     string
}

// Command renders the composite command string. Program, verify and reset
// are one unit; callers never get a partial sequence.
func (r Request) Command() string {
	return fmt.Sprintf("program %s verify reset exit", r.Artifact)
}

// Runner invokes the openocd binary.
type Runner struct {
	Bin        string // binary name or path, default "openocd"
	SearchPath string // optional script search dir, passed as -s

	// run is swapped out by tests to fake tool output and exit status.
	run func(ctx context.Context, bin string, args []string) (out []byte, exitCode int, err error)
}

// NewRunner returns a runner for bin, defaulting to "openocd" from PATH.
func NewRunner(bin, searchPath string) *Runner {
	if bin == "" {
		bin = "openocd"
	}
	return &Runner{Bin: bin, SearchPath: searchPath, run: runCombined}
}

// CommandLine returns the binary and argv a flash would execute, for dry
// runs and logs.
func (f *Runner) CommandLine(req Request) (string, []string) {
	var args []string
	if f.SearchPath != "" {
		args = append(args, "-s", f.SearchPath)
	}
	args = append(args,
		"-f", req.InterfaceCfg,
		"-f", req.TargetCfg,
		"-c", req.Command(),
	)
	return f.Bin, args
}

// Flash programs, verifies and resets in one invocation. The report is
// returned whenever the tool produced output, alongside any error, so
// callers can log diagnostics for failed runs. Errors are *FlashError
// when the tool ran and failed; anything else means it never started.
func (f *Runner) Flash(ctx context.Context, req Request) (*Report, error) {
	bin, args := f.CommandLine(req)
	out, code, err := f.run(ctx, bin, args)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", bin, err)
	}

	rep := &Report{ExitCode: code, Output: string(out)}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rep, &FlashError{ExitCode: code, Output: rep.Output, Err: ctxErr}
	}
	if code != 0 {
		return rep, &FlashError{Stage: rep.FailureStage(), ExitCode: code, Output: rep.Output}
	}
	if !rep.Verified() {
		return rep, &FlashError{Stage: "verify", Output: rep.Output, Err: ErrVerifyUnconfirmed}
	}
	return rep, nil
}

func runCombined(ctx context.Context, bin string, args []string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Ran but failed; -1 here means killed by a signal.
		return out, exitErr.ExitCode(), nil
	}
	return out, -1, err
}

// Report captures what one run did.
type Report struct {
	ExitCode int
	Output   string
}

// Verified reports whether the output carries the verified marker.
func (r *Report) Verified() bool {
	return strings.Contains(r.Output, MarkerVerifiedOK)
}

// Programmed reports whether the write itself completed.
func (r *Report) Programmed() bool {
	return strings.Contains(r.Output, MarkerProgramFinished)
}

// FailureStage names the phase the marker lines blame: "program",
// "verify", or "" when the output is silent about the cause.
func (r *Report) FailureStage() string {
	switch {
	case strings.Contains(r.Output, MarkerVerifyFailed):
		return "verify"
	case strings.Contains(r.Output, MarkerProgramFailed):
		return "program"
	}
	return ""
}

// FlashError means the tool ran and reported failure. Output carries the
// combined diagnostics verbatim for logs; Error renders a single usable
// line for the operator.
type FlashError struct {
	Stage    string
	ExitCode int
	Output   string
	Err      error
}

func (e *FlashError) Error() string {
	var msg string
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		msg = "openocd timed out"
	case e.Err != nil:
		msg = fmt.Sprintf("openocd: %v", e.Err)
	case e.Stage != "":
		msg = fmt.Sprintf("openocd %s stage failed (exit status %d)", e.Stage, e.ExitCode)
	default:
		msg = fmt.Sprintf("openocd exited with status %d", e.ExitCode)
	}
	if line := summaryLine(e.Output); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *FlashError) Unwrap() error { return e.Err }

// summaryLine picks one useful line out of tool output: the last
// "Error:" line if present, otherwise the last non-empty line.
func summaryLine(output string) string {
	var lastNonEmpty, lastError string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastNonEmpty = line
		if strings.HasPrefix(line, "Error:") {
			lastError = line
		}
	}
	line := lastError
	if line == "" {
		line = lastNonEmpty
	}
	if len(line) > 160 {
		line = line[:157] + "..."
	}
	return line
}
