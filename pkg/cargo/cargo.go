// Package cargo invokes the Rust toolchain that produces the firmware
// images, one workspace package per role.
package cargo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Invoker runs cargo builds inside one workspace.
type Invoker struct {
	Bin     string // binary name or path, default "cargo"
	Dir     string // workspace root the command runs in
	Triple  string // cross target passed as --target, host build when empty
	Profile string // cargo profile, default "release"

	// run is swapped out by tests to fake compiler output and exit status.
	run func(ctx context.Context, bin string, args []string, dir string) (out []byte, exitCode int, err error)
}

// NewInvoker returns an invoker for the workspace at dir.
func NewInvoker(bin, dir, triple, profile string) *Invoker {
	if bin == "" {
		bin = "cargo"
	}
	return &Invoker{Bin: bin, Dir: dir, Triple: triple, Profile: profile, run: runBuild}
}

// Args renders the argv (minus the binary) for building pkg.
func (i *Invoker) Args(pkg string) []string {
	args := []string{"build", "-p", pkg}
	switch i.Profile {
	case "", "release":
		args = append(args, "--release")
	default:
		args = append(args, "--profile", i.Profile)
	}
	if i.Triple != "" {
		args = append(args, "--target", i.Triple)
	}
	return args
}

// BuildPackage compiles one package and returns the tool's combined
// output. Failures of any kind, including a toolchain that cannot start,
// come back as *BuildError so one role's broken build never aborts the
// others.
func (i *Invoker) BuildPackage(ctx context.Context, pkg string) (string, error) {
	out, code, err := i.run(ctx, i.Bin, i.Args(pkg), i.Dir)
	output := string(out)
	if err != nil {
		return output, &BuildError{Package: pkg, ExitCode: -1, Output: output, Err: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, &BuildError{Package: pkg, ExitCode: code, Output: output, Err: ctxErr}
	}
	if code != 0 {
		return output, &BuildError{Package: pkg, ExitCode: code, Output: output}
	}
	return output, nil
}

func runBuild(ctx context.Context, bin string, args []string, dir string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err == nil {
		return out, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, exitErr.ExitCode(), nil
	}
	return out, -1, err
}

// BuildError means the compiler invocation for one package failed.
type BuildError struct {
	Package  string
	ExitCode int
	Output   string
	Err      error
}

func (e *BuildError) Error() string {
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		return fmt.Sprintf("cargo build of %s timed out", e.Package)
	case e.Err != nil:
		return fmt.Sprintf("cargo build of %s: %v", e.Package, e.Err)
	}
	msg := fmt.Sprintf("cargo build of %s failed (exit status %d)", e.Package, e.ExitCode)
	if line := firstErrorLine(e.Output); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// firstErrorLine returns the first "error" diagnostic cargo printed; with
// rustc the first error is the root cause and later ones tend to cascade.
func firstErrorLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "error") {
			if len(line) > 160 {
				line = line[:157] + "..."
			}
			return line
		}
	}
	return ""
}
