package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/aetherlink/aetherprov/pkg/openocd"
)

// FlashHook lets a simulated programmer decide per request what one flash
// run reported.
type FlashHook func(ctx context.Context, req openocd.Request) (*openocd.Report, error)

// SimProgrammer is an in-memory programmer useful for unit tests and for
// exercising the CLI without hardware. It records the last request, counts
// invocations, and reports a verified success unless OnFlash overrides it.
type SimProgrammer struct {
	OnFlash FlashHook

	calls   int
	lastReq openocd.Request
}

// NewSimProgrammer constructs a simulator that always verifies.
func NewSimProgrammer() *SimProgrammer { return &SimProgrammer{} }

// Calls reports how many flashes have been requested.
func (s *SimProgrammer) Calls() int { return s.calls }

// LastRequest returns the most recent flash request.
func (s *SimProgrammer) LastRequest() openocd.Request { return s.lastReq }

// ResetCounts clears the invocation counter.
func (s *SimProgrammer) ResetCounts() { s.calls = 0 }

func (s *SimProgrammer) Flash(ctx context.Context, req openocd.Request) (*openocd.Report, error) {
	s.calls++
	s.lastReq = req
	if s.OnFlash != nil {
		return s.OnFlash(ctx, req)
	}
	out := openocd.MarkerProgramFinished + "\n" +
		openocd.MarkerVerifiedOK + "\n" +
		openocd.MarkerResetting + "\n"
	return &openocd.Report{ExitCode: 0, Output: out}, nil
}

func (s *SimProgrammer) CommandLine(req openocd.Request) (string, []string) {
	return "openocd", []string{
		"-f", req.InterfaceCfg,
		"-f", req.TargetCfg,
		"-c", req.Command(),
	}
}

// BuildHook lets a simulated builder decide per package what the compiler
// printed.
type BuildHook func(ctx context.Context, pkg string) (string, error)

// SimBuilder is an in-memory builder. Parallel builds hit it from several
// goroutines, so its counters are locked.
type SimBuilder struct {
	OnBuild BuildHook

	mu       sync.Mutex
	calls    int
	packages []string
}

// NewSimBuilder constructs a simulator whose builds always succeed.
func NewSimBuilder() *SimBuilder { return &SimBuilder{} }

// Calls reports how many builds have been requested.
func (s *SimBuilder) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Packages returns the packages built so far, in request order.
func (s *SimBuilder) Packages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.packages...)
}

// ResetCounts clears the recorded invocations.
func (s *SimBuilder) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = 0
	s.packages = nil
}

func (s *SimBuilder) BuildPackage(ctx context.Context, pkg string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.packages = append(s.packages, pkg)
	s.mu.Unlock()

	if s.OnBuild != nil {
		return s.OnBuild(ctx, pkg)
	}
	return fmt.Sprintf("   Compiling %s v0.1.0\n    Finished `release` profile [optimized]\n", pkg), nil
}
