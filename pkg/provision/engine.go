// Package provision turns "put firmware for role X on the attached board"
// into checked steps: resolve the target, confirm the probe is really
// attached, then hand the artifact to the programmer. The probe check runs
// before every hardware invocation so a missing board surfaces as one
// actionable line instead of a programmer timeout.
package provision

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/openocd"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

// Default bounds on the external steps. A hung tool should fail the
// invocation, not block it forever.
const (
	DefaultScanTimeout  = 5 * time.Second
	DefaultFlashTimeout = 2 * time.Minute
	DefaultBuildTimeout = 10 * time.Minute
)

// Programmer writes one image to the attached target.
type Programmer interface {
	Flash(ctx context.Context, req openocd.Request) (*openocd.Report, error)
	CommandLine(req openocd.Request) (string, []string)
}

// Builder compiles one workspace package.
type Builder interface {
	BuildPackage(ctx context.Context, pkg string) (string, error)
}

// Engine wires the pipeline together. The zero value is not usable; fill
// in the collaborators and leave timeouts zero for the defaults.
type Engine struct {
	Layout  firmware.Layout
	Enum    usbscan.Enumerator
	Match   usbscan.Match
	Prog    Programmer
	Builder Builder
	Rep     Reporter
	Log     *zap.Logger

	// Locate resolves a role's descriptor, defaulting to firmware.Locate.
	// Config layers hook in here to override programmer scripts.
	Locate func(firmware.Role) (firmware.TargetDescriptor, error)

	ScanTimeout  time.Duration
	FlashTimeout time.Duration
	BuildTimeout time.Duration
}

// Flash provisions one role: artifact check, probe check, then a single
// program/verify/reset invocation. Flash never retries; hardware state
// after a failure is for the operator to inspect.
func (e *Engine) Flash(ctx context.Context, role firmware.Role) OperationResult {
	start := time.Now()
	res := OperationResult{Role: role, Op: OpFlash}

	desc, err := e.locate(role)
	if err != nil {
		return e.fail(res, start, &ConfigError{Role: role, Err: err})
	}
	e.progressf("[%s] flashing %s", role, desc.Package)

	artifact := e.Layout.ArtifactPath(desc)
	fi, err := os.Stat(artifact)
	if err != nil {
		return e.fail(res, start, &ConfigError{Role: role, Artifact: artifact, Err: err})
	}
	e.progressf("[%s] artifact %s (%d bytes)", role, artifact, fi.Size())

	e.progressf("[%s] checking for probe: %s", role, e.Match)
	scanCtx, cancel := context.WithTimeout(ctx, e.scanTimeout())
	hits, err := usbscan.Find(scanCtx, e.Enum, e.Match)
	cancel()
	if err != nil {
		return e.fail(res, start, err)
	}
	if len(hits) == 0 {
		return e.fail(res, start, &DeviceNotFoundError{Match: e.Match})
	}
	e.progressf("[%s] probe found: %s", role, hits[0].Label())

	req := openocd.Request{
		InterfaceCfg: desc.InterfaceCfg,
		TargetCfg:    desc.TargetCfg,
		Artifact:     artifact,
	}
	e.progressf("[%s] programming (program/verify/reset)", role)
	flashCtx, cancel := context.WithTimeout(ctx, e.flashTimeout())
	rep, err := e.Prog.Flash(flashCtx, req)
	cancel()
	if rep != nil && e.Log != nil {
		e.Log.Debug("openocd finished",
			zap.String("role", string(role)),
			zap.Int("exit_code", rep.ExitCode),
			zap.String("output", rep.Output))
	}
	if err != nil {
		var flashErr *openocd.FlashError
		if errors.As(err, &flashErr) {
			return e.fail(res, start, err)
		}
		return e.fail(res, start, &EnvironmentError{Op: "openocd", Err: err})
	}

	res.OK = true
	res.Message = "flashed and verified " + desc.Package
	res.Duration = time.Since(start)
	e.progressf("[%s] verified OK in %s", role, res.Duration.Round(time.Millisecond))
	return res
}

func (e *Engine) fail(res OperationResult, start time.Time, err error) OperationResult {
	res.OK = false
	res.Err = err
	res.Message = err.Error()
	res.Duration = time.Since(start)
	if e.Log != nil {
		e.Log.Debug("operation failed",
			zap.String("role", string(res.Role)),
			zap.String("op", string(res.Op)),
			zap.Error(err))
	}
	return res
}

func (e *Engine) progressf(format string, args ...any) {
	if e.Rep != nil {
		e.Rep.Progressf(format, args...)
	}
}

func (e *Engine) locate(role firmware.Role) (firmware.TargetDescriptor, error) {
	if e.Locate != nil {
		return e.Locate(role)
	}
	return firmware.Locate(role)
}

func (e *Engine) scanTimeout() time.Duration {
	if e.ScanTimeout > 0 {
		return e.ScanTimeout
	}
	return DefaultScanTimeout
}

func (e *Engine) flashTimeout() time.Duration {
	if e.FlashTimeout > 0 {
		return e.FlashTimeout
	}
	return DefaultFlashTimeout
}

func (e *Engine) buildTimeout() time.Duration {
	if e.BuildTimeout > 0 {
		return e.BuildTimeout
	}
	return DefaultBuildTimeout
}
