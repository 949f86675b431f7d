package openocd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const successOutput = `Open On-Chip Debugger 0.12.0
Info : CMSIS-DAP: SWD supported
** Programming Started **
** Programming Finished **
** Verify Started **
** Verified OK **
** Resetting Target **
shutdown command invoked
`

func testRequest() Request {
	return Request{
		InterfaceCfg: "interface/cmsis-dap.cfg",
		TargetCfg:    "target/hi2821.cfg",
		Artifact:     "target/thumbv7em-none-eabi/release/aetherlink-client",
	}
}

func stubRunner(out string, code int, err error) *Runner {
	f := NewRunner("", "")
	f.run = func(ctx context.Context, bin string, args []string) ([]byte, int, error) {
		return []byte(out), code, err
	}
	return f
}

func TestCommandLine(t *testing.T) {
	f := NewRunner("", "")
	bin, args := f.CommandLine(testRequest())
	if bin != "openocd" {
		t.Errorf("bin = %q, want openocd", bin)
	}
	want := []string{
		"-f", "interface/cmsis-dap.cfg",
		"-f", "target/hi2821.cfg",
		"-c", "program target/thumbv7em-none-eabi/release/aetherlink-client verify reset exit",
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestCommandLineSearchPath(t *testing.T) {
	f := NewRunner("/opt/openocd/bin/openocd", "/opt/openocd/scripts")
	bin, args := f.CommandLine(testRequest())
	if bin != "/opt/openocd/bin/openocd" {
		t.Errorf("bin = %q", bin)
	}
	if len(args) < 2 || args[0] != "-s" || args[1] != "/opt/openocd/scripts" {
		t.Errorf("search path not first in args: %v", args)
	}
}

func TestFlashSuccess(t *testing.T) {
	f := stubRunner(successOutput, 0, nil)
	rep, err := f.Flash(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Flash returned error: %v", err)
	}
	if !rep.Verified() || !rep.Programmed() {
		t.Fatalf("markers not recognized in success output: %+v", rep)
	}
	if rep.FailureStage() != "" {
		t.Errorf("FailureStage = %q on success", rep.FailureStage())
	}
}

func TestFlashNonZeroExitCarriesDiagnostics(t *testing.T) {
	f := stubRunner("** Programming Started **\nError: verify mismatch at 0x00010000\n", 1, nil)
	rep, err := f.Flash(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error for exit status 1")
	}
	var flashErr *FlashError
	if !errors.As(err, &flashErr) {
		t.Fatalf("error is %T, want *FlashError", err)
	}
	if flashErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", flashErr.ExitCode)
	}
	if !strings.Contains(err.Error(), "verify mismatch") {
		t.Errorf("message lost the tool diagnostic: %q", err.Error())
	}
	if rep == nil || rep.ExitCode != 1 {
		t.Errorf("report not returned alongside error: %+v", rep)
	}
}

func TestFlashClassifiesVerifyFailure(t *testing.T) {
	out := "** Programming Finished **\n** Verify Started **\n** Verify Failed **\n"
	f := stubRunner(out, 1, nil)
	_, err := f.Flash(context.Background(), testRequest())
	var flashErr *FlashError
	if !errors.As(err, &flashErr) {
		t.Fatalf("error is %T, want *FlashError", err)
	}
	if flashErr.Stage != "verify" {
		t.Errorf("Stage = %q, want verify", flashErr.Stage)
	}
}

func TestFlashClassifiesProgramFailure(t *testing.T) {
	out := "** Programming Started **\n** Programming Failed **\n"
	f := stubRunner(out, 1, nil)
	_, err := f.Flash(context.Background(), testRequest())
	var flashErr *FlashError
	if !errors.As(err, &flashErr) {
		t.Fatalf("error is %T, want *FlashError", err)
	}
	if flashErr.Stage != "program" {
		t.Errorf("Stage = %q, want program", flashErr.Stage)
	}
}

func TestFlashRequiresVerifiedMarker(t *testing.T) {
	out := "** Programming Started **\n** Programming Finished **\nshutdown command invoked\n"
	f := stubRunner(out, 0, nil)
	_, err := f.Flash(context.Background(), testRequest())
	if !errors.Is(err, ErrVerifyUnconfirmed) {
		t.Fatalf("error = %v, want ErrVerifyUnconfirmed", err)
	}
	var flashErr *FlashError
	if !errors.As(err, &flashErr) || flashErr.Stage != "verify" {
		t.Fatalf("unexpected error shape: %#v", err)
	}
}

func TestFlashTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	f := stubRunner("Info : CMSIS-DAP: connecting...\n", -1, nil)
	_, err := f.Flash(ctx, testRequest())
	var flashErr *FlashError
	if !errors.As(err, &flashErr) {
		t.Fatalf("error is %T, want *FlashError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeout not wrapped: %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFlashStartFailureIsNotFlashError(t *testing.T) {
	f := stubRunner("", -1, errors.New(`exec: "openocd": executable file not found in $PATH`))
	_, err := f.Flash(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var flashErr *FlashError
	if errors.As(err, &flashErr) {
		t.Fatalf("start failure misclassified as FlashError: %v", err)
	}
}

func TestSummaryLinePrefersErrorLines(t *testing.T) {
	out := "Info : probing\nError: target not halted\nshutdown command invoked\n"
	if got := summaryLine(out); got != "Error: target not halted" {
		t.Errorf("summaryLine = %q", got)
	}
	if got := summaryLine("a\nb\n\n"); got != "b" {
		t.Errorf("summaryLine fallback = %q", got)
	}
	if got := summaryLine(""); got != "" {
		t.Errorf("summaryLine empty = %q", got)
	}
}
