package usbscan

import (
	"context"
	"os/exec"
)

// LsusbEnumerator shells out to lsusb and parses its listing. It exists for
// hosts where libusb access is restricted but the lsusb utility works, and
// as a debugging aid: what it sees is exactly what the operator sees.
type LsusbEnumerator struct {
	Bin string

	// run is swapped out by tests to inject canned listings.
	run func(ctx context.Context, bin string) ([]byte, error)
}

// NewLsusbEnumerator returns a text backend using bin, defaulting to
// "lsusb" from PATH.
func NewLsusbEnumerator(bin string) *LsusbEnumerator {
	if bin == "" {
		bin = "lsusb"
	}
	return &LsusbEnumerator{Bin: bin, run: runLsusb}
}

func runLsusb(ctx context.Context, bin string) ([]byte, error) {
	return exec.CommandContext(ctx, bin).Output()
}

// Enumerate runs the utility once and parses whatever it printed. Any
// failure here, including a missing binary or unparseable output, is an
// environment problem rather than a statement about attached hardware.
func (e *LsusbEnumerator) Enumerate(ctx context.Context) ([]Device, error) {
	out, err := e.run(ctx, e.Bin)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &EnvError{Backend: "lsusb", Err: err}
	}
	devs, err := ParseListing(string(out))
	if err != nil {
		return nil, &EnvError{Backend: "lsusb", Err: err}
	}
	return devs, nil
}
