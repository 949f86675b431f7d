package cmd

import (
	"fmt"
	"os"

	"github.com/aetherlink/aetherprov/pkg/cargo"
	"github.com/aetherlink/aetherprov/pkg/openocd"
	"github.com/aetherlink/aetherprov/pkg/provision"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

// Factory seams. Tests swap these to run commands against simulators
// instead of real hardware and toolchains.
var (
	newEnumerator = func() (usbscan.Enumerator, error) {
		switch cfg.Probe.Backend {
		case "", "usb", "native":
			return usbscan.NewHostEnumerator(), nil
		case "lsusb", "text":
			return usbscan.NewLsusbEnumerator(cfg.Probe.LsusbBin), nil
		case "sim", "simulator":
			// The simulated bus always has a DAPLink probe on it.
			return usbscan.NewSimEnumerator(usbscan.Device{
				VendorID:    0x0d28,
				ProductID:   0x0204,
				Description: "ARM DAPLink CMSIS-DAP",
			}), nil
		default:
			return nil, &provision.ConfigError{
				Err: fmt.Errorf("unknown probe backend %q (supported: usb, lsusb, sim)", cfg.Probe.Backend),
			}
		}
	}

	newProgrammer = func() provision.Programmer {
		return openocd.NewRunner(cfg.OpenOCD.Bin, cfg.OpenOCD.SearchPath)
	}

	newBuilder = func() provision.Builder {
		return cargo.NewInvoker(cfg.Cargo.Bin, cfg.Workspace, cfg.Triple, cfg.Profile)
	}
)

// newEngine assembles the provisioning pipeline from the resolved config.
func newEngine() (*provision.Engine, error) {
	match, err := cfg.Probe.Match()
	if err != nil {
		return nil, &provision.ConfigError{Err: err}
	}
	enum, err := newEnumerator()
	if err != nil {
		return nil, err
	}
	return &provision.Engine{
		Layout:       cfg.Layout(),
		Enum:         enum,
		Match:        match,
		Prog:         newProgrammer(),
		Builder:      newBuilder(),
		Rep:          provision.NewWriterReporter(os.Stdout),
		Log:          logger,
		Locate:       cfg.Descriptor,
		ScanTimeout:  cfg.Timeouts.Scan.Duration,
		FlashTimeout: cfg.Timeouts.Flash.Duration,
		BuildTimeout: cfg.Timeouts.Build.Duration,
	}, nil
}
