package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aetherlink/aetherprov/pkg/provision"
	"github.com/aetherlink/aetherprov/pkg/usbscan"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check that the debug probe is attached",
	Long: `Scan the USB bus for the configured debug probe and report every
match. An absent probe exits with code 2; a scan that could not run at all
(no USB access, lsusb missing) exits with code 4, so scripts can tell "plug
the board in" apart from "fix the host".

Examples:
  aetherprov detect                        # Look for the default DAPLink probe
  aetherprov detect -v                     # Also print the match criteria`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	match, err := cfg.Probe.Match()
	if err != nil {
		return &provision.ConfigError{Err: err}
	}

	enum, err := newEnumerator()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Printf("Scanning for %s...\n", match)
	}

	scanTO := cfg.Timeouts.Scan.Duration
	if scanTO <= 0 {
		scanTO = provision.DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), scanTO)
	defer cancel()

	devs, err := usbscan.Find(ctx, enum, match)
	if err != nil {
		return err
	}
	if len(devs) == 0 {
		return &provision.DeviceNotFoundError{Match: match}
	}

	for _, d := range devs {
		fmt.Printf("probe detected: %s\n", d.Label())
	}
	return nil
}
