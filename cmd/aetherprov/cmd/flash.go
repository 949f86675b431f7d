package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aetherlink/aetherprov/pkg/firmware"
	"github.com/aetherlink/aetherprov/pkg/openocd"
)

var flashDryRun bool

var flashCmd = &cobra.Command{
	Use:   "flash <role>",
	Short: "Flash and verify one role's firmware image",
	Long: `Flash the built firmware image for a role onto the attached board.

The flash command will:
  1. Check the role's image exists under the target directory
  2. Check the debug probe is present on the USB bus
  3. Run OpenOCD's program/verify/reset sequence
  4. Report the verified result

The image is never written unless both checks pass, and a failed flash is
reported as failed; the tool does not retry on its own.

Examples:
  aetherprov flash client                  # Flash the client image
  aetherprov flash server -v               # Flash with verbose logging
  aetherprov flash forward --dry-run       # Print the OpenOCD invocation`,
	Args: cobra.ExactArgs(1),
	RunE: runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)

	flashCmd.Flags().BoolVar(&flashDryRun, "dry-run", false,
		"print the programmer command line instead of running it")
}

func runFlash(cmd *cobra.Command, args []string) error {
	role, err := firmware.ParseRole(args[0])
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	if flashDryRun {
		desc, err := cfg.Descriptor(role)
		if err != nil {
			return err
		}
		req := openocd.Request{
			InterfaceCfg: desc.InterfaceCfg,
			TargetCfg:    desc.TargetCfg,
			Artifact:     cfg.Layout().ArtifactPath(desc),
		}
		bin, argv := eng.Prog.CommandLine(req)
		fmt.Printf("target: %s\n", desc.Label())
		fmt.Printf("probe:  %s\n", eng.Match)
		fmt.Printf("run:    %s\n", shellJoin(bin, argv))
		return nil
	}

	res := eng.Flash(cmd.Context(), role)
	fmt.Println(res.Line())
	if !res.OK {
		return res.Err
	}
	return nil
}

// shellJoin renders a command line so it can be pasted into a shell. Only
// arguments with whitespace or quotes get quoted, keeping the common case
// readable.
func shellJoin(bin string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{bin}, args...) {
		if strings.ContainsAny(a, " \t\"") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
