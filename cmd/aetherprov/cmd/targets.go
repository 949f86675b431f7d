package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aetherlink/aetherprov/pkg/firmware"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show the role to package and artifact mapping",
	Long: `List every known role with its cargo package, the artifact path the
flash command expects, whether that artifact is currently built, and the
OpenOCD scripts flashing will use. The role set is fixed; config can repoint
paths and scripts but cannot add roles.`,
	Args: cobra.NoArgs,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	layout := cfg.Layout()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ROLE\tPACKAGE\tARTIFACT\tSTATUS\tINTERFACE\tTARGET")
	for _, role := range firmware.Roles() {
		d, err := cfg.Descriptor(role)
		if err != nil {
			return err
		}
		artifact := layout.ArtifactPath(d)
		status := "missing"
		if _, err := os.Stat(artifact); err == nil {
			status = "built"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Role, d.Package, artifact, status, d.InterfaceCfg, d.TargetCfg)
	}
	return nil
}
