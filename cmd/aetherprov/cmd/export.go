package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aetherlink/aetherprov/pkg/bundle"
	"github.com/aetherlink/aetherprov/pkg/firmware"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [role...]",
	Short: "Bundle built images into a release tarball",
	Long: `Collect the built firmware images for the named roles (all three by
default) into a timestamped .tar.gz bundle with a manifest listing each
image's size and SHA-256. Every requested image must already be built;
export refuses to produce a partial bundle.

Examples:
  aetherprov export                        # Bundle all three role images
  aetherprov export client forward         # Bundle a subset
  aetherprov export --out /tmp/release     # Write the bundle elsewhere`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "",
		"output directory for the bundle (default from config, ./dist)")
}

func runExport(cmd *cobra.Command, args []string) error {
	roles, err := firmware.ParseRoles(args)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		roles = firmware.Roles()
	}

	outDir := cfg.Export.Dir
	if exportOut != "" {
		outDir = exportOut
	}

	x := &bundle.Exporter{Layout: cfg.Layout(), OutDir: outDir, Locate: cfg.Descriptor}
	tarball, man, err := x.Export(roles)
	if err != nil {
		return err
	}

	if verbose {
		for _, img := range man.Images {
			fmt.Printf("  %s  %s  %d bytes  sha256:%s\n", img.Role, img.File, img.SizeBytes, img.SHA256)
		}
	}
	fmt.Printf("exported %d image(s) to %s\n", len(man.Images), tarball)
	return nil
}
