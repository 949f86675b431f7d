package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aetherlink/aetherprov/pkg/firmware"
)

var buildInParallel bool

var buildCmd = &cobra.Command{
	Use:   "build [role...]",
	Short: "Build firmware images for one or more roles",
	Long: `Build the firmware image for each named role with cargo. With no
arguments all three roles are built. Each role builds independently: one
failing role does not stop the others, and the command reports every result
before exiting.

Examples:
  aetherprov build                     # Build client, forward and server
  aetherprov build client              # Build one role
  aetherprov build client server       # Build a subset
  aetherprov build --parallel          # Build roles concurrently`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildInParallel, "parallel", false,
		"build roles concurrently (one cargo process per role)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	roles, err := firmware.ParseRoles(args)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		roles = firmware.Roles()
	}

	parallel := cfg.Build.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = buildInParallel
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	results := eng.BuildAll(cmd.Context(), roles, parallel)

	var firstErr error
	failed := 0
	for _, role := range roles {
		res := results[role]
		fmt.Println(res.Line())
		if !res.OK {
			failed++
			if firstErr == nil {
				firstErr = res.Err
			}
		}
	}

	if firstErr == nil {
		return nil
	}
	if failed == 1 && len(roles) == 1 {
		return firstErr
	}
	return fmt.Errorf("%d of %d builds failed: %w", failed, len(roles), firstErr)
}
