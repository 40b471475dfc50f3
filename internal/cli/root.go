package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v0.3.1")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version and the
// version subcommand. It is typically called by the main package with values
// injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// versionString returns the release version, or "dev" when none was
// injected.
func versionString() string {
	if version == "" {
		return "dev"
	}
	return version
}

// buildInfo formats the block printed by --version and the version command.
func buildInfo() string {
	return fmt.Sprintf("lbprep %s\ncommit: %s\nbuilt: %s\n", versionString(), commit, date)
}

// Execute runs the lbprep CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (build, export,
// plot, version), configures logging based on the --verbose flag, and
// executes the command tree under ctx. The logger writes to stderr at info
// level, or debug level with --verbose, and is attached to the command
// context so every command reaches it via loggerFromContext. Errors are not
// printed here; the caller reports them once.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:   "lbprep",
		Short: "lbprep prepares immersed-boundary geometry for lattice Boltzmann solvers",
		Long: `lbprep samples signed-distance shapes onto uniform grids, classifies the
cells into fluid, near-wall and wall, solves the Bouzidi link fractions
along boundary-cut lattice links, and stores everything in a single NetCDF
bundle that solvers and the companion export and plot commands consume.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildInfo())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newPlotCmd())
	root.AddCommand(newVersionCmd())

	return root.ExecuteContext(ctx)
}
