// Package cli implements the ctfpad command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sadopc/ctfpad/internal/printer"
	"github.com/sadopc/ctfpad/internal/project"
	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersionInfo sets the version shown by --version.
func SetVersionInfo(v, commit, date string) {
	version = fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// Execute runs the command line and reports any error in color on stderr.
// This is called by main.main().
func Execute() error {
	root, a := newRootCmd()
	defer a.close()

	// Errors are printed by report, not by cobra
	root.SilenceErrors = true
	root.SilenceUsage = true

	err := root.Execute()
	if err != nil {
		report(printer.New(os.Stdout, os.Stderr), err)
	}
	return err
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "ctfpad",
		Short: "ctfpad - notes, checklists and timers for CTF and OSINT work",
		Long: `ctfpad keeps one notebook per target. Each project is split into the
zones recon, exploit, privesc and flags, each with notes, a checklist and the
time spent in it, plus a stopwatch for the whole project.

Run without arguments to start the interactive interface.`,
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $CTFPAD_CONFIG)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newNewCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newRenameCmd(a),
		newRmCmd(a),
		newNoteCmd(a),
		newCheckCmd(a),
		newTimerCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newChecklistsCmd(a),
		newModeCmd(a),
		newImageCmd(a),
	)
	return root, a
}

// report prints err with a hint for the errors users can act on.
func report(p *printer.Printer, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		p.Error(err.Error(), "", "Run 'ctfpad list' to see project ids.")
	case errors.Is(err, project.ErrInvalidProject):
		p.Error(err.Error(), "", "The file must be a ctfpad export with a name and zones.")
	default:
		p.Error("Error: "+err.Error(), "")
	}
}
