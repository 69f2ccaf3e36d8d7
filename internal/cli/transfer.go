package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sadopc/ctfpad/internal/export"
	"github.com/sadopc/ctfpad/internal/inbox"
	"github.com/sadopc/ctfpad/internal/printer"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const readConcurrency = 4

func newExportCmd(a *app) *cobra.Command {
	var (
		dir   string
		asCSV bool
	)
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a project to a JSON file",
		Long: `Write a project as indented JSON named <name>_<date>.json into the export
directory. With --csv a per-zone summary is written next to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.find(args[0])
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Export.Dir
			}

			artifact, err := a.projects.Export(p)
			if err != nil {
				return err
			}
			path, err := export.WriteArtifact(dir, artifact)
			if err != nil {
				return err
			}
			pr := out(cmd)
			pr.Success("exported %s to %s\n", p.Name, path)

			if asCSV {
				csvPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
				if err := export.ZonesToCSV(p, csvPath); err != nil {
					return err
				}
				pr.Success("wrote zone summary to %s\n", csvPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Also write a per-zone CSV summary")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var watchDir string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import exported project files",
		Long: `Import one or more exported project files. Each gets a fresh id.

With --watch DIR, ctfpad imports every *.json file already in DIR and any that
appear later, moving each into DIR/imported or DIR/rejected. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchDir != "" {
				if len(args) > 0 {
					return fmt.Errorf("give either files or --watch, not both")
				}
				return a.watch(cmd, watchDir)
			}
			if len(args) == 0 {
				return fmt.Errorf("no files to import")
			}

			pr := out(cmd)
			files := readAll(args)
			var errs []error
			for i, path := range args {
				if err := a.importFile(pr, path, files[i]); err != nil {
					pr.Warning("%s: %v\n", path, err)
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "Watch a directory and import files dropped into it")
	return cmd
}

// readResult is one file's contents or its read error.
type readResult struct {
	data []byte
	err  error
}

// readAll reads paths concurrently; results keep argument order.
func readAll(paths []string) []readResult {
	results := make([]readResult, len(paths))
	var eg errgroup.Group
	eg.SetLimit(readConcurrency)
	for i, path := range paths {
		eg.Go(func() error {
			data, err := export.ReadFile(path)
			results[i] = readResult{data: data, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (a *app) importFile(pr *printer.Printer, path string, file readResult) error {
	if file.err != nil {
		return file.err
	}
	p, err := a.projects.Import(file.data)
	if err != nil {
		return err
	}
	pr.Success("imported %s as %s from %s\n", p.Name, p.ID, path)
	return nil
}

func (a *app) watch(cmd *cobra.Command, dir string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := inbox.New(dir, a.projects, a.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	pr := out(cmd)
	pr.Step("watching %s (Ctrl+C to stop)\n", dir)

	<-ctx.Done()
	w.Stop()

	s := w.Stats()
	pr.Info("\n%d imported, %d rejected, %d errors\n", s.Imported, s.Rejected, s.Errors)
	return nil
}
