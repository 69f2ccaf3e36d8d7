package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/ctfpad/internal/checklist"
	"github.com/sadopc/ctfpad/internal/config"
	"github.com/sadopc/ctfpad/internal/images"
	"github.com/sadopc/ctfpad/internal/logging"
	"github.com/sadopc/ctfpad/internal/project"
	"github.com/sadopc/ctfpad/internal/store"
	"github.com/sadopc/ctfpad/internal/theme"
	"github.com/sadopc/ctfpad/internal/tui"
	"go.uber.org/zap"
)

// app holds the flags and the services opened for one invocation.
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg      config.Config
	logger   *zap.Logger
	kv       *store.Store
	projects *project.Store
	theme    *theme.Theme
	images   *images.Library
	catalog  *checklist.Catalog
}

func (a *app) open() error {
	if a.kv != nil {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.SetDBPath(a.dbPath)
	}

	logger, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}

	kv, err := store.New(cfg.DB.Path)
	if err != nil {
		_ = logger.Sync()
		return fmt.Errorf("open database: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.kv = kv
	a.projects = project.NewStore(kv, project.WithLogger(logger))
	a.theme = theme.New(kv, logger)
	a.images = images.NewLibrary(kv, logger)
	a.catalog = checklist.Default()

	logger.Debug("opened", zap.String("db", cfg.DB.Path))
	return nil
}

func (a *app) close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.logger.Error("close database", zap.Error(err))
		}
		a.kv = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
		a.logger = nil
	}
}

func (a *app) runTUI(ctx context.Context) error {
	model := tui.NewApp(tui.Config{
		Projects:  a.projects,
		Theme:     a.theme,
		Catalog:   a.catalog,
		ExportDir: a.cfg.Export.Dir,
		DBPath:    a.cfg.DB.Path,
		LogFile:   a.cfg.Log.File,
		Logger:    a.logger,
	})
	defer model.Close()
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if ctx != nil {
		opts = append(opts, tea.WithContext(ctx))
	}
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// find returns the project with id or an error wrapping ErrNotFound.
func (a *app) find(id string) (*project.Project, error) {
	p := a.projects.Find(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", project.ErrNotFound, id)
	}
	return p, nil
}

// selectZone selects the project with id and checks it has zone.
func (a *app) selectZone(id, zone string) (*project.Project, error) {
	p, err := a.find(id)
	if err != nil {
		return nil, err
	}
	if p.Zones[zone] == nil {
		return nil, fmt.Errorf("unknown zone %q (want one of %s)", zone, strings.Join(project.ZoneIDs, ", "))
	}
	a.projects.Select(p)
	return p, nil
}
