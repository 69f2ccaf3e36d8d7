package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/checklist"
	"github.com/sadopc/ctfpad/internal/export"
	"github.com/sadopc/ctfpad/internal/project"
	"github.com/sadopc/ctfpad/internal/theme"
	"go.uber.org/zap"
)

// Config carries everything the TUI needs from the outside.
type Config struct {
	Projects  *project.Store
	Theme     *theme.Theme
	Catalog   *checklist.Catalog
	ExportDir string
	DBPath    string
	LogFile   string
	Logger    *zap.Logger
}

// App is the root Bubble Tea model.
type App struct {
	projects  *project.Store
	theme     *theme.Theme
	exportDir string
	logger    *zap.Logger
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	projectsView projectsModel
	editor       editorModel
	checklists   checklistsModel
	reports      reportsModel
	settings     settingsModel

	help        help.Model
	status      string
	statusError bool

	unsubscribe func()
}

func NewApp(cfg Config) App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = checklist.Default()
	}

	h := help.New()
	h.ShowAll = false

	info := []setting{
		{key: "database", value: cfg.DBPath},
		{key: "export dir", value: cfg.ExportDir},
		{key: "log file", value: cfg.LogFile},
		{key: "checklists", value: fmt.Sprintf("%d templates", len(catalog.Types()))},
	}

	a := App{
		projects:     cfg.Projects,
		theme:        cfg.Theme,
		exportDir:    cfg.ExportDir,
		logger:       logger.Named("tui"),
		activeView:   viewProjects,
		projectsView: newProjectsModel(cfg.Projects),
		editor:       newEditorModel(cfg.Projects, catalog),
		checklists:   newChecklistsModel(catalog),
		reports:      newReportsModel(cfg.Projects),
		settings:     newSettingsModel(cfg.Theme, info),
		help:         h,
	}
	a.unsubscribe = cfg.Theme.Subscribe(applyPalette)

	if cfg.Projects.Current() != nil {
		a.activeView = viewEditor
		a.editor.open()
	}
	a.reports.refresh()
	return a
}

// Close detaches the palette from the theme.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.projectsView.setSize(a.width, contentHeight)
		a.editor.setSize(a.width, contentHeight)
		a.checklists.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.editor.watch.sync()
			a.logger.Debug("quit")
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			if a.projects.Current() == nil {
				return a, statusCmd("No project selected", true)
			}
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Mode):
			return a, modeCmd(a.theme.Toggle())
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewProjects)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewEditor)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewChecklists)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewReport)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// Always route ticks to the editor stopwatch
		var cmd tea.Cmd
		a.editor, cmd = a.editor.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case openProjectMsg:
		a.openProject(msg.project)
		a.activeView = viewEditor
		a.setStatus("Opened "+msg.project.Name, false)
		return a, nil

	case renameProjectMsg:
		if cur := a.projects.Current(); cur == nil || cur.ID != msg.project.ID {
			a.openProject(msg.project)
		}
		a.projects.Rename(msg.name)
		a.projectsView.refresh()
		a.setStatus("Renamed to "+msg.name, false)
		return a, nil

	case importDoneMsg:
		a.projectsView.refresh()
		a.reports.refresh()
		a.setStatus(fmt.Sprintf("Imported %s (%s)", msg.project.Name, msg.project.ID), false)
		return a, nil

	case projectsChangedMsg:
		if a.projects.Current() == nil {
			a.editor.open()
		}
		a.projectsView.refresh()
		a.reports.refresh()
		return a, nil

	case applyTemplateMsg:
		if a.projects.Current() == nil {
			return a, statusCmd("Open a project before applying a checklist", true)
		}
		var cmd tea.Cmd
		a.editor, cmd = a.editor.update(msg)
		a.activeView = viewEditor
		return a, cmd

	case modeChangedMsg:
		a.editor.refreshRenderer()
		a.reports.buildChart()
		a.setStatus("Mode "+string(msg.mode), false)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusError = isError
}

// openProject moves the selection to p, crediting pending zone time first.
func (a *App) openProject(p *project.Project) {
	a.editor.watch.detach()
	a.projects.Load(p)
	a.editor.open()
	a.projectsView.refresh()
	a.reports.refresh()
	a.logger.Debug("project opened", zap.String("id", p.ID))
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	switch v {
	case viewProjects:
		a.projectsView.refresh()
	case viewReport:
		a.editor.watch.sync()
		a.reports.refresh()
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewProjects:
		a.projectsView, cmd = a.projectsView.update(msg)
	case viewEditor:
		a.editor, cmd = a.editor.update(msg)
	case viewChecklists:
		a.checklists, cmd = a.checklists.update(msg)
	case viewReport:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewProjects:
		return a.projectsView.formActive
	case viewEditor:
		return a.editor.capturing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewProjects:
		content = a.projectsView.view()
	case viewEditor:
		content = a.editor.view()
	case viewChecklists:
		content = a.checklists.view()
	case viewReport:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("ctfpad") +
		" " + badgeStyle.Render(strings.ToUpper(string(a.theme.Mode())))
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.editor.isRunning() {
		timerInfo = successStyle.Render(" ● " + formatDuration(a.editor.elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"JSON", "CSV"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export " + a.projects.Current().Name)
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("  to "+a.exportDir))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		a.editor.watch.sync()
		done := exportProject(a.projects, a.exportDir, a.exportCursor)
		return a, func() tea.Msg { return done }
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// exportProject writes the current project as JSON (format 0) or CSV (format 1).
// It runs on the update loop so the record cannot change underneath it.
func exportProject(projects *project.Store, dir string, format int) tea.Msg {
	p := projects.Current()
	art, err := projects.Export(p)
	if err != nil {
		return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
	}

	if format == 1 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
		}
		path := filepath.Join(dir, strings.TrimSuffix(art.Filename, ".json")+".csv")
		if err := export.ZonesToCSV(p, path); err != nil {
			return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}

	path, err := export.WriteArtifact(dir, art)
	if err != nil {
		return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
	}
	return exportDoneMsg{path: path}
}

type modeChangedMsg struct {
	mode theme.Mode
}

func modeCmd(m theme.Mode) tea.Cmd {
	return func() tea.Msg { return modeChangedMsg{mode: m} }
}
