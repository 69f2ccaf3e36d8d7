package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/checklist"
	"github.com/sadopc/ctfpad/internal/project"
)

// editorModel edits the selected project one zone at a time.
type editorModel struct {
	projects *project.Store
	catalog  *checklist.Catalog
	watch    stopwatchModel
	width    int
	height   int

	zoneIdx int
	cursor  int

	editing  bool
	notes    textarea.Model
	renderer *glamour.TermRenderer

	formActive   bool
	form         *huh.Form
	formType     string // "item", "template"
	formText     *string
	formTemplate *string
}

func newEditorModel(projects *project.Store, catalog *checklist.Catalog) editorModel {
	ta := textarea.New()
	ta.Placeholder = "Notes (markdown)..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	text, tmpl := "", ""
	return editorModel{
		projects:     projects,
		catalog:      catalog,
		watch:        newStopwatchModel(projects),
		notes:        ta,
		formText:     &text,
		formTemplate: &tmpl,
	}
}

func (e *editorModel) setSize(w, h int) {
	e.width = w
	e.height = h
	e.notes.SetWidth(max(10, w-8))
	e.notes.SetHeight(max(3, h/2-4))
	e.refreshRenderer()
}

// refreshRenderer rebuilds the markdown renderer for the current width and palette.
func (e *editorModel) refreshRenderer() {
	wrap := e.width - 10
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(markdownStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		e.renderer = nil
		return
	}
	e.renderer = r
}

func (e editorModel) capturing() bool {
	return e.editing || e.formActive
}

func (e editorModel) zoneIDs() []string {
	p := e.projects.Current()
	if p == nil {
		return nil
	}
	return project.OrderedZoneIDs(p.Zones)
}

func (e editorModel) zone() (string, *project.Zone) {
	p := e.projects.Current()
	ids := e.zoneIDs()
	if p == nil || len(ids) == 0 {
		return "", nil
	}
	idx := e.zoneIdx
	if idx >= len(ids) {
		idx = len(ids) - 1
	}
	id := ids[idx]
	return id, p.Zones[id]
}

// open resets per-project state after the selection changed.
func (e *editorModel) open() {
	e.zoneIdx = 0
	e.cursor = 0
	e.editing = false
	e.notes.Blur()
	id, _ := e.zone()
	if id != "" {
		e.watch.zoneID = id
	}
}

func (e editorModel) update(msg tea.Msg) (editorModel, tea.Cmd) {
	if e.formActive && e.form != nil {
		return e.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		e.watch.tick()
		return e, nil

	case applyTemplateMsg:
		return e, e.applyTemplate(msg.key)

	case tea.KeyMsg:
		e.watch.recordActivity()
		if e.editing {
			return e.updateNotes(msg)
		}
		return e.updateZone(msg)
	}

	if e.editing {
		var cmd tea.Cmd
		e.notes, cmd = e.notes.Update(msg)
		return e, cmd
	}
	return e, nil
}

func (e editorModel) updateZone(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	zoneID, z := e.zone()
	if z == nil {
		return e, nil
	}

	switch {
	case key.Matches(msg, keys.Left):
		if e.zoneIdx > 0 {
			e.zoneIdx--
			e.cursor = 0
			id, _ := e.zone()
			e.watch.setZone(id)
		}
	case key.Matches(msg, keys.Right):
		if e.zoneIdx < len(e.zoneIDs())-1 {
			e.zoneIdx++
			e.cursor = 0
			id, _ := e.zone()
			e.watch.setZone(id)
		}
	case key.Matches(msg, keys.Up):
		if e.cursor > 0 {
			e.cursor--
		}
	case key.Matches(msg, keys.Down):
		if e.cursor < len(z.Checklist)-1 {
			e.cursor++
		}
	case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
		if e.cursor < len(z.Checklist) {
			items := append([]project.ChecklistItem(nil), z.Checklist...)
			items[e.cursor].Checked = !items[e.cursor].Checked
			e.projects.SetZoneChecklist(zoneID, items)
		}
	case key.Matches(msg, keys.Delete):
		if e.cursor < len(z.Checklist) {
			items := make([]project.ChecklistItem, 0, len(z.Checklist)-1)
			items = append(items, z.Checklist[:e.cursor]...)
			items = append(items, z.Checklist[e.cursor+1:]...)
			e.projects.SetZoneChecklist(zoneID, items)
			if e.cursor >= len(items) {
				e.cursor = max(0, len(items)-1)
			}
		}
	case key.Matches(msg, keys.Edit):
		e.editing = true
		e.notes.SetValue(z.Notes)
		e.notes.CursorEnd()
		return e, e.notes.Focus()
	case key.Matches(msg, keys.New):
		return e.showItemForm()
	case key.Matches(msg, keys.Template):
		return e.showTemplateForm()
	case key.Matches(msg, keys.Timer):
		e.watch.toggle()
		if e.watch.running() {
			return e, statusCmd("Timer started", false)
		}
		return e, statusCmd("Timer paused", false)
	case key.Matches(msg, keys.Reset):
		e.watch.reset()
		return e, statusCmd("Timer reset", false)
	}
	return e, nil
}

func (e editorModel) updateNotes(msg tea.KeyMsg) (editorModel, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		zoneID, z := e.zone()
		e.editing = false
		e.notes.Blur()
		if z != nil && e.notes.Value() != z.Notes {
			e.projects.SetZoneNotes(zoneID, e.notes.Value())
			return e, statusCmd("Notes saved", false)
		}
		return e, nil
	}
	var cmd tea.Cmd
	e.notes, cmd = e.notes.Update(msg)
	return e, cmd
}

func (e editorModel) applyTemplate(name string) tea.Cmd {
	cl := e.catalog.Get(name)
	if cl == nil {
		return statusCmd(fmt.Sprintf("Unknown checklist %q", name), true)
	}
	zoneID, z := e.zone()
	if z == nil {
		return statusCmd("No project selected", true)
	}
	items := append([]project.ChecklistItem(nil), z.Checklist...)
	items = append(items, cl.Items("")...)
	e.projects.SetZoneChecklist(zoneID, items)
	return statusCmd(fmt.Sprintf("Added %d items from %s to %s", cl.Len(), cl.Name, project.ZoneName(zoneID)), false)
}

func (e editorModel) showItemForm() (editorModel, tea.Cmd) {
	*e.formText = ""
	e.formType = "item"
	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Checklist Item").Value(e.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	e.formActive = true
	return e, e.form.Init()
}

func (e editorModel) showTemplateForm() (editorModel, tea.Cmd) {
	types := e.catalog.Types()
	if len(types) == 0 {
		return e, nil
	}
	*e.formTemplate = types[0]
	e.formType = "template"

	options := make([]huh.Option[string], len(types))
	for i, k := range types {
		cl := e.catalog.Get(k)
		options[i] = huh.NewOption(fmt.Sprintf("%s (%d items)", cl.Name, cl.Len()), k)
	}
	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Checklist").Options(options...).Value(e.formTemplate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	e.formActive = true
	return e, e.form.Init()
}

func (e editorModel) updateForm(msg tea.Msg) (editorModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			e.formActive = false
			e.form = nil
			return e, nil
		}
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		e.formActive = false
		switch e.formType {
		case "item":
			text := strings.TrimSpace(*e.formText)
			zoneID, _ := e.zone()
			if text != "" && zoneID != "" {
				e.projects.AppendChecklistItem(project.ChecklistItem{Text: text}, zoneID)
			}
			return e, nil
		case "template":
			return e, e.applyTemplate(*e.formTemplate)
		}
	}

	return e, cmd
}

func (e editorModel) view() string {
	if e.width < 20 {
		return "Terminal too small"
	}
	w := e.width - 4

	p := e.projects.Current()
	if p == nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Editor"),
			"",
			mutedStyle.Render("No project selected. Press 1 and pick one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	if e.formActive && e.form != nil {
		title := titleStyle.Render("Add Item")
		if e.formType == "template" {
			title = titleStyle.Render("Apply Checklist")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", e.form.View())
		return panelStyle.Width(w).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		e.renderTimerPanel(p, w),
		e.renderZoneTabs(p),
		e.renderNotesPanel(w),
		e.renderChecklistPanel(w),
	)
}

func (e editorModel) renderTimerPanel(p *project.Project, w int) string {
	timeStr := formatDuration(e.watch.elapsed())
	name := highlightStyle.Render(p.Name) + mutedStyle.Render("  "+p.ID)

	var timeDisplay, indicator string
	switch {
	case e.watch.running():
		timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator = successStyle.Render("●  RUNNING")
	case e.watch.isIdle:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
		indicator = warningStyle.Render("⏸  IDLE")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(timeStr)
		indicator = mutedStyle.Render("■  PAUSED")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, name)
	if e.watch.running() {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (e editorModel) renderZoneTabs(p *project.Project) string {
	current, _ := e.zone()
	var tabs []string
	for _, id := range project.OrderedZoneIDs(p.Zones) {
		z := p.Zones[id]
		label := fmt.Sprintf("%s %s", z.Name, formatSeconds(z.TimeSpent))
		if id == current {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (e editorModel) renderNotesPanel(w int) string {
	_, z := e.zone()
	title := titleStyle.Render("Notes")

	if e.editing {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title+mutedStyle.Render("  esc: save"),
			e.notes.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	body := mutedStyle.Render("No notes. Press e to write some.")
	if z != nil && strings.TrimSpace(z.Notes) != "" {
		body = z.Notes
		if e.renderer != nil {
			if out, err := e.renderer.Render(z.Notes); err == nil {
				body = strings.Trim(out, "\n")
			}
		}
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

func (e editorModel) renderChecklistPanel(w int) string {
	_, z := e.zone()
	if z == nil {
		return ""
	}
	done := 0
	for _, it := range z.Checklist {
		if it.Checked {
			done++
		}
	}
	title := titleStyle.Render("Checklist") + mutedStyle.Render(fmt.Sprintf("  %d/%d", done, len(z.Checklist)))

	rows := []string{title}
	if len(z.Checklist) == 0 {
		rows = append(rows, mutedStyle.Render("Empty. Press n to add an item or t to apply a template."))
	}
	for i, it := range z.Checklist {
		cursor := "  "
		box := "[ ] "
		style := normalItemStyle
		if it.Checked {
			box = "[x] "
			style = checkedItemStyle
		}
		if i == e.cursor {
			cursor = "> "
			if !it.Checked {
				style = selectedItemStyle
			}
		}
		rows = append(rows, cursor+style.Render(box+truncate(it.Text, w-12)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: zone  space: check  n: add  d: delete  t: template  e: notes  s: timer"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// elapsed exposes the stopwatch for the footer.
func (e editorModel) elapsed() time.Duration { return e.watch.elapsed() }
func (e editorModel) isRunning() bool       { return e.watch.running() }
