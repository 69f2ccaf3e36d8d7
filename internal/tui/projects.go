package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/export"
	"github.com/sadopc/ctfpad/internal/project"
)

type projectsModel struct {
	projects *project.Store
	width    int
	height   int

	list   []*project.Project
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "new", "rename", "delete", "import"

	// Form field pointers (survive value copies)
	formName    *string
	formPath    *string
	formConfirm *bool
}

func newProjectsModel(projects *project.Store) projectsModel {
	name, path, confirm := "", "", false
	return projectsModel{
		projects:    projects,
		list:        projects.Projects(),
		formName:    &name,
		formPath:    &path,
		formConfirm: &confirm,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) refresh() {
	p.list = p.projects.Projects()
	if p.cursor >= len(p.list) {
		p.cursor = max(0, len(p.list)-1)
	}
}

func (p projectsModel) selected() *project.Project {
	if p.cursor < len(p.list) {
		return p.list[p.cursor]
	}
	return nil
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsChangedMsg:
		p.refresh()
		return p, nil

	case tea.KeyMsg:
		return p.updateList(msg)
	}
	return p, nil
}

func (p projectsModel) updateList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.list)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if sel := p.selected(); sel != nil {
			return p, func() tea.Msg { return openProjectMsg{project: sel} }
		}
	case key.Matches(msg, keys.New):
		return p.showNameForm("new", "")
	case key.Matches(msg, keys.Edit):
		if sel := p.selected(); sel != nil {
			return p.showNameForm("rename", sel.Name)
		}
	case key.Matches(msg, keys.Delete):
		if p.selected() != nil {
			return p.showDeleteForm()
		}
	case key.Matches(msg, keys.Import):
		return p.showImportForm()
	}
	return p, nil
}

func (p projectsModel) showNameForm(formType, name string) (projectsModel, tea.Cmd) {
	*p.formName = name
	p.formType = formType

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteForm() (projectsModel, tea.Cmd) {
	*p.formConfirm = false
	p.formType = "delete"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", p.selected().Name)).
				Description("Notes, checklists and timer are removed for good.").
				Affirmative("Delete").
				Negative("Keep").
				Value(p.formConfirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showImportForm() (projectsModel, tea.Cmd) {
	*p.formPath = ""
	p.formType = "import"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Import File").
				Placeholder("~/ctf_project_name_2024-03-09.json").
				Value(p.formPath),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		name := strings.TrimSpace(*p.formName)
		switch p.formType {
		case "new":
			if name == "" {
				return p, nil
			}
			created := p.projects.Create(name)
			p.refresh()
			return p, func() tea.Msg { return openProjectMsg{project: created} }
		case "rename":
			sel := p.selected()
			if name == "" || sel == nil {
				return p, nil
			}
			return p, func() tea.Msg { return renameProjectMsg{project: sel, name: name} }
		case "delete":
			sel := p.selected()
			if !*p.formConfirm || sel == nil {
				return p, nil
			}
			p.projects.Delete(sel.ID)
			p.refresh()
			return p, tea.Batch(
				func() tea.Msg { return projectsChangedMsg{} },
				statusCmd("Deleted "+sel.Name, false),
			)
		case "import":
			return p, importCmd(p.projects, *p.formPath)
		}
	}

	return p, cmd
}

// importCmd reads and imports a project file off the update loop.
func importCmd(projects *project.Store, path string) tea.Cmd {
	path = expandHome(strings.TrimSpace(path))
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		data, err := export.ReadFile(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		imported, err := projects.Import(data)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		return importDoneMsg{project: imported}
	}
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		switch p.formType {
		case "rename":
			title = titleStyle.Render("Rename Project")
		case "delete":
			title = titleStyle.Render("Delete Project")
		case "import":
			title = titleStyle.Render("Import Project")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View())
		return panelStyle.Width(p.width - 4).Render(content)
	}
	return p.renderList()
}

func (p projectsModel) renderList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one or i to import."),
		)
		return panelStyle.Width(w).Render(content)
	}

	current := p.projects.Current()

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	// Table header
	header := mutedStyle.Render(fmt.Sprintf("  %-2s %-28s %-17s %-10s %s", "", "Name", "Created", "Checked", "Timer"))
	rows = append(rows, header)

	for i, proj := range p.list {
		mark := " "
		if current != nil && current.ID == proj.ID {
			mark = accentStyle.Render("●")
		}
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		done, total := checklistProgress(proj)
		timer := formatSeconds(proj.Timer.ElapsedTime)
		if proj.Timer.IsRunning {
			timer += " ●"
		}
		row := fmt.Sprintf("%s%s %-28s %-17s %-10s %s",
			cursor,
			mark,
			truncate(proj.Name, 28),
			proj.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", done, total),
			timer,
		)
		rows = append(rows, style.Render(row))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: open  n: new  e: rename  d: delete  i: import"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func checklistProgress(p *project.Project) (done, total int) {
	for _, z := range p.Zones {
		if z == nil {
			continue
		}
		for _, it := range z.Checklist {
			total++
			if it.Checked {
				done++
			}
		}
	}
	return done, total
}
