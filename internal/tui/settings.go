package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/theme"
)

type settingsModel struct {
	theme  *theme.Theme
	info   []setting
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	mode *string
}

// setting is a read-only label/value line.
type setting struct {
	key   string
	value string
}

func newSettingsModel(t *theme.Theme, info []setting) settingsModel {
	mode := ""
	return settingsModel{
		theme: t,
		info:  info,
		mode:  &mode,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.mode = string(s.theme.Mode())

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Mode").
				Description("Switches the color palette.").
				Options(
					huh.NewOption("CTF", string(theme.ModeCTF)),
					huh.NewOption("OSINT", string(theme.ModeOSINT)),
				).Value(s.mode),
		).Title("Appearance"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.theme.Set(theme.Mode(*s.mode)); err != nil {
			return s, statusCmd(fmt.Sprintf("Settings error: %v", err), true)
		}
		return s, modeCmd(theme.Mode(*s.mode))
	}

	return s, cmd
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render("mode"),
		highlightStyle.Render(string(s.theme.Mode())),
	))
	for _, st := range s.info {
		label := lipgloss.NewStyle().Width(24).Render(st.key)
		rows = append(rows, fmt.Sprintf("  %s %s", label, mutedStyle.Render(st.value)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to change the mode, m to toggle it"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
