package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/checklist"
)

// checklistsModel browses the catalog and hands a template to the editor.
type checklistsModel struct {
	catalog *checklist.Catalog
	width   int
	height  int

	types  []string
	cursor int
}

func newChecklistsModel(catalog *checklist.Catalog) checklistsModel {
	return checklistsModel{
		catalog: catalog,
		types:   catalog.Types(),
	}
}

func (c *checklistsModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c checklistsModel) update(msg tea.Msg) (checklistsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
		case key.Matches(msg, keys.Down):
			if c.cursor < len(c.types)-1 {
				c.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Template):
			if c.cursor < len(c.types) {
				k := c.types[c.cursor]
				return c, func() tea.Msg { return applyTemplateMsg{key: k} }
			}
		}
	}
	return c, nil
}

func (c checklistsModel) view() string {
	w := c.width - 4
	title := titleStyle.Render("Checklists")

	if len(c.types) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("The catalog is empty."),
		))
	}

	listW := 28
	var list []string
	list = append(list, title, "")
	for i, k := range c.types {
		cl := c.catalog.Get(k)
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		list = append(list, style.Render(fmt.Sprintf("%s%-18s %3d", cursor, truncate(cl.Name, 18), cl.Len())))
	}
	list = append(list, "", mutedStyle.Render("  enter: add to zone"))

	left := lipgloss.NewStyle().Width(listW).Render(strings.Join(list, "\n"))
	right := c.renderDetail(max(10, w-listW-8))

	return panelStyle.Width(w).Render(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
}

func (c checklistsModel) renderDetail(w int) string {
	cl := c.catalog.Get(c.types[c.cursor])
	rows := []string{highlightStyle.Render(cl.Name) + mutedStyle.Render("  "+cl.Key), ""}

	budget := c.height - 8
	for _, s := range cl.Sections {
		if budget <= 0 {
			rows = append(rows, mutedStyle.Render("…"))
			break
		}
		rows = append(rows, accentStyle.Render(s.Text))
		budget--
		for _, it := range s.Items {
			if budget <= 0 {
				break
			}
			rows = append(rows, "  "+mutedStyle.Render("- ")+truncate(it, w-4))
			budget--
		}
	}
	return strings.Join(rows, "\n")
}
