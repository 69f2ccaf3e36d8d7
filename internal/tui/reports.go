package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/project"
)

type reportMode int

const (
	reportZones reportMode = iota
	reportProjects
)

// reportRow is one bar of the chart.
type reportRow struct {
	label   string
	seconds int64
	done    int
	total   int
}

type reportsModel struct {
	projects *project.Store
	width    int
	height   int

	mode reportMode
	rows []reportRow

	chart barchart.Model
}

func newReportsModel(projects *project.Store) reportsModel {
	return reportsModel{
		projects: projects,
		chart:    barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

// refresh recomputes the rows from the store and redraws.
func (r *reportsModel) refresh() {
	r.rows = r.collect()
	r.buildChart()
}

func (r reportsModel) collect() []reportRow {
	var rows []reportRow
	switch r.mode {
	case reportProjects:
		for _, p := range r.projects.Projects() {
			done, total := checklistProgress(p)
			rows = append(rows, reportRow{
				label:   p.Name,
				seconds: p.Timer.ElapsedTime,
				done:    done,
				total:   total,
			})
		}
	default:
		p := r.projects.Current()
		if p == nil {
			return nil
		}
		for _, id := range project.OrderedZoneIDs(p.Zones) {
			z := p.Zones[id]
			row := reportRow{label: z.Name, seconds: z.TimeSpent, total: len(z.Checklist)}
			for _, it := range z.Checklist {
				if it.Checked {
					row.done++
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsChangedMsg:
		r.refresh()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if r.mode == reportZones {
				r.mode = reportProjects
			} else {
				r.mode = reportZones
			}
			r.refresh()
			return r, nil
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var total int64
	for _, row := range r.rows {
		total += row.seconds
	}
	if total == 0 {
		return
	}

	colors := []lipgloss.Color{colorPrimary, colorSecondary, colorAccent, colorWarning, colorSuccess, colorHighlight}
	var bars []barchart.BarData
	for i, row := range r.rows {
		hours := float64(row.seconds) / 3600.0
		style := lipgloss.NewStyle().Foreground(colors[i%len(colors)])
		bars = append(bars, barchart.BarData{
			Label:  truncate(row.label, 10),
			Values: []barchart.BarValue{{
				Name:  row.label,
				Value: hours,
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	// Mode tabs
	zonesTab := inactiveTabStyle.Render("Zones")
	projectsTab := inactiveTabStyle.Render("Projects")
	if r.mode == reportZones {
		zonesTab = activeTabStyle.Render("Zones")
	} else {
		projectsTab = activeTabStyle.Render("Projects")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, zonesTab, projectsTab)

	label := ""
	if r.mode == reportZones {
		if p := r.projects.Current(); p != nil {
			label = mutedStyle.Render(p.Name)
		}
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Report"), "  ", modeTabs, "  ", label,
	)

	nav := mutedStyle.Render("  ←/→: switch mode")

	if len(r.rows) == 0 {
		empty := "  No project selected"
		if r.mode == reportProjects {
			empty = "  No projects yet"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render(empty), "", nav),
		)
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	name := "Zone"
	if r.mode == reportProjects {
		name = "Project"
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-24s %10s %7s %9s", name, "Time", "Hours", "Checked"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 53)))))

	var total int64
	for _, row := range r.rows {
		total += row.seconds
		rows = append(rows, fmt.Sprintf("  %-24s %10s %7s %9s",
			truncate(row.label, 24), formatSeconds(row.seconds), formatHours(row.seconds),
			fmt.Sprintf("%d/%d", row.done, row.total),
		))
	}
	rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %-24s %10s %7s", "Total", formatSeconds(total), formatHours(total))))

	return strings.Join(rows, "\n")
}
