package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/ctfpad/internal/export"
	"github.com/sadopc/ctfpad/internal/printer"
	"github.com/sadopc/ctfpad/internal/project"
	"github.com/spf13/cobra"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#414868"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func out(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new NAME",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			p := a.projects.Create(name)
			out(cmd).Success("created %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := a.projects.Projects()
			pr := out(cmd)

			if asJSON {
				data, err := json.MarshalIndent(projects, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal projects: %w", err)
				}
				pr.Info("%s\n", data)
				return nil
			}

			if len(projects) == 0 {
				pr.Info("No projects yet.\n\n")
				pr.Muted("Run 'ctfpad new NAME' to create one.\n")
				return nil
			}

			now := time.Now()
			t := newTable("ID", "NAME", "CREATED", "CHECKED", "TIMER")
			for _, p := range projects {
				checked, total := progress(p)
				t.Row(
					p.ID,
					p.Name,
					p.CreatedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%d/%d", checked, total),
					timerLabel(p.Timer, now),
				)
			}
			pr.Info("%s\n", t.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a project's zones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.find(args[0])
			if err != nil {
				return err
			}
			pr := out(cmd)

			if asJSON {
				artifact, err := a.projects.Export(p)
				if err != nil {
					return err
				}
				pr.Info("%s\n", artifact.Data)
				return nil
			}

			pr.Info("%s ", p.Name)
			pr.Muted("(%s, created %s)\n", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"))
			pr.Info("Timer: %s\n\n", timerLabel(p.Timer, time.Now()))

			t := newTable("ZONE", "CHECKED", "TIME", "NOTES")
			for _, id := range project.OrderedZoneIDs(p.Zones) {
				z := p.Zones[id]
				checked, total := zoneProgress(z)
				t.Row(
					z.Name,
					fmt.Sprintf("%d/%d", checked, total),
					export.FormatDuration(z.TimeSpent),
					firstLine(z.Notes, 48),
				)
			}
			pr.Info("%s\n", t.String())

			for _, id := range project.OrderedZoneIDs(p.Zones) {
				z := p.Zones[id]
				if len(z.Checklist) == 0 {
					continue
				}
				pr.Info("\n%s\n", z.Name)
				for i, it := range z.Checklist {
					mark := "[ ]"
					if it.Checked {
						mark = "[x]"
					}
					pr.Info("  %2d %s %s\n", i+1, mark, it.Text)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the project as exported JSON")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.find(args[0])
			if err != nil {
				return err
			}
			old := p.Name
			a.projects.Select(p)
			a.projects.Rename(strings.Join(args[1:], " "))
			out(cmd).Success("renamed %s to %s\n", old, p.Name)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.find(args[0])
			if err != nil {
				return err
			}
			a.projects.Delete(p.ID)
			out(cmd).Success("deleted %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func newNoteCmd(a *app) *cobra.Command {
	var appendText bool
	cmd := &cobra.Command{
		Use:   "note ID ZONE TEXT",
		Short: "Set or append to a zone's notes",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone := args[1]
			p, err := a.selectZone(args[0], zone)
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			if notes := p.Zones[zone].Notes; appendText && notes != "" {
				text = notes + "\n" + text
			}
			a.projects.SetZoneNotes(zone, text)
			out(cmd).Success("%s notes updated\n", p.Zones[zone].Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&appendText, "append", "a", false, "Append a line instead of replacing the notes")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		checked  bool
		toggle   int
		template string
		section  string
	)
	cmd := &cobra.Command{
		Use:   "check ID ZONE [ITEM]",
		Short: "Add or toggle checklist items in a zone",
		Long: `Add an item to a zone's checklist, toggle an existing one by number with
--toggle, or append a catalog checklist with --template (see 'ctfpad checklists').`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			zone := args[1]
			p, err := a.selectZone(args[0], zone)
			if err != nil {
				return err
			}
			z := p.Zones[zone]
			pr := out(cmd)

			switch {
			case toggle > 0:
				if toggle > len(z.Checklist) {
					return fmt.Errorf("no item %d in %s (it has %d)", toggle, z.Name, len(z.Checklist))
				}
				items := append([]project.ChecklistItem(nil), z.Checklist...)
				items[toggle-1].Checked = !items[toggle-1].Checked
				a.projects.SetZoneChecklist(zone, items)
				pr.Success("toggled %q\n", items[toggle-1].Text)

			case template != "":
				cl := a.catalog.Get(template)
				if cl == nil {
					return fmt.Errorf("unknown checklist %q (see 'ctfpad checklists')", template)
				}
				added := cl.Items(section)
				for _, it := range added {
					a.projects.AppendChecklistItem(it, zone)
				}
				pr.Success("added %d items from %s to %s\n", len(added), cl.Name, z.Name)

			case len(args) == 3:
				a.projects.AppendChecklistItem(project.ChecklistItem{Text: args[2], Checked: checked}, zone)
				pr.Success("added %q to %s\n", args[2], z.Name)

			default:
				return fmt.Errorf("nothing to do: give an ITEM, --toggle N or --template KEY")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checked, "done", false, "Add the item already checked")
	cmd.Flags().IntVarP(&toggle, "toggle", "t", 0, "Toggle item N (1-based)")
	cmd.Flags().StringVar(&template, "template", "", "Append the items of a catalog checklist")
	cmd.Flags().StringVar(&section, "section", "", "Only the named section of --template")
	return cmd
}

func newTimerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "timer ID [start|pause|toggle|reset]",
		Short:     "Show or drive a project's stopwatch",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"start", "pause", "toggle", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.find(args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			pr := out(cmd)
			if len(args) == 1 {
				pr.Info("%s\n", timerLabel(p.Timer, now))
				return nil
			}

			var t project.Timer
			switch args[1] {
			case "start":
				t = p.Timer.Start(now)
			case "pause":
				t = p.Timer.Pause(now)
			case "toggle":
				t = p.Timer.Toggle(now)
			case "reset":
				t = p.Timer.Reset()
			default:
				return fmt.Errorf("unknown timer action %q", args[1])
			}
			a.projects.Select(p)
			a.projects.SetTimer(t)
			pr.Success("%s\n", timerLabel(t, now))
			return nil
		},
	}
}

func progress(p *project.Project) (checked, total int) {
	for _, z := range p.Zones {
		c, t := zoneProgress(z)
		checked += c
		total += t
	}
	return checked, total
}

func zoneProgress(z *project.Zone) (checked, total int) {
	for _, it := range z.Checklist {
		if it.Checked {
			checked++
		}
	}
	return checked, len(z.Checklist)
}

func timerLabel(t project.Timer, now time.Time) string {
	label := export.FormatDuration(t.Elapsed(now))
	if t.IsRunning {
		return label + " running"
	}
	return label
}

func firstLine(s string, limit int) string {
	line, _, _ := strings.Cut(s, "\n")
	if r := []rune(line); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return line
}
