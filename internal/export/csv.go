package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/ctfpad/internal/project"
)

// ZonesToCSV writes one row per zone of p: canonical zones first, then any
// extra zones the project carries, sorted by id.
func ZonesToCSV(p *project.Project, path string) error {
	if p == nil {
		return project.ErrNotFound
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Zone", "Name", "Notes (chars)", "Checked", "Items", "Time (s)", "Time"}); err != nil {
		return err
	}

	for _, id := range project.OrderedZoneIDs(p.Zones) {
		z := p.Zones[id]
		checked := 0
		for _, it := range z.Checklist {
			if it.Checked {
				checked++
			}
		}
		row := []string{
			id,
			z.Name,
			fmt.Sprintf("%d", len([]rune(z.Notes))),
			fmt.Sprintf("%d", checked),
			fmt.Sprintf("%d", len(z.Checklist)),
			fmt.Sprintf("%d", z.TimeSpent),
			FormatDuration(z.TimeSpent),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatDuration renders seconds as HH:MM:SS.
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
