package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/ctfpad/internal/project"
)

// viewState represents the currently active view.
type viewState int

const (
	viewProjects viewState = iota
	viewEditor
	viewChecklists
	viewReport
	viewSettings
)

var viewNames = []string{"Projects", "Editor", "Checklists", "Report", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// openProjectMsg asks the App to select a project and switch to the editor.
type openProjectMsg struct {
	project *project.Project
}

// projectsChangedMsg tells views that the collection changed.
type projectsChangedMsg struct{}

// applyTemplateMsg asks the editor to append a catalog checklist to its zone.
type applyTemplateMsg struct {
	key string
}

// renameProjectMsg renames through the App, since renaming moves the selection.
type renameProjectMsg struct {
	project *project.Project
	name    string
}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	project *project.Project
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

// expandHome resolves a leading ~ the way a shell would.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
