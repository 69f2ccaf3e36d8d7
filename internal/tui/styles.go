package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/ctfpad/internal/theme"
)

// palette is the set of colors a mode renders with.
type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	accent    lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	error     lipgloss.Color
	fg        lipgloss.Color
	subtle    lipgloss.Color
	highlight lipgloss.Color

	// glamour style used for notes
	markdown string
}

var palettes = map[theme.Mode]palette{
	theme.ModeCTF: {
		primary:   lipgloss.Color("#6C63FF"),
		secondary: lipgloss.Color("#2EC4B6"),
		accent:    lipgloss.Color("#FF6B6B"),
		muted:     lipgloss.Color("#666666"),
		success:   lipgloss.Color("#2ECC71"),
		warning:   lipgloss.Color("#F39C12"),
		error:     lipgloss.Color("#E74C3C"),
		fg:        lipgloss.Color("#C0CAF5"),
		subtle:    lipgloss.Color("#414868"),
		highlight: lipgloss.Color("#7AA2F7"),
		markdown:  "dark",
	},
	theme.ModeOSINT: {
		primary:   lipgloss.Color("#20C997"),
		secondary: lipgloss.Color("#F4D35E"),
		accent:    lipgloss.Color("#EE964B"),
		muted:     lipgloss.Color("#6B7B6E"),
		success:   lipgloss.Color("#9BE564"),
		warning:   lipgloss.Color("#F4D35E"),
		error:     lipgloss.Color("#F95738"),
		fg:        lipgloss.Color("#D8E2DC"),
		subtle:    lipgloss.Color("#3D5A4F"),
		highlight: lipgloss.Color("#4ECDC4"),
		markdown:  "dracula",
	},
}

// Color palette
var (
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorMuted     lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorFg        lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color

	markdownStyle string
)

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	timerRunningStyle lipgloss.Style
	timerPausedStyle  lipgloss.Style
	titleStyle        lipgloss.Style
	subtitleStyle     lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	badgeStyle        lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
	checkedItemStyle  lipgloss.Style
)

func init() {
	applyPalette(theme.ModeCTF)
}

// applyPalette rebuilds every style for mode. Unknown modes fall back to ctf.
func applyPalette(mode theme.Mode) {
	p, ok := palettes[mode]
	if !ok {
		p = palettes[theme.ModeCTF]
	}

	colorPrimary = p.primary
	colorSecondary = p.secondary
	colorAccent = p.accent
	colorMuted = p.muted
	colorSuccess = p.success
	colorWarning = p.warning
	colorError = p.error
	colorFg = p.fg
	colorSubtle = p.subtle
	colorHighlight = p.highlight
	markdownStyle = p.markdown

	// Tabs
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	// Timer
	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	timerRunningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSuccess).
		Align(lipgloss.Center)

	timerPausedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorWarning).
		Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	badgeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1A1B26")).
		Background(colorSecondary).
		Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)
	checkedItemStyle = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
}
