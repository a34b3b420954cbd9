package monitor

import "github.com/charmbracelet/lipgloss"

// Palette sticks to ANSI colors so the dashboard renders sanely on any
// terminal profile.
const (
	ColorHealthy  = lipgloss.Color("2") // green
	ColorWarning  = lipgloss.Color("3") // yellow
	ColorCritical = lipgloss.Color("1") // red
	ColorAccent   = lipgloss.Color("6") // cyan
	ColorMuted    = lipgloss.Color("8") // bright black
	ColorPrimary  = lipgloss.Color("7") // default foreground
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Bold(true)

	SortedColumnStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Underline(true)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Background(lipgloss.Color("0")).
				Bold(true).
				Reverse(true)

	StatusUpStyle      = lipgloss.NewStyle().Foreground(ColorHealthy).Bold(true)
	StatusDownStyle    = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	StatusPollingStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	StatusUnknownStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	OkStyle       = lipgloss.NewStyle().Foreground(ColorHealthy)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorTextStyle = lipgloss.NewStyle().Foreground(ColorCritical)

	FilterPromptStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	DetailBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorMuted).
				Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)
)

// severityStyle picks a style for a percentage against the configured
// warning/critical thresholds.
func severityStyle(pct, warning, critical float64) lipgloss.Style {
	switch {
	case pct > critical:
		return CriticalStyle
	case pct > warning:
		return WarnStyle
	default:
		return OkStyle
	}
}
