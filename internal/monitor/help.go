package monitor

import "strings"

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	rows := [][2]string{
		{"j / ↓", "move down"},
		{"k / ↑", "move up"},
		{"g / home", "first host"},
		{"G / end", "last host"},
		{"pgdn / ctrl+d", "page down"},
		{"pgup / ctrl+u", "page up"},
		{"enter", "toggle detail panel"},
		{"s", "cycle sort column"},
		{"S", "reverse sort order"},
		{"/", "filter by host or group"},
		{"esc", "close detail / clear filter"},
		{"r", "refresh now"},
		{"?", "this help"},
		{"q / ctrl+c", "quit"},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("ansimon keys") + "\n\n")
	for _, row := range rows {
		b.WriteString(FilterPromptStyle.Render(pad(row[0], 14)))
		b.WriteString(row[1])
		b.WriteString("\n")
	}
	b.WriteString("\n" + MutedStyle.Render("press any key to close"))

	return HelpStyle.Render(b.String())
}
