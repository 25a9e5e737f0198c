package ui

import "github.com/charmbracelet/lipgloss"

// Palette is the colour scheme of the command line output.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

var (
	darkPalette = Palette{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Success:   lipgloss.Color("#10B981"), // Emerald
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#EF4444"), // Red
		Muted:     lipgloss.Color("#94A3B8"), // Slate
	}
	lightPalette = Palette{
		Primary:   lipgloss.Color("#5A56E0"),
		Secondary: lipgloss.Color("#EE6FF8"),
		Success:   lipgloss.Color("#02BA84"),
		Warning:   lipgloss.Color("#FF8C00"),
		Error:     lipgloss.Color("#FF5F56"),
		Muted:     lipgloss.Color("#9B9B9B"),
	}
)

func adaptive(pick func(Palette) lipgloss.Color) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: string(pick(lightPalette)), Dark: string(pick(darkPalette))}
}

var (
	primaryColor   = adaptive(func(p Palette) lipgloss.Color { return p.Primary })
	secondaryColor = adaptive(func(p Palette) lipgloss.Color { return p.Secondary })
	successColor   = adaptive(func(p Palette) lipgloss.Color { return p.Success })
	warningColor   = adaptive(func(p Palette) lipgloss.Color { return p.Warning })
	errorColor     = adaptive(func(p Palette) lipgloss.Color { return p.Error })
	mutedColor     = adaptive(func(p Palette) lipgloss.Color { return p.Muted })
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B5CF6")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(secondaryColor).
				Bold(true).
				Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	algorithmStyle = cellStyle.
			Foreground(successColor).
			Bold(true)

	unexpectedStyle = cellStyle.
			Foreground(warningColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Background(errorColor).
			Foreground(lipgloss.Color("#F8FAFC")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)
