package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	successColor   = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	errorColor     = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}
	mutedColor     = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}
	panelBorder    = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#475569"}
)

// drop-zone frame
var dashedBorder = lipgloss.Border{
	Top:         "╌",
	Bottom:      "╌",
	Left:        "╎",
	Right:       "╎",
	TopLeft:     "┌",
	TopRight:    "┐",
	BottomLeft:  "└",
	BottomRight: "┘",
}

var (
	titleStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(1, 2)

	dropZoneStyle = lipgloss.NewStyle().
			Border(dashedBorder).
			BorderForeground(panelBorder).
			Padding(1, 2).
			Align(lipgloss.Center)

	hintStyle     = lipgloss.NewStyle().Foreground(secondaryColor)
	questionStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	answerStyle   = lipgloss.NewStyle().Bold(true)
	insightStyle  = lipgloss.NewStyle().Foreground(successColor)
	statusStyle   = lipgloss.NewStyle().Foreground(successColor)
	failedStyle   = lipgloss.NewStyle().Foreground(errorColor)
	skeletonStyle = lipgloss.NewStyle().Foreground(mutedColor)

	recordStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(primaryColor).
			PaddingLeft(1).
			MarginBottom(1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	buttonDisabledStyle = lipgloss.NewStyle().
				Foreground(secondaryColor).
				Background(mutedColor).
				Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(errorColor).
			Padding(1, 3).
			Align(lipgloss.Center)
)
