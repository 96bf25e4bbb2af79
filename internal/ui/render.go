package ui

import (
	"strings"

	"github.com/KaramelBytes/datasense-cli/internal/console"
	"github.com/charmbracelet/lipgloss"
)

const (
	appTitle        = "▮ DataSense Analytics"
	uploadHint      = "Upload CSV File"
	questionPrompt  = "Ask a question about your data..."
	minLeftWidth    = 28
	minContentWidth = 20
)

// Layout carries the terminal size and the already-rendered widgets that
// hold their own cursor or scroll state.
type Layout struct {
	Width   int
	Height  int
	Input   string // question input
	Picker  string // file path prompt; empty when closed
	History string // scrolled history viewport
	Spinner string
}

// ButtonLabel is the ask button text for s.
func ButtonLabel(s console.State) string {
	if s.Busy {
		return "Analyzing..."
	}
	return "Ask"
}

// Render draws the whole console for s. It depends on nothing but its inputs.
func Render(s console.State, l Layout) string {
	if s.Alert != "" {
		return renderAlert(s.Alert, l)
	}
	leftW, rightW := columnWidths(l.Width)

	header := titleStyle.Render(appTitle)
	left := renderDataSource(s, l, leftW)
	right := renderQuestions(s, l, rightW)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	footer := hintStyle.Render("enter ask • ctrl+o choose file • pgup/pgdn scroll • ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer)
}

// columnWidths splits the width one third / two thirds.
func columnWidths(total int) (int, int) {
	if total <= 0 {
		total = 80
	}
	left := total / 3
	if left < minLeftWidth {
		left = minLeftWidth
	}
	right := total - left
	if right < minContentWidth+4 {
		right = minContentWidth + 4
	}
	return left, right
}

func renderDataSource(s console.State, l Layout, width int) string {
	inner := width - panelStyle.GetHorizontalFrameSize()
	if inner < minContentWidth {
		inner = minContentWidth
	}
	label := uploadHint
	if s.File != nil {
		label = s.File.Name
	}
	zone := []string{
		titleStyle.Render("⇪"),
		"",
		label,
	}
	if s.Uploading {
		zone = append(zone, "", strings.TrimSpace(l.Spinner+" Uploading..."))
	}
	if s.UploadStatus != "" {
		st := statusStyle
		if s.UploadFailed {
			st = failedStyle
		}
		zone = append(zone, "", st.Render(s.UploadStatus))
	}
	dz := dropZoneStyle.Width(inner - dropZoneStyle.GetHorizontalBorderSize()).Render(strings.Join(zone, "\n"))

	parts := []string{titleStyle.Render("◆ Data Source"), "", dz}
	if l.Picker != "" {
		parts = append(parts, "", l.Picker, hintStyle.Render("enter select • esc cancel"))
	} else {
		parts = append(parts, "", hintStyle.Render("ctrl+o to choose a file"))
	}
	return panelStyle.Width(width - panelStyle.GetHorizontalBorderSize()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderQuestions(s console.State, l Layout, width int) string {
	button := buttonDisabledStyle.Render(ButtonLabel(s))
	if s.CanAsk() {
		button = buttonStyle.Render(ButtonLabel(s))
	}
	input := lipgloss.JoinHorizontal(lipgloss.Center, l.Input, "  ", button)
	parts := []string{titleStyle.Render("? Ask Questions"), "", input, ""}
	if l.History != "" {
		parts = append(parts, l.History)
	} else {
		parts = append(parts, hintStyle.Render("No questions asked yet."))
	}
	return panelStyle.Width(width - panelStyle.GetHorizontalBorderSize()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// RenderHistory lays out every record, each with its own insights, and the
// loading skeleton after them while a query is in flight.
func RenderHistory(s console.State, width int) string {
	if width < minContentWidth {
		width = minContentWidth
	}
	textW := width - recordStyle.GetHorizontalFrameSize()
	var blocks []string
	for _, rec := range s.History {
		lines := []string{
			questionStyle.Width(textW).Render("Q: " + rec.Question),
			answerStyle.Width(textW).Render("A: " + rec.Answer),
		}
		for _, in := range rec.Insights {
			lines = append(lines, insightStyle.Width(textW).Render("• "+in))
		}
		blocks = append(blocks, recordStyle.Render(strings.Join(lines, "\n")))
	}
	if s.Busy {
		blocks = append(blocks, renderSkeleton(textW))
	}
	return strings.Join(blocks, "\n")
}

func renderSkeleton(width int) string {
	long := width * 3 / 4
	short := width / 2
	if long < 1 {
		long = 1
	}
	if short < 1 {
		short = 1
	}
	bars := skeletonStyle.Render(strings.Repeat("▆", long)) + "\n" + skeletonStyle.Render(strings.Repeat("▆", short))
	return recordStyle.BorderForeground(mutedColor).Render(bars)
}

func renderAlert(text string, l Layout) string {
	w := l.Width
	if w <= 0 {
		w = 80
	}
	boxW := w / 2
	if boxW < 30 {
		boxW = 30
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		failedStyle.Bold(true).Render("Alert"),
		"",
		lipgloss.NewStyle().Width(boxW-alertStyle.GetHorizontalFrameSize()).Align(lipgloss.Center).Render(text),
		"",
		buttonStyle.Render("OK"),
		hintStyle.Render("enter/esc to dismiss"),
	)
	box := alertStyle.Width(boxW - alertStyle.GetHorizontalBorderSize()).Render(content)
	if l.Height <= 0 {
		return box
	}
	return lipgloss.Place(w, l.Height, lipgloss.Center, lipgloss.Center, box)
}

// historyHeight is what remains for the viewport under the fixed chrome.
func historyHeight(total int) int {
	h := total - 14
	if h < 3 {
		h = 3
	}
	return h
}

// historyWidth is the usable width inside the questions panel.
func historyWidth(total int) int {
	_, right := columnWidths(total)
	w := right - panelStyle.GetHorizontalFrameSize()
	if w < minContentWidth {
		w = minContentWidth
	}
	return w
}

func inputWidth(total int) int {
	// room for the widest button label plus its padding
	w := historyWidth(total) - lipgloss.Width(ButtonLabel(console.State{Busy: true})) - 8
	if w < 10 {
		w = 10
	}
	return w
}
