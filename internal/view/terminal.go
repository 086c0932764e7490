package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette
var (
	ColorGood    = lipgloss.Color("#9ece6a")
	ColorDanger  = lipgloss.Color("#f7768e")
	ColorWarning = lipgloss.Color("#e0af68")
	ColorNeutral = lipgloss.Color("#565f89")
	ColorAccent  = lipgloss.Color("#7aa2f7")
	ColorFg      = lipgloss.Color("#c0caf5")
	ColorBg      = lipgloss.Color("#1a1b26")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(ColorNeutral)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorNeutral).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Foreground(ColorFg).
			Bold(true)

	pillStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true)
)

func terminalColor(s Status) lipgloss.Color {
	switch s {
	case StatusGood:
		return ColorGood
	case StatusDanger:
		return ColorDanger
	case StatusWarning:
		return ColorWarning
	default:
		return ColorNeutral
	}
}

var badgePadding = map[Size]int{
	SizeSmall:  0,
	SizeMedium: 1,
	SizeLarge:  2,
}

// RenderBadge draws a badge as a colored terminal chip.
func RenderBadge(b Badge) string {
	var parts []string
	if b.ShowIcon {
		parts = append(parts, b.Style.Glyph)
	}
	if b.Label != "" {
		parts = append(parts, b.Label)
	}
	if len(parts) == 0 {
		parts = append(parts, " ")
	}
	return lipgloss.NewStyle().
		Background(terminalColor(b.Status)).
		Foreground(ColorBg).
		Bold(true).
		Padding(0, badgePadding[b.Size]).
		Render(strings.Join(parts, " "))
}

// RenderRow draws a condition row.
func RenderRow(r Row, width int) string {
	color := terminalColor(r.Tone())
	glyph := lipgloss.NewStyle().Foreground(color).Render(StyleFor(r.Tone()).Glyph)
	line := glyph + " " + r.Label
	if r.ShowDetails {
		pill := pillStyle.Background(color).Foreground(ColorBg).Render(r.Pill)
		gap := width - lipgloss.Width(line) - lipgloss.Width(pill)
		if gap < 1 {
			gap = 1
		}
		line += strings.Repeat(" ", gap) + pill
	}
	if r.Detail != "" {
		line += "\n  " + lipgloss.NewStyle().Foreground(ColorDanger).Render(r.Detail)
	}
	return line
}

// RenderTerminal draws the whole page for a terminal of the given width.
func RenderTerminal(p Page, width int) string {
	if width < 60 {
		width = 60
	}
	colWidth := (width - 6) / 3

	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(p.Title),
		subtitleStyle.Render(p.Subtitle),
	)
	badges := RenderBadge(p.SafeBadge)
	if p.OnlineBadge != nil {
		badges += " " + RenderBadge(*p.OnlineBadge)
	}
	top := lipgloss.JoinHorizontal(lipgloss.Center, header, "   ", badges)

	core := column("Core Systems", p.CoreRows, colWidth)
	contactors := column("Contactors", p.ContactorRows, colWidth)

	var faults []string
	faults = append(faults, headingStyle.Render("Active Faults"))
	if len(p.Faults) == 0 {
		faults = append(faults, lipgloss.NewStyle().Foreground(ColorGood).Render("No active faults"))
	}
	for _, f := range p.Faults {
		faults = append(faults, lipgloss.NewStyle().Foreground(ColorDanger).Render(f))
	}
	if extra := p.FaultTotal - len(p.Faults); extra > 0 {
		faults = append(faults, subtitleStyle.Render(fmt.Sprintf("+%d more", extra)))
	}
	faultCol := lipgloss.NewStyle().Width(colWidth).Render(strings.Join(faults, "\n"))

	overview := panelStyle.Width(width - 2).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, core, "  ", contactors, "  ", faultCol),
	)

	cardWidth := (width - 4) / 2
	var cards []string
	for _, c := range p.Cards {
		cards = append(cards, panelStyle.Width(cardWidth).Render(column(c.Category, c.Rows, cardWidth-4)))
	}
	var grid []string
	for i := 0; i < len(cards); i += 2 {
		if i+1 < len(cards) {
			grid = append(grid, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], " ", cards[i+1]))
		} else {
			grid = append(grid, cards[i])
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{top, overview}, grid...)...)
}

func column(title string, rows []Row, width int) string {
	lines := []string{headingStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, RenderRow(r, width))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}
