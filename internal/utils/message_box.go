package utils

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType selects the colour and icon of a Box.
type MessageType int

const (
	InfoMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
)

type boxKind struct {
	icon  string
	style lipgloss.Style
}

var boxKinds = map[MessageType]boxKind{
	InfoMessage:    {"ℹ", lipgloss.NewStyle().Foreground(lipgloss.Color("86"))},
	SuccessMessage: {"✓", lipgloss.NewStyle().Foreground(lipgloss.Color("42"))},
	WarningMessage: {"⚠", lipgloss.NewStyle().Foreground(lipgloss.Color("178"))},
	ErrorMessage:   {"✗", lipgloss.NewStyle().Foreground(lipgloss.Color("196"))},
}

// Box is a rounded, coloured frame around a title and a few lines, used for
// run completion and lookup results.
type Box struct {
	kind     MessageType
	title    string
	lines    []string
	maxWidth int
}

func NewBox(kind MessageType, title string) *Box {
	return &Box{kind: kind, title: title, maxWidth: getTerminalWidth() - 8}
}

// WithMaxWidth overrides the terminal-derived width.
func (b *Box) WithMaxWidth(width int) *Box {
	b.maxWidth = width
	return b
}

func (b *Box) AddLine(text string) *Box {
	b.lines = append(b.lines, text)
	return b
}

func (b *Box) AddBullet(text string) *Box {
	return b.AddLine("• " + text)
}

func (b *Box) AddKeyValue(key, value string) *Box {
	return b.AddLine(key + ": " + value)
}

// Render wraps long lines to the box width and draws the frame.
func (b *Box) Render() string {
	kind, ok := boxKinds[b.kind]
	if !ok {
		kind = boxKinds[InfoMessage]
	}
	limit := max(b.maxWidth-6, 10)

	type row struct{ lead, text string }
	var rows []row
	for i, line := range append([]string{b.title}, b.lines...) {
		lead := " "
		if i == 0 {
			lead = kind.icon
		}
		for j, part := range wrapText(line, limit) {
			if j > 0 {
				lead = " "
			}
			rows = append(rows, row{lead, part})
		}
	}

	width := 0
	for _, r := range rows {
		width = max(width, utf8.RuneCountInString(r.text))
	}

	edge := kind.style.Render
	var sb strings.Builder
	sb.WriteString(edge("╭"+strings.Repeat("─", width+4)+"╮") + "\n")
	for _, r := range rows {
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(r.text))
		sb.WriteString(edge("│") + " " + kind.style.Bold(true).Render(r.lead) + " " + r.text + pad + " " + edge("│") + "\n")
	}
	sb.WriteString(edge("╰" + strings.Repeat("─", width+4) + "╯"))
	return sb.String()
}

func Info(title string, lines ...string) string {
	return boxOf(InfoMessage, title, lines)
}

func Success(title string, lines ...string) string {
	return boxOf(SuccessMessage, title, lines)
}

func Warning(title string, lines ...string) string {
	return boxOf(WarningMessage, title, lines)
}

func Error(title string, lines ...string) string {
	return boxOf(ErrorMessage, title, lines)
}

func boxOf(kind MessageType, title string, lines []string) string {
	b := NewBox(kind, title)
	for _, l := range lines {
		b.AddLine(l)
	}
	return b.Render()
}

// getTerminalWidth falls back to 80 columns when stdout is not a terminal.
func getTerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText greedily fills lines of at most maxWidth runes.
func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if utf8.RuneCountInString(*last)+1+utf8.RuneCountInString(word) <= maxWidth {
			*last += " " + word
			continue
		}
		lines = append(lines, word)
	}
	return lines
}
