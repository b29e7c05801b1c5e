package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TableFormatter renders boxed tables for CLI listings
type TableFormatter struct {
	headers []string
	rows    [][]string
	widths  []int
	maxCell int
}

// NewTableFormatter creates a new table formatter with headers
func NewTableFormatter(headers ...string) *TableFormatter {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &TableFormatter{
		headers: headers,
		widths:  widths,
		maxCell: 48,
	}
}

// WithMaxCellWidth truncates longer cells with an ellipsis
func (t *TableFormatter) WithMaxCellWidth(n int) *TableFormatter {
	t.maxCell = n
	return t
}

// AddRow adds a row; missing cells are left blank and extra cells dropped
func (t *TableFormatter) AddRow(cells ...string) *TableFormatter {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = truncate(strings.ReplaceAll(cells[i], "\n", " "), t.maxCell)
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
	return t
}

// Len returns the number of data rows
func (t *TableFormatter) Len() int {
	return len(t.rows)
}

// String returns the formatted table
func (t *TableFormatter) String() string {
	var sb strings.Builder

	t.writeBorder(&sb, "┌", "┬", "┐")
	t.writeRow(&sb, t.headers)
	t.writeBorder(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.writeRow(&sb, row)
	}
	t.writeBorder(&sb, "└", "┴", "┘")

	return sb.String()
}

func (t *TableFormatter) writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("│")
	for i, cell := range cells {
		pad := t.widths[i] - utf8.RuneCountInString(cell)
		sb.WriteString(fmt.Sprintf(" %s%s │", cell, strings.Repeat(" ", pad)))
	}
	sb.WriteString("\n")
}

func (t *TableFormatter) writeBorder(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
