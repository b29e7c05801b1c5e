package utils

import (
	"fmt"
	"strings"
)

// ReportBuilder provides a fluent interface for building plain-text reports
type ReportBuilder struct {
	lines     []string
	separator string
	width     int
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{
		separator: "=",
		width:     60,
	}
}

// WithSeparator sets the separator character
func (rb *ReportBuilder) WithSeparator(sep string) *ReportBuilder {
	rb.separator = sep
	return rb
}

// WithWidth sets the separator width
func (rb *ReportBuilder) WithWidth(width int) *ReportBuilder {
	rb.width = width
	return rb
}

// Header adds a header underlined with the separator
func (rb *ReportBuilder) Header(text string) *ReportBuilder {
	rb.lines = append(rb.lines, text, strings.Repeat(rb.separator, rb.width))
	return rb
}

// Section adds a section title preceded by a blank line
func (rb *ReportBuilder) Section(title string) *ReportBuilder {
	rb.lines = append(rb.lines, "", title, strings.Repeat("-", len(title)))
	return rb
}

func (rb *ReportBuilder) AddLine(text string) *ReportBuilder {
	rb.lines = append(rb.lines, text)
	return rb
}

func (rb *ReportBuilder) AddBullet(text string) *ReportBuilder {
	rb.lines = append(rb.lines, fmt.Sprintf("• %s", text))
	return rb
}

func (rb *ReportBuilder) AddNumbered(number int, text string) *ReportBuilder {
	rb.lines = append(rb.lines, fmt.Sprintf("%d. %s", number, text))
	return rb
}

func (rb *ReportBuilder) AddKeyValue(key, value string) *ReportBuilder {
	rb.lines = append(rb.lines, fmt.Sprintf("%s: %s", key, value))
	return rb
}

// AddBlock adds multi-line text, indenting every line by level
func (rb *ReportBuilder) AddBlock(text string, level int) *ReportBuilder {
	indent := strings.Repeat("  ", level)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			rb.lines = append(rb.lines, "")
			continue
		}
		rb.lines = append(rb.lines, indent+line)
	}
	return rb
}

func (rb *ReportBuilder) AddSeparator() *ReportBuilder {
	rb.lines = append(rb.lines, strings.Repeat(rb.separator, rb.width))
	return rb
}

func (rb *ReportBuilder) AddEmptyLine() *ReportBuilder {
	rb.lines = append(rb.lines, "")
	return rb
}

// Build returns the report with a trailing newline
func (rb *ReportBuilder) Build() string {
	return strings.Join(rb.lines, "\n") + "\n"
}
