// Package ui renders human-readable run progress on a terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sqreport/go/internal/sonar"
)

// Styles defines the look of console output
type Styles struct {
	Header  lipgloss.Style
	Counter lipgloss.Style
	Project lipgloss.Style
	Branch  lipgloss.Style
	Found   lipgloss.Style
	Summary lipgloss.Style
	Warning lipgloss.Style
}

func defaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("32")). // Green
			Bold(true),
		Counter: r.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Project: r.NewStyle().
			Foreground(lipgloss.Color("220")). // Yellow
			Bold(true),
		Branch: r.NewStyle().
			Foreground(lipgloss.Color("255")), // White
		Found: r.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true),
		Summary: r.NewStyle().
			Foreground(lipgloss.Color("14")), // Cyan
		Warning: r.NewStyle().
			Foreground(lipgloss.Color("11")). // Bright yellow
			Italic(true),
	}
}

// Console prints crawl progress and run summaries. It implements
// report.Progress.
type Console struct {
	out    io.Writer
	styles Styles
}

// NewConsole creates a Console on out. Colors are used only when out is a terminal.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:    out,
		styles: defaultStyles(lipgloss.NewRenderer(out)),
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// ProjectsFound prints the number of projects about to be scanned
func (c *Console) ProjectsFound(n int) {
	c.printf("%s\n", c.styles.Header.Render(fmt.Sprintf("there are %d projects", n)))
}

// ProjectStarted prints the project being scanned
func (c *Console) ProjectStarted(index, total int, key sonar.ProjectKey) {
	c.printf("%s Finding secrets for %s\n",
		c.styles.Counter.Render(fmt.Sprintf("[%d/%d]", index, total)),
		c.styles.Project.Render(string(key)),
	)
}

// BranchScanned prints branches that contributed findings
func (c *Console) BranchScanned(_ sonar.ProjectKey, branch string, secrets int) {
	if secrets == 0 {
		return
	}
	c.printf("  %s %s\n",
		c.styles.Branch.Render(branch),
		c.styles.Found.Render(fmt.Sprintf("%d secrets", secrets)),
	)
}

// Finished prints the total number of findings
func (c *Console) Finished(secrets int) {
	c.printf("%s\n", c.styles.Summary.Render(fmt.Sprintf("%d secrets found", secrets)))
}

// Wrote prints where the report went
func (c *Console) Wrote(path string, rows int) {
	c.printf("%s\n", c.styles.Summary.Render(fmt.Sprintf("wrote %d rows to %s", rows, path)))
}

// Warn prints a highlighted warning line
func (c *Console) Warn(msg string) {
	c.printf("%s\n", c.styles.Warning.Render(msg))
}
