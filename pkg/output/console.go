package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	isatty "github.com/mattn/go-isatty"
)

var (
	styleOk      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleFail    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleSkip    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))            // yellow
	styleWarnLbl = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true) // yellow
	styleHeader  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)  // bright white
	styleDesc    = lipgloss.NewStyle().Faint(true)                                  // dim
	colorEnabled = true
)

// InitConsole configures color output based on noColor flag and TTY detection
func InitConsole(noColor bool) {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	colorEnabled = tty && !noColor
}

func r(st lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return st.Render(s)
}

// JobOK returns a progress line for a completed conversion.
func JobOK(done, total int, source string) string {
	return fmt.Sprintf("[%d/%d] %s %s", done, total, r(styleOk, "✓"), source)
}

// JobFailed returns a progress line for a failed conversion.
func JobFailed(done, total int, source string, err error) string {
	return fmt.Sprintf("[%d/%d] %s %s: %v", done, total, r(styleFail, "✗"), source, err)
}

// JobSkipped returns a line for a file left out of the run.
func JobSkipped(source, reason string) string {
	return fmt.Sprintf("%s %s (%s)", r(styleSkip, "-"), source, reason)
}

// Warnf returns a single-line colored warning string with a standard prefix.
func Warnf(format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	return r(styleWarnLbl, "Warning:") + " " + r(styleSkip, msg)
}

// Summary renders the end-of-run report block.
func Summary(discovered, converted, skipped, failed int) string {
	var b strings.Builder
	b.WriteString(r(styleHeader, "Summary") + "\n")
	b.WriteString(fmt.Sprintf("  discovered: %d\n", discovered))
	b.WriteString(fmt.Sprintf("  converted:  %d\n", converted))
	if skipped > 0 {
		b.WriteString(r(styleSkip, fmt.Sprintf("  skipped:    %d", skipped)) + "\n")
	} else {
		b.WriteString(fmt.Sprintf("  skipped:    %d\n", skipped))
	}
	if failed > 0 {
		b.WriteString(r(styleFail, fmt.Sprintf("  failed:     %d", failed)) + "\n")
	} else {
		b.WriteString(fmt.Sprintf("  failed:     %d\n", failed))
	}
	return b.String()
}

// Detail returns a faint indented detail line for summary listings.
func Detail(s string) string {
	return r(styleDesc, "    - "+s)
}
