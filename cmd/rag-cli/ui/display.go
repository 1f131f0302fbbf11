// Package ui provides terminal output helpers for the rag-cli tool.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	verboseFlag bool

	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.Bold)
	keyColor     = color.New(color.Faint)
)

// Init applies the color and verbosity flags.
func Init(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor {
		color.NoColor = true
	}
}

// SetOutput redirects standard and error output. Used by tests.
func SetOutput(stdout, stderr io.Writer) {
	out = stdout
	errOut = stderr
}

// Verbose reports whether verbose output is on.
func Verbose() bool { return verboseFlag }

// Message prints a plain line.
func Message(format string, args ...interface{}) {
	fmt.Fprintf(out, format+"\n", args...)
}

// Success prints a success line.
func Success(format string, args ...interface{}) {
	successColor.Fprintf(out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning line.
func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error line to stderr.
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(errOut, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational line.
func Info(format string, args ...interface{}) {
	infoColor.Fprintf(out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Step prints a step indicator.
func Step(format string, args ...interface{}) {
	fmt.Fprintf(out, "→ %s\n", fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func Newline() {
	fmt.Fprintln(out)
}

// Section prints an underlined header.
func Section(title string) {
	titleColor.Fprintf(out, "\n%s\n", title)
	fmt.Fprintf(out, "%s\n\n", strings.Repeat("=", len([]rune(title))))
}

// KeyValue prints an indented key/value pair.
func KeyValue(key, value string) {
	fmt.Fprintf(out, "  %s %s\n", keyColor.Sprint(key+":"), value)
}

// Table prints rows under headers in aligned columns.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	separator := make([]string, len(headers))
	for i, h := range headers {
		separator[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// Box prints content inside a titled border, wrapping long lines at width.
func Box(title, content string, width int) {
	if width < 40 {
		width = 40
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		lines = append(lines, wrap(line, width)...)
	}

	horizontal := strings.Repeat("─", width+2)
	fmt.Fprintf(out, "┌%s┐\n", horizontal)
	if title != "" {
		fmt.Fprintf(out, "│ %s │\n", pad(title, width))
		fmt.Fprintf(out, "├%s┤\n", horizontal)
	}
	for _, line := range lines {
		fmt.Fprintf(out, "│ %s │\n", pad(line, width))
	}
	fmt.Fprintf(out, "└%s┘\n", horizontal)
}

// List prints items as bullets.
func List(items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "  • %s\n", item)
	}
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// wrap breaks s on spaces into lines of at most width runes. Words longer
// than width are split.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		cur   []rune
	)
	for _, w := range words {
		r := []rune(w)
		for len(r) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		switch {
		case len(cur) == 0:
			cur = r
		case len(cur)+1+len(r) <= width:
			cur = append(append(cur, ' '), r...)
		default:
			lines = append(lines, string(cur))
			cur = r
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
