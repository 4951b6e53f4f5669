package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Human-readable output. Every helper writes to the writer it is given so
// commands can be captured with cmd.SetOut; json and yaml output never
// passes through here.

var (
	teal  = lipgloss.Color("36")
	green = lipgloss.Color("35")
	amber = lipgloss.Color("220")
	red   = lipgloss.Color("167")
	blue  = lipgloss.Color("75")
	white = lipgloss.Color("255")
	gray  = lipgloss.Color("245")
	muted = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(teal)
	nameStyle  = lipgloss.NewStyle().Foreground(teal)
	countStyle = lipgloss.NewStyle().Foreground(teal)
	valueStyle = lipgloss.NewStyle().Foreground(white)
	dimStyle   = lipgloss.NewStyle().Foreground(muted)
	linkStyle  = lipgloss.NewStyle().Foreground(blue).Underline(true)
	warnStyle  = lipgloss.NewStyle().Foreground(amber)
	cmdStyle   = lipgloss.NewStyle().Foreground(blue)
	labelStyle = lipgloss.NewStyle().Foreground(gray).Width(12)
)

// Status marks, pre-rendered in their colors.
var (
	markOK    = lipgloss.NewStyle().Foreground(green).Render("✓")
	markFail  = lipgloss.NewStyle().Foreground(red).Render("✗")
	markWarn  = lipgloss.NewStyle().Foreground(amber).Render("!")
	markInfo  = lipgloss.NewStyle().Foreground(gray).Render("›")
	markArrow = dimStyle.Render("→")
	spinStyle = lipgloss.NewStyle().Foreground(teal)
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, markOK, fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, markWarn, warnStyle.Render(fmt.Sprintf(format, args...)))
}

func info(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, markInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line.
func detail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, " ", dimStyle.Render(fmt.Sprintf(format, args...)))
}

func fileLine(w io.Writer, path string) {
	fmt.Fprintln(w, " ", markArrow, valueStyle.Render(path))
}

func keyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, labelStyle.Render(key), valueStyle.Render(value))
}

// nextStep suggests the command to run after this one.
func nextStep(w io.Writer, what, command string) {
	fmt.Fprintln(w, dimStyle.Render(what+":"), cmdStyle.Render(command))
}

// plural formats n with the singular or plural noun, e.g. "1 file", "3 files".
func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
