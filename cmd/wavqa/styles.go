package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#2E86C1")
	errorColor  = lipgloss.Color("#C0392B")
	mutedColor  = lipgloss.Color("#888888")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(18)

	valueStyle = lipgloss.NewStyle().Bold(true)
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printKV(w io.Writer, key string, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render(key), valueStyle.Render(fmt.Sprintf(format, args...)))
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

func printWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnStyle.Render("Warning:"), message)
}
