package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	undefinedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	ambiguousStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hookStyle      = lipgloss.NewStyle().Faint(true)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	idStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "undefined":
		return undefinedStyle
	case "ambiguous":
		return ambiguousStyle
	}
	return okStyle
}

// Status renders a status word in its color, padded to the widest status.
func Status(status string) string {
	return statusStyle(status).Render(fmt.Sprintf("%-9s", status))
}

func ShowHeader(w io.Writer, name, uri, testCaseID, status string) {
	fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(name), idStyle.Render("#"+testCaseID))
	if uri != "" {
		fmt.Fprintln(w, hookStyle.Render(uri))
	}
	if status != "" {
		fmt.Fprintln(w, Status(status))
	}
}

func HookLine(w io.Writer, stepID string, hookIDs []string) {
	fmt.Fprintf(w, "  %s  %s %s\n", hookStyle.Render(fmt.Sprintf("%-4s", stepID)), hookStyle.Render("hook"), strings.Join(hookIDs, ", "))
}

func StepLine(w io.Writer, stepID, text, status string, definitionIDs []string) {
	line := fmt.Sprintf("  %s  %s %s", idStyle.Render(fmt.Sprintf("%-4s", stepID)), Status(status), text)
	if len(definitionIDs) > 0 {
		line += hookStyle.Render("  -> " + strings.Join(definitionIDs, ", "))
	}
	fmt.Fprintln(w, line)
}

// ArgumentLine shows one decoded parameter under its step.
func ArgumentLine(w io.Writer, parameterType string, value any) {
	if parameterType == "" {
		parameterType = "anonymous"
	}
	fmt.Fprintf(w, "          %s %v\n", hookStyle.Render("{"+parameterType+"}"), value)
}

func ListRow(w io.Writer, pickleID, name string, steps int, status string, idWidth, nameWidth int) {
	fmt.Fprintf(w, "%s  %-*s  %3d steps  %s\n",
		idStyle.Render(fmt.Sprintf("%-*s", idWidth, pickleID)), nameWidth, name, steps, Status(status))
}

func UndefinedLine(w io.Writer, text, where, suggestion string) {
	fmt.Fprintf(w, "%s %s  %s\n", undefinedStyle.Render("undefined"), text, hookStyle.Render(where))
	if suggestion != "" {
		fmt.Fprintf(w, "          did you mean %s\n", okStyle.Render(suggestion))
	}
}

func SummaryLine(w io.Writer, testCases, undefined, ambiguous int) {
	fmt.Fprintf(w, "planned %d test cases", testCases)
	if undefined > 0 {
		fmt.Fprintf(w, ", %s", undefinedStyle.Render(fmt.Sprintf("%d undefined", undefined)))
	}
	if ambiguous > 0 {
		fmt.Fprintf(w, ", %s", ambiguousStyle.Render(fmt.Sprintf("%d ambiguous", ambiguous)))
	}
	fmt.Fprintln(w)
}
