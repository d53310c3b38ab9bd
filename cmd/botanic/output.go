package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/botanic/internal/collection"
	"github.com/kalambet/botanic/internal/workflow"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// printNotice shows a workflow notice as a status line.
func printNotice(n workflow.Notice) {
	switch {
	case n.Level == workflow.LevelError:
		printError("%s: %s", n.Title, n.Message)
	case n.Level == workflow.LevelWarn:
		printWarning("%s: %s", n.Title, n.Message)
	case n.Title == "Success":
		printSuccess("%s", n.Message)
	default:
		printStep("%s: %s", n.Title, n.Message)
	}
}

// printPlant writes a candidate or saved record as a labelled block.
func printPlant(w io.Writer, id string, c collection.Candidate) {
	if id != "" {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "ID:"), id)
	}
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Name:"), c.Name)
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Family:"), c.Family)
	if c.Image != "" {
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Image:"), c.Image)
	}
	fmt.Fprintf(w, "%s\n", colorize(colorBold, "Care:"))
	for _, line := range strings.Split(c.Care, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func candidateOf(p collection.Plant) collection.Candidate {
	return collection.Candidate{Name: p.Name, Family: p.Family, Care: p.Care, Image: p.Image}
}

// confirm asks a yes/no question. Anything but y or yes (including EOF) is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
