// Package cli provides shared formatting helpers for CLI output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sgx-labs/folio/internal/blog"
	"github.com/sgx-labs/folio/internal/posts"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Colors
var (
	accentColor  = lipgloss.Color("39")  // Blue
	mutedColor   = lipgloss.Color("240") // Gray
	warningColor = lipgloss.Color("214") // Orange
	okColor      = lipgloss.Color("76")  // Green
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(accentColor).
			Padding(0, 2).
			MarginLeft(2)

	sectionStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			MarginLeft(2)

	dateStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	titleStyle = lipgloss.NewStyle().Bold(true)

	slugStyle = lipgloss.NewStyle().Foreground(mutedColor)

	countStyle = lipgloss.NewStyle().
			Foreground(okColor).
			Width(6).
			Align(lipgloss.Right)

	warnStyle = lipgloss.NewStyle().Foreground(warningColor)
)

// margin is the left indent for list output.
const margin = "  "

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	return f == FormatText || f == FormatJSON
}

// ShortenHome replaces $HOME prefix with ~.
func ShortenHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home || strings.HasPrefix(path, home+string(os.PathSeparator)) {
		return "~" + path[len(home):]
	}
	return path
}

// FormatNumber adds comma separators (1234 -> "1,234").
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return FormatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

// Header prints a heavy-border box with a title.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(title))
}

// Section prints a section divider line: ── Name ──────
func Section(w io.Writer, name string) {
	rule := "\u2500\u2500 " + name + " " + strings.Repeat("\u2500", max(0, 38-len([]rune(name))))
	fmt.Fprintf(w, "\n%s\n\n", sectionStyle.Render(rule))
}

// PostList prints one line per post: date column, title, slug.
func PostList(w io.Writer, list []blog.Summary) {
	if len(list) == 0 {
		fmt.Fprintf(w, "%s%s\n", margin, slugStyle.Render("No posts."))
		return
	}
	for _, p := range list {
		date := p.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(w, "%s%s%s  %s\n", margin, dateStyle.Render(date), titleStyle.Render(p.Title), slugStyle.Render(p.Slug))
	}
}

// Counts prints label/count pairs with the count right-aligned.
func Counts(w io.Writer, rows [][2]string) {
	for _, r := range rows {
		fmt.Fprintf(w, "%s%s  %s\n", margin, countStyle.Render(r[1]), r[0])
	}
}

// CategoryRows converts category counts for Counts.
func CategoryRows(cats []posts.CategoryCount) [][2]string {
	out := make([][2]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, [2]string{fmt.Sprintf("%s (%s)", c.Name, c.Slug), FormatNumber(c.Count)})
	}
	return out
}

// YearRows converts year counts for Counts.
func YearRows(years []posts.YearCount) [][2]string {
	out := make([][2]string, 0, len(years))
	for _, y := range years {
		out = append(out, [2]string{y.Year, FormatNumber(y.Count)})
	}
	return out
}

// Problems prints flagged documents.
func Problems(w io.Writer, problems []posts.Problem) {
	for _, p := range problems {
		fmt.Fprintf(w, "%s%s %s\n", margin, warnStyle.Render("!"), p.String())
	}
}

// Warn prints a single warning line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s%s %s\n", margin, warnStyle.Render("!"), fmt.Sprintf(format, args...))
}

// WriteJSON prints v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
