package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorMuted   = lipgloss.Color("#2C4A54")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
)

// printer renders command results as styled text or as JSON. Styles follow
// the writer's color profile, so redirected output is plain.
type printer struct {
	out    io.Writer
	asJSON bool

	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
}

func newPrinter(out io.Writer, format string) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:     out,
		asJSON:  format == "json",
		title:   r.NewStyle().Bold(true).Foreground(colorAccent),
		muted:   r.NewStyle().Foreground(colorMuted),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
	}
}

// emit writes v as JSON, or calls text for the human form.
func (p *printer) emit(v interface{}, text func()) error {
	if p.asJSON {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func (p *printer) heading(s string) {
	fmt.Fprintln(p.out, p.title.Render(s))
}

func (p *printer) field(name, value string) {
	fmt.Fprintf(p.out, "%s %s\n", p.muted.Render(name+":"), value)
}

func (p *printer) linef(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, p.muted.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(p.out, t.String())
}

func (p *printer) status(ok bool, yes, no string) string {
	if ok {
		return p.success.Render(yes)
	}
	return p.warning.Render(no)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
