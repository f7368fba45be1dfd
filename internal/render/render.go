// Package render formats tasks for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/timeparse"
)

var (
	colorMuted   = lipgloss.Color("#8C8C8C")
	colorActive  = lipgloss.Color("#5B8DEF")
	colorDone    = lipgloss.Color("#00E676")
	colorPaused  = lipgloss.Color("#FFD700")
	colorDanger  = lipgloss.Color("#FF5252")
	colorPrimary = lipgloss.Color("#00BFFF")
)

var (
	styleID      = lipgloss.NewStyle().Foreground(colorMuted)
	styleName    = lipgloss.NewStyle().Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorPrimary)
	styleMissing = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	styleRunning = lipgloss.NewStyle().Foreground(colorActive).Bold(true)
	styleOverdue = lipgloss.NewStyle().Foreground(colorDanger)
)

var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusTodo:       lipgloss.NewStyle().Foreground(colorMuted),
	task.StatusInProgress: lipgloss.NewStyle().Foreground(colorActive),
	task.StatusPaused:     lipgloss.NewStyle().Foreground(colorPaused),
	task.StatusDone:       lipgloss.NewStyle().Foreground(colorDone),
}

const (
	indent          = "  "
	truncatedMarker = "+"
	runningMarker   = "*"
)

// Printer writes tasks relative to a fixed wall clock.
type Printer struct {
	Now func() time.Time
	Loc *time.Location
}

// NewPrinter returns a printer using the local clock and time zone.
func NewPrinter() *Printer {
	return &Printer{Now: time.Now, Loc: time.Local}
}

// Tree writes a listing, one line per entry, indented by depth.
func (p *Printer) Tree(w io.Writer, entries []task.ListEntry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, p.treeLine(e)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) treeLine(e task.ListEntry) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(indent, e.Depth))
	if e.Truncated {
		b.WriteString(truncatedMarker)
	} else {
		b.WriteString(" ")
	}
	b.WriteString(styleID.Render(e.Item.ID.String()))
	b.WriteString(" ")
	if e.Placeholder {
		b.WriteString(styleMissing.Render("(missing)"))
		return b.String()
	}
	b.WriteString(statusStyle(e.Item.Status).Render("[" + e.Item.Status.Short() + "]"))
	b.WriteString(" ")
	b.WriteString(e.Item.Name)
	if e.Item.Priority != task.PriorityUndefined {
		b.WriteString(" ")
		b.WriteString(styleID.Render("!" + e.Item.Priority.Short()))
	}
	if e.Running {
		b.WriteString(" ")
		b.WriteString(styleRunning.Render(runningMarker))
	}
	return b.String()
}

// Task writes every field of a task followed by its time pieces.
func (p *Printer) Task(w io.Writer, view *task.TaskView) error {
	item := view.Item
	now := p.Now()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styleID.Render(item.ID.String()), styleName.Render(item.Name))
	field := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-11s", label+":")), value)
	}
	if item.Description != "" {
		field("description", item.Description)
	}
	field("status", statusStyle(item.Status).Render(item.Status.String()))
	field("priority", item.Priority.String())
	field("efficiency", item.Efficiency.String())
	field("due", p.due(item.DueTime, now))
	field("expected", timeparse.FormatDuration(item.ExpectTime))
	field("spent", timeparse.FormatDuration(item.CostTime))
	field("created", p.when(item.CreateTime, now))
	field("updated", p.when(item.UpdateTime, now))
	field("children", fmt.Sprintf("%d", view.Children))

	if len(view.Pieces) > 0 || view.InFlight != nil {
		b.WriteString(styleLabel.Render("  pieces:") + "\n")
	}
	for _, piece := range view.Pieces {
		fmt.Fprintf(&b, "    #%d %s  %s  %s", piece.SerialNumber,
			timeparse.FormatTime(piece.BeginTime, p.Loc),
			timeparse.FormatDuration(piece.Duration()),
			piece.Efficiency.String())
		if piece.Description != "" {
			fmt.Fprintf(&b, "  %s", piece.Description)
		}
		b.WriteString("\n")
	}
	if view.InFlight != nil {
		running := now.UnixMilli() - view.InFlight.BeginTime
		fmt.Fprintf(&b, "    %s %s  %s\n", styleRunning.Render("running"),
			timeparse.FormatTime(view.InFlight.BeginTime, p.Loc),
			timeparse.FormatDuration(max(running, 0)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (p *Printer) due(ms int64, now time.Time) string {
	if ms == task.Unset {
		return "none"
	}
	s := p.when(ms, now)
	if ms < now.UnixMilli() {
		return styleOverdue.Render(s)
	}
	return s
}

func (p *Printer) when(ms int64, now time.Time) string {
	if ms <= 0 {
		return "never"
	}
	t := time.UnixMilli(ms)
	return fmt.Sprintf("%s (%s)", timeparse.FormatTime(ms, p.Loc), humanize.RelTime(t, now, "ago", "from now"))
}

func statusStyle(s task.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}
