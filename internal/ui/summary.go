package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/muurk/wled-backup/internal/backup"
)

// Summary renders the result of a backup run
type Summary struct {
	Run *backup.Run

	// Styled selects the boxed terminal rendering; otherwise plain lines
	// suitable for logs and pipes are produced
	Styled bool
	Width  int
}

// NewSummary creates a summary for run, styled when stdout is a terminal
func NewSummary(run *backup.Run) *Summary {
	return &Summary{
		Run:    run,
		Styled: IsTerminal(),
		Width:  GetTerminalWidth(),
	}
}

// Render returns the summary as a string
func (s *Summary) Render() string {
	if s.Styled {
		return s.renderStyled()
	}
	return s.renderPlain()
}

// String implements fmt.Stringer
func (s *Summary) String() string {
	return s.Render()
}

// title returns the one-line verdict for the run
func (s *Summary) title() string {
	run := s.Run
	switch {
	case len(run.Outcomes) == 0:
		return "No WLED devices found"
	case run.OK():
		return fmt.Sprintf("Backed up %d of %d devices", run.Succeeded(), len(run.Outcomes))
	default:
		return fmt.Sprintf("%d of %d devices failed", run.Failed(), len(run.Outcomes))
	}
}

// details returns the key-value block shown under the title, in order
func (s *Summary) details() [][2]string {
	run := s.Run
	return [][2]string{
		{"Run", run.ID},
		{"Started", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Window", run.SearchWindow.String()},
		{"Output", run.OutDir},
		{"Succeeded", fmt.Sprintf("%d", run.Succeeded())},
		{"Failed", fmt.Sprintf("%d", run.Failed())},
		{"Data", humanize.Bytes(uint64(run.Bytes()))},
		{"Duration", run.Duration().Round(time.Millisecond).String()},
	}
}

func (s *Summary) renderPlain() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", s.title())
	for _, kv := range s.details() {
		fmt.Fprintf(&b, "  %-10s %s\n", kv[0]+":", kv[1])
	}
	for _, o := range s.Run.Outcomes {
		fmt.Fprintf(&b, "%s %s\n", o.Status, outcomeLine(o))
	}
	return b.String()
}

func (s *Summary) renderStyled() string {
	width := s.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	marker, titleStyle := SuccessMarker, SucceededStyle
	if !s.Run.OK() {
		marker, titleStyle = FailureMarker, FailedStyle
	}

	lines := []string{
		"",
		titleStyle.Bold(true).Render(fmt.Sprintf("%s  %s", marker, s.title())),
		"",
	}
	for _, kv := range s.details() {
		lines = append(lines, KeyStyle.Render(kv[0]+":")+" "+ValueStyle.Render(kv[1]))
	}

	if len(s.Run.Outcomes) > 0 {
		lines = append(lines, "")
	}
	for _, o := range s.Run.Outcomes {
		if o.Succeeded() {
			lines = append(lines, SucceededStyle.Render(SuccessMarker)+" "+outcomeLine(o))
		} else {
			lines = append(lines, FailedStyle.Render(FailureMarker)+" "+outcomeLine(o))
		}
	}
	lines = append(lines, "")

	return boxStyle(width, s.Run.OK()).Render(strings.Join(lines, "\n"))
}

// outcomeLine describes one device outcome on a single line
func outcomeLine(o *backup.Outcome) string {
	name := o.Device.Instance
	if o.DeviceName != "" && o.DeviceName != name {
		name = fmt.Sprintf("%s (%s)", name, o.DeviceName)
	}

	if o.Succeeded() {
		return fmt.Sprintf("%s %s: %d files, %s", name, o.Device.Key(), len(o.Files), humanize.Bytes(uint64(o.Bytes)))
	}
	return fmt.Sprintf("%s %s: %s", name, o.Device.Key(), o.Detail)
}

// RenderSummary renders run for stdout
func RenderSummary(run *backup.Run) string {
	return NewSummary(run).Render()
}
