// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-autofill/internal/classify"
	"github.com/jonathan/resume-autofill/internal/fetch"
	"github.com/jonathan/resume-autofill/internal/fill"
	"github.com/jonathan/resume-autofill/internal/types"
	"github.com/jonathan/resume-autofill/internal/upload"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxLinesToShow bounds multi-line values such as job descriptions
	maxLinesToShow = 12
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintAuthStatus outputs the answer to a check-auth query.
func (p *Printer) PrintAuthStatus(status *types.AuthStatus) {
	if status == nil {
		return
	}
	var sb strings.Builder
	if status.Authenticated {
		sb.WriteString("Logged in\n")
		if status.User != nil {
			if status.User.Name != "" {
				sb.WriteString(fmt.Sprintf("Name:   %s\n", status.User.Name))
			}
			if status.User.Email != "" {
				sb.WriteString(fmt.Sprintf("Email:  %s\n", status.User.Email))
			}
		}
	} else {
		sb.WriteString("Not logged in")
		if status.Reason != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", status.Reason))
		}
		sb.WriteString("\n")
	}
	p.printBox("AUTH STATUS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMappedFields outputs every non-empty mapped value in field order.
func (p *Printer) PrintMappedFields(m *types.MappedFields) {
	if m == nil {
		return
	}
	var sb strings.Builder
	empty := 0
	for _, f := range types.AllFields {
		v := m.Value(f)
		if v == "" {
			empty++
			continue
		}
		sb.WriteString(fmt.Sprintf("%-16s %s\n", f, firstLine(v)))
	}
	if empty > 0 {
		sb.WriteString(fmt.Sprintf("(%d fields empty)\n", empty))
	}
	p.printBox("MAPPED FIELDS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDetections outputs the classification of every page input.
func (p *Printer) PrintDetections(detections []classify.Detection) {
	var sb strings.Builder
	matched := 0
	for _, d := range detections {
		desc := d.Element.Describe()
		switch {
		case d.Skip != "":
			sb.WriteString(fmt.Sprintf("  - %s  (skipped: %s)\n", desc, d.Skip))
		case d.Field != "":
			matched++
			sb.WriteString(fmt.Sprintf("  ✓ %s → %s [%s]\n", desc, d.Field, d.Signal))
		default:
			sb.WriteString(fmt.Sprintf("  ? %s\n", desc))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d inputs classified", matched, len(detections)))
	p.printBox("FIELD DETECTION", sb.String())
}

// PrintUploadVerdicts outputs the decision for every file input.
func (p *Printer) PrintUploadVerdicts(verdicts []upload.Verdict) {
	if len(verdicts) == 0 {
		p.printBox("UPLOAD TARGETS", "No file inputs")
		return
	}
	var sb strings.Builder
	for _, v := range verdicts {
		desc := v.Element.Describe()
		switch {
		case v.Excluded:
			sb.WriteString(fmt.Sprintf("  ✗ %s  (excluded: %q)\n", desc, v.Keyword))
		case v.Target:
			sb.WriteString(fmt.Sprintf("  ✓ %s  (resume: %q)\n", desc, v.Keyword))
		default:
			sb.WriteString(fmt.Sprintf("  - %s\n", desc))
		}
	}
	p.printBox("UPLOAD TARGETS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFillReport outputs what a fill pass wrote, skipped and attached.
func (p *Printer) PrintFillReport(report fill.Report, attach fill.AttachReport) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Filled %d fields\n", report.Count()))
	for _, f := range report.Filled {
		sb.WriteString(fmt.Sprintf("  ✓ %-16s %s\n", f.Field, firstLine(f.Value)))
	}
	if len(report.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		for _, f := range report.Skipped {
			sb.WriteString(fmt.Sprintf("  ✗ %-16s %s\n", f.Field, f.Element))
		}
	}
	if len(attach.Attached)+len(attach.Failed) > 0 {
		sb.WriteString("\nResume file:\n")
		for _, a := range attach.Attached {
			sb.WriteString(fmt.Sprintf("  ✓ %s\n", a))
		}
		for _, a := range attach.Failed {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", a))
		}
	}
	p.printBox("FILL REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobDescription outputs the head of an extracted job description.
func (p *Printer) PrintJobDescription(jd *fetch.JobDescription) {
	if jd == nil {
		return
	}
	lines := strings.Split(jd.Markdown, "\n")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s (%d chars)\n\n", jd.Selector, len(jd.Text)))
	for i, line := range lines {
		if i == maxLinesToShow {
			sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-maxLinesToShow))
			break
		}
		sb.WriteString(line + "\n")
	}
	p.printBox("JOB DESCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
