package terminal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/share"
)

var (
	leadingSpaceANSI  = regexp.MustCompile(`^(?:\x1b\[[0-9;]*m|\s)*`)
	trailingSpaceANSI = regexp.MustCompile(`(?:\x1b\[[0-9;]*m|\s)*$`)
)

// RenderMarkdown renders content for the terminal. On renderer failure the
// raw markdown is returned.
func RenderMarkdown(content string, width int) string {
	if width <= 0 {
		width = 80
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"), // avoid OSC background queries
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	out, err := md.Render(content)
	if err != nil {
		return content
	}
	return trailingSpaceANSI.ReplaceAllString(leadingSpaceANSI.ReplaceAllString(out, ""), "")
}

// StatusGlyph marks finished debriefs and drafts on the dashboard.
func StatusGlyph(record debrief.Record) string {
	if record.Finished() {
		return DoneGlyph
	}
	return DraftGlyph
}

// DescribeRecord is the dashboard subtitle of a record: its date, how long
// ago that was and the number of gaps found.
func DescribeRecord(record debrief.Record, now time.Time) string {
	created := record.CreatedAt()
	gaps := len(debrief.CleanList(record.Gaps))
	return fmt.Sprintf("%s · %s · %d %s",
		created.Format("2 Jan 2006"),
		humanize.RelTime(created, now, "ago", "from now"),
		gaps,
		plural(gaps, "gap", "gaps"),
	)
}

// RecordMarkdown renders a full record as markdown for `debrief show`.
func RecordMarkdown(record debrief.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s %s\n\n", StatusGlyph(record), share.Title(record))
	fmt.Fprintf(&sb, "*%s*\n\n", record.CreatedAt().Format("2 Jan 2006 15:04"))

	sb.WriteString("## What was planned\n\n")
	sb.WriteString(orNone(record.WhatWasPlanned))
	sb.WriteString("\n\n## What happened\n\n")
	if record.WhatHappened.IsStructured() {
		for _, facet := range debrief.Facets {
			if v := strings.TrimSpace(record.WhatHappened.Facet(facet)); v != "" {
				fmt.Fprintf(&sb, "**%s:** %s\n\n", facet.Label(), v)
			}
		}
		if record.WhatHappened.IsEmpty() {
			sb.WriteString("_none_\n\n")
		}
	} else {
		sb.WriteString(orNone(record.WhatHappened.Text))
		sb.WriteString("\n\n")
	}

	markdownList(&sb, "Gaps", record.Gaps)
	markdownList(&sb, "Root causes", record.RootCauses)
	markdownList(&sb, "Conclusions", record.Conclusions)

	if n := len(record.Images); n > 0 {
		fmt.Fprintf(&sb, "_%d %s attached_\n", n, plural(n, "image", "images"))
	}
	return sb.String()
}

func markdownList(sb *strings.Builder, heading string, items []string) {
	items = debrief.CleanList(items)
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", heading)
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
	sb.WriteString("\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "_none_"
	}
	return strings.TrimSpace(s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
