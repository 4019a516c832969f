package share

import (
	"fmt"
	"strings"
	"time"

	"github.com/furisto/debrief/backend/debrief"
)

const footer = "Sent from debrief"

// Digest renders record as the plain text summary handed to share channels.
// Sections without content are left out.
func Digest(record debrief.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Debrief summary: %s*\n", Title(record))
	fmt.Fprintf(&sb, "Date: %s\n\n", digestDate(record))

	if plan := strings.TrimSpace(record.WhatWasPlanned); plan != "" {
		fmt.Fprintf(&sb, "*What was planned:*\n%s\n\n", plan)
	}
	if !record.WhatHappened.IsEmpty() {
		fmt.Fprintf(&sb, "*What actually happened:*\n%s\n\n", record.WhatHappened.Flatten())
	}

	writeList(&sb, "Gaps identified", record.Gaps)
	writeList(&sb, "Root causes", record.RootCauses)
	writeList(&sb, "Operative conclusions", record.Conclusions)

	sb.WriteString(footer)
	return sb.String()
}

// Title returns the record title or a placeholder for untitled drafts.
func Title(record debrief.Record) string {
	if title := strings.TrimSpace(record.Title); title != "" {
		return title
	}
	return "Untitled"
}

func digestDate(record debrief.Record) string {
	if record.Timestamp == 0 {
		return time.Now().Format("2 Jan 2006")
	}
	return record.CreatedAt().Format("2 Jan 2006")
}

func writeList(sb *strings.Builder, heading string, items []string) {
	items = debrief.CleanList(items)
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(sb, "*%s:*\n", heading)
	for i, item := range items {
		fmt.Fprintf(sb, "%d. %s\n", i+1, item)
	}
	sb.WriteString("\n")
}
