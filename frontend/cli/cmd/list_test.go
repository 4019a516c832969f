package cmd

import (
	"testing"

	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

const (
	outageID = "3f2a9c1e-5b7d-4e21-9a0f-6c8d2e1b4a73"
	auditID  = "9bc04d7a-1e3f-4c85-b2a6-0d9e7f5c3b18"
)

func TestList(t *testing.T) {
	setup := &TestSetup{}

	setup.RunTests(t, []TestScenario{
		{
			Name:         "success - newest first with status",
			Command:      []string{"list"},
			SetupArchive: seed(testRecord(outageID, "Line A outage", 2), draftRecord(auditID, "Dock audit", 5)),
			Expected: TestExpectation{
				DisplayedObjects: []*DebriefDisplay{
					{
						ID:          "3f2a9c1e",
						Status:      terminal.DoneGlyph,
						Title:       "Line A outage",
						Date:        "12 Mar 2026",
						Created:     "2 days ago",
						Gaps:        2,
						Conclusions: 1,
					},
					{
						ID:      "9bc04d7a",
						Status:  terminal.DraftGlyph,
						Title:   "Dock audit",
						Date:    "9 Mar 2026",
						Created: "5 days ago",
						Gaps:    2,
					},
				},
				DisplayFormat: &RenderOptions{},
			},
		},
		{
			Name:         "success - drafts only as json",
			Command:      []string{"list", "--drafts", "-o", "json"},
			SetupArchive: seed(testRecord(outageID, "Line A outage", 2), draftRecord(auditID, "Dock audit", 5)),
			Expected: TestExpectation{
				DisplayedObjects: []*DebriefDisplay{
					{
						ID:      "9bc04d7a",
						Status:  terminal.DraftGlyph,
						Title:   "Dock audit",
						Date:    "9 Mar 2026",
						Created: "5 days ago",
						Gaps:    2,
					},
				},
				DisplayFormat: &RenderOptions{Format: OutputFormatJSON},
			},
		},
		{
			Name:    "success - empty archive",
			Command: []string{"list"},
			Expected: TestExpectation{
				Stdout: "No debriefs yet. Start one with 'debrief new'.\n",
			},
		},
		{
			Name:    "error - invalid output format",
			Command: []string{"list", "-o", "csv"},
			Expected: TestExpectation{
				Error: `invalid argument "csv" for "-o, --output" flag: must be one of "table", "json", "yaml" or "markdown"`,
			},
		},
	})
}
