package cmd

import (
	"testing"

	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
	"github.com/furisto/debrief/frontend/cli/pkg/terminal"
)

func TestShow(t *testing.T) {
	setup := &TestSetup{}
	outage := testRecord(outageID, "Line A outage", 2)

	setup.RunTests(t, []TestScenario{
		{
			Name:         "success - raw markdown by prefix",
			Command:      []string{"show", "3f2a", "--raw"},
			SetupArchive: seed(outage, draftRecord(auditID, "Dock audit", 5)),
			Expected: TestExpectation{
				Stdout: terminal.RecordMarkdown(outage),
			},
		},
		{
			Name:         "error - unknown id",
			Command:      []string{"show", "ffff"},
			SetupArchive: seed(outage),
			Expected: TestExpectation{
				Error: fail.NewNotFoundError("ffff", &archive.ErrNotFound{ID: "ffff"}).Error(),
			},
		},
		{
			Name:         "error - ambiguous prefix",
			Command:      []string{"show", "3f2a"},
			SetupArchive: seed(outage, testRecord("3f2a0000-0000-4000-8000-000000000000", "Other", 1)),
			Expected: TestExpectation{
				Error: `id prefix "3f2a" is ambiguous (2 matches)`,
			},
		},
		{
			Name:    "error - missing argument",
			Command: []string{"show"},
			Expected: TestExpectation{
				Error: "accepts 1 arg(s), received 0",
			},
		},
	})
}
