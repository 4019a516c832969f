package cmd

import (
	"testing"

	"github.com/furisto/debrief/backend/debrief"
)

func TestDelete(t *testing.T) {
	setup := &TestSetup{}
	outage := testRecord(outageID, "Line A outage", 2)
	audit := draftRecord(auditID, "Dock audit", 5)

	setup.RunTests(t, []TestScenario{
		{
			Name:         "success - force",
			Command:      []string{"delete", outageID, "--force"},
			SetupArchive: seed(outage, audit),
			Expected: TestExpectation{
				Stdout:  "Debrief \"Line A outage\" deleted\n",
				Records: []debrief.Record{audit},
			},
		},
		{
			Name:         "success - confirmed",
			Command:      []string{"rm", "3f2a", "9bc0"},
			Stdin:        "y\n",
			SetupArchive: seed(outage, audit),
			Expected: TestExpectation{
				Stdout: "Are you sure you want to delete debriefs \"Line A outage\" \"Dock audit\"? (y/n): " +
					"Debrief \"Line A outage\" deleted\n" +
					"Debrief \"Dock audit\" deleted\n",
				Records: []debrief.Record{},
			},
		},
		{
			Name:         "success - declined keeps the archive",
			Command:      []string{"delete", "3f2a"},
			Stdin:        "n\n",
			SetupArchive: seed(outage, audit),
			Expected: TestExpectation{
				Stdout:  "Are you sure you want to delete debrief \"Line A outage\"? (y/n): ",
				Records: []debrief.Record{outage, audit},
			},
		},
	})
}
