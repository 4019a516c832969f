package cmd

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/model"
	"github.com/furisto/debrief/backend/model/mocks"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
)

const analysisJSON = `{
  "rootCauses": ["Migration skipped staging"],
  "analysis": "The release plan had no slack for a failed migration.",
  "recommendations": ["Rehearse migrations", "Plan a buffer day"]
}`

func TestAnalyze(t *testing.T) {
	setup := &TestSetup{}
	outage := testRecord(outageID, "Line A outage", 2)
	untitled := draftRecord(auditID, "", 5)
	analysis := &gateway.DeepAnalysis{
		RootCauses:      []string{"Migration skipped staging"},
		Analysis:        "The release plan had no slack for a failed migration.",
		Recommendations: []string{"Rehearse migrations", "Plan a buffer day"},
	}

	setup.RunTests(t, []TestScenario{
		{
			Name:         "success - raw markdown",
			Command:      []string{"analyze", "3f2a", "--raw"},
			SetupArchive: seed(outage),
			SetupSecrets: storeKey("AIzaSyABCDEF1234"),
			SetupModel: func(provider *mocks.MockModelProvider) {
				provider.EXPECT().
					InvokeModel(gomock.Any(), model.DeepModel, "", gomock.Any(), gomock.Any()).
					Return(modelReply(analysisJSON), nil)
			},
			Expected: TestExpectation{
				Stdout:           AnalysisMarkdown(outage, analysis),
				StoredCredential: "AIzaSyABCDEF1234",
			},
		},
		{
			Name:         "success - json uses the configured model",
			Command:      []string{"analyze", "3f2a", "--json"},
			SetupEnv:     map[string]string{"DEBRIEF_MODELS_DEEP": "gemini-test-deep", "GEMINI_API_KEY": "env-key"},
			SetupArchive: seed(outage),
			SetupModel: func(provider *mocks.MockModelProvider) {
				provider.EXPECT().
					InvokeModel(gomock.Any(), "gemini-test-deep", "", gomock.Any(), gomock.Any()).
					Return(modelReply(analysisJSON), nil)
			},
			Expected: TestExpectation{
				DisplayedObjects: analysis,
				DisplayFormat:    &RenderOptions{Format: OutputFormatJSON},
			},
		},
		{
			Name:         "error - missing credential",
			Command:      []string{"analyze", "3f2a"},
			SetupArchive: seed(outage),
			Expected: TestExpectation{
				Error: fail.NewMissingCredentialError(gateway.ErrMissingCredential).Error(),
			},
		},
		{
			Name:         "error - incomplete debrief",
			Command:      []string{"analyze", "9bc0"},
			SetupArchive: seed(untitled),
			Expected: TestExpectation{
				Error: "debrief 9bc04d7a is missing a title, plan or outcome; complete it with 'debrief edit 9bc04d7a' first",
			},
		},
	})
}
