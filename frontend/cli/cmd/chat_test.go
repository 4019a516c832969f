package cmd

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/furisto/debrief/backend/model"
	"github.com/furisto/debrief/backend/model/mocks"
)

func TestChat(t *testing.T) {
	setup := &TestSetup{}
	outage := testRecord(outageID, "Line A outage", 2)

	setup.RunTests(t, []TestScenario{
		{
			Name:         "success - debrief is shared with the first question",
			Command:      []string{"chat", "3f2a"},
			Stdin:        "Why did it slip?\nWhat now?\nexit\n",
			SetupArchive: seed(outage),
			SetupSecrets: storeKey("AIzaSyABCDEF1234"),
			SetupModel: func(provider *mocks.MockModelProvider) {
				gomock.InOrder(
					provider.EXPECT().
						InvokeModel(gomock.Any(), model.FastModel, gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(ctx context.Context, modelName, systemPrompt string, messages []*model.Message, opts ...model.InvokeModelOption) (*model.Message, error) {
							if len(messages) != 1 || !strings.Contains(messages[0].Text(), "Debrief summary: Line A outage") {
								t.Errorf("first turn must carry the debrief summary")
							}
							return modelReply("The migration was never rehearsed."), nil
						}),
					provider.EXPECT().
						InvokeModel(gomock.Any(), model.FastModel, gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(ctx context.Context, modelName, systemPrompt string, messages []*model.Message, opts ...model.InvokeModelOption) (*model.Message, error) {
							if len(messages) != 3 || messages[2].Text() != "What now?" {
								t.Errorf("second turn must follow the history, got %d messages", len(messages))
							}
							return modelReply("Add a staging run."), nil
						}),
				)
			},
			Expected: TestExpectation{
				Stdout: "Discussing \"Line A outage\". Type exit to leave.\n" +
					"you> assistant> The migration was never rehearsed.\n" +
					"you> assistant> Add a staging run.\n" +
					"you> ",
				StoredCredential: "AIzaSyABCDEF1234",
			},
		},
		{
			Name:    "success - missing credential ends the conversation",
			Command: []string{"chat"},
			Stdin:   "hello\nanything else\n",
			Expected: TestExpectation{
				Stdout: "Ask the debrief assistant. Type exit to leave.\n" +
					"you> assistant> The assistant is not connected. Run `debrief connect` to add an API key.\n",
			},
		},
		{
			Name:         "success - failed turn apologizes and continues",
			Command:      []string{"chat"},
			Stdin:        "first\n\nsecond\n",
			SetupSecrets: storeKey("AIzaSyABCDEF1234"),
			SetupModel: func(provider *mocks.MockModelProvider) {
				gomock.InOrder(
					provider.EXPECT().
						InvokeModel(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(nil, model.NewProviderError("gemini", model.ProviderErrorKindOverloaded, nil)),
					provider.EXPECT().
						InvokeModel(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(modelReply("Second answer."), nil),
				)
			},
			Expected: TestExpectation{
				Stdout: "Ask the debrief assistant. Type exit to leave.\n" +
					"you> assistant> Sorry, something went wrong while talking to the assistant. Please try again.\n" +
					"you> you> assistant> Second answer.\n" +
					"you> \n",
				StoredCredential: "AIzaSyABCDEF1234",
			},
		},
		{
			Name:    "error - too many arguments",
			Command: []string{"chat", "a", "b"},
			Expected: TestExpectation{
				Error: "accepts at most 1 arg(s), received 2",
			},
		},
	})
}
