package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
	"go.uber.org/mock/gomock"

	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/model"
	"github.com/furisto/debrief/backend/model/mocks"
	"github.com/furisto/debrief/backend/secret"
	"github.com/furisto/debrief/backend/share"
	"github.com/furisto/debrief/shared/config"
)

const (
	testHome    = "/home/test"
	testDataDir = "/home/test/.local/share/debrief"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type MockRenderer struct {
	DisplayedObjects any
	DisplayFormat    *RenderOptions
}

func (m *MockRenderer) Render(resources any, options *RenderOptions) error {
	m.DisplayedObjects = resources
	m.DisplayFormat = options
	return nil
}

type testUserInfo struct{}

func (testUserInfo) UserID() (string, error) {
	return "1000", nil
}

func (testUserInfo) HomeDir() (string, error) {
	return testHome, nil
}

func (testUserInfo) ConfigDir() (string, error) {
	return filepath.Join(testHome, ".config", "debrief"), nil
}

func (testUserInfo) DataDir() (string, error) {
	return testDataDir, nil
}

func (testUserInfo) LogDir() (string, error) {
	return filepath.Join(testHome, ".local", "state", "debrief", "logs"), nil
}

// shareRecorder stands in for the desktop URL handler and the clipboard.
type shareRecorder struct {
	opened    []string
	clipboard string
}

func (r *shareRecorder) open(ctx context.Context, target string) error {
	r.opened = append(r.opened, target)
	return nil
}

func (r *shareRecorder) copy(text string) error {
	r.clipboard = text
	return nil
}

type TestSetup struct {
	CmpOptions []cmp.Option
}

type TestScenario struct {
	Name            string
	Command         []string
	Stdin           string
	SetupFileSystem func(fs *afero.Afero)
	SetupEnv        map[string]string
	SetupArchive    func(a *archive.Archive)
	SetupSecrets    func(store secret.Provider)
	SetupModel      func(provider *mocks.MockModelProvider)
	// RunProgram replaces the full screen program. When nil the program is
	// recorded as started and returns immediately.
	RunProgram func(program tea.Model) error
	// Verify inspects the file system after the command ran.
	Verify   func(t *testing.T, fs *afero.Afero)
	Expected TestExpectation
}

type TestExpectation struct {
	Stdout           string
	Error            string
	DisplayedObjects any
	DisplayFormat    *RenderOptions
	// Records is compared with the archive after the command when set.
	Records          []debrief.Record
	StoredCredential string
	ProgramStarted   bool
	Opened           []string
	Clipboard        string
}

func (s *TestSetup) RunTests(t *testing.T, scenarios []TestScenario) {
	if len(scenarios) == 0 {
		t.Fatalf("no scenarios provided")
	}

	color.NoColor = true

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			for _, name := range secret.CredentialEnvVars {
				t.Setenv(name, "")
			}
			for _, key := range config.Keys() {
				t.Setenv(config.EnvName(key), "")
			}
			for key, value := range scenario.SetupEnv {
				t.Setenv(key, value)
			}

			fs := &afero.Afero{Fs: afero.NewMemMapFs()}
			if scenario.SetupFileSystem != nil {
				scenario.SetupFileSystem(fs)
			}

			slot, err := archive.NewFileSlot(testDataDir, fs.Fs)
			if err != nil {
				t.Fatalf("failed to create archive slot: %v", err)
			}
			store := archive.New(slot)
			if scenario.SetupArchive != nil {
				scenario.SetupArchive(store)
			}

			secrets, err := secret.NewFileProvider(filepath.Join(testDataDir, "secrets"), fs.Fs)
			if err != nil {
				t.Fatalf("failed to create secret store: %v", err)
			}
			if scenario.SetupSecrets != nil {
				scenario.SetupSecrets(secrets)
			}

			provider := mocks.NewMockModelProvider(ctrl)
			if scenario.SetupModel != nil {
				scenario.SetupModel(provider)
			}
			factory := gateway.ProviderFactory(func(credential string) (model.ModelProvider, error) {
				return provider, nil
			})

			recorder := &shareRecorder{}
			var programStarted bool
			runner := ProgramRunner(func(ctx context.Context, program tea.Model, in io.Reader, out io.Writer) error {
				programStarted = true
				if scenario.RunProgram != nil {
					return scenario.RunProgram(program)
				}
				return nil
			})

			testCmd := NewRootCmd()

			var stdin bytes.Buffer
			stdin.WriteString(scenario.Stdin)
			testCmd.SetIn(&stdin)

			var stdout, stderr bytes.Buffer
			testCmd.SetOut(&stdout)
			testCmd.SetErr(&stderr)

			mockRenderer := &MockRenderer{}
			ctx := context.Background()
			ctx = context.WithValue(ctx, ContextKeyFileSystem, fs)
			ctx = context.WithValue(ctx, ContextKeyUserInfo, testUserInfo{})
			ctx = context.WithValue(ctx, ContextKeyOutputRenderer, mockRenderer)
			ctx = context.WithValue(ctx, ContextKeyDisableFileLogs, true)
			ctx = context.WithValue(ctx, ContextKeyArchive, store)
			ctx = context.WithValue(ctx, ContextKeySecretStore, secret.Provider(secrets))
			ctx = context.WithValue(ctx, ContextKeyProviderFactory, factory)
			ctx = context.WithValue(ctx, ContextKeyShareOpener, share.Opener(recorder.open))
			ctx = context.WithValue(ctx, ContextKeyShareCopier, share.Copier(recorder.copy))
			ctx = context.WithValue(ctx, ContextKeyProgramRunner, runner)
			ctx = context.WithValue(ctx, ContextKeyClock, func() time.Time { return fixedNow })

			testCmd.SetArgs(scenario.Command)

			var actual TestExpectation
			if err := testCmd.ExecuteContext(ctx); err != nil {
				actual.Error = err.Error()
			}

			actual.Stdout = stdout.String()
			actual.DisplayedObjects = mockRenderer.DisplayedObjects
			actual.DisplayFormat = mockRenderer.DisplayFormat
			actual.ProgramStarted = programStarted
			actual.Opened = recorder.opened
			actual.Clipboard = recorder.clipboard
			if scenario.Expected.Records != nil {
				actual.Records = store.Load()
			}
			if stored, err := secrets.Get(secret.CredentialKey); err == nil {
				actual.StoredCredential = stored
			}

			if scenario.Verify != nil {
				scenario.Verify(t, fs)
			}

			options := append([]cmp.Option{cmpopts.EquateEmpty()}, s.CmpOptions...)
			if diff := cmp.Diff(scenario.Expected, actual, options...); diff != "" {
				t.Errorf("%s() mismatch (-want +got):\n%s", scenario.Name, diff)
			}
		})
	}
}

// testRecord returns a finished record created days before fixedNow.
func testRecord(id, title string, days int) debrief.Record {
	return debrief.Record{
		ID:             id,
		Timestamp:      fixedNow.AddDate(0, 0, -days).UnixMilli(),
		Title:          title,
		WhatWasPlanned: "Ship the release on Friday",
		WhatHappened:   debrief.NewNarrative("Shipped on Monday after a failed migration"),
		Gaps:           []string{"Release slipped by three days", "Migration was not rehearsed"},
		RootCauses:     []string{"No staging run of the migration"},
		Conclusions:    []string{"Rehearse migrations on staging"},
		Images:         []string{},
	}
}

func draftRecord(id, title string, days int) debrief.Record {
	r := testRecord(id, title, days)
	r.RootCauses = []string{}
	r.Conclusions = []string{}
	return r
}

func seed(records ...debrief.Record) func(a *archive.Archive) {
	return func(a *archive.Archive) {
		if err := a.Save(records); err != nil {
			panic(err)
		}
	}
}

func storeKey(key string) func(store secret.Provider) {
	return func(store secret.Provider) {
		if err := store.Set(secret.CredentialKey, key); err != nil {
			panic(err)
		}
	}
}

func modelReply(text string) *model.Message {
	return model.NewModelMessage([]model.ContentBlock{&model.TextBlock{Text: text}}, model.Usage{})
}
