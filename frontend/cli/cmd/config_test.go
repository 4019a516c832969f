package cmd

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/furisto/debrief/shared/config"
)

const testConfigPath = "/home/test/.config/debrief/config.yaml"

func writeConfig(content string) func(fs *afero.Afero) {
	return func(fs *afero.Afero) {
		_ = fs.WriteFile(testConfigPath, []byte(content), 0600)
	}
}

func TestConfig(t *testing.T) {
	setup := &TestSetup{}

	setup.RunTests(t, []TestScenario{
		{
			Name:    "success - set persists",
			Command: []string{"config", "set", "archive.backend", "sqlite"},
			Verify: func(t *testing.T, fs *afero.Afero) {
				content, err := fs.ReadFile(testConfigPath)
				if err != nil {
					t.Fatalf("ReadFile: %v", err)
				}
				if string(content) != "archive:\n    backend: sqlite\n" {
					t.Errorf("unexpected config file:\n%s", content)
				}
			},
			Expected: TestExpectation{
				Stdout: "archive.backend set to \"sqlite\"\n",
			},
		},
		{
			Name:            "success - get from file",
			Command:         []string{"config", "get", "models.deep"},
			SetupFileSystem: writeConfig("models:\n  deep: gemini-2.5-pro\n"),
			Expected: TestExpectation{
				Stdout: "gemini-2.5-pro\n",
			},
		},
		{
			Name:            "success - environment wins",
			Command:         []string{"config", "get", "models.deep"},
			SetupFileSystem: writeConfig("models:\n  deep: gemini-2.5-pro\n"),
			SetupEnv:        map[string]string{"DEBRIEF_MODELS_DEEP": "from-env"},
			Expected: TestExpectation{
				Stdout: "from-env\n",
			},
		},
		{
			Name:            "success - unset",
			Command:         []string{"config", "unset", "models.deep"},
			SetupFileSystem: writeConfig("models:\n  deep: gemini-2.5-pro\n"),
			Verify: func(t *testing.T, fs *afero.Afero) {
				content, _ := fs.ReadFile(testConfigPath)
				if string(content) != "{}\n" {
					t.Errorf("unexpected config file:\n%s", content)
				}
			},
			Expected: TestExpectation{
				Stdout: "models.deep unset\n",
			},
		},
		{
			Name:            "success - list",
			Command:         []string{"config", "list", "-o", "yaml"},
			SetupFileSystem: writeConfig("log:\n  level: debug\n"),
			SetupEnv:        map[string]string{"DEBRIEF_ARCHIVE_BACKEND": "sqlite"},
			Expected: TestExpectation{
				DisplayedObjects: []config.Entry{
					{Key: "analytics.endpoint", Source: "default"},
					{Key: "analytics.posthog_key", Source: "default"},
					{Key: "archive.backend", Value: "sqlite", Source: "env"},
					{Key: "archive.path", Source: "default"},
					{Key: "credential.store", Value: "keyring", Source: "default"},
					{Key: "log.level", Value: "debug", Source: "file"},
					{Key: "models.deep", Source: "default"},
					{Key: "models.fast", Source: "default"},
					{Key: "sentry.dsn", Source: "default"},
				},
				DisplayFormat: &RenderOptions{Format: OutputFormatYAML},
			},
		},
		{
			Name:    "error - invalid value",
			Command: []string{"config", "set", "archive.backend", "postgres"},
			Expected: TestExpectation{
				Error: `invalid value "postgres" for archive.backend: must be one of file, sqlite`,
			},
		},
		{
			Name:    "error - unknown key",
			Command: []string{"config", "get", "color"},
			Expected: TestExpectation{
				Error: `unknown config key "color" (valid keys: analytics.endpoint, analytics.posthog_key, archive.backend, archive.path, credential.store, log.level, models.deep, models.fast, sentry.dsn)`,
			},
		},
	})
}
