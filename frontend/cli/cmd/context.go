package cmd

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/model"
	"github.com/furisto/debrief/backend/secret"
	"github.com/furisto/debrief/backend/share"
	"github.com/furisto/debrief/shared"
	"github.com/furisto/debrief/shared/config"
)

type ContextKey string

const (
	ContextKeyFileSystem      ContextKey = "filesystem"
	ContextKeyUserInfo        ContextKey = "user_info"
	ContextKeyOutputRenderer  ContextKey = "output_renderer"
	ContextKeyDisableFileLogs ContextKey = "disable_file_logs"
	ContextKeyGlobalOptions   ContextKey = "global_options"
	ContextKeyConfigStore     ContextKey = "config_store"
	ContextKeyArchive         ContextKey = "archive"
	ContextKeySecretStore     ContextKey = "secret_store"
	ContextKeyProviderFactory ContextKey = "provider_factory"
	ContextKeyShareOpener     ContextKey = "share_opener"
	ContextKeyShareCopier     ContextKey = "share_copier"
	ContextKeyAnalytics       ContextKey = "analytics"
	ContextKeyProgramRunner   ContextKey = "program_runner"
	ContextKeyClock           ContextKey = "clock"
	ContextKeyMetrics         ContextKey = "metrics"
)

// ProgramRunner runs a full screen program to completion.
type ProgramRunner func(ctx context.Context, program tea.Model, in io.Reader, out io.Writer) error

func runProgram(ctx context.Context, program tea.Model, in io.Reader, out io.Writer) error {
	_, err := tea.NewProgram(program,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	).Run()
	return err
}

func getFileSystem(ctx context.Context) *afero.Afero {
	if fs, ok := ctx.Value(ContextKeyFileSystem).(*afero.Afero); ok {
		return fs
	}
	return &afero.Afero{Fs: afero.NewOsFs()}
}

func getUserInfo(ctx context.Context) shared.UserInfo {
	if userInfo, ok := ctx.Value(ContextKeyUserInfo).(shared.UserInfo); ok {
		return userInfo
	}
	return shared.NewDefaultUserInfo(getFileSystem(ctx))
}

func getRenderer(ctx context.Context) OutputRenderer {
	if renderer, ok := ctx.Value(ContextKeyOutputRenderer).(OutputRenderer); ok {
		return renderer
	}
	return &DefaultRenderer{}
}

func setGlobalOptions(ctx context.Context, options *globalOptions) context.Context {
	return context.WithValue(ctx, ContextKeyGlobalOptions, options)
}

func getGlobalOptions(ctx context.Context) *globalOptions {
	if options, ok := ctx.Value(ContextKeyGlobalOptions).(*globalOptions); ok {
		return options
	}
	return &globalOptions{}
}

func setConfigStore(ctx context.Context, store *config.Store) context.Context {
	return context.WithValue(ctx, ContextKeyConfigStore, store)
}

func getConfigStore(ctx context.Context) *config.Store {
	store, _ := ctx.Value(ContextKeyConfigStore).(*config.Store)
	return store
}

func getConfig(ctx context.Context) config.Config {
	if store := getConfigStore(ctx); store != nil {
		return store.Config()
	}
	return config.Config{}
}

func getArchive(ctx context.Context) *archive.Archive {
	a, _ := ctx.Value(ContextKeyArchive).(*archive.Archive)
	return a
}

func getProviderFactory(ctx context.Context) gateway.ProviderFactory {
	if factory, ok := ctx.Value(ContextKeyProviderFactory).(gateway.ProviderFactory); ok {
		return factory
	}
	return gateway.GeminiFactory(model.WithMetrics(getMetrics(ctx)))
}

func getShareOpener(ctx context.Context) share.Opener {
	opener, _ := ctx.Value(ContextKeyShareOpener).(share.Opener)
	return opener
}

func getShareCopier(ctx context.Context) share.Copier {
	copier, _ := ctx.Value(ContextKeyShareCopier).(share.Copier)
	return copier
}

func getAnalytics(ctx context.Context) *analytics.Client {
	client, _ := ctx.Value(ContextKeyAnalytics).(*analytics.Client)
	return client
}

func getProgramRunner(ctx context.Context) ProgramRunner {
	if runner, ok := ctx.Value(ContextKeyProgramRunner).(ProgramRunner); ok {
		return runner
	}
	return runProgram
}

func getClock(ctx context.Context) func() time.Time {
	if clock, ok := ctx.Value(ContextKeyClock).(func() time.Time); ok {
		return clock
	}
	return time.Now
}

func getMetrics(ctx context.Context) *prometheus.Registry {
	registry, _ := ctx.Value(ContextKeyMetrics).(*prometheus.Registry)
	return registry
}

func getSecretStore(ctx context.Context) (secret.Provider, error) {
	if store, ok := ctx.Value(ContextKeySecretStore).(secret.Provider); ok {
		return store, nil
	}

	dataDir, err := getUserInfo(ctx).DataDir()
	if err != nil {
		return nil, err
	}
	return secret.NewProvider(secret.StoreKind(getConfig(ctx).Credential.Store), getFileSystem(ctx).Fs, dataDir)
}
