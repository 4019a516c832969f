package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/furisto/debrief/backend/analytics"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
	"github.com/furisto/debrief/shared"
	"github.com/furisto/debrief/shared/config"
)

var (
	// Version is the version of the CLI
	Version = "unknown"

	// Git Commit is the commit that the CLI was built from
	GitCommit = "unknown"

	// BuildDate is the date the CLI was built
	BuildDate = "unknown"
)

type globalOptions struct {
	LogLevel LogLevel
	closers  []func() error
}

func NewRootCmd() *cobra.Command {
	options := globalOptions{}
	cmd := &cobra.Command{
		Use:           "debrief",
		Short:         "debrief: After-action reviews with an AI assistant.",
		Long:          figure.NewColorFigure("debrief", "standard", "blue", true).String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userInfo := getUserInfo(ctx)

			configStore, err := config.NewStore(getFileSystem(ctx), userInfo)
			if err != nil {
				return err
			}
			ctx = setConfigStore(ctx, configStore)
			cfg := configStore.Config()

			options.LogLevel = resolveLogLevel(cmd, &options, cfg.Log.Level)
			slog.SetDefault(slog.New(slog.NewJSONHandler(setupLogSink(ctx, userInfo), &slog.HandlerOptions{
				Level: options.LogLevel.SlogLevel(),
			})))
			ctx = setGlobalOptions(ctx, &options)

			if getMetrics(ctx) == nil {
				ctx = context.WithValue(ctx, ContextKeyMetrics, prometheus.NewRegistry())
			}
			if _, ok := ctx.Value(ContextKeyOutputRenderer).(OutputRenderer); !ok {
				ctx = context.WithValue(ctx, ContextKeyOutputRenderer, &DefaultRenderer{Out: cmd.OutOrStdout()})
			}

			if getAnalytics(ctx) == nil {
				client, err := analytics.New(cfg.Analytics.PosthogKey, cfg.Analytics.Endpoint, distinctID(userInfo))
				if err != nil {
					slog.Warn("failed to initialize analytics", "error", err)
				} else if client != nil {
					options.closers = append(options.closers, client.Close)
					ctx = context.WithValue(ctx, ContextKeyAnalytics, client)
				}
			}

			if requiresArchive(cmd) && getArchive(ctx) == nil {
				a, closer, err := openArchive(ctx, cfg)
				if err != nil {
					slog.Error("failed to open archive", "error", err)
					return err
				}
				if closer != nil {
					options.closers = append(options.closers, closer)
				}
				ctx = context.WithValue(ctx, ContextKeyArchive, a)
			}

			analytics.EmitCommandExecuted(getAnalytics(ctx), cmd.CommandPath())
			cmd.SetContext(ctx)
			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newWizardSession(cmd.Context())
			if err != nil {
				return err
			}
			return runWizard(cmd, s, nil)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			logMetrics(getMetrics(cmd.Context()))

			var errs []error
			for _, closer := range options.closers {
				errs = append(errs, closer())
			}
			options.closers = nil
			return errors.Join(errs...)
		},
	}

	cmd.PersistentFlags().Var(&options.LogLevel, "log-level", "set the log level")

	cmd.AddGroup(
		&cobra.Group{
			ID:    "core",
			Title: "Core Commands",
		},
	)

	cmd.AddGroup(
		&cobra.Group{
			ID:    "resource",
			Title: "Archive Management",
		},
	)

	cmd.AddGroup(
		&cobra.Group{
			ID:    "system",
			Title: "System Commands",
		},
	)

	cmd.AddCommand(NewNewCmd())
	cmd.AddCommand(NewEditCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewShareCmd())

	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewAttachCmd())
	cmd.AddCommand(NewExportCmd())

	cmd.AddCommand(NewConnectCmd())
	cmd.AddCommand(NewDisconnectCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			sentry.Flush(2 * time.Second)
			fmt.Fprintf(os.Stderr, "Panic occurred: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if dsn := sentryDSN(); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     dsn,
			Release: Version,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize sentry: %s\n", err)
		}
	}

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, fail.EnhanceError(err, nil))
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}

	sentry.Flush(2 * time.Second)
}

// sentryDSN reads the crash reporting DSN before the command tree runs.
// Crash reporting stays off unless a DSN is configured.
func sentryDSN() string {
	fs := &afero.Afero{Fs: afero.NewOsFs()}
	store, err := config.NewStore(fs, shared.NewDefaultUserInfo(fs))
	if err != nil {
		return ""
	}
	return store.Config().Sentry.DSN
}

func requiresArchive(cmd *cobra.Command) bool {
	skipCommands := []string{"help", "version", "connect", "disconnect", "config", "completion"}
	for c := cmd; c != nil; c = c.Parent() {
		for _, skip := range skipCommands {
			if c.Name() == skip {
				return false
			}
		}
	}
	return true
}

func distinctID(userInfo shared.UserInfo) string {
	uid, err := userInfo.UserID()
	if err != nil {
		return ""
	}
	host, _ := os.Hostname()
	return shared.AppName + ":" + host + ":" + uid
}

// logMetrics writes the counters gathered during the command at debug level.
func logMetrics(registry *prometheus.Registry) {
	if registry == nil {
		return
	}

	families, err := registry.Gather()
	if err != nil {
		slog.Debug("failed to gather metrics", "error", err)
		return
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if counter := metric.GetCounter(); counter != nil {
				labels := make([]any, 0, len(metric.GetLabel())*2)
				for _, label := range metric.GetLabel() {
					labels = append(labels, label.GetName(), label.GetValue())
				}
				slog.Debug("metric", append([]any{"name", family.GetName(), "value", counter.GetValue()}, labels...)...)
			}
		}
	}
}

func confirmDeletion(stdin io.Reader, stdout io.Writer, kind string, idOrNames []string) bool {
	if len(idOrNames) == 0 {
		return false
	}

	if len(idOrNames) > 1 {
		kind = kind + "s"
	}

	message := fmt.Sprintf("Are you sure you want to delete %s %s?", kind, strings.Join(idOrNames, " "))
	return confirm(stdin, stdout, message)
}

func confirm(stdin io.Reader, stdout io.Writer, message string) bool {
	fmt.Fprintf(stdout, "%s (y/n): ", message)
	var confirm string
	_, err := fmt.Fscan(stdin, &confirm)
	if err != nil {
		return false
	}

	confirm = strings.TrimSpace(strings.ToLower(confirm))
	return confirm == "y" || confirm == "yes"
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (e *LogLevel) String() string {
	if e == nil {
		return ""
	}
	return string(*e)
}

func (e *LogLevel) Set(v string) error {
	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if v == string(level) {
			*e = level
			return nil
		}
	}
	return errors.New(`must be one of "debug", "info", "warn", or "error"`)
}

func (e *LogLevel) Type() string {
	return "log-level"
}

func (e *LogLevel) SlogLevel() slog.Level {
	switch *e {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}

	return slog.LevelInfo
}

// resolveLogLevel prefers the flag, then DEBRIEF_LOG_LEVEL (already merged
// into the config), then info.
func resolveLogLevel(cmd *cobra.Command, options *globalOptions, configured string) LogLevel {
	if cmd.Flags().Changed("log-level") {
		return options.LogLevel
	}

	var level LogLevel
	if err := level.Set(configured); err == nil {
		return level
	}
	return LogLevelInfo
}

func setupLogSink(ctx context.Context, userInfo shared.UserInfo) io.Writer {
	if disable, ok := ctx.Value(ContextKeyDisableFileLogs).(bool); ok && disable {
		return io.Discard
	}

	logDir, err := userInfo.LogDir()
	if err != nil {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "debrief.json"),
		MaxSize:    50,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   true,
	}
}
