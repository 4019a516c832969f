package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/furisto/debrief/backend/archive"
	"github.com/furisto/debrief/backend/debrief"
	"github.com/furisto/debrief/backend/gateway"
	"github.com/furisto/debrief/backend/secret"
	"github.com/furisto/debrief/backend/session"
	"github.com/furisto/debrief/frontend/cli/pkg/fail"
	"github.com/furisto/debrief/shared/config"
)

// openArchive opens the archive backend selected in cfg. The returned
// closer is nil for backends without resources to release.
func openArchive(ctx context.Context, cfg config.Config) (*archive.Archive, func() error, error) {
	dir := cfg.Archive.Path
	if dir == "" {
		dataDir, err := getUserInfo(ctx).DataDir()
		if err != nil {
			return nil, nil, err
		}
		dir = dataDir
	}

	switch cfg.Archive.Backend {
	case config.ArchiveBackendSQLite:
		slot, err := archive.OpenSQLiteSlot(filepath.Join(dir, "debrief.db"))
		if err != nil {
			return nil, nil, err
		}
		return archive.New(slot), slot.Close, nil
	case config.ArchiveBackendFile, "":
		slot, err := archive.NewFileSlot(dir, getFileSystem(ctx).Fs)
		if err != nil {
			return nil, nil, err
		}
		return archive.New(slot), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

// resolveCredential returns the API key or an empty string when none is
// configured.
func resolveCredential(ctx context.Context) (string, error) {
	store, err := getSecretStore(ctx)
	if err != nil {
		return "", err
	}

	credential, err := secret.Resolve(store, os.Getenv)
	if errors.Is(err, &secret.ErrSecretNotFound{}) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	slog.Debug("resolved credential", "source", credential.Source)
	return credential.Value, nil
}

func newGateway(ctx context.Context, credential string) *gateway.Gateway {
	cfg := getConfig(ctx)
	return gateway.New(credential, getProviderFactory(ctx),
		gateway.WithModels(cfg.Models.Fast, cfg.Models.Deep),
		gateway.WithMetrics(getMetrics(ctx)),
	)
}

// newSession builds a session over the archive. Without a credential the
// session has no gateway and asks for one when a suggestion is needed.
func newSession(ctx context.Context) (*session.Session, error) {
	s, _, err := buildSession(ctx)
	return s, err
}

// newWizardSession builds the session for the interactive program. Without
// a credential it starts on the setup screen.
func newWizardSession(ctx context.Context) (*session.Session, error) {
	s, connected, err := buildSession(ctx)
	if err != nil {
		return nil, err
	}
	if !connected {
		s.CredentialMissing()
	}
	return s, nil
}

func buildSession(ctx context.Context) (*session.Session, bool, error) {
	credential, err := resolveCredential(ctx)
	if err != nil {
		return nil, false, err
	}

	opts := []session.Option{
		session.WithClock(getClock(ctx)),
		session.WithGatewayFactory(func(key string) session.Gateway {
			return newGateway(ctx, key)
		}),
	}
	if client := getAnalytics(ctx); client != nil {
		opts = append(opts, session.WithTracker(client))
	}

	if credential == "" {
		return session.New(getArchive(ctx), nil, opts...), false, nil
	}
	return session.New(getArchive(ctx), newGateway(ctx, credential), opts...), true, nil
}

func findRecord(ctx context.Context, idOrPrefix string) (debrief.Record, error) {
	record, err := getArchive(ctx).Find(idOrPrefix)
	if err != nil {
		return debrief.Record{}, fail.EnhanceError(err, map[string]any{"id": idOrPrefix})
	}
	return record, nil
}
