package secret

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Provider defines the interface for secret storage backends.
type Provider interface {
	// Get retrieves a secret by key.
	Get(key string) (string, error)

	// Set stores a secret with the given key.
	Set(key string, value string) error

	// Delete removes a secret by key.
	Delete(key string) error
}

// CredentialKey names the stored language model API key.
const CredentialKey = "gemini_api_key"

// CredentialEnvVars are consulted in order before the configured store.
var CredentialEnvVars = []string{"DEBRIEF_API_KEY", "GEMINI_API_KEY"}

type StoreKind string

const (
	StoreKeyring StoreKind = "keyring"
	StoreFile    StoreKind = "file"
)

// NewProvider returns the provider for kind. File secrets live under dir.
func NewProvider(kind StoreKind, fs afero.Fs, dir string) (Provider, error) {
	switch kind {
	case StoreKeyring, "":
		return NewKeyringProvider(), nil
	case StoreFile:
		return NewFileProvider(filepath.Join(dir, "secrets"), fs)
	default:
		return nil, fmt.Errorf("unknown credential store %q", kind)
	}
}

// Credential is a resolved API key together with where it was found.
type Credential struct {
	Value  string
	Source string
}

// Resolve looks the API key up in the environment first and then in store.
// It returns ErrSecretNotFound when neither has a non-blank value.
func Resolve(store Provider, getenv func(string) string) (Credential, error) {
	for _, name := range CredentialEnvVars {
		if value := strings.TrimSpace(getenv(name)); value != "" {
			return Credential{Value: value, Source: "env:" + name}, nil
		}
	}

	if store == nil {
		return Credential{}, &ErrSecretNotFound{Key: CredentialKey}
	}

	value, err := store.Get(CredentialKey)
	if err != nil {
		return Credential{}, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Credential{}, &ErrSecretNotFound{Key: CredentialKey}
	}

	source := "store"
	switch store.(type) {
	case *KeyringProvider:
		source = string(StoreKeyring)
	case *FileProvider:
		source = string(StoreFile)
	}
	return Credential{Value: value, Source: source}, nil
}

// Mask hides all but the last four characters of a credential.
func Mask(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
