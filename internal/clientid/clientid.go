// Package clientid persists the anonymous installation key used for
// quota accounting and telemetry. The key identifies an installation,
// never a person.
package clientid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LoadOrGenerate returns the client key stored at path, generating and
// persisting a fresh one on first use.
func LoadOrGenerate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key := strings.TrimSpace(string(data))
		if _, parseErr := uuid.Parse(key); parseErr == nil {
			return key, nil
		}
		// Corrupt contents, regenerate below.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read client key: %w", err)
	}

	key := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create client key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write client key: %w", err)
	}
	return key, nil
}
