package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFile holds credentials next to folio.yaml.
const EnvFile = ".env"

// Alpaca credential variables, read by the Alpaca SDK as well.
const (
	EnvAlpacaKey    = "APCA_API_KEY_ID"
	EnvAlpacaSecret = "APCA_API_SECRET_KEY"
)

// ErrMissingCredentials is returned when the selected provider has no credentials.
var ErrMissingCredentials = errors.New("missing credentials")

// LoadEnv loads <root>/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(root string) error {
	path := filepath.Join(root, EnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// RequiredEnv lists the variables the configured price provider needs.
func (c *Config) RequiredEnv() []string {
	if c.Prices.Provider == ProviderAlpaca {
		return []string{EnvAlpacaKey, EnvAlpacaSecret}
	}
	return nil
}

// CheckCredentials reports every required variable that is unset.
func (c *Config) CheckCredentials() error {
	var missing []string
	for _, k := range c.RequiredEnv() {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w for %s prices: set %s in %s or the environment",
			ErrMissingCredentials, c.Prices.Provider, strings.Join(missing, ", "), EnvFile)
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(v string) string {
	if len(v) <= 4 {
		return "***"
	}
	return "***" + v[len(v)-4:]
}

// EnvExample is the template written by `folio init`.
const EnvExample = `# Credentials for the alpaca price provider.
APCA_API_KEY_ID=
APCA_API_SECRET_KEY=
`
