package config

import (
	"fmt"
	"strings"
)

// Validate checks the values folio cannot work around.
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite:
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q must be %s or %s", c.Storage.Backend, BackendCSV, BackendSQLite))
	}
	if c.Storage.Backend == BackendCSV && strings.TrimSpace(c.Storage.DataDir) == "" {
		problems = append(problems, "storage.data_dir is required for the csv backend")
	}
	if c.Storage.Backend == BackendSQLite && strings.TrimSpace(c.Storage.SQLitePath) == "" {
		problems = append(problems, "storage.sqlite_path is required for the sqlite backend")
	}

	switch c.Prices.Provider {
	case ProviderYahoo, ProviderAlpaca, ProviderStatic:
	default:
		problems = append(problems, fmt.Sprintf("prices.provider %q must be one of %s, %s, %s",
			c.Prices.Provider, ProviderYahoo, ProviderAlpaca, ProviderStatic))
	}

	if c.News.Limit < 0 {
		problems = append(problems, "news.limit cannot be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
