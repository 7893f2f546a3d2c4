package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/folio/internal/model"
)

// FileName is the config file inside a project directory.
const FileName = "folio.yaml"

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Price providers.
const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
	ProviderStatic = "static"
)

// Config represents the top-level folio.yaml configuration.
type Config struct {
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Storage   StorageConfig   `yaml:"storage"`
	Prices    PricesConfig    `yaml:"prices"`
	News      NewsConfig      `yaml:"news"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Git       GitConfig       `yaml:"git"`
}

// PortfolioConfig holds the defaults used when nothing has been saved.
type PortfolioConfig struct {
	Currency string           `yaml:"currency"`
	Budget   decimal.Decimal  `yaml:"budget"`
	Defaults []DefaultHolding `yaml:"default_holdings,omitempty"`
}

// DefaultHolding is one row of the fallback portfolio.
type DefaultHolding struct {
	Ticker   string          `yaml:"ticker"`
	Quantity decimal.Decimal `yaml:"quantity"`
	Target   decimal.Decimal `yaml:"target_weight_percent"`
}

// StorageConfig selects where holdings and trades live.
type StorageConfig struct {
	Backend    string `yaml:"backend"`     // csv | sqlite
	DataDir    string `yaml:"data_dir"`    // relative to the project dir
	SQLitePath string `yaml:"sqlite_path"` // relative to the project dir
}

// PricesConfig selects the price source. Static prices are decoded as exact
// decimals.
type PricesConfig struct {
	Provider string                     `yaml:"provider"` // yahoo | alpaca | static
	Static   map[string]decimal.Decimal `yaml:"static,omitempty"`
}

// NewsConfig configures the headline panel.
type NewsConfig struct {
	BaseURL  string   `yaml:"base_url"`
	Language string   `yaml:"language"`
	Country  string   `yaml:"country"`
	Keywords []string `yaml:"keywords"`
	Limit    int      `yaml:"limit"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig controls `folio serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a folio.yaml file from disk. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			Currency: "USD",
			Budget:   decimal.Zero,
		},
		Storage: StorageConfig{
			Backend:    BackendCSV,
			DataDir:    "data",
			SQLitePath: filepath.Join("data", "folio.db"),
		},
		Prices: PricesConfig{
			Provider: ProviderYahoo,
		},
		News: NewsConfig{
			BaseURL:  "https://news.google.com",
			Language: "en-US",
			Country:  "US",
			Keywords: []string{"stock market", "S&P 500", "Federal Reserve", "Nasdaq"},
			Limit:    5,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "folio",
			AuthorEmail: "folio@localhost",
		},
	}
}

// DefaultHoldings converts the configured fallback portfolio. It returns
// nil when the config lists none.
func (c *Config) DefaultHoldings() []model.Holding {
	if len(c.Portfolio.Defaults) == 0 {
		return nil
	}
	out := make([]model.Holding, 0, len(c.Portfolio.Defaults))
	for _, d := range c.Portfolio.Defaults {
		out = append(out, model.Holding{
			Ticker:              model.NormalizeTicker(d.Ticker),
			Quantity:            d.Quantity,
			TargetWeightPercent: d.Target,
		})
	}
	return out
}

// Budget returns the configured default budget.
func (c *Config) Budget() decimal.Decimal {
	return c.Portfolio.Budget
}

// StaticPrices converts the static price table.
func (c *Config) StaticPrices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(c.Prices.Static))
	for k, v := range c.Prices.Static {
		out[model.NormalizeTicker(k)] = v
	}
	return out
}

// Resolve returns path joined to root unless it is already absolute.
func Resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
