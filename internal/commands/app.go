package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/database"
	"github.com/cleared-dev/folio/internal/gitops"
	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/logging"
	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/portfolio"
	"github.com/cleared-dev/folio/internal/prices"
	"github.com/cleared-dev/folio/internal/trades"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	repo     string
	logLevel string
	pretty   bool
}

func (g *globalFlags) root() (string, error) {
	abs, err := filepath.Abs(g.repo)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// loadConfig reads folio.yaml and .env from the project directory. When
// optional is set a missing folio.yaml yields the defaults.
func (g *globalFlags) loadConfig(cmd *cobra.Command, optional bool) (string, *config.Config, error) {
	root, err := g.root()
	if err != nil {
		return "", nil, err
	}

	path := filepath.Join(root, config.FileName)
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case optional && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case errors.Is(err, fs.ErrNotExist):
		return "", nil, fmt.Errorf("no %s in %s; run `folio init` first", config.FileName, root)
	default:
		return "", nil, err
	}

	if err := config.LoadEnv(root); err != nil {
		return "", nil, err
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = g.pretty
	}
	return root, cfg, nil
}

// app holds the wiring for one command invocation.
type app struct {
	root      string
	cfg       *config.Config
	log       zerolog.Logger
	db        *database.DB
	holdings  holdings.Store
	trades    trades.Log
	portfolio *portfolio.Service
}

// openApp loads the project and opens its stores. withPrices selects the
// configured price provider; commands that never price holdings pass false
// so missing provider credentials do not block them.
func (g *globalFlags) openApp(cmd *cobra.Command, withPrices bool) (*app, error) {
	root, cfg, err := g.loadConfig(cmd, false)
	if err != nil {
		return nil, err
	}

	a := &app{
		root: root,
		cfg:  cfg,
		log:  logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}),
	}

	if err := a.openStores(); err != nil {
		return nil, err
	}

	var src prices.Source = prices.NewStatic(cfg.StaticPrices())
	if withPrices {
		src, err = prices.New(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.portfolio = portfolio.NewService(a.holdings, a.trades, src, a.defaults(), a.log)
	return a, nil
}

func (a *app) openStores() error {
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := database.Open(config.Resolve(a.root, a.cfg.Storage.SQLitePath))
		if err != nil {
			return err
		}
		a.db = db
		a.holdings = holdings.NewSQLiteStore(db)
		a.trades = trades.NewSQLiteLog(db)
	default:
		dir := config.Resolve(a.root, a.cfg.Storage.DataDir)
		a.holdings = holdings.NewCSVStore(dir)
		a.trades = trades.NewCSVLog(dir)
	}
	return nil
}

// defaults is the fallback portfolio: the config's list, or the built-in one.
func (a *app) defaults() []model.Holding {
	if hs := a.cfg.DefaultHoldings(); len(hs) > 0 {
		return hs
	}
	return holdings.DefaultHoldings()
}

// Close releases the database, if one was opened.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Closing database")
		}
	}
}

// commit records the project state in git when auto_commit is on. Failures
// are logged; the data is already saved.
func (a *app) commit(message string) {
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.root) {
		return
	}
	hash, err := gitops.CommitAll(a.root, message, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail)
	if err != nil {
		a.log.Warn().Err(err).Msg("Git commit failed")
		return
	}
	if hash != "" {
		a.log.Debug().Str("commit", hash).Str("message", message).Msg("Committed")
	}
}

// budgetFlag parses --budget, falling back to the configured default.
func (a *app) budgetFlag(cmd *cobra.Command, raw string) (decimal.Decimal, error) {
	if !cmd.Flags().Changed("budget") {
		return a.cfg.Budget(), nil
	}
	return parseDecimalFlag("budget", raw)
}

func parseDecimalFlag(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s %q is not a number", name, raw)
	}
	return d, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
