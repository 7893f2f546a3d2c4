package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/database"
	"github.com/cleared-dev/folio/internal/gitops"
	"github.com/cleared-dev/folio/internal/holdings"
	"github.com/cleared-dev/folio/internal/importer"
)

func newInitCommand() *cobra.Command {
	var backend string
	var provider string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new folio project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			hash, err := runInit(cmd.Context(), absDir, backend, provider, useGit)
			if err != nil {
				return err
			}
			if hash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized folio project at %s (%s)\n", absDir, hash)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized folio project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", config.BackendCSV, "storage backend (csv, sqlite)")
	cmd.Flags().StringVar(&provider, "provider", config.ProviderYahoo, "price provider (yahoo, alpaca, static)")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit every change")

	return cmd
}

func runInit(ctx context.Context, dir, backend, provider string, useGit bool) (string, error) {
	cfgPath := filepath.Join(dir, config.FileName)
	if fileExists(cfgPath) {
		return "", fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Prices.Provider = provider
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	for _, d := range []string{cfg.Storage.DataDir, importer.Dir} {
		if err := os.MkdirAll(config.Resolve(dir, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write folio.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	// Write the credentials template; the real .env stays out of git.
	if err := os.WriteFile(filepath.Join(dir, config.EnvFile+".example"), []byte(config.EnvExample), 0o644); err != nil {
		return "", fmt.Errorf("writing %s.example: %w", config.EnvFile, err)
	}
	gitignore := ".env\n*.db-wal\n*.db-shm\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := seedHoldings(ctx, dir, cfg); err != nil {
		return "", err
	}

	if !useGit {
		return "", nil
	}
	if err := gitops.Init(dir); err != nil {
		return "", err
	}
	hash, err := gitops.CommitAll(dir, "init: folio project", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return hash, nil
}

// seedHoldings saves the default portfolio as the first snapshot. The
// database is closed before returning so its file is complete on disk.
func seedHoldings(ctx context.Context, dir string, cfg *config.Config) error {
	var store holdings.Store
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := database.Open(config.Resolve(dir, cfg.Storage.SQLitePath))
		if err != nil {
			return err
		}
		defer db.Close()
		store = holdings.NewSQLiteStore(db)
	default:
		store = holdings.NewCSVStore(config.Resolve(dir, cfg.Storage.DataDir))
	}
	if err := store.Replace(ctx, holdings.DefaultHoldings()); err != nil {
		return fmt.Errorf("writing default holdings: %w", err)
	}
	return nil
}
