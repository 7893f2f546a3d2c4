package commands

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/database"
	"github.com/cleared-dev/folio/internal/holdings"
)

type checkStatus string

const (
	statusOK   checkStatus = "ok"
	statusWarn checkStatus = "warn"
	statusFail checkStatus = "fail"
)

type doctor struct {
	w     io.Writer
	fails int
}

func (d *doctor) report(status checkStatus, format string, args ...any) {
	if status == statusFail {
		d.fails++
	}
	fmt.Fprintf(d.w, "[%s] %s\n", status, fmt.Sprintf(format, args...))
}

func newDoctorCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, flags)
		},
	}
}

func runDoctor(cmd *cobra.Command, flags *globalFlags) error {
	d := &doctor{w: cmd.OutOrStdout()}

	root, err := flags.root()
	if err != nil {
		return err
	}

	// 1. Config file.
	cfgPath := filepath.Join(root, config.FileName)
	if !fileExists(cfgPath) {
		d.report(statusFail, "%s not found in %s; run `folio init`", config.FileName, root)
		return fmt.Errorf("project not initialized")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		d.report(statusFail, "%v", err)
		return fmt.Errorf("config unreadable")
	}
	if err := cfg.Validate(); err != nil {
		d.report(statusFail, "%v", err)
		return fmt.Errorf("config invalid")
	}
	d.report(statusOK, "%s loaded (backend %s, prices %s)", config.FileName, cfg.Storage.Backend, cfg.Prices.Provider)

	// 2. Credentials.
	if err := config.LoadEnv(root); err != nil {
		d.report(statusWarn, "%v", err)
	}
	required := cfg.RequiredEnv()
	if len(required) == 0 {
		d.report(statusOK, "%s prices need no credentials", cfg.Prices.Provider)
	}
	for _, k := range required {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			d.report(statusFail, "%s is not set", k)
			continue
		}
		d.report(statusOK, "%s = %s", k, config.Mask(v))
	}
	if err := cfg.CheckCredentials(); err != nil {
		return err
	}

	// 3. Storage.
	checkStorage(cmd, d, root, cfg)

	// 4. News endpoint.
	if u, err := url.Parse(cfg.News.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		d.report(statusWarn, "news.base_url %q is not an absolute URL; headlines will be unavailable", cfg.News.BaseURL)
	} else {
		d.report(statusOK, "news from %s (%d keywords)", u.Host, len(cfg.News.Keywords))
	}

	// Storage and news problems degrade to defaults at run time, so they are
	// reported without failing the command.
	if d.fails > 0 {
		fmt.Fprintf(d.w, "%d check(s) failed.\n", d.fails)
		return nil
	}
	fmt.Fprintln(d.w, "All checks passed.")
	return nil
}

func checkStorage(cmd *cobra.Command, d *doctor, root string, cfg *config.Config) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		path := config.Resolve(root, cfg.Storage.SQLitePath)
		if _, err := os.Stat(path); err != nil {
			d.report(statusFail, "database %s not found; run `folio init --backend sqlite` or fix storage.sqlite_path", path)
			return
		}
		db, err := database.OpenReadOnly(path)
		if err != nil {
			d.report(statusFail, "opening %s: %v", path, err)
			return
		}
		defer db.Close()
		d.report(statusOK, "database %s opened", path)

		ok, err := db.HasTable(cmd.Context(), "holdings")
		switch {
		case err != nil:
			d.report(statusFail, "checking holdings table: %v", err)
		case !ok:
			d.report(statusFail, "holdings table missing from %s", path)
		default:
			d.report(statusOK, "holdings table present")
		}
	default:
		dir := config.Resolve(root, cfg.Storage.DataDir)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			d.report(statusFail, "data directory %s missing", dir)
			return
		}
		store := holdings.NewCSVStore(dir)
		if !store.Exists() {
			d.report(statusWarn, "%s not found; the default portfolio will be shown", store.Path())
			return
		}
		if _, err := store.Read(cmd.Context()); err != nil {
			d.report(statusFail, "%v", err)
			return
		}
		d.report(statusOK, "%s readable", store.Path())
	}
}
