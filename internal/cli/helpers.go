package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/runnerr0/instalens/internal/config"
	"github.com/runnerr0/instalens/internal/logging"
	"github.com/runnerr0/instalens/internal/storage"
)

// loadConfig returns the injected config, or loads the file named by
// --config (creating the default one when unset), then configures logging.
func loadConfig(globals *GlobalFlags, injected *config.Config) (*config.Config, error) {
	cfg := injected
	if cfg == nil {
		var err error
		if globals != nil && globals.Config != "" {
			path, perr := config.ExpandPath(globals.Config)
			if perr != nil {
				return nil, perr
			}
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.LoadOrCreate()
		}
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	verbose := globals != nil && globals.Verbose
	if err := logging.Setup(cfg.Logging, os.Stderr, verbose); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveRoot picks the export root from the flag or the config.
func resolveRoot(flag string, cfg *config.Config) (string, error) {
	root := flag
	if root == "" {
		root = cfg.Export.Root
	}
	if root == "" {
		return "", fmt.Errorf("no export root: pass --root or set export.root in the config")
	}
	root, err := config.ExpandPath(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("export root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("export root %s is not a directory", root)
	}
	return root, nil
}

// dbPath returns the --db override or the configured database path.
func dbPath(globals *GlobalFlags, cfg *config.Config) (string, error) {
	if globals != nil && globals.DB != "" {
		return config.ExpandPath(globals.DB)
	}
	return cfg.DBPath()
}

// openStore opens the instalens database, runs migrations, and returns a
// ready-to-use store and the underlying *sql.DB.
func openStore(globals *GlobalFlags, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	path, err := dbPath(globals, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(cfg.Storage.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

var numberPrinter = message.NewPrinter(language.English)

// formatNumber formats an integer with comma separators.
func formatNumber(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

// plural picks the singular or plural form of a noun for n.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
