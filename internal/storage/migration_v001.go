package storage

import "database/sql"

// migrateV001 creates the initial instalens schema: import runs, their
// posts and palettes, and the audit log. Every statement uses IF NOT EXISTS
// for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS import_runs (
			id            TEXT PRIMARY KEY,
			root          TEXT NOT NULL DEFAULT '',
			media_path    TEXT NOT NULL DEFAULT '',
			insights_path TEXT NOT NULL DEFAULT '',
			reels_path    TEXT NOT NULL DEFAULT '',
			strategy      TEXT NOT NULL DEFAULT '',
			post_count    INTEGER NOT NULL DEFAULT 0,
			insight_count INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS posts (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES import_runs(id) ON DELETE CASCADE,
			uri               TEXT NOT NULL DEFAULT '',
			title             TEXT NOT NULL DEFAULT '',
			posted_at         DATETIME,
			content_type      TEXT NOT NULL DEFAULT '',
			likes             INTEGER NOT NULL DEFAULT 0,
			comments          INTEGER NOT NULL DEFAULT 0,
			reach             INTEGER NOT NULL DEFAULT 0,
			impressions       INTEGER NOT NULL DEFAULT 0,
			saves             INTEGER NOT NULL DEFAULT 0,
			shares            INTEGER NOT NULL DEFAULT 0,
			profile_visits    INTEGER NOT NULL DEFAULT 0,
			follows           INTEGER NOT NULL DEFAULT 0,
			engagement        REAL NOT NULL DEFAULT 0,
			engagement_rate   REAL NOT NULL DEFAULT 0,
			performance_label TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS palettes (
			run_id         TEXT NOT NULL REFERENCES import_runs(id) ON DELETE CASCADE,
			uri            TEXT NOT NULL,
			hex_1          TEXT,
			hex_2          TEXT,
			hex_3          TEXT,
			pct_1          REAL NOT NULL DEFAULT 0,
			pct_2          REAL NOT NULL DEFAULT 0,
			pct_3          REAL NOT NULL DEFAULT 0,
			avg_hue        REAL NOT NULL DEFAULT 0,
			avg_saturation REAL NOT NULL DEFAULT 0,
			avg_value      REAL NOT NULL DEFAULT 0,
			std_value      REAL NOT NULL DEFAULT 0,
			colorfulness   REAL NOT NULL DEFAULT 0,
			warm_ratio     REAL NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, uri)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			run_id TEXT,
			ts     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_import_runs_created ON import_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_run           ON posts(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_uri           ON posts(uri)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_posted_at     ON posts(posted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_engagement    ON posts(run_id, engagement)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts        ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action    ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
