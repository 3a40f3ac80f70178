package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for instalens data operations.
type Store interface {
	CreateRun(ctx context.Context, run *Run, posts []Post) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	AddPalettes(ctx context.Context, runID string, palettes []Palette) error
	GetPalettes(ctx context.Context, runID string) ([]Palette, error)
	SearchPosts(ctx context.Context, query PostQuery) ([]Post, error)
	CountRunsBefore(ctx context.Context, olderThan time.Time) (int64, error)
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertRun     *sql.Stmt
	insertPost    *sql.Stmt
	insertPalette *sql.Stmt
	getRun        *sql.Stmt
	latestRun     *sql.Stmt
	insertAudit   *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

const runColumns = `id, root, media_path, insights_path, reels_path, strategy,
	post_count, insight_count, created_at`

const postColumns = `id, run_id, uri, title, posted_at, content_type,
	likes, comments, reach, impressions, saves, shares, profile_visits, follows,
	engagement, engagement_rate, performance_label`

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRun, err = s.db.Prepare(`
		INSERT INTO import_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertPost, err = s.db.Prepare(`
		INSERT INTO posts (run_id, uri, title, posted_at, content_type,
			likes, comments, reach, impressions, saves, shares, profile_visits, follows,
			engagement, engagement_rate, performance_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertPalette, err = s.db.Prepare(`
		INSERT OR REPLACE INTO palettes (run_id, uri, hex_1, hex_2, hex_3, pct_1, pct_2, pct_3,
			avg_hue, avg_saturation, avg_value, std_value, colorfulness, warm_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getRun, err = s.db.Prepare(`SELECT ` + runColumns + ` FROM import_runs WHERE id = ?`)
	if err != nil {
		return err
	}

	s.latestRun, err = s.db.Prepare(`
		SELECT ` + runColumns + ` FROM import_runs
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Prepare(`INSERT INTO audit_log (action, detail, run_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}

	return nil
}

// likeTerms turns a search string into one LIKE pattern per word.
func likeTerms(input string) []string {
	var terms []string
	for _, w := range strings.Fields(input) {
		w = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(w)
		terms = append(terms, "%"+w+"%")
	}
	return terms
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullableTimestamp maps a zero time to SQL NULL.
func nullableTimestamp(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(t), Valid: true}
}

// CreateRun records an import run and its posts in a single transaction.
// The run's ID, counts and creation time are filled in when unset.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run, posts []Post) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.PostCount = len(posts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.StmtContext(ctx, s.insertRun).ExecContext(ctx,
		run.ID, run.Root, run.MediaPath, run.InsightsPath, run.ReelsPath, run.Strategy,
		run.PostCount, run.InsightCount, formatTimestamp(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insert := tx.StmtContext(ctx, s.insertPost)
	for i := range posts {
		p := &posts[i]
		p.RunID = run.ID
		res, err := insert.ExecContext(ctx,
			p.RunID, p.URI, p.Title, nullableTimestamp(p.PostedAt), p.ContentType,
			p.Likes, p.Comments, p.Reach, p.Impressions, p.Saves, p.Shares, p.ProfileVisits, p.Follows,
			p.Engagement, p.EngagementRate, p.Label,
		)
		if err != nil {
			return fmt.Errorf("insert post %d: %w", i, err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("post id: %w", err)
		}
	}

	detail := fmt.Sprintf("%d posts, %d insight rows, strategy %s", run.PostCount, run.InsightCount, run.Strategy)
	if _, err := tx.StmtContext(ctx, s.insertAudit).ExecContext(ctx, "ingest", detail, run.ID); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	return tx.Commit()
}

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var created string
	if err := row.Scan(
		&r.ID, &r.Root, &r.MediaPath, &r.InsightsPath, &r.ReelsPath, &r.Strategy,
		&r.PostCount, &r.InsightCount, &created,
	); err != nil {
		return nil, err
	}
	r.CreatedAt, _ = parseTimestamp(created)
	return &r, nil
}

// GetRun retrieves a single import run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.getRun.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently created import run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	r, err := scanRun(s.latestRun.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no import runs: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// AddPalettes stores color palettes for posts of a run, replacing any
// palette already recorded for the same URI.
func (s *SQLiteStore) AddPalettes(ctx context.Context, runID string, palettes []Palette) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	insert := tx.StmtContext(ctx, s.insertPalette)
	for _, p := range palettes {
		hex := make([]sql.NullString, 3)
		for i, h := range p.Hex {
			hex[i] = sql.NullString{String: h, Valid: h != ""}
		}
		_, err := insert.ExecContext(ctx,
			runID, p.URI, hex[0], hex[1], hex[2], p.Pct[0], p.Pct[1], p.Pct[2],
			p.AvgHue, p.AvgSaturation, p.AvgValue, p.StdValue, p.Colorfulness, p.WarmRatio,
		)
		if err != nil {
			return fmt.Errorf("insert palette %s: %w", p.URI, err)
		}
	}

	return tx.Commit()
}

// GetPalettes lists the palettes stored for a run, ordered by URI.
func (s *SQLiteStore) GetPalettes(ctx context.Context, runID string) ([]Palette, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, uri, hex_1, hex_2, hex_3, pct_1, pct_2, pct_3,
		       avg_hue, avg_saturation, avg_value, std_value, colorfulness, warm_ratio
		FROM palettes WHERE run_id = ? ORDER BY uri
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query palettes: %w", err)
	}
	defer rows.Close()

	palettes := []Palette{}
	for rows.Next() {
		var p Palette
		var hex [3]sql.NullString
		if err := rows.Scan(
			&p.RunID, &p.URI, &hex[0], &hex[1], &hex[2], &p.Pct[0], &p.Pct[1], &p.Pct[2],
			&p.AvgHue, &p.AvgSaturation, &p.AvgValue, &p.StdValue, &p.Colorfulness, &p.WarmRatio,
		); err != nil {
			return nil, fmt.Errorf("scan palette: %w", err)
		}
		for i, h := range hex {
			p.Hex[i] = h.String
		}
		palettes = append(palettes, p)
	}
	return palettes, rows.Err()
}

// SearchPosts queries the posts of one run with optional filters. Keyword
// terms match titles case-insensitively and any term is enough. Results are
// ordered by engagement, highest first.
func (s *SQLiteStore) SearchPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	if q.RunID == "" {
		run, err := s.LatestRun(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return []Post{}, nil
			}
			return nil, err
		}
		q.RunID = run.ID
	}

	clauses := []string{"run_id = ?"}
	args := []interface{}{q.RunID}

	if terms := likeTerms(q.Query); len(terms) > 0 {
		var ors []string
		for _, t := range terms {
			ors = append(ors, `title LIKE ? ESCAPE '\'`)
			args = append(args, t)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "posted_at >= ?")
		args = append(args, formatTimestamp(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "posted_at <= ?")
		args = append(args, formatTimestamp(q.Until))
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY engagement DESC, posted_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	return s.scanPosts(ctx, query, args...)
}

// scanPosts executes a query and scans results into Post slices.
func (s *SQLiteStore) scanPosts(ctx context.Context, query string, args ...interface{}) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var posted sql.NullString
		if err := rows.Scan(
			&p.ID, &p.RunID, &p.URI, &p.Title, &posted, &p.ContentType,
			&p.Likes, &p.Comments, &p.Reach, &p.Impressions, &p.Saves, &p.Shares, &p.ProfileVisits, &p.Follows,
			&p.Engagement, &p.EngagementRate, &p.Label,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if posted.Valid {
			p.PostedAt, _ = parseTimestamp(posted.String)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice rather than nil
	if posts == nil {
		posts = []Post{}
	}

	return posts, nil
}

// CountRunsBefore reports how many import runs PruneRuns would delete.
func (s *SQLiteStore) CountRunsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM import_runs WHERE created_at < ?", formatTimestamp(olderThan),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// PruneRuns deletes import runs created before olderThan. Their posts and
// palettes are cascade-deleted by the schema.
func (s *SQLiteStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM import_runs WHERE created_at < ?", formatTimestamp(olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := s.insertAudit.ExecContext(ctx, "prune",
		fmt.Sprintf("%d runs before %s", n, formatTimestamp(olderThan)), nil,
	); err != nil {
		return n, fmt.Errorf("audit: %w", err)
	}

	return n, nil
}

// PurgeAll deletes every run, post and palette.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM palettes",
		"DELETE FROM posts",
		"DELETE FROM import_runs",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	if _, err := s.insertAudit.ExecContext(ctx, "purge", "all data", nil); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM import_runs", &stats.TotalRuns},
		{"SELECT COUNT(*) FROM posts", &stats.TotalPosts},
		{"SELECT COUNT(*) FROM palettes", &stats.TotalPalettes},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count (%s): %w", c.query, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalPosts > 0 {
		var oldest, newest sql.NullString
		err := s.db.QueryRowContext(ctx, "SELECT MIN(posted_at), MAX(posted_at) FROM posts").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("post time range: %w", err)
		}
		if oldest.Valid {
			stats.OldestPost, _ = parseTimestamp(oldest.String)
		}
		if newest.Valid {
			stats.NewestPost, _ = parseTimestamp(newest.String)
		}
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			stats.DatabaseSizeBytes = pageCount * pageSize
		}
	}

	if stats.TotalRuns == 0 {
		return stats, nil
	}

	last, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastRun = last

	// Content types of the latest run
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_type, COUNT(*) AS cnt, AVG(engagement)
		FROM posts WHERE run_id = ?
		GROUP BY content_type ORDER BY cnt DESC, content_type ASC LIMIT 10
	`, last.ID)
	if err != nil {
		return nil, fmt.Errorf("content types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc ContentTypeCount
		if err := rows.Scan(&tc.ContentType, &tc.Count, &tc.AvgEngagement); err != nil {
			return nil, err
		}
		stats.TopContentTypes = append(stats.TopContentTypes, tc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertRun, s.insertPost, s.insertPalette,
		s.getRun, s.latestRun, s.insertAudit,
	}
	var firstErr error
	for _, st := range stmts {
		if st == nil {
			continue
		}
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
