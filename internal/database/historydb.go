package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/deeptext/internal/fetch"
	"github.com/nao1215/deeptext/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "deeptext.db"

// timestampLayout is fixed width so that text order is time order.
const timestampLayout = "2006-01-02 15:04:05.000"

// ErrNotFound is returned when a requested analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// HistoryDB is the analysis history.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and file when missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions creates the database if needed and enables WAL.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s", dbPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; batch mode saves from several goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		host TEXT NOT NULL,
		analyzed_at TEXT NOT NULL,
		strategy TEXT,
		outcome TEXT NOT NULL,
		deepest_text TEXT,
		depth INTEGER,
		body_digest TEXT,
		analysis_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_url ON analyses(url);
	CREATE INDEX IF NOT EXISTS idx_analyses_host ON analyses(host);
	CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnalysis stores a. Saving the same ID twice replaces the row.
func (h *HistoryDB) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO analyses
		(id, url, host, analyzed_at, strategy, outcome, deepest_text, depth, body_digest, analysis_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = h.db.ExecContext(ctx, query,
		a.ID,
		a.URL,
		fetch.Host(a.URL),
		a.DateAnalyzed.UTC().Format(timestampLayout),
		a.Strategy,
		a.Outcome.String(),
		a.DeepestText,
		a.Depth,
		a.BodyDigest,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// Summary is one history row without the full record.
type Summary struct {
	ID          string
	URL         string
	AnalyzedAt  time.Time
	Strategy    string
	Outcome     model.Outcome
	DeepestText string
	Depth       int
	BodyDigest  string
}

// ListURLs returns every analyzed URL in alphabetical order.
func (h *HistoryDB) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT url FROM analyses ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// GetHistory returns the analyses of url, newest first.
func (h *HistoryDB) GetHistory(ctx context.Context, url string) ([]Summary, error) {
	return h.querySummaries(ctx, `
	SELECT id, url, analyzed_at, strategy, outcome, deepest_text, depth, body_digest
	FROM analyses
	WHERE url = ?
	ORDER BY analyzed_at DESC, rowid DESC
	`, url)
}

// ListRecent returns the newest analyses across all URLs.
// A non-positive limit returns all of them.
func (h *HistoryDB) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	return h.querySummaries(ctx, `
	SELECT id, url, analyzed_at, strategy, outcome, deepest_text, depth, body_digest
	FROM analyses
	ORDER BY analyzed_at DESC, rowid DESC
	LIMIT ?
	`, limit)
}

func (h *HistoryDB) querySummaries(ctx context.Context, query string, args ...any) ([]Summary, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []Summary
	for rows.Next() {
		var (
			s                         Summary
			analyzedAt, outcome       string
			strategy, deepest, digest sql.NullString
			depth                     sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.URL, &analyzedAt, &strategy, &outcome, &deepest, &depth, &digest); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		s.AnalyzedAt = parseTimestamp(analyzedAt)
		s.Strategy = strategy.String
		s.DeepestText = deepest.String
		s.Depth = int(depth.Int64)
		s.BodyDigest = digest.String
		if o, err := model.ParseOutcome(outcome); err == nil {
			s.Outcome = o
		}

		results = append(results, s)
	}
	return results, rows.Err()
}

// GetAnalysisByID returns the full record of one analysis.
func (h *HistoryDB) GetAnalysisByID(ctx context.Context, id string) (*model.Analysis, error) {
	return h.queryAnalysis(ctx, `SELECT analysis_json FROM analyses WHERE id = ?`, id)
}

// LatestByURL returns the newest analysis of url.
func (h *HistoryDB) LatestByURL(ctx context.Context, url string) (*model.Analysis, error) {
	return h.queryAnalysis(ctx, `
	SELECT analysis_json FROM analyses
	WHERE url = ?
	ORDER BY analyzed_at DESC, rowid DESC
	LIMIT 1
	`, url)
}

func (h *HistoryDB) queryAnalysis(ctx context.Context, query string, arg any) (*model.Analysis, error) {
	var data string
	err := h.db.QueryRowContext(ctx, query, arg).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var a model.Analysis
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &a, nil
}

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
