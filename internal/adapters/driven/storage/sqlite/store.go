package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wikivault/wikivault/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/wikivault/wikivault/internal/core/domain"
	"github.com/wikivault/wikivault/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all archive store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.wikivault/data/archive.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".wikivault", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "archive.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PageStore returns a PageStore interface backed by this store.
func (s *Store) PageStore() driven.PageStore {
	return &pageStore{store: s}
}

// RevisionStore returns a RevisionStore interface backed by this store.
func (s *Store) RevisionStore() driven.RevisionStore {
	return &revisionStore{store: s}
}

// FileStore returns a FileStore interface backed by this store.
func (s *Store) FileStore() driven.FileStore {
	return &fileStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// placeholders returns "?,?,...,?" with n placeholders for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// ==================== Page Store ====================

// pageStore implements driven.PageStore.
type pageStore struct {
	store *Store
}

var _ driven.PageStore = (*pageStore)(nil)

// UpsertPage stores or updates a page record.
func (s *pageStore) UpsertPage(ctx context.Context, page *domain.Page) error {
	now := time.Now().UTC()
	createdAt := page.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := page.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	var deletedAt sql.NullTime
	if page.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: page.DeletedAt.UTC(), Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pages (id, namespace, title, is_redirect, deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			title = excluded.title,
			is_redirect = excluded.is_redirect,
			deleted_at = COALESCE(excluded.deleted_at, pages.deleted_at),
			updated_at = excluded.updated_at
	`, page.ID, page.Namespace, page.Title, page.IsRedirect, deletedAt, createdAt, updatedAt)

	if err != nil {
		return fmt.Errorf("upserting page: %w", err)
	}
	return nil
}

// GetPage retrieves a page by id.
func (s *pageStore) GetPage(ctx context.Context, pageID int64) (*domain.Page, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, namespace, title, is_redirect, deleted_at, created_at, updated_at
		FROM pages WHERE id = ?
	`, pageID)

	var page domain.Page
	var deletedAt sql.NullTime
	if err := row.Scan(&page.ID, &page.Namespace, &page.Title, &page.IsRedirect,
		&deletedAt, &page.CreatedAt, &page.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning page: %w", err)
	}

	if deletedAt.Valid {
		at := deletedAt.Time
		page.DeletedAt = &at
	}
	return &page, nil
}

// ExistingPages reports which of the given ids have a local record.
func (s *pageStore) ExistingPages(ctx context.Context, pageIDs []int64) (domain.PageIDSet, error) {
	existing := domain.NewPageIDSet()
	if len(pageIDs) == 0 {
		return existing, nil
	}

	query := "SELECT id FROM pages WHERE id IN (" + placeholders(len(pageIDs)) + ")"
	rows, err := s.store.db.QueryContext(ctx, query, int64Args(pageIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying existing pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning page id: %w", err)
		}
		existing.Add(id)
	}
	return existing, rows.Err()
}

// HighestRevisions performs one batched lookup joining page metadata with the
// highest stored revision per page.
func (s *pageStore) HighestRevisions(ctx context.Context, pageIDs []int64) ([]domain.PageUpdateInfo, error) {
	if len(pageIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT p.id, p.namespace, p.title, p.is_redirect,
			COALESCE((SELECT MAX(r.id) FROM revisions r WHERE r.page_id = p.id), 0),
			(SELECT r.timestamp FROM revisions r WHERE r.page_id = p.id ORDER BY r.id DESC LIMIT 1),
			(SELECT COUNT(*) FROM revisions r WHERE r.page_id = p.id)
		FROM pages p
		WHERE p.id IN (` + placeholders(len(pageIDs)) + `)
		ORDER BY p.id`
	rows, err := s.store.db.QueryContext(ctx, query, int64Args(pageIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying highest revisions: %w", err)
	}
	defer rows.Close()

	var infos []domain.PageUpdateInfo
	for rows.Next() {
		var info domain.PageUpdateInfo
		var lastAt sql.NullTime
		if err := rows.Scan(&info.PageID, &info.Namespace, &info.Title, &info.IsRedirect,
			&info.HighestStoredRevisionID, &lastAt, &info.StoredRevisionCount); err != nil {
			return nil, fmt.Errorf("scanning page update info: %w", err)
		}
		if lastAt.Valid {
			info.LastStoredRevisionTimestamp = lastAt.Time
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// MarkDeleted flags a page as deleted on the wiki.
func (s *pageStore) MarkDeleted(ctx context.Context, pageID int64, at time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE pages SET deleted_at = ?, updated_at = ? WHERE id = ?
	`, at.UTC(), at.UTC(), pageID)
	if err != nil {
		return fmt.Errorf("marking page deleted: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Rename updates a page's title and namespace in place.
func (s *pageStore) Rename(ctx context.Context, pageID int64, newTitle string, namespace int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE pages SET title = ?, namespace = ?, updated_at = ? WHERE id = ?
	`, newTitle, namespace, time.Now().UTC(), pageID)
	if err != nil {
		return fmt.Errorf("renaming page: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountPages returns the number of stored pages, excluding deleted ones.
func (s *pageStore) CountPages(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages WHERE deleted_at IS NULL")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return count, nil
}

// ==================== Revision Store ====================

// revisionStore implements driven.RevisionStore.
type revisionStore struct {
	store *Store
}

var _ driven.RevisionStore = (*revisionStore)(nil)

// InsertRevisions writes revisions for a page. Ids already present are left
// untouched; the returned count covers rows actually written.
func (s *revisionStore) InsertRevisions(ctx context.Context, pageID int64, revs []domain.Revision) (int, error) {
	if len(revs) == 0 {
		return 0, nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO revisions (id, page_id, parent_id, timestamp, actor, actor_id,
			comment, content, size, sha1, minor, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id, id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for i := range revs {
		rev := &revs[i]
		tagsJSON, err := json.Marshal(rev.Tags)
		if err != nil {
			return 0, fmt.Errorf("marshalling tags: %w", err)
		}

		res, err := stmt.ExecContext(ctx, rev.ID, pageID, rev.ParentID, rev.Timestamp.UTC(),
			rev.Actor, rev.ActorID, rev.Comment, rev.Content, rev.Size, rev.SHA1,
			rev.Minor, string(tagsJSON))
		if err != nil {
			return 0, fmt.Errorf("inserting revision %d: %w", rev.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking rows affected: %w", err)
		}
		written += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing revisions: %w", err)
	}
	return written, nil
}

// ExistingRevisionIDs reports which of the given revision ids are stored.
func (s *revisionStore) ExistingRevisionIDs(ctx context.Context, pageID int64, revIDs []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(revIDs))
	if len(revIDs) == 0 {
		return existing, nil
	}

	query := "SELECT id FROM revisions WHERE page_id = ? AND id IN (" + placeholders(len(revIDs)) + ")"
	args := append([]any{pageID}, int64Args(revIDs)...)
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning revision id: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// CountRevisions returns the number of stored revisions.
func (s *revisionStore) CountRevisions(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM revisions")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting revisions: %w", err)
	}
	return count, nil
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

// UpsertFile stores or updates a file record.
func (s *fileStore) UpsertFile(ctx context.Context, file *domain.WikiFile) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO files (name, sha1, url, size, uploaded_at, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			sha1 = excluded.sha1,
			url = excluded.url,
			size = excluded.size,
			uploaded_at = excluded.uploaded_at,
			downloaded_at = excluded.downloaded_at
	`, file.Name, file.SHA1, file.URL, file.Size,
		nullTime(file.UploadedAt), nullTime(file.DownloadedAt))

	if err != nil {
		return fmt.Errorf("upserting file: %w", err)
	}
	return nil
}

// StoredChecksums returns a map of file name to stored SHA1.
func (s *fileStore) StoredChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT name, sha1 FROM files")
	if err != nil {
		return nil, fmt.Errorf("querying file checksums: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]string)
	for rows.Next() {
		var name, sha1 string
		if err := rows.Scan(&name, &sha1); err != nil {
			return nil, fmt.Errorf("scanning file checksum: %w", err)
		}
		sums[name] = sha1
	}
	return sums, rows.Err()
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Begin opens a run with status running.
func (s *runStore) Begin(ctx context.Context, kind domain.RunKind) (*domain.RunRecord, error) {
	run := domain.RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartTime: time.Now().UTC(),
		Status:    domain.RunRunning,
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, status, start_time) VALUES (?, ?, ?, ?)
	`, run.ID, string(run.Kind), string(run.Status), run.StartTime)
	if err != nil {
		return nil, fmt.Errorf("beginning run: %w", err)
	}
	return &run, nil
}

// Complete marks a run completed and stores its stats.
func (s *runStore) Complete(ctx context.Context, runID string, stats domain.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, end_time = ?, stats = ? WHERE id = ?
	`, string(domain.RunCompleted), time.Now().UTC(), string(statsJSON), runID)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// Fail marks a run failed and stores the error text.
func (s *runStore) Fail(ctx context.Context, runID string, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, end_time = ?, error_message = ? WHERE id = ?
	`, string(domain.RunFailed), time.Now().UTC(), message, runID)
	if err != nil {
		return fmt.Errorf("failing run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// LastSuccessfulWatermark returns the end time of the most recent completed
// run. Failed and running runs are invisible to this query.
func (s *runStore) LastSuccessfulWatermark(ctx context.Context) (time.Time, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT end_time FROM runs
		WHERE status = ? AND end_time IS NOT NULL
		ORDER BY end_time DESC LIMIT 1
	`, string(domain.RunCompleted))

	var watermark time.Time
	if err := row.Scan(&watermark); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("scanning watermark: %w", err)
	}
	return watermark, nil
}

// List returns the most recent runs, newest first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	query := `
		SELECT id, kind, status, start_time, end_time, stats, error_message
		FROM runs ORDER BY start_time DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var run domain.RunRecord
		var kind, status, statsJSON string
		var endTime sql.NullTime
		if err := rows.Scan(&run.ID, &kind, &status, &run.StartTime, &endTime,
			&statsJSON, &run.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Kind = domain.RunKind(kind)
		run.Status = domain.RunStatus(status)
		if endTime.Valid {
			run.EndTime = endTime.Time
		}
		if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
			return nil, fmt.Errorf("unmarshaling stats: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
