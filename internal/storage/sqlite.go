// Package storage persists interactions, feedback, and the perspective
// consistency cache in SQLite.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for interactions, feedback,
// and perspective cache rows.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "prism.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Interactions ---

func (s *Store) SaveInteraction(i Interaction) error {
	surfaced := 0
	if i.SurfacedPerspectives {
		surfaced = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO interactions (id, user_id, question, topic_category, controversy_json,
			selected_communities_json, perspectives_json, synthesis, standard_response,
			surfaced_perspectives, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.Question, i.TopicCategory, i.ControversyJSON,
		i.SelectedJSON, i.PerspectivesJSON, i.Synthesis, i.StandardResponse,
		surfaced, i.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetInteraction(id string) (Interaction, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, question, topic_category, controversy_json,
			selected_communities_json, perspectives_json, synthesis, standard_response,
			surfaced_perspectives, created_at
		FROM interactions WHERE id = ?`, id)
	return scanInteraction(row)
}

// ListInteractions returns the most recent interactions, optionally
// filtered by user.
func (s *Store) ListInteractions(limit int, userID string) ([]Interaction, error) {
	query := `
		SELECT id, user_id, question, topic_category, controversy_json,
			selected_communities_json, perspectives_json, synthesis, standard_response,
			surfaced_perspectives, created_at
		FROM interactions`
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (Interaction, error) {
	var i Interaction
	var surfaced int
	var createdAt string
	err := row.Scan(&i.ID, &i.UserID, &i.Question, &i.TopicCategory, &i.ControversyJSON,
		&i.SelectedJSON, &i.PerspectivesJSON, &i.Synthesis, &i.StandardResponse,
		&surfaced, &createdAt)
	if err == sql.ErrNoRows {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, err
	}
	i.SurfacedPerspectives = surfaced != 0
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

// --- Feedback ---

func (s *Store) SaveFeedback(f Feedback) error {
	// Reject feedback for unknown interactions up front; the FK is not
	// enforced without PRAGMA foreign_keys.
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM interactions WHERE id = ?", f.InteractionID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err := s.db.Exec(`
		INSERT INTO feedback (interaction_id, user_community, accuracy_own_community,
			accuracy_other_communities, usefulness, prefer_multiple_perspectives,
			missing_perspectives, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.InteractionID, f.UserCommunity, f.AccuracyOwnCommunity,
		f.AccuracyOtherCommunities, f.Usefulness, f.PreferMultiple,
		f.MissingPerspectives, f.Comments, f.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListFeedback(interactionID string) ([]Feedback, error) {
	rows, err := s.db.Query(`
		SELECT id, interaction_id, user_community, accuracy_own_community,
			accuracy_other_communities, usefulness, prefer_multiple_perspectives,
			missing_perspectives, comments, created_at
		FROM feedback WHERE interaction_id = ? ORDER BY id ASC`, interactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Feedback
	for rows.Next() {
		var f Feedback
		var createdAt string
		if err := rows.Scan(&f.ID, &f.InteractionID, &f.UserCommunity, &f.AccuracyOwnCommunity,
			&f.AccuracyOtherCommunities, &f.Usefulness, &f.PreferMultiple,
			&f.MissingPerspectives, &f.Comments, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		f.CreatedAt = t
		results = append(results, f)
	}
	return results, rows.Err()
}

// --- Perspective cache rows ---

// UpsertCacheEntry inserts or replaces the row for e.Fingerprint in a single
// atomic statement. On conflict the text and timestamps are overwritten while
// hit_count is left untouched, so popularity survives content refreshes.
func (s *Store) UpsertCacheEntry(e CacheEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO perspective_cache
			(fingerprint, community, topic_category, query_normalized,
			 perspective_text, created_at, expires_at, hit_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(fingerprint) DO UPDATE SET
			perspective_text = excluded.perspective_text,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		e.Fingerprint, e.Community, e.TopicCategory, e.NormalizedQuery,
		e.Text, e.CreatedAt.UTC().Format(time.RFC3339), e.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetCacheEntry(fingerprint string) (CacheEntry, error) {
	var e CacheEntry
	var createdAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT fingerprint, community, topic_category, query_normalized,
			perspective_text, created_at, expires_at, hit_count
		FROM perspective_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&e.Fingerprint, &e.Community, &e.TopicCategory, &e.NormalizedQuery,
		&e.Text, &createdAt, &expiresAt, &e.HitCount)
	if err == sql.ErrNoRows {
		return CacheEntry{}, ErrNotFound
	}
	if err != nil {
		return CacheEntry{}, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return CacheEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return CacheEntry{}, fmt.Errorf("parsing expires_at: %w", err)
	}
	return e, nil
}

// IncrementCacheHit bumps hit_count for a fingerprint. Best-effort: lost
// increments under concurrent access are acceptable.
func (s *Store) IncrementCacheHit(fingerprint string) error {
	_, err := s.db.Exec(
		"UPDATE perspective_cache SET hit_count = hit_count + 1 WHERE fingerprint = ?",
		fingerprint)
	return err
}

// DeleteExpiredBefore removes cache rows whose expiry is before cutoff and
// returns the number removed.
func (s *Store) DeleteExpiredBefore(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(
		"DELETE FROM perspective_cache WHERE expires_at < ?",
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// GatherCacheStats aggregates cache diagnostics: entry count, total hits,
// and the ten communities with the most cached perspectives.
func (s *Store) GatherCacheStats() (CacheStats, error) {
	var stats CacheStats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM perspective_cache").Scan(&stats.TotalEntries); err != nil {
		return CacheStats{}, err
	}
	if err := s.db.QueryRow("SELECT COALESCE(SUM(hit_count), 0) FROM perspective_cache").Scan(&stats.TotalHits); err != nil {
		return CacheStats{}, err
	}

	rows, err := s.db.Query(`
		SELECT community, COUNT(*) AS count
		FROM perspective_cache
		GROUP BY community
		ORDER BY count DESC, community ASC
		LIMIT 10`)
	if err != nil {
		return CacheStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var cc CommunityCount
		if err := rows.Scan(&cc.Community, &cc.Count); err != nil {
			return CacheStats{}, err
		}
		stats.TopCommunities = append(stats.TopCommunities, cc)
	}
	return stats, rows.Err()
}
