package memory

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// LocalFile is the SQLite database name inside the data directory.
const LocalFile = "memory.db"

// LocalBackend stores learnings and their embeddings in SQLite and searches
// them with a linear cosine scan. Suited to the small, per-user stores the
// composer and generated agents keep.
type LocalBackend struct {
	db    *sql.DB
	embed Embedder
}

// NewLocalBackend opens (creating if needed) the SQLite store in dataDir.
func NewLocalBackend(dataDir string, embed Embedder) (*LocalBackend, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dataDir, LocalFile))
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	b := &LocalBackend{db: db, embed: embed}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}
	return b, nil
}

func (b *LocalBackend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			metadata   TEXT NOT NULL DEFAULT '{}',
			embedding  TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
	`)
	return err
}

// Close closes the database.
func (b *LocalBackend) Close() error {
	return b.db.Close()
}

// Add embeds content and stores it.
func (b *LocalBackend) Add(ctx context.Context, content string, metadata map[string]any) (string, error) {
	vec, err := b.embed.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("memory: embed: %w", err)
	}
	embJSON, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("memory: encode embedding: %w", err)
	}
	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return "", err
	}

	id := newEntryID()
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO entries (id, content, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, content, metaJSON, string(embJSON), timeNow().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("memory: insert entry: %w", err)
	}
	return id, nil
}

// Search scores every entry against query and returns the best limit hits.
func (b *LocalBackend) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return []Result{}, nil
	}
	qvec, err := b.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, `SELECT id, content, metadata, embedding FROM entries ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("memory: scan entries: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r                 Result
			metaJSON, embJSON string
			vec               []float32
		)
		if err := rows.Scan(&r.ID, &r.Content, &metaJSON, &embJSON); err != nil {
			return nil, fmt.Errorf("memory: read entry: %w", err)
		}
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			return nil, fmt.Errorf("memory: decode embedding %s: %w", r.ID, err)
		}
		if r.Metadata, err = unmarshalMetadata(metaJSON); err != nil {
			return nil, err
		}
		r.Score = Cosine(qvec, vec)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: scan entries: %w", err)
	}

	slices.SortStableFunc(results, func(a, b Result) int { return cmp.Compare(b.Score, a.Score) })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete removes an entry by id.
func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("memory: delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrEntryNotFound)
	}
	return nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("memory: encode metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	m := map[string]any{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("memory: decode metadata: %w", err)
	}
	return m, nil
}
