package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const vectorSchemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS hive_memory (
    id         TEXT PRIMARY KEY,
    content    TEXT NOT NULL,
    metadata   JSONB NOT NULL DEFAULT '{}',
    embedding  vector NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// VectorBackend delegates similarity search to PostgreSQL + pgvector.
// Scores are 1 - cosine distance.
type VectorBackend struct {
	db    *pgxpool.Pool
	embed Embedder
}

// NewVectorBackend connects to url and creates the schema if needed.
func NewVectorBackend(ctx context.Context, url string, embed Embedder) (*VectorBackend, error) {
	if url == "" {
		return nil, fmt.Errorf("memory: vector backend requires a database url")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("memory: connect: %w", err)
	}
	b := &VectorBackend{db: pool, embed: embed}
	if err := b.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("memory: create schema: %w", err)
	}
	return b, nil
}

// CreateSchema creates the pgvector extension and the memory table.
func (b *VectorBackend) CreateSchema(ctx context.Context) error {
	_, err := b.db.Exec(ctx, vectorSchemaSQL)
	return err
}

// Close closes the connection pool.
func (b *VectorBackend) Close() error {
	b.db.Close()
	return nil
}

// Add embeds content and inserts it.
func (b *VectorBackend) Add(ctx context.Context, content string, metadata map[string]any) (string, error) {
	vec, err := b.embed.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("memory: embed: %w", err)
	}
	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return "", err
	}
	id := newEntryID()
	if _, err := b.db.Exec(ctx,
		`INSERT INTO hive_memory (id, content, metadata, embedding) VALUES ($1, $2, $3::jsonb, $4::vector)`,
		id, content, metaJSON, vectorLiteral(vec),
	); err != nil {
		return "", fmt.Errorf("memory: insert entry: %w", err)
	}
	return id, nil
}

// Search returns the limit entries nearest to query by cosine distance.
func (b *VectorBackend) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return []Result{}, nil
	}
	qvec, err := b.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	rows, err := b.db.Query(ctx, `
		SELECT id, content, metadata::text, 1 - (embedding <=> $1::vector) AS score
		  FROM hive_memory
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`,
		vectorLiteral(qvec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r        Result
			metaJSON string
		)
		if err := rows.Scan(&r.ID, &r.Content, &metaJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("memory: read entry: %w", err)
		}
		if r.Metadata, err = unmarshalMetadata(metaJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	return results, nil
}

// Delete removes an entry by id.
func (b *VectorBackend) Delete(ctx context.Context, id string) error {
	tag, err := b.db.Exec(ctx, `DELETE FROM hive_memory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("memory: delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, ErrEntryNotFound)
	}
	return nil
}

// vectorLiteral formats v in pgvector's text form: [0.1,0.2,0.3].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
