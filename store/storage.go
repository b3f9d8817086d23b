package store

import (
	"context"
	"fmt"
	"log/slog"

	"docchat/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// VectorIndex is the similarity store the pipeline writes segments to and
// reads them back from. Every read and write is scoped by session id.
type VectorIndex interface {
	Upsert(context.Context, types.Segment) error
	Search(ctx context.Context, vector []float32, topK int, sessionID string) ([]types.Match, error)
}

type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, dimension int) (*PostgresStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:      pool,
		dimension: dimension,
		logger:    slog.Default().With("component", "store"),
	}, nil
}

func (p *PostgresStore) Upsert(ctx context.Context, seg types.Segment) error {
	query := `
    INSERT INTO segments (id, session_id, position, content, embedding)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (id) DO UPDATE SET
        session_id = EXCLUDED.session_id,
        position = EXCLUDED.position,
        content = EXCLUDED.content,
        embedding = EXCLUDED.embedding
    `
	_, err := p.pool.Exec(ctx, query,
		seg.ID, seg.SessionID, seg.Position, seg.Content, pgvector.NewVector(seg.Embedding),
	)
	return err
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, topK int, sessionID string) ([]types.Match, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("missing session id")
	}
	if topK <= 0 {
		topK = 5
	}

	query := `
		SELECT id, session_id, position, content,
		       1-(embedding <=> $1) AS score
		FROM segments
		WHERE session_id = $2 AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), sessionID, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []types.Match
	for rows.Next() {
		var m types.Match
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Position, &m.Content, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.logger.Debug("similarity search done", "session", sessionID, "matches", len(matches))
	return matches, nil
}

func (p *PostgresStore) createSegmentTables(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS segments (
        id TEXT PRIMARY KEY,
        session_id TEXT NOT NULL,
        position INT NOT NULL,
        content TEXT NOT NULL,
        embedding vector(%d)
    );

	CREATE INDEX IF NOT EXISTS idx_segments_embedding ON segments USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_segments_session_id ON segments(session_id);
    `, p.dimension)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createSegmentTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
	return nil
}
