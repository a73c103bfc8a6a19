// Package chunkstore persists embedded text chunks and answers
// nearest-neighbour queries over them. Two drivers are provided:
// a pgvector-backed Postgres store and a Qdrant store.
package chunkstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mecanice/partsense/internal/domain"
)

// PGStore stores chunks in the rag_chunks table using pgvector.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// formatVector renders an embedding in the pgvector text format.
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(embedding))
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Insert writes a chunk together with its embedding and returns the row id.
func (s *PGStore) Insert(
	ctx context.Context,
	sourceID, sourceType, chunkText string,
	embedding []float32,
	metadata map[string]any,
) (string, error) {
	const query = `
		INSERT INTO rag_chunks (source_id, source_type, chunk_text, embedding, metadata)
		VALUES ($1, $2, $3, $4::vector, $5)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		sourceID, sourceType, chunkText, formatVector(embedding), metadata,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert chunk: %v: %w", err, domain.ErrVectorStoreError)
	}

	return fmt.Sprintf("%d", id), nil
}

// Search returns up to topK chunks ordered by ascending cosine distance to
// the query embedding. Rows without an embedding are excluded. An empty
// sourceType matches all source types.
func (s *PGStore) Search(
	ctx context.Context,
	embedding []float32,
	topK int,
	sourceType string,
) ([]domain.StoredChunk, error) {
	vectorStr := formatVector(embedding)

	var typeFilter string
	args := []any{vectorStr}
	if sourceType != "" {
		args = append(args, sourceType)
		typeFilter = "AND source_type = $2"
	}
	args = append(args, topK)

	query := fmt.Sprintf(`
		SELECT
			source_id,
			source_type,
			chunk_text,
			metadata,
			embedding <=> $1::vector AS distance
		FROM rag_chunks
		WHERE
			embedding IS NOT NULL
			%s
		ORDER BY
			embedding <=> $1::vector
		LIMIT $%d`, typeFilter, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %v: %w", err, domain.ErrVectorStoreError)
	}
	defer rows.Close()

	var chunks []domain.StoredChunk
	for rows.Next() {
		var chunk domain.StoredChunk
		err := rows.Scan(
			&chunk.SourceID,
			&chunk.SourceType,
			&chunk.ChunkText,
			&chunk.Metadata,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %v: %w", err, domain.ErrVectorStoreError)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %v: %w", err, domain.ErrVectorStoreError)
	}

	return chunks, nil
}

// Ping verifies the database connection.
func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping chunk store: %v: %w", err, domain.ErrVectorStoreError)
	}
	return nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}
