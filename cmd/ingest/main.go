// Command ingest loads a plain-text or CSV file into the vector store:
// it chunks the content, embeds each chunk and inserts it with metadata.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mecanice/partsense/internal/config"
	dbPostgres "github.com/mecanice/partsense/internal/db/postgres"
	"github.com/mecanice/partsense/internal/domain"
	logpkg "github.com/mecanice/partsense/internal/logger"
	"github.com/mecanice/partsense/internal/repository/chunkstore"
	openaiTransport "github.com/mecanice/partsense/internal/transport/openai"
)

// inserter is the subset of the chunk store the ingester needs.
type inserter interface {
	Insert(ctx context.Context, sourceID, sourceType, chunkText string, embedding []float32, metadata map[string]any) (string, error)
}

func main() {
	var (
		file       = flag.String("file", "", "path to a .txt or .csv file (required)")
		sourceID   = flag.String("source-id", "", "logical source id (default: file name)")
		sourceType = flag.String("source-type", "catalog", "catalog|manual|unknown")
		chunkSize  = flag.Int("chunk-size", 900, "chunk window in characters")
		overlap    = flag.Int("overlap", 120, "overlap between consecutive chunks")
		limit      = flag.Int("limit", 0, "limit CSV rows (0 = all)")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -file <path> [-source-id id] [-source-type type] [-chunk-size n] [-overlap n] [-limit n]")
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if *sourceID == "" {
		*sourceID = filepath.Base(*file)
	}

	ctx := context.Background()

	pool, err := dbPostgres.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := dbPostgres.RunMigrations(cfg.Database.DSN, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	store := chunkstore.NewPGStore(pool)

	var inserted int
	if strings.EqualFold(filepath.Ext(*file), ".csv") {
		inserted, err = ingestCSV(ctx, store, embedder, *file, *sourceID, *sourceType, *chunkSize, *overlap, *limit)
	} else {
		inserted, err = ingestText(ctx, store, embedder, *file, *sourceID, *sourceType, *chunkSize, *overlap)
	}
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion finished",
		zap.String("file", *file),
		zap.String("source_id", *sourceID),
		zap.Int("chunks", inserted),
	)
}

func newEmbedder(cfg config.Config, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai_compatible":
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:   cfg.Embedding.APIKey,
			BaseURL:  cfg.Embedding.BaseURL,
			Model:    cfg.Embedding.Model,
			Timeout:  time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		}), nil
	case "deterministic":
		return domain.NewHashEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: %w", cfg.Embedding.Provider, domain.ErrInvalidConfig)
	}
}

// ingestText chunks a whole text file and inserts each chunk.
func ingestText(
	ctx context.Context,
	store inserter,
	embedder domain.Embedder,
	path, sourceID, sourceType string,
	chunkSize, overlap int,
) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	inserted := 0
	for idx, ch := range domain.ChunkText(string(data), chunkSize, overlap) {
		result, err := embedder.Embed(ctx, ch.Text)
		if err != nil {
			return inserted, fmt.Errorf("embed chunk %d: %w", idx, err)
		}

		_, err = store.Insert(ctx, sourceID, sourceType, ch.Text, result.Embedding, map[string]any{
			"file":        path,
			"chunk_index": idx,
			"start":       ch.Start,
			"end":         ch.End,
		})
		if err != nil {
			return inserted, fmt.Errorf("insert chunk %d: %w", idx, err)
		}
		inserted++
	}

	return inserted, nil
}

// ingestCSV renders each row as "col: value | ..." and inserts its chunks.
func ingestCSV(
	ctx context.Context,
	store inserter,
	embedder domain.Embedder,
	path, sourceID, sourceType string,
	chunkSize, overlap, limit int,
) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}

	inserted := 0
	for rowIdx := 0; ; rowIdx++ {
		if limit > 0 && rowIdx >= limit {
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, fmt.Errorf("read csv row %d: %w", rowIdx, err)
		}

		text := rowToText(header, record)
		if text == "" {
			continue
		}

		for subIdx, ch := range domain.ChunkText(text, chunkSize, overlap) {
			result, err := embedder.Embed(ctx, ch.Text)
			if err != nil {
				return inserted, fmt.Errorf("embed row %d chunk %d: %w", rowIdx, subIdx, err)
			}

			_, err = store.Insert(ctx, sourceID, sourceType, ch.Text, result.Embedding, map[string]any{
				"file":      path,
				"row_index": rowIdx,
				"sub_chunk": subIdx,
			})
			if err != nil {
				return inserted, fmt.Errorf("insert row %d chunk %d: %w", rowIdx, subIdx, err)
			}
			inserted++
		}
	}

	return inserted, nil
}

// rowToText renders a CSV row as "col: value | col: value", skipping blanks.
func rowToText(header, record []string) string {
	parts := make([]string, 0, len(record))
	for i, v := range record {
		v = strings.TrimSpace(v)
		if v == "" || i >= len(header) {
			continue
		}
		parts = append(parts, header[i]+": "+v)
	}
	return strings.Join(parts, " | ")
}
