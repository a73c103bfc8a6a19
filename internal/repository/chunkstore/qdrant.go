package chunkstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/mecanice/partsense/internal/domain"
)

// QdrantStore stores chunks as points in a cosine-distance Qdrant collection.
// Chunk fields travel in the point payload.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantStore(client *qdrant.Client, collection string) *QdrantStore {
	return &QdrantStore{client: client, collection: collection}
}

// EnsureCollection creates the collection if it does not exist yet.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection existence: %v: %w", err, domain.ErrVectorStoreError)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %v: %w", err, domain.ErrVectorStoreError)
	}

	return nil
}

// Insert upserts a single chunk point and returns its generated id.
func (s *QdrantStore) Insert(
	ctx context.Context,
	sourceID, sourceType, chunkText string,
	embedding []float32,
	metadata map[string]any,
) (string, error) {
	id := uuid.NewString()

	payload := map[string]any{
		"source_id":   sourceID,
		"source_type": sourceType,
		"chunk_text":  chunkText,
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("upsert chunk: %v: %w", err, domain.ErrVectorStoreError)
	}

	return id, nil
}

// Search queries the collection for the topK nearest points. Qdrant reports
// cosine similarity, so the distance is derived as 1 - score to keep the
// ascending-distance ordering contract.
func (s *QdrantStore) Search(
	ctx context.Context,
	embedding []float32,
	topK int,
	sourceType string,
) ([]domain.StoredChunk, error) {
	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if sourceType != "" {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_type", sourceType),
			},
		}
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %v: %w", err, domain.ErrVectorStoreError)
	}

	chunks := make([]domain.StoredChunk, 0, len(points))
	for _, point := range points {
		chunks = append(chunks, scoredPointToChunk(point))
	}

	return chunks, nil
}

func scoredPointToChunk(point *qdrant.ScoredPoint) domain.StoredChunk {
	chunk := domain.StoredChunk{
		Distance: 1 - float64(point.GetScore()),
	}

	payload := point.GetPayload()
	if payload == nil {
		return chunk
	}

	chunk.SourceID = payload["source_id"].GetStringValue()
	chunk.SourceType = payload["source_type"].GetStringValue()
	chunk.ChunkText = payload["chunk_text"].GetStringValue()

	if meta := payload["metadata"].GetStructValue(); meta != nil {
		chunk.Metadata = make(map[string]any, len(meta.GetFields()))
		for key, value := range meta.GetFields() {
			chunk.Metadata[key] = payloadValue(value)
		}
	}

	return chunk
}

// payloadValue converts a qdrant payload value into a plain Go value.
func payloadValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, payloadValue(item))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, item := range fields {
			out[k] = payloadValue(item)
		}
		return out
	default:
		return nil
	}
}

// Ping checks that the Qdrant server is reachable.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("ping chunk store: %v: %w", err, domain.ErrVectorStoreError)
	}
	return nil
}

// Close shuts down the underlying grpc connection.
func (s *QdrantStore) Close() {
	_ = s.client.Close()
}
