package databases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/ipeadata-rag/serieshub/pkg/config"
)

// docIDNamespace is the UUIDv5 namespace for deterministic point ids.
// Qdrant point ids must be UUIDs or integers, so natural document ids
// like "PRECOS12_IPCA12:42" are hashed into this namespace and kept in
// the payload under "doc_id". Hashing is deterministic, which keeps
// re-indexing an overwrite rather than a duplicate.
var docIDNamespace = uuid.MustParse("6f1c24b8-9a3e-5f2d-8d11-3f64cdd0a001")

func NewQdrantDatabaseProviderFromConfig(cfg *config.VectorStoreConfig) (DatabaseProvider, error) {
	useTLS := false
	if cfg.EnableTLS != nil {
		useTLS = *cfg.EnableTLS
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &qdrantDatabaseProvider{
		client: client,
		config: cfg,
	}, nil
}

type qdrantDatabaseProvider struct {
	client *qdrant.Client
	config *config.VectorStoreConfig
}

func (db *qdrantDatabaseProvider) EnsureCollection(ctx context.Context, collection string, vectorSize uint64) error {
	exists, err := db.client.CollectionExists(ctx, collection)
	if err != nil {
		if isStoreUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrIndexNotReady, err)
		}
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if exists {
		return nil
	}

	err = db.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// Another process may have created it between the check and here.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		if isStoreUnavailable(err) {
			return fmt.Errorf("%w: %v", ErrIndexNotReady, err)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func (db *qdrantDatabaseProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]interface{}) error {
	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	for key, value := range metadata {
		val, err := qdrant.NewValue(value)
		if err != nil {
			return fmt.Errorf("failed to convert metadata value for key %s: %w", key, err)
		}
		payload[key] = val
	}
	docID, _ := qdrant.NewValue(id)
	payload["doc_id"] = docID

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.NewSHA1(docIDNamespace, []byte(id)).String()),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}

	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

func (db *qdrantDatabaseProvider) Search(ctx context.Context, collection string, queryVector []float32, topK int) ([]SearchResult, error) {
	searchRequest := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	}

	pointsClient := db.client.GetPointsClient()
	searchResult, err := pointsClient.Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	return convertQdrantResults(searchResult.Result), nil
}

func convertQdrantResults(points []*qdrant.ScoredPoint) []SearchResult {
	var results []SearchResult
	for _, point := range points {
		metadata := make(map[string]interface{})
		if point.Payload != nil {
			for key, value := range point.Payload {
				switch v := value.Kind.(type) {
				case *qdrant.Value_StringValue:
					metadata[key] = v.StringValue
				case *qdrant.Value_IntegerValue:
					metadata[key] = v.IntegerValue
				case *qdrant.Value_DoubleValue:
					metadata[key] = v.DoubleValue
				case *qdrant.Value_BoolValue:
					metadata[key] = v.BoolValue
				default:
					metadata[key] = value
				}
			}
		}

		id := pointIDString(point.Id)
		if docID, ok := metadata["doc_id"].(string); ok {
			id = docID
			delete(metadata, "doc_id")
		}

		content := ""
		if contentValue, ok := metadata["text"].(string); ok {
			content = contentValue
		}

		results = append(results, SearchResult{
			ID:      id,
			Content: content,
			// Qdrant reports cosine similarity; convert to distance.
			Score:    1 - point.Score,
			Metadata: metadata,
		})
	}

	return results
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch idType := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return idType.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", idType.Num)
	}
	return ""
}

func (db *qdrantDatabaseProvider) DistinctValues(ctx context.Context, collection string, field string) ([]string, error) {
	pointsClient := db.client.GetPointsClient()

	seen := make(map[string]bool)
	var values []string
	var offset *qdrant.PointId

	for {
		limit := uint32(256)
		resp, err := pointsClient.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(field),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll collection: %w", err)
		}

		for _, point := range resp.Result {
			if point.Payload == nil {
				continue
			}
			if val, ok := point.Payload[field]; ok {
				if s := val.GetStringValue(); s != "" && !seen[s] {
					seen[s] = true
					values = append(values, s)
				}
			}
		}

		if resp.NextPageOffset == nil || len(resp.Result) == 0 {
			break
		}
		offset = resp.NextPageOffset
	}

	return values, nil
}

func (db *qdrantDatabaseProvider) Delete(ctx context.Context, collection string, id string) error {
	deletePoints := &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{
						qdrant.NewID(uuid.NewSHA1(docIDNamespace, []byte(id)).String()),
					},
				},
			},
		},
	}
	_, err := db.client.Delete(ctx, deletePoints)
	if err != nil {
		return fmt.Errorf("failed to delete point %s from collection %s: %w", id, collection, err)
	}
	return nil
}

func (db *qdrantDatabaseProvider) DeleteCollection(ctx context.Context, collection string) error {
	if err := db.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (db *qdrantDatabaseProvider) Close() error {
	return db.client.Close()
}

// isStoreUnavailable reports whether the error looks like the store is
// still starting up rather than structurally broken.
func isStoreUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"unavailable",
		"deadline exceeded",
		"still loading",
		"no connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
