package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// originalIDField is the payload key holding the caller's string ID, since
// Qdrant point IDs must be a UUID or a positive integer.
const originalIDField = "_original_id"

// QdrantStore implements Store against a remote Qdrant collection over
// gRPC. It is the pluggable alternative to HNSWStore, selected by
// configuration when a deployment wants an out-of-process vector backend
// instead of the default in-memory graph. Named this way because the prior
// system's vector store was literally called qdrant_document_repo.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimensions int
	metric     Metric
}

// NewQdrantStore connects to Qdrant at dsn (e.g. "http://localhost:6334") and
// ensures the named collection exists with the configured vector size and
// distance metric.
func NewQdrantStore(ctx context.Context, dsn, collection string, cfg Config) (*QdrantStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("vectorstore: qdrant collection name is required")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := parsed.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: invalid qdrant port: %w", err)
	}

	qcfg := &qdrant.Config{Host: host, Port: port}
	if parsed.Scheme == "https" {
		qcfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		qcfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: create qdrant client: %w", err)
	}

	qs := &QdrantStore{
		client:     client,
		collection: collection,
		dimensions: cfg.Dimensions,
		metric:     cfg.Metric,
	}
	if err := qs.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return qs, nil
}

func (q *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("vectorstore: check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	if q.dimensions <= 0 {
		return fmt.Errorf("vectorstore: qdrant collection requires dimensions > 0")
	}
	distance := qdrant.Distance_Cosine
	if q.metric == MetricEuclidean {
		distance = qdrant.Distance_Euclid
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimensions),
			Distance: distance,
		}),
	})
}

func pointIDFor(id string) (*qdrant.PointId, string) {
	if _, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(id), ""
	}
	generated := uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	return qdrant.NewIDUUID(generated), generated
}

func (q *QdrantStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vectorstore: ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	points := make([]*qdrant.PointStruct, 0, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != q.dimensions {
			return ErrDimensionMismatch{Expected: q.dimensions, Got: len(vectors[i])}
		}
		pid, generated := pointIDFor(id)
		payload := map[string]any{}
		if generated != "" {
			payload[originalIDField] = id
		}
		points = append(points, &qdrant.PointStruct{
			Id:      pid,
			Vectors: qdrant.NewVectorsDense(vectors[i]),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	return err
}

func (q *QdrantStore) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != q.dimensions {
		return nil, ErrDimensionMismatch{Expected: q.dimensions, Got: len(query)}
	}
	if k <= 0 {
		k = 10
	}
	limit := uint64(k)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(query),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: qdrant query: %w", err)
	}
	results := make([]*VectorResult, 0, len(hits))
	for _, hit := range hits {
		id := hit.Id.GetUuid()
		if hit.Payload != nil {
			if v, ok := hit.Payload[originalIDField]; ok {
				id = v.GetStringValue()
			}
		}
		results = append(results, &VectorResult{
			ID:       id,
			Distance: 1 - hit.Score,
			Score:    hit.Score,
		})
	}
	return results, nil
}

func (q *QdrantStore) Delete(ctx context.Context, ids []string) error {
	pids := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pid, _ := pointIDFor(id)
		pids = append(pids, pid)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(pids...),
	})
	return err
}

// AllIDs is not efficient against Qdrant's API (it would require scrolling
// the full collection) and is intended only for small test fixtures and
// the orphan reaper's periodic batched scan, not hot-path retrieval.
func (q *QdrantStore) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var offset *qdrant.PointId
	for {
		resp, err := q.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.collection,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("vectorstore: qdrant scroll: %w", err)
		}
		points := resp.GetResult()
		if len(points) == 0 {
			break
		}
		for _, p := range points {
			id := p.Id.GetUuid()
			if p.Payload != nil {
				if v, ok := p.Payload[originalIDField]; ok {
					id = v.GetStringValue()
				}
			}
			ids = append(ids, id)
			offset = p.Id
		}
	}
	return ids, nil
}

func (q *QdrantStore) Contains(ctx context.Context, id string) (bool, error) {
	pid, _ := pointIDFor(id)
	resp, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.collection,
		Ids:            []*qdrant.PointId{pid},
	})
	if err != nil {
		return false, fmt.Errorf("vectorstore: qdrant get: %w", err)
	}
	return len(resp) > 0, nil
}

func (q *QdrantStore) Count(ctx context.Context) (int, error) {
	resp, err := q.client.Count(ctx, &qdrant.CountPoints{CollectionName: q.collection})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: qdrant count: %w", err)
	}
	return int(resp), nil
}

func (q *QdrantStore) Close() error {
	return q.client.Close()
}
