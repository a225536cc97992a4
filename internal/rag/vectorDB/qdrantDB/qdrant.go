package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/domain/commonModels"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger = logger_i.NewLogger("Qdrant")

// payload keys
const (
	keyVisible    = "visible"
	keyDocumentId = "document_id"
	keyChunkIndex = "chunk_index"
	keyContent    = "content"
	keySource     = "source"
	keyFilename   = "filename"
	keyPage       = "page"
)

type Options struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// ClientHolder implements vectorDB.Index on Qdrant. Staged points carry visible=false
// and every search filters on visible=true.
type ClientHolder struct {
	QObj *qdrant.Client

	specsLock sync.RWMutex
	specs     map[string]commonModels.CollectionSpec
}

func NewQdrantIndex(opts Options) (*ClientHolder, error) {
	if opts.Host == "" {
		opts.Host = config.QdrantHost
	}
	if opts.Port == 0 {
		opts.Port = config.QdrantGrpcPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     opts.Host,
		Port:     opts.Port,
		APIKey:   opts.APIKey,
		UseTLS:   opts.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, fmt.Errorf("connecting to qdrant %s:%d: %w", opts.Host, opts.Port, err)
	}
	logger.Info("Qdrant client created", "host", opts.Host, "port", opts.Port)
	return &ClientHolder{QObj: client, specs: make(map[string]commonModels.CollectionSpec)}, nil
}

func (db *ClientHolder) Close() error {
	logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

func toDistance(metric commonModels.DistanceMetric) qdrant.Distance {
	if metric == commonModels.Euclidean {
		return qdrant.Distance_Euclid
	}
	return qdrant.Distance_Cosine
}

func fromDistance(d qdrant.Distance) commonModels.DistanceMetric {
	if d == qdrant.Distance_Euclid {
		return commonModels.Euclidean
	}
	return commonModels.Cosine
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, spec commonModels.CollectionSpec) error {
	if spec.Name == "" || spec.Dimension <= 0 || !spec.Metric.Valid() {
		return ragErrors.InvalidArgument("bad collection spec %+v", spec)
	}

	existing, err := db.describe(ctx, spec.Name)
	if err == nil {
		return compareSpec(existing, spec)
	}
	if !errors.Is(err, ragErrors.ErrNotFound) {
		return err
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: toDistance(spec.Metric),
		}),
	})
	if err != nil {
		// a concurrent ingestion may have created it first
		if existing, derr := db.describe(ctx, spec.Name); derr == nil {
			return compareSpec(existing, spec)
		}
		return fmt.Errorf("creating collection %q: %w", spec.Name, err)
	}

	_, err = db.QObj.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: spec.Name,
		FieldName:      keyVisible,
		FieldType:      qdrant.FieldType_FieldTypeBool.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		logger.Warn("could not index the visible flag", "collection", spec.Name, "error", err)
	}

	logger.Info("Created collection", "collection", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
	db.remember(spec)
	return nil
}

// describe returns the collection's spec, from cache or from Qdrant.
func (db *ClientHolder) describe(ctx context.Context, name string) (commonModels.CollectionSpec, error) {
	db.specsLock.RLock()
	spec, ok := db.specs[name]
	db.specsLock.RUnlock()
	if ok {
		return spec, nil
	}

	exists, err := db.QObj.CollectionExists(ctx, name)
	if err != nil {
		return spec, fmt.Errorf("checking collection %q: %w", name, err)
	}
	if !exists {
		return spec, ragErrors.NotFound("collection", name)
	}
	info, err := db.QObj.GetCollectionInfo(ctx, name)
	if err != nil {
		return spec, fmt.Errorf("reading collection %q: %w", name, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return spec, fmt.Errorf("collection %q uses named vectors, which are not supported", name)
	}
	spec = commonModels.CollectionSpec{Name: name, Dimension: int(params.GetSize()), Metric: fromDistance(params.GetDistance())}
	db.remember(spec)
	return spec, nil
}

func (db *ClientHolder) remember(spec commonModels.CollectionSpec) {
	db.specsLock.Lock()
	db.specs[spec.Name] = spec
	db.specsLock.Unlock()
}

func compareSpec(have, want commonModels.CollectionSpec) error {
	if have.Dimension != want.Dimension {
		return fmt.Errorf("%w: collection %q stores %d dimensions, got %d", ragErrors.ErrDimensionMismatch, have.Name, have.Dimension, want.Dimension)
	}
	if have.Metric != want.Metric {
		return fmt.Errorf("%w: collection %q uses %s, got %s", ragErrors.ErrMetricMismatch, have.Name, have.Metric, want.Metric)
	}
	return nil
}

func (db *ClientHolder) Stage(ctx context.Context, collection string, entries []commonModels.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}
	spec, err := db.describe(ctx, collection)
	if err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		if len(e.Vector) != spec.Dimension {
			return fmt.Errorf("%w: entry %s has %d dimensions, collection %q stores %d", ragErrors.ErrDimensionMismatch, e.Id, len(e.Vector), collection, spec.Dimension)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(e.Id),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(toPayload(e)),
		}
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func toPayload(e commonModels.VectorEntry) map[string]any {
	payload := map[string]any{
		keyVisible:    false,
		keyDocumentId: e.DocumentId,
		keyChunkIndex: e.ChunkIndex,
		keyContent:    e.Content,
		keySource:     e.Metadata.Source,
		keyFilename:   e.Metadata.Filename,
	}
	if e.Metadata.Page != nil {
		payload[keyPage] = *e.Metadata.Page
	}
	return payload
}

func pointIds(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(id)
	}
	return out
}

func (db *ClientHolder) Publish(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.QObj.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Payload:        qdrant.NewValueMap(map[string]any{keyVisible: true}),
		PointsSelector: qdrant.NewPointsSelector(pointIds(ids)...),
		Wait:           qdrant.PtrOf(true),
	})
	return classifyPointsError("publish", collection, err)
}

func (db *ClientHolder) Discard(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(pointIds(ids)...),
		Wait:           qdrant.PtrOf(true),
	})
	return classifyPointsError("delete", collection, err)
}

// classifyPointsError maps the grpc status of a points call onto ragErrors.
func classifyPointsError(op string, collection string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("qdrant %s in %q failed: %w", op, collection, err)
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("qdrant %s in %q: %w: %w", op, collection, ragErrors.ErrNotFound, err)
	case codes.InvalidArgument:
		return fmt.Errorf("qdrant %s in %q: %w: %w", op, collection, ragErrors.ErrInvalidArgument, err)
	default:
		return fmt.Errorf("qdrant %s in %q failed: %w", op, collection, err)
	}
}

func (db *ClientHolder) SimilaritySearch(ctx context.Context, collection string, query []float32, k int, metric commonModels.DistanceMetric) ([]commonModels.ScoredEntry, error) {
	if k < 1 {
		return nil, ragErrors.InvalidArgument("k must be positive, got %d", k)
	}
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	spec, err := db.describe(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := compareSpec(spec, commonModels.CollectionSpec{Name: collection, Dimension: len(query), Metric: metric}); err != nil {
		return nil, err
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatchBool(keyVisible, true)}},
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	hits := make([]commonModels.ScoredEntry, 0, len(result))
	for _, hit := range result {
		hits = append(hits, commonModels.ScoredEntry{Entry: fromPayload(hit.GetId().GetUuid(), hit.GetPayload()), Score: float64(hit.GetScore())})
	}
	loggr.Debug("Found matches", "count", len(hits))
	return hits, nil
}

func fromPayload(id string, payload map[string]*qdrant.Value) commonModels.VectorEntry {
	entry := commonModels.VectorEntry{
		Id:         id,
		DocumentId: payload[keyDocumentId].GetStringValue(),
		ChunkIndex: int(payload[keyChunkIndex].GetIntegerValue()),
		Content:    payload[keyContent].GetStringValue(),
		Metadata: commonModels.SegmentMetadata{
			Source:   payload[keySource].GetStringValue(),
			Filename: payload[keyFilename].GetStringValue(),
		},
	}
	if page, ok := payload[keyPage]; ok {
		entry.Metadata.Page = commonModels.IntPtr(int(page.GetIntegerValue()))
	}
	return entry
}
