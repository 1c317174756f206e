package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
	defaultTopK      = 8
	prefetchFactor   = 4
)

// pointQuerier is the subset of *qdrant.Client the backend uses.
type pointQuerier interface {
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantConfig holds configuration for the direct Qdrant backend.
type QdrantConfig struct {
	Name           string
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
	TopK           int
	MinScore       float32
}

// QdrantBackend searches a Qdrant collection whose points carry a deal_id
// payload. Vector search uses the dense named vector; hybrid search fuses
// dense and lexical sparse prefetches with RRF.
type QdrantBackend struct {
	name       string
	client     pointQuerier
	closer     func() error
	collection string
	embedder   Embedder
	topK       int
	minScore   float32
	logger     *zap.Logger
}

// NewQdrantBackend connects to Qdrant over gRPC.
func NewQdrantBackend(cfg QdrantConfig, embedder Embedder, logger *zap.Logger) (*QdrantBackend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                30 * time.Second,
				Timeout:             10 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	b := newQdrantBackend(cfg, client, embedder, logger)
	b.closer = client.Close
	return b, nil
}

func newQdrantBackend(cfg QdrantConfig, client pointQuerier, embedder Embedder, logger *zap.Logger) *QdrantBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "qdrant"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &QdrantBackend{
		name:       cfg.Name,
		client:     client,
		collection: cfg.CollectionName,
		embedder:   embedder,
		topK:       cfg.TopK,
		minScore:   cfg.MinScore,
		logger:     logger,
	}
}

// Name implements Backend.
func (b *QdrantBackend) Name() string {
	return b.name
}

// Search implements Backend.
func (b *QdrantBackend) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	vectors, err := b.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	points, err := b.client.Query(ctx, b.buildQuery(req, vectors[0]))
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	resp := &SearchResponse{Results: make([]Hit, 0, len(points))}
	seen := make(map[string]struct{})
	for _, point := range points {
		resp.Results = append(resp.Results, hitFromPayload(point.GetPayload(), float64(point.GetScore())))
		for _, e := range getPayloadStrings(point.GetPayload(), "entities") {
			if _, ok := seen[e]; !ok {
				seen[e] = struct{}{}
				resp.Entities = append(resp.Entities, e)
			}
		}
	}
	resp.LatencyMS = time.Since(start).Milliseconds()

	b.logger.Debug("Qdrant search completed",
		zap.String("collection", b.collection),
		zap.String("method", string(req.Method)),
		zap.Int("results", len(resp.Results)))
	return resp, nil
}

func (b *QdrantBackend) buildQuery(req SearchRequest, dense []float32) *qdrant.QueryPoints {
	limit := uint64(b.topK)
	q := &qdrant.QueryPoints{
		CollectionName: b.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("deal_id", req.DealID)},
		},
		Limit:       &limit,
		WithPayload: qdrant.NewWithPayload(true),
	}
	if b.minScore > 0 {
		minScore := b.minScore
		q.ScoreThreshold = &minScore
	}

	if req.Method != MethodHybrid {
		q.Query = qdrant.NewQueryDense(dense)
		q.Using = qdrant.PtrOf(denseVectorName)
		return q
	}

	indices, values := sparseVector(req.Query)
	prefetchLimit := limit * prefetchFactor
	q.Prefetch = []*qdrant.PrefetchQuery{
		{
			Query: qdrant.NewQueryDense(dense),
			Using: qdrant.PtrOf(denseVectorName),
			Limit: &prefetchLimit,
		},
		{
			Query: qdrant.NewQuerySparse(indices, values),
			Using: qdrant.PtrOf(sparseVectorName),
			Limit: &prefetchLimit,
		},
	}
	q.Query = qdrant.NewQueryFusion(qdrant.Fusion_RRF)
	// RRF scores are rank-based, a similarity threshold does not apply.
	q.ScoreThreshold = nil
	return q
}

// Close releases the gRPC connection.
func (b *QdrantBackend) Close() error {
	if b.closer != nil {
		return b.closer()
	}
	return nil
}

// hitFromPayload maps the indexed payload fields to a backend hit.
func hitFromPayload(payload map[string]*qdrant.Value, score float64) Hit {
	hit := Hit{Score: score}
	hit.Content, _ = getPayloadString(payload, "content")

	citation := &HitCitation{}
	citation.ID, _ = getPayloadString(payload, "document_id")
	citation.Title, _ = getPayloadString(payload, "title")
	citation.Type, _ = getPayloadString(payload, "type")
	if val, ok := payload["page"]; ok && val != nil {
		if _, isInt := val.GetKind().(*qdrant.Value_IntegerValue); isInt {
			page := int(val.GetIntegerValue())
			citation.Page = &page
		}
	}
	if *citation != (HitCitation{}) {
		hit.Citation = citation
	}
	return hit
}

// getPayloadString extracts a string value from Qdrant payload.
func getPayloadString(payload map[string]*qdrant.Value, key string) (string, bool) {
	if val, ok := payload[key]; ok {
		if strVal := val.GetStringValue(); strVal != "" {
			return strVal, true
		}
	}
	return "", false
}

// getPayloadStrings extracts the string items of a list payload value.
func getPayloadStrings(payload map[string]*qdrant.Value, key string) []string {
	val, ok := payload[key]
	if !ok || val.GetListValue() == nil {
		return nil
	}
	out := make([]string, 0, len(val.GetListValue().GetValues()))
	for _, item := range val.GetListValue().GetValues() {
		if s := item.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
