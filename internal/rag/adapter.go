package rag

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"go.uber.org/zap"
)

const (
	defaultBackendName   = "backend"
	defaultSlowThreshold = 500 * time.Millisecond
	queryPreviewLen      = 50
	unknownSourceName    = "Unknown source"
)

// AdapterConfig tunes the retrieval adapter.
type AdapterConfig struct {
	// BackendName prefixes synthesized document IDs. Defaults to "backend".
	BackendName string
	// SlowThreshold triggers a warning when a call takes longer. Defaults to 500ms.
	SlowThreshold time.Duration
	// Timeout bounds a single backend call. Zero means the caller's deadline only.
	Timeout time.Duration
	// Now stamps RetrievedAt and measures latency. Defaults to time.Now.
	Now func() time.Time
}

// Adapter turns backend hits into normalized citations. Retrieval never fails
// the caller: backend errors degrade to an empty citation list.
type Adapter struct {
	backend Backend
	cfg     AdapterConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAdapter(backend Backend, cfg AdapterConfig, m *metrics.Metrics, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BackendName == "" {
		cfg.BackendName = defaultBackendName
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = defaultSlowThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Adapter{backend: backend, cfg: cfg, metrics: m, logger: logger}
}

// Retrieve fetches evidence for query within the deal namespace dealID. The
// retrieval method is chosen from the complexity tier.
func (a *Adapter) Retrieve(ctx context.Context, query, dealID string, complexity types.ComplexityTier) []types.SourceCitation {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SourceCitation{}
	}
	if strings.TrimSpace(dealID) == "" {
		a.logger.Warn("Retrieval skipped, no deal id",
			zap.String("query_preview", truncateString(query, queryPreviewLen)))
		return []types.SourceCitation{}
	}

	method := MethodFor(complexity)
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	start := a.cfg.Now()
	resp, err := a.backend.Search(ctx, SearchRequest{Query: query, DealID: dealID, Method: method})
	latency := a.cfg.Now().Sub(start)
	a.metrics.ObserveRetrieval(string(method), latency)
	if latency > a.cfg.SlowThreshold {
		a.logger.Warn("Slow retrieval",
			zap.String("deal_id", dealID),
			zap.String("method", string(method)),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.Int64("threshold_ms", a.cfg.SlowThreshold.Milliseconds()))
	}

	if err == nil && resp == nil {
		err = fmt.Errorf("%s returned no response", a.backend.Name())
	}
	if err != nil {
		a.metrics.RetrievalDegraded(string(method))
		a.logger.Error("Retrieval failed, continuing without citations",
			zap.Error(err),
			zap.String("query_preview", truncateString(query, queryPreviewLen)),
			zap.String("deal_id", dealID),
			zap.String("complexity", string(complexity)),
			zap.String("method", string(method)),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.Int("results", 0))
		return []types.SourceCitation{}
	}

	citations := a.toCitations(resp.Results)

	a.logger.Info("Retrieval completed",
		zap.String("query_preview", truncateString(query, queryPreviewLen)),
		zap.String("deal_id", dealID),
		zap.String("complexity", string(complexity)),
		zap.String("method", string(method)),
		zap.Int64("latency_ms", latency.Milliseconds()),
		zap.Int("results", len(citations)),
		zap.Int("entities", len(resp.Entities)))

	return citations
}

// toCitations maps hits one to one, keeping backend order. Hits with missing
// metadata get placeholder attribution instead of being dropped.
func (a *Adapter) toCitations(hits []Hit) []types.SourceCitation {
	now := a.cfg.Now()
	out := make([]types.SourceCitation, 0, len(hits))
	for i, hit := range hits {
		c := types.SourceCitation{
			DocumentID:     fmt.Sprintf("%s-%d", a.cfg.BackendName, i),
			DocumentName:   unknownSourceName,
			Snippet:        hit.Content,
			RelevanceScore: clampScore(hit.Score),
			RetrievedAt:    now,
		}
		if hc := hit.Citation; hc != nil {
			if hc.ID != "" {
				c.DocumentID = hc.ID
			}
			if hc.Title != "" {
				c.DocumentName = hc.Title
			}
			if hc.Page != nil {
				c.Location = fmt.Sprintf("page %d", *hc.Page)
			}
		}
		out = append(out, c)
	}
	return out
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s) || s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// truncateString cuts s to maxLen runes.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
