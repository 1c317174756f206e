package rag

import (
	"fmt"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"go.uber.org/zap"
)

// Pipeline bundles the configured backend with its adapter.
type Pipeline struct {
	*Adapter
	backend Backend
}

// NewPipeline creates the retrieval backend selected in cfg and wraps it in an
// Adapter.
func NewPipeline(cfg config.RetrievalConfig, m *metrics.Metrics, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := newBackend(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval backend: %w", err)
	}

	adapter := NewAdapter(backend, AdapterConfig{
		BackendName:   cfg.BackendName,
		SlowThreshold: cfg.SlowThreshold,
		Timeout:       cfg.Timeout,
	}, m, logger)

	return &Pipeline{Adapter: adapter, backend: backend}, nil
}

func newBackend(cfg config.RetrievalConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "http":
		return NewHTTPBackend(HTTPBackendConfig{
			Name:     cfg.BackendName,
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		})
	case "qdrant":
		embedder := NewEmbeddingClient(cfg.Embedding.Endpoint, cfg.Embedding.Timeout)
		return NewQdrantBackend(QdrantConfig{
			Name:           cfg.BackendName,
			Host:           cfg.Qdrant.Host,
			Port:           cfg.Qdrant.Port,
			APIKey:         cfg.Qdrant.APIKey,
			UseTLS:         cfg.Qdrant.UseTLS,
			CollectionName: cfg.Qdrant.Collection,
			TopK:           cfg.Qdrant.TopK,
			MinScore:       cfg.Qdrant.MinScore,
		}, embedder, logger)
	default:
		return nil, fmt.Errorf("unsupported retrieval backend %q", cfg.Backend)
	}
}

// Backend returns the underlying backend.
func (p *Pipeline) Backend() Backend {
	return p.backend
}

// Close releases backend resources.
func (p *Pipeline) Close() error {
	if c, ok := p.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
