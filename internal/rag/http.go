package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPBackendConfig configures the remote search service.
type HTTPBackendConfig struct {
	Name     string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// HTTPBackend calls a remote search service: POST {endpoint}/search.
type HTTPBackend struct {
	name   string
	client *resty.Client
}

func NewHTTPBackend(cfg HTTPBackendConfig) (*HTTPBackend, error) {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("retrieval endpoint is required")
	}
	if cfg.Name == "" {
		cfg.Name = defaultBackendName
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HTTPBackend{name: cfg.Name, client: client}, nil
}

// Name implements Backend.
func (b *HTTPBackend) Name() string {
	return b.name
}

// Search implements Backend.
func (b *HTTPBackend) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var result SearchResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode())
	}
	return &result, nil
}
