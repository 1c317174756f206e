package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Embedder turns texts into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingClient calls a remote embedding service that accepts
// {"inputs": [...]} and answers with one vector per input.
type EmbeddingClient struct {
	endpoint string
	client   *resty.Client
}

func NewEmbeddingClient(endpoint string, timeout time.Duration) *EmbeddingClient {
	client := resty.New().SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &EmbeddingClient{endpoint: endpoint, client: client}
}

type embeddingRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed implements Embedder.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	resp, err := ec.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Inputs: texts}).
		SetResult(&vectors).
		Post(ec.endpoint)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode())
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}
