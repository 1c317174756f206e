// Package rag adapts knowledge-retrieval backends into source citations.
package rag

import (
	"context"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

// Method is the retrieval strategy requested from the backend.
type Method string

const (
	MethodVector Method = "vector"
	MethodHybrid Method = "hybrid"
)

// MethodFor maps a complexity tier to a retrieval method. Only simple queries
// use plain vector search.
func MethodFor(tier types.ComplexityTier) Method {
	if tier == types.ComplexitySimple {
		return MethodVector
	}
	return MethodHybrid
}

// SearchRequest is one retrieval call, scoped to a single deal namespace.
type SearchRequest struct {
	Query  string `json:"query"`
	DealID string `json:"deal_id"`
	Method Method `json:"method"`
}

// HitCitation is the optional attribution a backend attaches to a hit.
type HitCitation struct {
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
	Page  *int   `json:"page,omitempty"`
	ID    string `json:"id,omitempty"`
}

// Hit is a single ranked result.
type Hit struct {
	Content  string       `json:"content"`
	Score    float64      `json:"score"`
	Citation *HitCitation `json:"citation,omitempty"`
}

// SearchResponse is what a backend returns for a SearchRequest.
type SearchResponse struct {
	Results   []Hit    `json:"results"`
	Entities  []string `json:"entities,omitempty"`
	LatencyMS int64    `json:"latency_ms,omitempty"`
}

// Backend is a knowledge-retrieval service.
type Backend interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}
