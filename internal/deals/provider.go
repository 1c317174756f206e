// Package deals resolves the read-only deal context a query is scoped to.
package deals

import (
	"context"
	"errors"
	"strings"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"go.uber.org/zap"
)

// ErrDealNotFound is returned when no deal matches the requested id.
var ErrDealNotFound = errors.New("deal not found")

// Provider looks up deal metadata.
type Provider interface {
	Get(ctx context.Context, dealID string) (*types.DealContext, error)
}

// Resolve fetches the deal for dealID. Any failure yields an absent deal and a
// warning, which downstream components treat as a deal without documents.
func Resolve(ctx context.Context, p Provider, dealID string, logger *zap.Logger) types.OptionalDeal {
	if logger == nil {
		logger = zap.NewNop()
	}
	dealID = strings.TrimSpace(dealID)
	if dealID == "" {
		logger.Warn("No deal context, assuming no documents")
		return types.NoDeal()
	}
	if p == nil {
		logger.Warn("No deal provider configured, assuming no documents", zap.String("deal_id", dealID))
		return types.NoDeal()
	}

	deal, err := p.Get(ctx, dealID)
	if err != nil || deal == nil {
		logger.Warn("Deal context unavailable, assuming no documents",
			zap.String("deal_id", dealID),
			zap.Error(err))
		return types.NoDeal()
	}
	return types.SomeDeal(*deal)
}

// Static serves deals from memory, e.g. from the config file.
type Static map[string]types.DealContext

// NewStatic indexes deals by id.
func NewStatic(deals ...types.DealContext) Static {
	s := make(Static, len(deals))
	for _, d := range deals {
		s[d.ID] = d
	}
	return s
}

// Get implements Provider.
func (s Static) Get(_ context.Context, dealID string) (*types.DealContext, error) {
	d, ok := s[dealID]
	if !ok {
		return nil, ErrDealNotFound
	}
	return &d, nil
}
