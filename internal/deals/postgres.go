package deals

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// DBInterface defines the minimal interface needed by the provider.
type DBInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresProvider reads deals and their document counts from PostgreSQL.
type PostgresProvider struct {
	db DBInterface
}

func NewPostgresProvider(db DBInterface) *PostgresProvider {
	return &PostgresProvider{db: db}
}

type dealRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	DocumentCount int       `db:"document_count"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Get implements Provider.
func (p *PostgresProvider) Get(ctx context.Context, dealID string) (*types.DealContext, error) {
	query, args, err := squirrel.Select("d.id", "d.name", "COUNT(doc.id) AS document_count", "d.updated_at").
		From("deals d").
		LeftJoin("documents doc ON doc.deal_id = d.id").
		Where(squirrel.Eq{"d.id": dealID}).
		GroupBy("d.id", "d.name", "d.updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var row dealRow
	if err := pgxscan.Get(ctx, p.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("scanning deal: %w", err)
	}
	return &types.DealContext{
		ID:            row.ID,
		Name:          row.Name,
		DocumentCount: row.DocumentCount,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
