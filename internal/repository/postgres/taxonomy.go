package postgres

import (
	"context"
	"fmt"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/database"
)

// TaxonomyStore implements repository.Taxonomy on PostgreSQL.
type TaxonomyStore struct {
	db database.DBTX
}

// NewTaxonomyStore creates a PostgreSQL-backed taxonomy lookup.
func NewTaxonomyStore(db database.DBTX) *TaxonomyStore {
	return &TaxonomyStore{db: db}
}

var _ repository.Taxonomy = (*TaxonomyStore)(nil)

// Brands resolves brand ids. Unknown ids are absent from the result.
func (s *TaxonomyStore) Brands(ctx context.Context, ids []string) (map[string]domain.TaxonomyEntry, error) {
	return s.lookup(ctx, "brands", ids)
}

// Categories resolves category ids. Unknown ids are absent from the result.
func (s *TaxonomyStore) Categories(ctx context.Context, ids []string) (map[string]domain.TaxonomyEntry, error) {
	return s.lookup(ctx, "categories", ids)
}

func (s *TaxonomyStore) lookup(ctx context.Context, table string, ids []string) (_ map[string]domain.TaxonomyEntry, err error) {
	entries := make(map[string]domain.TaxonomyEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	query := fmt.Sprintf(`SELECT id::text, name, slug FROM %s WHERE id::text = ANY($1)`, table)

	ctx, end := database.TraceQuery(ctx, "Lookup_"+table, query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.TaxonomyEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Slug); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		entries[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return entries, nil
}
