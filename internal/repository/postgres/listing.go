package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	"github.com/parishyparijal/MenonMobility-sub001/internal/repository"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/database"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
)

const listingJoins = `
		FROM listings l
		LEFT JOIN categories c ON c.id = l.category_id
		LEFT JOIN brands b ON b.id = l.brand_id
		LEFT JOIN vehicle_models m ON m.id = l.model_id`

const summaryColumns = `l.id, l.title, l.slug, l.price, l.currency, l.condition, l.year, l.mileage,
		       COALESCE(l.fuel_type, ''), COALESCE(l.transmission, ''), COALESCE(l.emission_class, ''),
		       l.country_code, COALESCE(c.slug, ''), COALESCE(c.name, ''), COALESCE(b.slug, ''), COALESCE(b.name, ''),
		       COALESCE(m.name, ''), l.seller_id, COALESCE(l.image_url, ''), l.status, l.published_at`

const listingColumns = `l.id, l.title, COALESCE(l.description, ''), l.slug, l.price, l.currency, l.condition, l.year, l.mileage,
		       COALESCE(l.fuel_type, ''), COALESCE(l.transmission, ''), COALESCE(l.emission_class, ''), l.country_code,
		       COALESCE(l.category_id::text, ''), COALESCE(c.slug, ''), COALESCE(c.name, ''),
		       COALESCE(l.brand_id::text, ''), COALESCE(b.slug, ''), COALESCE(b.name, ''),
		       COALESCE(l.model_id::text, ''), COALESCE(m.slug, ''), COALESCE(m.name, ''),
		       l.seller_id, COALESCE(l.image_url, ''), l.status, l.published_at, l.deleted_at`

// ListingStore implements repository.ListingStore on PostgreSQL.
type ListingStore struct {
	db database.DBTX
}

// NewListingStore creates a PostgreSQL-backed listing store.
func NewListingStore(db database.DBTX) *ListingStore {
	return &ListingStore{db: db}
}

var _ repository.ListingStore = (*ListingStore)(nil)

func scopeOptions(scope repository.Scope) []CompileOption {
	if scope.SellerID != "" {
		return []CompileOption{WithSeller(scope.SellerID)}
	}
	return nil
}

// Find returns one page of listings and the total match count. The total
// comes from count(*) OVER(); when the page lies past the last match no row
// carries it, so a separate COUNT(*) is issued.
func (s *ListingStore) Find(ctx context.Context, f domain.Filter, scope repository.Scope) (_ []domain.ListingSummary, _ int64, err error) {
	p, order := Compile(f, scopeOptions(scope)...)
	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		%s
		%s
		%s
		LIMIT %s OFFSET %s`,
		summaryColumns, listingJoins, p.Where(), order, p.Arg(f.Limit), p.Arg(f.Offset()),
	)

	ctx, end := database.TraceQuery(ctx, "FindListings", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, p.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find listings: %w", err)
	}
	defer rows.Close()

	var (
		listings = []domain.ListingSummary{}
		total    int64
	)
	for rows.Next() {
		var l domain.ListingSummary
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Slug, &l.Price, &l.Currency, &l.Condition, &l.Year, &l.Mileage,
			&l.FuelType, &l.Transmission, &l.EmissionClass,
			&l.CountryCode, &l.CategorySlug, &l.CategoryName, &l.BrandSlug, &l.BrandName,
			&l.ModelName, &l.SellerID, &l.ImageURL, &l.Status, &l.PublishedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listing rows: %w", err)
	}

	if len(listings) == 0 && f.Offset() > 0 {
		total, err = s.count(ctx, f, scope)
		if err != nil {
			return nil, 0, err
		}
	}
	return listings, total, nil
}

func (s *ListingStore) count(ctx context.Context, f domain.Filter, scope repository.Scope) (int64, error) {
	p, _ := Compile(f, scopeOptions(scope)...)
	query := "SELECT COUNT(*) FROM listings l " + p.Where()

	var total int64
	if err := s.db.QueryRow(ctx, query, p.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return total, nil
}

// CountByDimension groups the matching listings by the dimension's column.
// Listings with no value for the column are not counted.
func (s *ListingStore) CountByDimension(ctx context.Context, d domain.Dimension, f domain.Filter) (_ []repository.FacetCount, err error) {
	column := dimensionColumn(d)
	p, _ := Compile(f)
	p.And(column + " IS NOT NULL")
	query := fmt.Sprintf(`
		SELECT %s::text AS value, COUNT(*) AS count
		FROM listings l
		%s
		GROUP BY %s
		ORDER BY count DESC, value ASC`,
		column, p.Where(), column,
	)

	ctx, end := database.TraceQuery(ctx, "CountBy_"+string(d), query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("count listings by %s: %w", d, err)
	}
	defer rows.Close()

	counts := []repository.FacetCount{}
	for rows.Next() {
		var fc repository.FacetCount
		if err := rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", d, err)
		}
		counts = append(counts, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s counts: %w", d, err)
	}
	return counts, nil
}

// Ranges computes both range facets in one statement. The base predicate
// drops the price and year filters; each aggregate re-applies only the other
// dimension's bounds through a FILTER clause.
func (s *ListingStore) Ranges(ctx context.Context, f domain.Filter) (price, year domain.Range, err error) {
	p, _ := Compile(f.Without(domain.DimensionPrice).Without(domain.DimensionYear))
	yearCond := orTrue(rangeCondition(p, domain.DimensionYear, f))
	priceCond := orTrue(rangeCondition(p, domain.DimensionPrice, f))
	query := fmt.Sprintf(`
		SELECT MIN(l.price) FILTER (WHERE %[1]s), MAX(l.price) FILTER (WHERE %[1]s),
		       MIN(l.year) FILTER (WHERE %[2]s), MAX(l.year) FILTER (WHERE %[2]s)
		FROM listings l
		%[3]s`,
		yearCond, priceCond, p.Where(),
	)

	ctx, end := database.TraceQuery(ctx, "PriceYearRange", query)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, query, p.Args...).Scan(&price.Min, &price.Max, &year.Min, &year.Max); err != nil {
		return domain.Range{}, domain.Range{}, fmt.Errorf("price and year range: %w", err)
	}
	return price, year, nil
}

func orTrue(cond string) string {
	if cond == "" {
		return "TRUE"
	}
	return cond
}

// RecentTitles scans the newest searchable listings whose title contains text.
func (s *ListingStore) RecentTitles(ctx context.Context, text string, limit int) (_ []string, err error) {
	p, order := Compile(domain.Filter{Sort: domain.SortDateDesc})
	p.And("l.title ILIKE " + p.Arg(containsPattern(text)))
	query := fmt.Sprintf(`
		SELECT l.title
		FROM listings l
		%s
		%s
		LIMIT %s`,
		p.Where(), order, p.Arg(limit),
	)

	ctx, end := database.TraceQuery(ctx, "RecentTitles", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("recent titles: %w", err)
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect titles: %w", err)
	}
	return titles, nil
}

// GetByID returns a listing regardless of its status or deletion.
func (s *ListingStore) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE l.id = $1`,
		listingColumns, listingJoins,
	)

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanListing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("listing", id)
		}
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	return l, nil
}

// ScanActive pages through searchable listings in id order.
func (s *ListingStore) ScanActive(ctx context.Context, afterID string, limit int) (_ []domain.Listing, err error) {
	p, _ := Compile(domain.Filter{})
	if afterID != "" {
		p.And("l.id > " + p.Arg(afterID))
	}
	query := fmt.Sprintf(`
		SELECT %s
		%s
		%s
		ORDER BY l.id ASC
		LIMIT %s`,
		listingColumns, listingJoins, p.Where(), p.Arg(limit),
	)

	ctx, end := database.TraceQuery(ctx, "ScanActive", query)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, query, p.Args...)
	if err != nil {
		return nil, fmt.Errorf("scan active listings: %w", err)
	}
	listings, err := pgx.CollectRows(rows, scanListing)
	if err != nil {
		return nil, fmt.Errorf("collect active listings: %w", err)
	}

	out := make([]domain.Listing, len(listings))
	for i, l := range listings {
		out[i] = *l
	}
	return out, nil
}

func scanListing(row pgx.CollectableRow) (*domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Slug, &l.Price, &l.Currency, &l.Condition, &l.Year, &l.Mileage,
		&l.FuelType, &l.Transmission, &l.EmissionClass, &l.CountryCode,
		&l.CategoryID, &l.CategorySlug, &l.CategoryName,
		&l.BrandID, &l.BrandSlug, &l.BrandName,
		&l.ModelID, &l.ModelSlug, &l.ModelName,
		&l.SellerID, &l.ImageURL, &l.Status, &l.PublishedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
