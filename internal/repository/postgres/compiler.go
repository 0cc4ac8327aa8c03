package postgres

import (
	"fmt"
	"strings"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
)

// Predicate is a compiled WHERE clause with its positional arguments.
// Conditions reference the listings table through the alias l.
type Predicate struct {
	conditions []string
	Args       []any
}

// Arg appends v to the argument list and returns its placeholder.
func (p *Predicate) Arg(v any) string {
	p.Args = append(p.Args, v)
	return fmt.Sprintf("$%d", len(p.Args))
}

// Next returns the index of the next placeholder.
func (p *Predicate) Next() int {
	return len(p.Args) + 1
}

// And adds a condition. The condition must only use placeholders obtained
// from Arg on the same predicate.
func (p *Predicate) And(condition string) {
	p.conditions = append(p.conditions, condition)
}

// Where renders the conditions joined by AND, prefixed with WHERE.
func (p *Predicate) Where() string {
	if len(p.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.conditions, " AND ")
}

// Ordering is a deterministic ORDER BY clause.
type Ordering string

type compileOptions struct {
	sellerID string
}

// CompileOption adjusts the scope of a compiled predicate.
type CompileOption func(*compileOptions)

// WithSeller restricts the predicate to one seller's listings and lifts the
// active-status restriction so drafts and sold listings are visible too.
func WithSeller(sellerID string) CompileOption {
	return func(o *compileOptions) {
		o.sellerID = sellerID
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Compile translates a filter into a predicate and ordering for the listings
// table. It performs no I/O. Absent filters add no condition; slugs are
// resolved through subselects on the taxonomy tables.
func Compile(f domain.Filter, opts ...CompileOption) (*Predicate, Ordering) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := &Predicate{}
	p.And("l.deleted_at IS NULL")
	if o.sellerID != "" {
		p.And("l.seller_id = " + p.Arg(o.sellerID))
	} else {
		p.And("l.status = 'active'")
	}

	if f.Text != "" {
		ph := p.Arg(containsPattern(f.Text))
		p.And(fmt.Sprintf("(l.title ILIKE %s OR l.description ILIKE %s)", ph, ph))
	}
	if f.CategorySlug != "" {
		p.And("l.category_id IN (SELECT id FROM categories WHERE slug = " + p.Arg(f.CategorySlug) + ")")
	}
	if f.BrandSlug != "" {
		p.And("l.brand_id IN (SELECT id FROM brands WHERE slug = " + p.Arg(f.BrandSlug) + ")")
	}
	if f.ModelSlug != "" {
		p.And("l.model_id IN (SELECT id FROM vehicle_models WHERE slug = " + p.Arg(f.ModelSlug) + ")")
	}
	if f.Condition != "" {
		p.And("l.condition = " + p.Arg(string(f.Condition)))
	}
	if f.FuelType != "" {
		p.And("l.fuel_type = " + p.Arg(string(f.FuelType)))
	}
	if f.Transmission != "" {
		p.And("l.transmission = " + p.Arg(string(f.Transmission)))
	}
	if f.EmissionClass != "" {
		p.And("l.emission_class = " + p.Arg(string(f.EmissionClass)))
	}
	if f.CountryCode != "" {
		p.And("l.country_code = " + p.Arg(f.CountryCode))
	}
	if c := rangeCondition(p, domain.DimensionPrice, f); c != "" {
		p.And(c)
	}
	if c := rangeCondition(p, domain.DimensionYear, f); c != "" {
		p.And(c)
	}

	return p, orderingFor(f.Sort)
}

// rangeCondition renders the inclusive bounds of a price or year filter, or
// "" when neither bound is set. A NULL column never satisfies a bound.
func rangeCondition(p *Predicate, d domain.Dimension, f domain.Filter) string {
	var (
		column string
		lo, hi any
	)
	switch d {
	case domain.DimensionPrice:
		column = "l.price"
		if f.MinPrice != nil {
			lo = *f.MinPrice
		}
		if f.MaxPrice != nil {
			hi = *f.MaxPrice
		}
	case domain.DimensionYear:
		column = "l.year"
		if f.MinYear != nil {
			lo = *f.MinYear
		}
		if f.MaxYear != nil {
			hi = *f.MaxYear
		}
	default:
		panic("postgres: no range column for dimension " + string(d))
	}

	var parts []string
	if lo != nil {
		parts = append(parts, column+" >= "+p.Arg(lo))
	}
	if hi != nil {
		parts = append(parts, column+" <= "+p.Arg(hi))
	}
	return strings.Join(parts, " AND ")
}

func orderingFor(s domain.Sort) Ordering {
	var key string
	switch s {
	case domain.SortPriceAsc:
		key = "l.price ASC NULLS LAST"
	case domain.SortPriceDesc:
		key = "l.price DESC NULLS LAST"
	case domain.SortDateAsc:
		key = "l.published_at ASC NULLS LAST"
	case domain.SortYearAsc:
		key = "l.year ASC NULLS LAST"
	case domain.SortYearDesc:
		key = "l.year DESC NULLS LAST"
	default:
		// date_desc and relevance.
		key = "l.published_at DESC NULLS LAST"
	}
	return Ordering("ORDER BY " + key + ", l.id ASC")
}

// dimensionColumn maps a bucket dimension to the grouped column.
func dimensionColumn(d domain.Dimension) string {
	switch d {
	case domain.DimensionCategories:
		return "l.category_id"
	case domain.DimensionBrands:
		return "l.brand_id"
	case domain.DimensionConditions:
		return "l.condition"
	case domain.DimensionFuelTypes:
		return "l.fuel_type"
	case domain.DimensionCountries:
		return "l.country_code"
	default:
		panic("postgres: no bucket column for dimension " + string(d))
	}
}
