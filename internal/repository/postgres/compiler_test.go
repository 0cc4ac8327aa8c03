package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
)

func int64Ptr(n int64) *int64 { return &n }
func intPtr(n int) *int       { return &n }

func TestCompile_EmptyFilterOnlyScopes(t *testing.T) {
	p, order := Compile(domain.Filter{})

	assert.Equal(t, "WHERE l.deleted_at IS NULL AND l.status = 'active'", p.Where())
	assert.Empty(t, p.Args)
	assert.Equal(t, 1, p.Next())
	assert.Equal(t, Ordering("ORDER BY l.published_at DESC NULLS LAST, l.id ASC"), order)
}

func TestCompile_AllFilters(t *testing.T) {
	f := domain.Filter{
		Text:          "actros",
		CategorySlug:  "tractor-units",
		BrandSlug:     "mercedes-benz",
		ModelSlug:     "actros",
		Condition:     domain.ConditionUsed,
		FuelType:      domain.FuelDiesel,
		Transmission:  domain.TransmissionAutomatic,
		EmissionClass: domain.EmissionEuro6,
		CountryCode:   "DE",
		MinPrice:      int64Ptr(50000),
		MaxPrice:      int64Ptr(90000),
		MinYear:       intPtr(2015),
		MaxYear:       intPtr(2020),
		Sort:          domain.SortPriceAsc,
	}

	p, order := Compile(f)

	assert.Equal(t, "WHERE l.deleted_at IS NULL AND l.status = 'active'"+
		" AND (l.title ILIKE $1 OR l.description ILIKE $1)"+
		" AND l.category_id IN (SELECT id FROM categories WHERE slug = $2)"+
		" AND l.brand_id IN (SELECT id FROM brands WHERE slug = $3)"+
		" AND l.model_id IN (SELECT id FROM vehicle_models WHERE slug = $4)"+
		" AND l.condition = $5 AND l.fuel_type = $6 AND l.transmission = $7"+
		" AND l.emission_class = $8 AND l.country_code = $9"+
		" AND l.price >= $10 AND l.price <= $11"+
		" AND l.year >= $12 AND l.year <= $13", p.Where())
	assert.Equal(t, []any{
		"%actros%", "tractor-units", "mercedes-benz", "actros",
		"USED", "DIESEL", "AUTOMATIC", "EURO_6", "DE",
		int64(50000), int64(90000), 2015, 2020,
	}, p.Args)
	assert.Equal(t, 14, p.Next())
	assert.Equal(t, Ordering("ORDER BY l.price ASC NULLS LAST, l.id ASC"), order)
}

func TestCompile_SingleBoundDoesNotConstrainOtherSide(t *testing.T) {
	p, _ := Compile(domain.Filter{MinPrice: int64Ptr(1000)})
	assert.Contains(t, p.Where(), "l.price >= $1")
	assert.NotContains(t, p.Where(), "l.price <=")

	p, _ = Compile(domain.Filter{MaxYear: intPtr(2010)})
	assert.Contains(t, p.Where(), "l.year <= $1")
	assert.NotContains(t, p.Where(), "l.year >=")
	assert.Equal(t, []any{2010}, p.Args)
}

func TestCompile_EscapesLikeMetacharacters(t *testing.T) {
	p, _ := Compile(domain.Filter{Text: `50%_off\`})
	assert.Equal(t, []any{`%50\%\_off\\%`}, p.Args)
}

func TestCompile_WithSellerListsEveryStatus(t *testing.T) {
	p, _ := Compile(domain.Filter{CategorySlug: "vans"}, WithSeller("seller-9"))

	assert.Equal(t, "WHERE l.deleted_at IS NULL AND l.seller_id = $1"+
		" AND l.category_id IN (SELECT id FROM categories WHERE slug = $2)", p.Where())
	assert.Equal(t, []any{"seller-9", "vans"}, p.Args)
	assert.NotContains(t, p.Where(), "status")
}

func TestCompile_Orderings(t *testing.T) {
	tests := map[domain.Sort]Ordering{
		domain.SortRelevance: "ORDER BY l.published_at DESC NULLS LAST, l.id ASC",
		domain.SortDateDesc:  "ORDER BY l.published_at DESC NULLS LAST, l.id ASC",
		domain.SortDateAsc:   "ORDER BY l.published_at ASC NULLS LAST, l.id ASC",
		domain.SortPriceAsc:  "ORDER BY l.price ASC NULLS LAST, l.id ASC",
		domain.SortPriceDesc: "ORDER BY l.price DESC NULLS LAST, l.id ASC",
		domain.SortYearAsc:   "ORDER BY l.year ASC NULLS LAST, l.id ASC",
		domain.SortYearDesc:  "ORDER BY l.year DESC NULLS LAST, l.id ASC",
	}
	for sort, want := range tests {
		t.Run(string(sort), func(t *testing.T) {
			_, got := Compile(domain.Filter{Sort: sort})
			assert.Equal(t, want, got)
		})
	}
}

func TestCompile_IsDeterministic(t *testing.T) {
	f := domain.Filter{Text: "fh16", BrandSlug: "volvo", MinYear: intPtr(2018)}
	p1, o1 := Compile(f)
	p2, o2 := Compile(f)

	assert.Equal(t, p1.Where(), p2.Where())
	assert.Equal(t, p1.Args, p2.Args)
	assert.Equal(t, o1, o2)
}

func TestPredicate_ArgNumbersPlaceholders(t *testing.T) {
	p, _ := Compile(domain.Filter{Condition: domain.ConditionNew})
	assert.Equal(t, "$2", p.Arg(20))
	assert.Equal(t, "$3", p.Arg(0))
	assert.Equal(t, 4, p.Next())
}

func TestDimensionColumnPanicsOnRangeDimension(t *testing.T) {
	assert.Panics(t, func() { dimensionColumn(domain.DimensionPrice) })
}
