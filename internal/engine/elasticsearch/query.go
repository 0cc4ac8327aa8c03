package elasticsearch

import (
	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
)

// termsSize bounds the number of buckets returned per facet.
const termsSize = 100

// bucketFields maps each bucket dimension to its keyword field. Categories
// and brands aggregate by id and carry a top hit for their label.
var bucketFields = map[domain.Dimension]string{
	domain.DimensionCategories: "category_id",
	domain.DimensionBrands:     "brand_id",
	domain.DimensionConditions: "condition",
	domain.DimensionFuelTypes:  "fuel_type",
	domain.DimensionCountries:  "country_code",
}

var labelSource = map[domain.Dimension][]string{
	domain.DimensionCategories: {"category_slug", "category_name"},
	domain.DimensionBrands:     {"brand_slug", "brand_name"},
}

// buildSearchQuery constructs the query DSL for f. The text query and the
// searchable constraint live in the main query so they narrow hits and every
// facet; the remaining filters go in post_filter and in each facet's filter
// aggregation minus the facet's own dimension.
func buildSearchQuery(f domain.Filter) map[string]any {
	aggs := make(map[string]any, len(bucketFields)+2)
	for _, d := range domain.BucketDimensions() {
		inner := map[string]any{
			"terms": map[string]any{
				"field": bucketFields[d],
				"size":  termsSize,
				"order": []any{
					map[string]any{"_count": "desc"},
					map[string]any{"_key": "asc"},
				},
			},
		}
		if fields, ok := labelSource[d]; ok {
			inner["aggs"] = map[string]any{
				"label": map[string]any{
					"top_hits": map[string]any{"size": 1, "_source": fields},
				},
			}
		}
		aggs[string(d)] = filterAgg(f.Without(d), map[string]any{"values": inner})
	}
	aggs[string(domain.DimensionPrice)] = filterAgg(f.Without(domain.DimensionPrice), minMax("price"))
	aggs[string(domain.DimensionYear)] = filterAgg(f.Without(domain.DimensionYear), minMax("year"))

	return map[string]any{
		"query":            mainQuery(f.Text),
		"post_filter":      boolFilter(filterClauses(f)),
		"aggs":             aggs,
		"sort":             buildSort(f.Sort, f.Text != ""),
		"from":             f.Offset(),
		"size":             f.Limit,
		"track_total_hits": true,
	}
}

func mainQuery(text string) map[string]any {
	var must any = map[string]any{"match_all": map[string]any{}}
	if text != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":         text,
				"fields":        []string{"title^3", "title.autocomplete^2", "description", "brand_name", "model_name"},
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	}
	return map[string]any{
		"bool": map[string]any{
			"must":   []any{must},
			"filter": searchableClauses(),
		},
	}
}

func searchableClauses() []any {
	return []any{
		map[string]any{"term": map[string]any{"status": domain.ListingStatusActive}},
		map[string]any{"bool": map[string]any{
			"must_not": []any{map[string]any{"exists": map[string]any{"field": "deleted_at"}}},
		}},
	}
}

func filterAgg(f domain.Filter, aggs map[string]any) map[string]any {
	return map[string]any{
		"filter": boolFilter(filterClauses(f)),
		"aggs":   aggs,
	}
}

func minMax(field string) map[string]any {
	return map[string]any{
		"min": map[string]any{"min": map[string]any{"field": field}},
		"max": map[string]any{"max": map[string]any{"field": field}},
	}
}

func boolFilter(clauses []any) map[string]any {
	if len(clauses) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{"bool": map[string]any{"filter": clauses}}
}

// filterClauses returns one clause per present filter, excluding text.
func filterClauses(f domain.Filter) []any {
	var clauses []any
	term := func(field, value string) {
		if value != "" {
			clauses = append(clauses, map[string]any{"term": map[string]any{field: value}})
		}
	}

	term("category_slug", f.CategorySlug)
	term("brand_slug", f.BrandSlug)
	term("model_slug", f.ModelSlug)
	term("condition", string(f.Condition))
	term("fuel_type", string(f.FuelType))
	term("transmission", string(f.Transmission))
	term("emission_class", string(f.EmissionClass))
	term("country_code", f.CountryCode)

	if f.HasPriceBound() {
		clauses = append(clauses, rangeClause("price", f.MinPrice, f.MaxPrice))
	}
	if f.HasYearBound() {
		clauses = append(clauses, rangeClause("year", intToInt64(f.MinYear), intToInt64(f.MaxYear)))
	}
	return clauses
}

func rangeClause(field string, lo, hi *int64) map[string]any {
	bounds := map[string]any{}
	if lo != nil {
		bounds["gte"] = *lo
	}
	if hi != nil {
		bounds["lte"] = *hi
	}
	return map[string]any{"range": map[string]any{field: bounds}}
}

func intToInt64(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

// buildSort returns the sort clause for s. Missing values sort last and id
// breaks ties so paging is stable.
func buildSort(s domain.Sort, hasText bool) []any {
	field := func(name, order string) map[string]any {
		return map[string]any{name: map[string]any{"order": order, "missing": "_last"}}
	}
	tiebreak := map[string]any{"id": "asc"}

	switch s {
	case domain.SortPriceAsc:
		return []any{field("price", "asc"), tiebreak}
	case domain.SortPriceDesc:
		return []any{field("price", "desc"), tiebreak}
	case domain.SortYearAsc:
		return []any{field("year", "asc"), tiebreak}
	case domain.SortYearDesc:
		return []any{field("year", "desc"), tiebreak}
	case domain.SortDateAsc:
		return []any{field("published_at", "asc"), tiebreak}
	case domain.SortRelevance:
		if hasText {
			return []any{map[string]any{"_score": "desc"}, field("published_at", "desc"), tiebreak}
		}
	}
	return []any{field("published_at", "desc"), tiebreak}
}
