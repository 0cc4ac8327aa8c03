package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Condition is the state of a vehicle.
type Condition string

const (
	ConditionNew         Condition = "NEW"
	ConditionUsed        Condition = "USED"
	ConditionRefurbished Condition = "REFURBISHED"
	ConditionDamaged     Condition = "DAMAGED"
)

// FuelType is the primary fuel of a vehicle.
type FuelType string

const (
	FuelDiesel   FuelType = "DIESEL"
	FuelPetrol   FuelType = "PETROL"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
	FuelLNG      FuelType = "LNG"
	FuelCNG      FuelType = "CNG"
	FuelHydrogen FuelType = "HYDROGEN"
	FuelOther    FuelType = "OTHER"
)

// Transmission is the gearbox type of a vehicle.
type Transmission string

const (
	TransmissionManual        Transmission = "MANUAL"
	TransmissionAutomatic     Transmission = "AUTOMATIC"
	TransmissionSemiAutomatic Transmission = "SEMI_AUTOMATIC"
)

// EmissionClass is the EU emission standard of a vehicle.
type EmissionClass string

const (
	EmissionEuro1 EmissionClass = "EURO_1"
	EmissionEuro2 EmissionClass = "EURO_2"
	EmissionEuro3 EmissionClass = "EURO_3"
	EmissionEuro4 EmissionClass = "EURO_4"
	EmissionEuro5 EmissionClass = "EURO_5"
	EmissionEuro6 EmissionClass = "EURO_6"
	EmissionEEV   EmissionClass = "EEV"
	EmissionZero  EmissionClass = "ZERO"
)

// Sort is the ordering applied to search results.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortDateDesc  Sort = "date_desc"
	SortDateAsc   Sort = "date_asc"
	SortYearDesc  Sort = "year_desc"
	SortYearAsc   Sort = "year_asc"
)

// ValidConditions returns every condition value.
func ValidConditions() []Condition {
	return []Condition{ConditionNew, ConditionUsed, ConditionRefurbished, ConditionDamaged}
}

// ValidFuelTypes returns every fuel type value.
func ValidFuelTypes() []FuelType {
	return []FuelType{FuelDiesel, FuelPetrol, FuelElectric, FuelHybrid, FuelLNG, FuelCNG, FuelHydrogen, FuelOther}
}

// ValidTransmissions returns every transmission value.
func ValidTransmissions() []Transmission {
	return []Transmission{TransmissionManual, TransmissionAutomatic, TransmissionSemiAutomatic}
}

// ValidEmissionClasses returns every emission class value.
func ValidEmissionClasses() []EmissionClass {
	return []EmissionClass{
		EmissionEuro1, EmissionEuro2, EmissionEuro3, EmissionEuro4,
		EmissionEuro5, EmissionEuro6, EmissionEEV, EmissionZero,
	}
}

// ValidSortOptions returns every sort option.
func ValidSortOptions() []Sort {
	return []Sort{SortRelevance, SortPriceAsc, SortPriceDesc, SortDateDesc, SortDateAsc, SortYearDesc, SortYearAsc}
}

// ParseEnum matches raw case-insensitively against valid. It reports false
// when raw is not one of the values.
func ParseEnum[T ~string](raw string, valid []T) (T, bool) {
	for _, v := range valid {
		if strings.EqualFold(string(v), raw) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter is the validated, typed search request. Zero values mean "absent".
// Filters are passed by value and never mutated after construction.
type Filter struct {
	Text          string
	CategorySlug  string
	BrandSlug     string
	ModelSlug     string
	Condition     Condition
	FuelType      FuelType
	Transmission  Transmission
	EmissionClass EmissionClass
	CountryCode   string
	MinPrice      *int64
	MaxPrice      *int64
	MinYear       *int
	MaxYear       *int
	Sort          Sort
	Page          int
	Limit         int
}

// Normalize fills in paging and sort defaults and clamps the limit.
func (f Filter) Normalize() Filter {
	f.Text = strings.TrimSpace(f.Text)
	f.CountryCode = strings.ToUpper(f.CountryCode)
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Sort == "" {
		f.Sort = SortRelevance
	}
	return f
}

// Validate reports the first field holding a value outside its enumeration.
// Zero values are absent and always valid.
func (f Filter) Validate() error {
	switch {
	case f.Condition != "" && !slices.Contains(ValidConditions(), f.Condition):
		return fmt.Errorf("unknown condition %q", f.Condition)
	case f.FuelType != "" && !slices.Contains(ValidFuelTypes(), f.FuelType):
		return fmt.Errorf("unknown fuel type %q", f.FuelType)
	case f.Transmission != "" && !slices.Contains(ValidTransmissions(), f.Transmission):
		return fmt.Errorf("unknown transmission %q", f.Transmission)
	case f.EmissionClass != "" && !slices.Contains(ValidEmissionClasses(), f.EmissionClass):
		return fmt.Errorf("unknown emission class %q", f.EmissionClass)
	case f.Sort != "" && !slices.Contains(ValidSortOptions(), f.Sort):
		return fmt.Errorf("unknown sort %q", f.Sort)
	case f.CountryCode != "" && len(f.CountryCode) != 2:
		return fmt.Errorf("country must be a two-letter code")
	}
	return nil
}

// Offset returns the number of rows skipped before the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// HasPriceBound reports whether either price bound is set.
func (f Filter) HasPriceBound() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// HasYearBound reports whether either year bound is set.
func (f Filter) HasYearBound() bool {
	return f.MinYear != nil || f.MaxYear != nil
}

// Dimension is a facet dimension of the response envelope.
type Dimension string

const (
	DimensionCategories Dimension = "categories"
	DimensionBrands     Dimension = "brands"
	DimensionConditions Dimension = "conditions"
	DimensionFuelTypes  Dimension = "fuelTypes"
	DimensionCountries  Dimension = "countries"
	DimensionPrice      Dimension = "price"
	DimensionYear       Dimension = "year"
)

// BucketDimensions are the facets reported as value/count buckets.
func BucketDimensions() []Dimension {
	return []Dimension{DimensionCategories, DimensionBrands, DimensionConditions, DimensionFuelTypes, DimensionCountries}
}

// Without returns a copy of f with the filter on dimension d cleared. Each
// facet is counted under Without(its own dimension).
func (f Filter) Without(d Dimension) Filter {
	switch d {
	case DimensionCategories:
		f.CategorySlug = ""
	case DimensionBrands:
		f.BrandSlug = ""
	case DimensionConditions:
		f.Condition = ""
	case DimensionFuelTypes:
		f.FuelType = ""
	case DimensionCountries:
		f.CountryCode = ""
	case DimensionPrice:
		f.MinPrice, f.MaxPrice = nil, nil
	case DimensionYear:
		f.MinYear, f.MaxYear = nil, nil
	default:
		panic("domain: unknown dimension " + string(d))
	}
	return f
}

// Matches reports whether a listing is searchable and satisfies every filter.
func (f Filter) Matches(l *Listing) bool {
	return l.Searchable() && f.MatchesAttributes(l)
}

// MatchesAttributes applies the filters without the searchable check.
func (f Filter) MatchesAttributes(l *Listing) bool {
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	switch {
	case f.CategorySlug != "" && l.CategorySlug != f.CategorySlug,
		f.BrandSlug != "" && l.BrandSlug != f.BrandSlug,
		f.ModelSlug != "" && l.ModelSlug != f.ModelSlug,
		f.Condition != "" && l.Condition != f.Condition,
		f.FuelType != "" && l.FuelType != f.FuelType,
		f.Transmission != "" && l.Transmission != f.Transmission,
		f.EmissionClass != "" && l.EmissionClass != f.EmissionClass,
		f.CountryCode != "" && l.CountryCode != f.CountryCode:
		return false
	}
	if f.HasPriceBound() {
		if l.Price == nil {
			return false
		}
		if f.MinPrice != nil && *l.Price < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && *l.Price > *f.MaxPrice {
			return false
		}
	}
	if f.HasYearBound() {
		if l.Year == nil {
			return false
		}
		if f.MinYear != nil && *l.Year < *f.MinYear {
			return false
		}
		if f.MaxYear != nil && *l.Year > *f.MaxYear {
			return false
		}
	}
	return true
}
