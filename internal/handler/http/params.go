package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/parishyparijal/MenonMobility-sub001/internal/domain"
	apperrors "github.com/parishyparijal/MenonMobility-sub001/pkg/errors"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/pagination"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/slug"
	"github.com/parishyparijal/MenonMobility-sub001/pkg/validator"
)

// filterBounds holds the numeric query parameters for validation after they
// have been coerced from strings.
type filterBounds struct {
	MinPrice *int64 `query:"min_price" validate:"omitempty,min=0"`
	MaxPrice *int64 `query:"max_price" validate:"omitempty,min=0"`
	MinYear  *int   `query:"min_year" validate:"omitempty,min=1900,max=2100"`
	MaxYear  *int   `query:"max_year" validate:"omitempty,min=1900,max=2100"`
	Country  string `query:"country" validate:"omitempty,len=2,alpha"`
	Text     string `query:"q" validate:"max=200"`
}

// parseFilter builds a filter from the query string. Enum values are matched
// case-insensitively and slugs are normalized. Malformed values are rejected
// with INVALID_PARAMETER; min > max is passed through unchanged.
func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()

	f := domain.Filter{
		Text:         strings.TrimSpace(q.Get("q")),
		CategorySlug: slug.Generate(q.Get("category")),
		BrandSlug:    slug.Generate(q.Get("brand")),
		ModelSlug:    slug.Generate(q.Get("model")),
		CountryCode:  strings.ToUpper(strings.TrimSpace(q.Get("country"))),
	}

	var err error
	if f.Condition, err = enumParam(q, "condition", domain.ValidConditions()); err != nil {
		return f, err
	}
	if f.FuelType, err = enumParam(q, "fuel_type", domain.ValidFuelTypes()); err != nil {
		return f, err
	}
	if f.Transmission, err = enumParam(q, "transmission", domain.ValidTransmissions()); err != nil {
		return f, err
	}
	if f.EmissionClass, err = enumParam(q, "emission_class", domain.ValidEmissionClasses()); err != nil {
		return f, err
	}
	if f.Sort, err = enumParam(q, "sort", domain.ValidSortOptions()); err != nil {
		return f, err
	}

	if f.MinPrice, err = int64Param(q, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = int64Param(q, "max_price"); err != nil {
		return f, err
	}
	if f.MinYear, err = intParam(q, "min_year"); err != nil {
		return f, err
	}
	if f.MaxYear, err = intParam(q, "max_year"); err != nil {
		return f, err
	}

	bounds := filterBounds{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		MinYear:  f.MinYear,
		MaxYear:  f.MaxYear,
		Country:  f.CountryCode,
		Text:     f.Text,
	}
	if err := validator.Validate(bounds); err != nil {
		return f, err
	}

	page, err := pagination.FromRequest(r)
	if err != nil {
		return f, apperrors.InvalidParameter("pagination", err.Error())
	}
	f.Page, f.Limit = page.Page, page.Limit

	return f, nil
}

func enumParam[T ~string](q url.Values, name string, valid []T) (T, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return "", nil
	}
	v, ok := domain.ParseEnum(raw, valid)
	if !ok {
		return "", apperrors.InvalidParameter(name, "has an unknown value "+strconv.Quote(raw))
	}
	return v, nil
}

func int64Param(q url.Values, name string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be a whole number")
	}
	return &v, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be a whole number")
	}
	return &v, nil
}
