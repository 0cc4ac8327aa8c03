package domain

import (
	"time"
)

// Listing status constants. Only active listings are searchable.
const (
	ListingStatusDraft    = "draft"
	ListingStatusActive   = "active"
	ListingStatusReserved = "reserved"
	ListingStatusSold     = "sold"
	ListingStatusArchived = "archived"
)

// Listing is the read model of a vehicle listing as stored in the relational
// store and mirrored into the search index.
type Listing struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Slug          string        `json:"slug"`
	Price         *int64        `json:"price,omitempty"`
	Currency      string        `json:"currency"`
	Condition     Condition     `json:"condition"`
	Year          *int          `json:"year,omitempty"`
	Mileage       *int          `json:"mileage,omitempty"`
	FuelType      FuelType      `json:"fuel_type,omitempty"`
	Transmission  Transmission  `json:"transmission,omitempty"`
	EmissionClass EmissionClass `json:"emission_class,omitempty"`
	CountryCode   string        `json:"country_code"`
	CategoryID    string        `json:"category_id"`
	CategorySlug  string        `json:"category_slug"`
	CategoryName  string        `json:"category_name"`
	BrandID       string        `json:"brand_id,omitempty"`
	BrandSlug     string        `json:"brand_slug,omitempty"`
	BrandName     string        `json:"brand_name,omitempty"`
	ModelID       string        `json:"model_id,omitempty"`
	ModelSlug     string        `json:"model_slug,omitempty"`
	ModelName     string        `json:"model_name,omitempty"`
	SellerID      string        `json:"seller_id"`
	ImageURL      string        `json:"image_url,omitempty"`
	Status        string        `json:"status"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty"`
}

// Searchable reports whether the listing may appear in search results.
func (l *Listing) Searchable() bool {
	return l.Status == ListingStatusActive && l.DeletedAt == nil
}

// ListingSummary is the projection of a listing returned in search results.
// A nil Price means "price on request".
type ListingSummary struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Price         *int64        `json:"price"`
	Currency      string        `json:"currency"`
	Condition     Condition     `json:"condition"`
	Year          *int          `json:"year"`
	Mileage       *int          `json:"mileage"`
	FuelType      FuelType      `json:"fuelType,omitempty"`
	Transmission  Transmission  `json:"transmission,omitempty"`
	EmissionClass EmissionClass `json:"emissionClass,omitempty"`
	CountryCode   string        `json:"countryCode"`
	CategorySlug  string        `json:"categorySlug"`
	CategoryName  string        `json:"categoryName"`
	BrandSlug     string        `json:"brandSlug,omitempty"`
	BrandName     string        `json:"brandName,omitempty"`
	ModelName     string        `json:"modelName,omitempty"`
	SellerID      string        `json:"sellerId"`
	ImageURL      string        `json:"imageUrl,omitempty"`
	Status        string        `json:"status"`
	PublishedAt   *time.Time    `json:"publishedAt"`
}

// Summary projects the listing into its search result form.
func (l *Listing) Summary() ListingSummary {
	return ListingSummary{
		ID:            l.ID,
		Title:         l.Title,
		Slug:          l.Slug,
		Price:         l.Price,
		Currency:      l.Currency,
		Condition:     l.Condition,
		Year:          l.Year,
		Mileage:       l.Mileage,
		FuelType:      l.FuelType,
		Transmission:  l.Transmission,
		EmissionClass: l.EmissionClass,
		CountryCode:   l.CountryCode,
		CategorySlug:  l.CategorySlug,
		CategoryName:  l.CategoryName,
		BrandSlug:     l.BrandSlug,
		BrandName:     l.BrandName,
		ModelName:     l.ModelName,
		SellerID:      l.SellerID,
		ImageURL:      l.ImageURL,
		Status:        l.Status,
		PublishedAt:   l.PublishedAt,
	}
}

// TaxonomyEntry is a brand or category resolved for display.
type TaxonomyEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
