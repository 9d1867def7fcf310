package mls

import "time"

// LeaseThreshold separates lease from sale listings: any price strictly below it
// is a lease. The filter builder and the normalizer both read this constant.
const LeaseThreshold = 10000

type PropertyType string

const (
	TypeDetached     PropertyType = "detached"
	TypeSemiDetached PropertyType = "semi-detached"
	TypeTownhouse    PropertyType = "townhouse"
	TypeCondo        PropertyType = "condo"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusSold    Status = "sold"
)

type ListingType string

const (
	ListingSale  ListingType = "sale"
	ListingLease ListingType = "lease"
)

// ListingTypeForPrice derives sale/lease from price alone.
func ListingTypeForPrice(price float64) ListingType {
	if price < LeaseThreshold {
		return ListingLease
	}
	return ListingSale
}

// Property is the canonical listing every downstream consumer sees,
// whichever upstream schema the data came from.
type Property struct {
	ID           string       `json:"id"`
	MLSNumber    string       `json:"mlsNumber"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	Province     string       `json:"province"`
	PostalCode   string       `json:"postalCode"`
	Price        float64      `json:"price"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	Sqft         int          `json:"sqft"`
	PropertyType PropertyType `json:"propertyType"`
	Status       Status       `json:"status"`
	ListingType  ListingType  `json:"listingType"`
	Images       []string     `json:"images"`
	Description  string       `json:"description"`
	ListedAt     time.Time    `json:"listedAt"`
	Featured     bool         `json:"featured"`
}

type SearchCriteria struct {
	City            string   `json:"city,omitempty"`
	Cities          []string `json:"cities,omitempty"`
	ListingType     string   `json:"listingType,omitempty"` // sale | lease
	MinPrice        float64  `json:"minPrice,omitempty"`
	MaxPrice        float64  `json:"maxPrice,omitempty"`
	MinBeds         int      `json:"minBeds,omitempty"`
	MinBaths        int      `json:"minBaths,omitempty"`
	PropertyClass   string   `json:"propertyClass,omitempty"` // residential | commercial
	PropertyTypes   []string `json:"propertyTypes,omitempty"`
	Keywords        string   `json:"keywords,omitempty"`
	MinSqft         int      `json:"minSqft,omitempty"`
	MaxSqft         int      `json:"maxSqft,omitempty"`
	MinLotSize      float64  `json:"minLotSize,omitempty"`
	MaxLotSize      float64  `json:"maxLotSize,omitempty"`
	MaxDaysOnMarket int      `json:"maxDaysOnMarket,omitempty"`
	Status          string   `json:"status,omitempty"` // defaults to active; "all" disables the filter
	Limit           int      `json:"limit,omitempty"`
	Offset          int      `json:"offset,omitempty"`
}

// AllCities merges City into Cities, dropping blanks.
func (c SearchCriteria) AllCities() []string {
	out := make([]string, 0, len(c.Cities)+1)
	if c.City != "" {
		out = append(out, c.City)
	}
	for _, city := range c.Cities {
		if city != "" {
			out = append(out, city)
		}
	}
	return out
}

// MediaRecord is one raw image reference from the Media resource.
type MediaRecord struct {
	MediaURL          string `json:"MediaURL"`
	MediaKey          string `json:"MediaKey,omitempty"`
	Order             *int   `json:"Order,omitempty"`
	MediaCategory     string `json:"MediaCategory,omitempty"`
	MimeType          string `json:"MimeType,omitempty"`
	ResourceRecordKey string `json:"ResourceRecordKey,omitempty"`
}

// SearchResult carries raw upstream listings. Total is the upstream count, not
// len(Listings), since results are paginated.
type SearchResult struct {
	Success  bool          `json:"success"`
	Listings []ResoListing `json:"listings"`
	Total    int           `json:"total"`
	Error    string        `json:"error,omitempty"`
}

// PropertyPage is a SearchResult after normalization.
type PropertyPage struct {
	Success  bool       `json:"success"`
	Listings []Property `json:"listings"`
	Total    int        `json:"total"`
	Error    string     `json:"error,omitempty"`
}

// Normalize converts every raw listing, attaching batch-fetched media to
// records that came back without an expanded Media collection.
func (r SearchResult) Normalize(media map[string][]MediaRecord) PropertyPage {
	page := PropertyPage{
		Success:  r.Success,
		Listings: make([]Property, 0, len(r.Listings)),
		Total:    r.Total,
		Error:    r.Error,
	}
	for _, raw := range r.Listings {
		if len(raw.Media) == 0 {
			raw.Media = media[raw.ListingKey]
		}
		page.Listings = append(page.Listings, Normalize(raw))
	}
	return page
}

// Keys returns the listing keys in result order.
func (r SearchResult) Keys() []string {
	keys := make([]string, 0, len(r.Listings))
	for _, l := range r.Listings {
		if l.ListingKey != "" {
			keys = append(keys, l.ListingKey)
		}
	}
	return keys
}
