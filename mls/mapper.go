package mls

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/listing-api/internal/canon"
)

// RawListing is one upstream listing record in either known schema. The set of
// implementations is closed: ResoListing and CRMListing.
type RawListing interface {
	normalize() Property
}

// Normalize converts a raw record of either schema into the canonical Property.
// It never fails; unusable fields fall back to documented defaults.
func Normalize(raw RawListing) Property {
	if raw == nil {
		return Property{PropertyType: TypeDetached, Status: StatusActive, ListingType: ListingLease, Images: []string{}}
	}
	return raw.normalize()
}

// ResoListing follows the MLS wire format (RESO Data Dictionary field names).
type ResoListing struct {
	ListingKey             string        `json:"ListingKey"`
	ListingId              string        `json:"ListingId,omitempty"`
	UnparsedAddress        string        `json:"UnparsedAddress,omitempty"`
	StreetNumber           string        `json:"StreetNumber,omitempty"`
	StreetName             string        `json:"StreetName,omitempty"`
	StreetSuffix           string        `json:"StreetSuffix,omitempty"`
	UnitNumber             string        `json:"UnitNumber,omitempty"`
	City                   string        `json:"City,omitempty"`
	StateOrProvince        string        `json:"StateOrProvince,omitempty"`
	PostalCode             string        `json:"PostalCode,omitempty"`
	ListPrice              float64       `json:"ListPrice"`
	BedroomsTotal          int           `json:"BedroomsTotal,omitempty"`
	BathroomsTotalInteger  int           `json:"BathroomsTotalInteger,omitempty"`
	LivingArea             *float64      `json:"LivingArea,omitempty"`
	BuildingAreaTotal      *float64      `json:"BuildingAreaTotal,omitempty"`
	AboveGradeFinishedArea *float64      `json:"AboveGradeFinishedArea,omitempty"`
	LivingAreaRange        string        `json:"LivingAreaRange,omitempty"`
	PropertyType           string        `json:"PropertyType,omitempty"`
	PropertySubType        string        `json:"PropertySubType,omitempty"`
	StandardStatus         string        `json:"StandardStatus,omitempty"`
	PublicRemarks          string        `json:"PublicRemarks,omitempty"`
	ModificationTimestamp  string        `json:"ModificationTimestamp,omitempty"`
	ListingContractDate    string        `json:"ListingContractDate,omitempty"`
	Media                  []MediaRecord `json:"Media,omitempty"`
}

// CRMListing is the secondary, already partly normalized CRM schema.
type CRMListing struct {
	ID           string       `json:"id"`
	MLSNumber    string       `json:"mls_number,omitempty"`
	Address      string       `json:"address,omitempty"`
	City         string       `json:"city,omitempty"`
	Province     string       `json:"province,omitempty"`
	PostalCode   string       `json:"postal_code,omitempty"`
	Price        stringNumber `json:"price,omitempty"`
	Bedrooms     stringNumber `json:"bedrooms,omitempty"`
	Bathrooms    stringNumber `json:"bathrooms,omitempty"`
	Sqft         stringNumber `json:"sqft,omitempty"`
	SqftRange    string       `json:"sqft_range,omitempty"`
	PropertyType string       `json:"property_type,omitempty"`
	Status       string       `json:"status,omitempty"`
	Description  string       `json:"description,omitempty"`
	ListedAt     string       `json:"listed_at,omitempty"`
	Images       []string     `json:"images,omitempty"`
}

// wire PropertySubType -> canonical type; matched case-sensitively
var resoSubTypes = map[string]PropertyType{
	"Detached":          TypeDetached,
	"Semi-Detached":     TypeSemiDetached,
	"Semi Detached":     TypeSemiDetached,
	"Att/Row/Townhouse": TypeTownhouse,
	"Condo Townhouse":   TypeTownhouse,
	"Condo Apartment":   TypeCondo,
}

func (r ResoListing) normalize() Property {
	address := canon.Street(r.UnparsedAddress)
	if address == "" {
		address = canon.AddressLine(r.StreetNumber, r.StreetName, r.StreetSuffix, r.UnitNumber)
	}
	sqft := firstPositive(r.LivingArea, r.BuildingAreaTotal, r.AboveGradeFinishedArea)
	if sqft == 0 {
		sqft = rangeMidpoint(r.LivingAreaRange)
	}
	ptype, ok := resoSubTypes[strings.TrimSpace(r.PropertySubType)]
	if !ok {
		ptype = TypeDetached
	}
	return Property{
		ID:           r.ListingKey,
		MLSNumber:    firstNonEmpty(r.ListingId, r.ListingKey),
		Address:      address,
		City:         canon.City(r.City),
		Province:     canon.Province(r.StateOrProvince),
		PostalCode:   canon.PostalCode(r.PostalCode),
		Price:        r.ListPrice,
		Bedrooms:     maxInt(r.BedroomsTotal, 0),
		Bathrooms:    maxInt(r.BathroomsTotalInteger, 0),
		Sqft:         sqft,
		PropertyType: ptype,
		Status:       parseStatus(r.StandardStatus),
		ListingType:  ListingTypeForPrice(r.ListPrice),
		Images:       DedupeImages(r.Media),
		Description:  r.PublicRemarks,
		ListedAt:     parseTime(r.ModificationTimestamp, r.ListingContractDate),
		Featured:     false,
	}
}

func (c CRMListing) normalize() Property {
	price := c.Price.Float()
	sqft := int(math.Round(c.Sqft.Float()))
	if sqft <= 0 {
		sqft = rangeMidpoint(c.SqftRange)
	}
	return Property{
		ID:           c.ID,
		MLSNumber:    firstNonEmpty(c.MLSNumber, c.ID),
		Address:      canon.Street(c.Address),
		City:         canon.City(c.City),
		Province:     canon.Province(c.Province),
		PostalCode:   canon.PostalCode(c.PostalCode),
		Price:        price,
		Bedrooms:     maxInt(int(c.Bedrooms.Float()), 0),
		Bathrooms:    maxInt(int(c.Bathrooms.Float()), 0),
		Sqft:         sqft,
		PropertyType: parseCRMType(c.PropertyType),
		Status:       parseStatus(c.Status),
		ListingType:  ListingTypeForPrice(price),
		Images:       uniqueImages(c.Images),
		Description:  c.Description,
		ListedAt:     parseTime(c.ListedAt),
		Featured:     false,
	}
}

func parseCRMType(s string) PropertyType {
	switch PropertyType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeSemiDetached:
		return TypeSemiDetached
	case TypeTownhouse:
		return TypeTownhouse
	case TypeCondo:
		return TypeCondo
	default:
		return TypeDetached
	}
}

func parseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending
	case "sold", "closed":
		return StatusSold
	default:
		return StatusActive
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime returns the first candidate that parses, or the zero time.
func parseTime(candidates ...string) time.Time {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// rangeMidpoint reads "1500-1999" style ranges; anything else yields 0.
func rangeMidpoint(s string) int {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0
	}
	from, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	to, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(math.Round((from + to) / 2))
}

func firstPositive(vals ...*float64) int {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return int(math.Round(*v))
		}
	}
	return 0
}

// stringNumber accepts string or number JSON and stores the textual form
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// Float parses "$1,250,000"-style text; unparseable values are 0.
func (s stringNumber) Float() float64 {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, string(s))
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func maxInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
