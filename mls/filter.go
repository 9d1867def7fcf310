package mls

import (
	"fmt"
	"strconv"
	"strings"
)

// wire values of PropertySubType, keyed by the lowercase name callers use
var subTypeWire = map[string][]string{
	"detached":      {"Detached"},
	"semi-detached": {"Semi-Detached", "Semi Detached"},
	"townhouse":     {"Att/Row/Townhouse"},
	"condo":         {"Condo Apartment"},
}

var residentialClasses = []string{"Residential Freehold", "Residential Condo & Other"}

const commercialClass = "Commercial"

var statusWire = map[string]string{
	"active":  "Active",
	"pending": "Pending",
	"sold":    "Closed",
}

// EscapeODataString doubles single quotes, the protocol's string literal escape.
func EscapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func quote(s string) string { return "'" + EscapeODataString(s) + "'" }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// orGroup joins clauses with "or", parenthesized only when there is more than one.
func orGroup(clauses []string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, " or ") + ")"
}

func eqAny(field string, values []string) string {
	clauses := make([]string, 0, len(values))
	for _, v := range values {
		clauses = append(clauses, fmt.Sprintf("%s eq %s", field, quote(v)))
	}
	return orGroup(clauses)
}

// BuildFilter turns search criteria into an OData $filter expression. Each set
// criterion contributes one clause; clauses are joined with "and" in a fixed
// order. It never fails: unusable input just yields fewer clauses.
func BuildFilter(c SearchCriteria) string {
	var clauses []string
	add := func(format string, args ...any) {
		clauses = append(clauses, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(strings.TrimSpace(c.ListingType)) {
	case string(ListingSale):
		add("ListPrice ge %d", LeaseThreshold)
	case string(ListingLease):
		add("ListPrice lt %d", LeaseThreshold)
	}

	if cities := c.AllCities(); len(cities) > 0 {
		// City carries sub-zones upstream ("Toronto C01"), hence startswith.
		parts := make([]string, 0, len(cities))
		for _, city := range cities {
			parts = append(parts, fmt.Sprintf("startswith(City,%s)", quote(city)))
		}
		clauses = append(clauses, orGroup(parts))
	}

	if c.MinPrice > 0 {
		add("ListPrice ge %s", num(c.MinPrice))
	}
	if c.MaxPrice > 0 {
		add("ListPrice le %s", num(c.MaxPrice))
	}
	if c.MinBeds > 0 {
		add("BedroomsTotal ge %d", c.MinBeds)
	}
	if c.MinBaths > 0 {
		add("BathroomsTotalInteger ge %d", c.MinBaths)
	}

	switch strings.ToLower(strings.TrimSpace(c.PropertyClass)) {
	case "residential":
		clauses = append(clauses, eqAny("PropertyType", residentialClasses))
	case "commercial":
		clauses = append(clauses, eqAny("PropertyType", []string{commercialClass}))
	}

	if wire := subTypeValues(c.PropertyTypes); len(wire) > 0 {
		clauses = append(clauses, eqAny("PropertySubType", wire))
	}

	status := strings.TrimSpace(c.Status)
	switch {
	case status == "":
		add("StandardStatus eq %s", quote(statusWire["active"]))
	case strings.EqualFold(status, "all"):
	default:
		if w, ok := statusWire[strings.ToLower(status)]; ok {
			status = w
		}
		add("StandardStatus eq %s", quote(status))
	}

	if kw := strings.TrimSpace(c.Keywords); kw != "" {
		add("contains(PublicRemarks,%s)", quote(kw))
	}

	if c.MinSqft > 0 {
		add("LivingArea ge %d", c.MinSqft)
	}
	if c.MaxSqft > 0 {
		add("LivingArea le %d", c.MaxSqft)
	}
	if c.MinLotSize > 0 {
		add("LotSizeArea ge %s", num(c.MinLotSize))
	}
	if c.MaxLotSize > 0 {
		add("LotSizeArea le %s", num(c.MaxLotSize))
	}
	if c.MaxDaysOnMarket > 0 {
		add("DaysOnMarket le %d", c.MaxDaysOnMarket)
	}

	return strings.Join(clauses, " and ")
}

// subTypeValues maps requested types through subTypeWire. Unknown types pass
// through as given.
func subTypeValues(types []string) []string {
	var out []string
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if wire, ok := subTypeWire[strings.ToLower(t)]; ok {
			out = append(out, wire...)
			continue
		}
		out = append(out, t)
	}
	return out
}
