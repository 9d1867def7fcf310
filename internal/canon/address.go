package canon

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	rePostalCA  = regexp.MustCompile(`^([A-Z]\d[A-Z])\s*-?\s*(\d[A-Z]\d)$`)
	titleCaser  = cases.Title(language.English)
	suffixShort = map[string]string{
		"street":    "St",
		"road":      "Rd",
		"avenue":    "Ave",
		"boulevard": "Blvd",
		"drive":     "Dr",
		"lane":      "Ln",
		"court":     "Crt",
		"circle":    "Cir",
		"crescent":  "Cres",
		"terrace":   "Terr",
		"place":     "Pl",
		"parkway":   "Pkwy",
		"highway":   "Hwy",
		"square":    "Sq",
		"trail":     "Trl",
	}
	provinceCodes = map[string]string{
		"ALBERTA": "AB", "BRITISH COLUMBIA": "BC", "MANITOBA": "MB", "NEW BRUNSWICK": "NB",
		"NEWFOUNDLAND AND LABRADOR": "NL", "NEWFOUNDLAND": "NL", "NOVA SCOTIA": "NS",
		"NORTHWEST TERRITORIES": "NT", "NUNAVUT": "NU", "ONTARIO": "ON",
		"PRINCE EDWARD ISLAND": "PE", "QUEBEC": "QC", "QUÉBEC": "QC", "SASKATCHEWAN": "SK", "YUKON": "YT",
	}
)

// AddressLine builds a display street line from its parts, e.g. "1203 - 88 Harbour St".
// The unit goes first, which is how Canadian boards print condo addresses.
func AddressLine(number, name, suffix, unit string) string {
	street := collapseSpaces(strings.Join([]string{number, name, abbreviateSuffix(suffix)}, " "))
	unit = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(unit), "#"))
	if unit == "" || street == "" {
		return street
	}
	return unit + " - " + street
}

// Street tidies a preformatted address line: collapses whitespace and
// shortens a trailing street suffix.
func Street(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	last := len(fields) - 1
	fields[last] = abbreviateSuffix(fields[last])
	return strings.Join(fields, " ")
}

// City fixes shouting or all-lowercase feeds ("TORONTO C01" -> "Toronto C01").
// Mixed-case input is trusted as-is.
func City(s string) string {
	s = collapseSpaces(s)
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		return titleCaser.String(s)
	}
	return s
}

// Province returns the two-letter code for a province name; codes pass through upper-cased.
func Province(s string) string {
	p := collapseSpaces(strings.ToUpper(s))
	if code, ok := provinceCodes[p]; ok {
		return code
	}
	return p
}

// PostalCode formats Canadian codes as "A1A 1A1". Anything else is only trimmed.
func PostalCode(s string) string {
	z := strings.ToUpper(strings.TrimSpace(s))
	if m := rePostalCA.FindStringSubmatch(z); m != nil {
		return m[1] + " " + m[2]
	}
	return z
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func abbreviateSuffix(s string) string {
	s = strings.TrimSpace(s)
	if short, ok := suffixShort[strings.ToLower(s)]; ok {
		return short
	}
	return s
}
