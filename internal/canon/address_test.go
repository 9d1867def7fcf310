package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressLine(t *testing.T) {
	assert.Equal(t, "88 Harbour St", AddressLine("88", "Harbour", "Street", ""))
	assert.Equal(t, "1203 - 88 Harbour St", AddressLine("88", "Harbour", "St", "#1203"))
	assert.Equal(t, "12 Elm Cres", AddressLine("12", " Elm ", "crescent", ""))
	assert.Equal(t, "", AddressLine("", "", "", "5"))
}

func TestStreet(t *testing.T) {
	assert.Equal(t, "10 Queen St", Street("  10   Queen Street "))
	assert.Equal(t, "", Street("   "))
}

func TestCity(t *testing.T) {
	assert.Equal(t, "Toronto C01", City("TORONTO C01"))
	assert.Equal(t, "Mississauga", City("mississauga"))
	assert.Equal(t, "McKinnon", City("McKinnon"))
}

func TestProvince(t *testing.T) {
	assert.Equal(t, "ON", Province("Ontario"))
	assert.Equal(t, "BC", Province(" british  columbia "))
	assert.Equal(t, "QC", Province("qc"))
}

func TestPostalCode(t *testing.T) {
	assert.Equal(t, "M5V 3L9", PostalCode("m5v3l9"))
	assert.Equal(t, "M5V 3L9", PostalCode("M5V-3L9"))
	assert.Equal(t, "90210", PostalCode(" 90210 "))
}
