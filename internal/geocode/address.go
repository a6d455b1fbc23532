package geocode

import "strings"

// Address is a reverse geocoded location.
type Address struct {
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	Locality    string `json:"locality,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// numberFirstCountries write the house number before the street name.
var numberFirstCountries = map[string]bool{
	"AU": true,
	"NZ": true,
	"UK": true,
	"GB": true,
	"US": true,
	"VN": true,
}

// NumberFirst reports whether addresses for users in country put the house
// number before the street.
func NumberFirst(country string) bool {
	return numberFirstCountries[strings.ToUpper(strings.TrimSpace(country))]
}

// Format renders "street number, locality, CC", with the house number before
// the street when numberFirst is set. Missing parts are left out.
func (a Address) Format(numberFirst bool) string {
	var parts []string

	if a.Street != "" {
		street := a.Street
		if a.HouseNumber != "" {
			if numberFirst {
				street = a.HouseNumber + " " + street
			} else {
				street = street + " " + a.HouseNumber
			}
		}
		parts = append(parts, street)
	}
	if a.Locality != "" {
		parts = append(parts, a.Locality)
	}
	if a.CountryCode != "" {
		parts = append(parts, a.CountryCode)
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether the address has no parts.
func (a Address) IsZero() bool {
	return a == Address{}
}
