package mapping

import "strings"

// Location is a free-text location split into its comma-delimited parts.
type Location struct {
	City    string
	State   string
	Country string
}

// ParseLocation splits "city, state, country" and defaults the country to
// DefaultCountry. A blank location yields an empty Location.
func ParseLocation(location string) Location {
	if strings.TrimSpace(location) == "" {
		return Location{}
	}

	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	loc := Location{Country: DefaultCountry}
	if len(parts) > 0 {
		loc.City = parts[0]
	}
	if len(parts) > 1 {
		loc.State = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		loc.Country = parts[2]
	}
	return loc
}
