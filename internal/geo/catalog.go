// Package geo holds the static three-level geography lookup backing the
// registration wizard's cascading country/state/city selects. The data is
// read-only reference material; unknown parents yield empty lists rather
// than errors so a half-filled draft never faults a page.
package geo

import "sort"

type country struct {
	states map[string][]string
}

var catalog = map[string]country{
	"India": {states: map[string][]string{
		"Maharashtra":   {"Mumbai", "Pune", "Nagpur", "Nashik"},
		"Karnataka":     {"Bengaluru", "Mysuru", "Mangaluru"},
		"Delhi":         {"New Delhi"},
		"Tamil Nadu":    {"Chennai", "Coimbatore", "Madurai"},
		"Gujarat":       {"Ahmedabad", "Surat", "Vadodara"},
		"West Bengal":   {"Kolkata", "Howrah"},
		"Telangana":     {"Hyderabad", "Warangal"},
		"Uttar Pradesh": {"Lucknow", "Noida", "Kanpur"},
	}},
	// NRI investor jurisdictions the original platform onboards from.
	"Singapore": {states: map[string][]string{
		"Central Region": {"Singapore"},
	}},
	"United Arab Emirates": {states: map[string][]string{
		"Dubai":     {"Dubai"},
		"Abu Dhabi": {"Abu Dhabi"},
		"Sharjah":   {"Sharjah"},
	}},
	"United Kingdom": {states: map[string][]string{
		"England":  {"London", "Manchester", "Birmingham"},
		"Scotland": {"Edinburgh", "Glasgow"},
	}},
}

func Countries() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func StatesOf(countryName string) []string {
	c, ok := catalog[countryName]
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(c.states))
	for name := range c.states {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func CitiesOf(countryName, stateName string) []string {
	c, ok := catalog[countryName]
	if !ok {
		return []string{}
	}
	cities, ok := c.states[stateName]
	if !ok {
		return []string{}
	}
	out := make([]string, len(cities))
	copy(out, cities)
	sort.Strings(out)
	return out
}

func HasCountry(countryName string) bool {
	_, ok := catalog[countryName]
	return ok
}

func HasState(countryName, stateName string) bool {
	c, ok := catalog[countryName]
	if !ok {
		return false
	}
	_, ok = c.states[stateName]
	return ok
}

func HasCity(countryName, stateName, cityName string) bool {
	c, ok := catalog[countryName]
	if !ok {
		return false
	}
	for _, city := range c.states[stateName] {
		if city == cityName {
			return true
		}
	}
	return false
}
