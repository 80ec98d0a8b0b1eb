package trivia

import "strings"

// countryNames maps ISO 3166-1 alpha-2 codes to display names for the
// countries that show up most on the provider. Unknown codes fall back to the
// uppercased code itself.
var countryNames = map[string]string{
	"AR": "Argentina",
	"AM": "Armenia",
	"AU": "Australia",
	"AT": "Austria",
	"AZ": "Azerbaijan",
	"BR": "Brazil",
	"CA": "Canada",
	"CL": "Chile",
	"CN": "China",
	"CO": "Colombia",
	"HR": "Croatia",
	"CU": "Cuba",
	"CZ": "Czech Republic",
	"DK": "Denmark",
	"EG": "Egypt",
	"FI": "Finland",
	"FR": "France",
	"GE": "Georgia",
	"DE": "Germany",
	"GR": "Greece",
	"HU": "Hungary",
	"IS": "Iceland",
	"IN": "India",
	"ID": "Indonesia",
	"IR": "Iran",
	"IE": "Ireland",
	"IL": "Israel",
	"IT": "Italy",
	"JP": "Japan",
	"KZ": "Kazakhstan",
	"MX": "Mexico",
	"MN": "Mongolia",
	"NL": "Netherlands",
	"NO": "Norway",
	"PE": "Peru",
	"PH": "Philippines",
	"PL": "Poland",
	"PT": "Portugal",
	"RO": "Romania",
	"RU": "Russia",
	"RS": "Serbia",
	"SG": "Singapore",
	"ES": "Spain",
	"SE": "Sweden",
	"CH": "Switzerland",
	"TR": "Turkey",
	"UA": "Ukraine",
	"GB": "United Kingdom",
	"US": "United States",
	"UZ": "Uzbekistan",
	"VN": "Vietnam",
}

// CountryName resolves a country code to a display name, falling back to the
// uppercased code for anything unrecognized.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// countryPool returns the full set of known country names for wrong-option
// sampling.
func countryPool() []string {
	pool := make([]string, 0, len(countryNames))
	for _, name := range countryNames {
		pool = append(pool, name)
	}
	return pool
}
