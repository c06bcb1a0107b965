package cleanse

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// known currency symbols and aliases mapped to 3-letter codes
var currencyMapping = map[string]string{
	"€":    "EUR",
	"EUR":  "EUR",
	"EURO": "EUR",
	"$":    "USD",
	"USD":  "USD",
	"£":    "GBP",
	"GBP":  "GBP",
}

// known historical/alternate country codes mapped to 2-letter codes
var countryMapping = map[string]string{
	"GER":  "DE",
	"DEU":  "DE",
	"DE":   "DE",
	"USA":  "US",
	"U.S.": "US",
	"US":   "US",
	"UK":   "GB",
	"GB":   "GB",
	"FRA":  "FR",
	"FR":   "FR",
}

// country names for the codes that appear in the source data
var countryNames = map[string]string{
	"DE": "Germany",
	"US": "United States",
	"GB": "United Kingdom",
	"FR": "France",
}

// NormalizeCurrency maps currency symbols and aliases to a 3-letter code.
// Unrecognised non-empty input is passed through trimmed and uppercased,
// empty input yields the empty string.
func NormalizeCurrency(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if code, ok := currencyMapping[s]; ok {
		return code
	}
	return s
}

// NormalizeCountry maps alternate country codes to canonical 2-letter codes.
// Unrecognised non-empty input is passed through trimmed and uppercased,
// empty input yields the empty string.
func NormalizeCountry(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if code, ok := countryMapping[s]; ok {
		return code
	}
	return s
}

// CountryName returns the full name for a 2-letter country code, or the
// code itself when no name is known. The source data does not carry names.
func CountryName(code string) string {
	if code == "" {
		return ""
	}
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}

// ParseDate parses a date strictly in DD.MM.YY format. Invalid calendar
// dates such as 31.02.24 are rejected.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("02.01.06", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDecimal parses a numeric string that may use a comma or a dot as
// decimal separator.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseInt parses an integer string.
func ParseInt(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
