package tracking

import (
	"regexp"
	"strings"
	"unicode"
)

// identRE splits a normalized flight number into its airline code (2–3
// letters) and numeric part.
var identRE = regexp.MustCompile(`^([A-Z]{2,3})(\d+)$`)

// Ident is the provider-facing identifier derived from a flight number.
type Ident struct {
	Airline string
	Number  string
}

// String returns the query form, airline code followed by number.
func (i Ident) String() string { return i.Airline + i.Number }

// NormalizeFlightNumber uppercases s and removes all whitespace, so
// "aa 1234" becomes "AA1234".
func NormalizeFlightNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// NormalizeAirport trims and uppercases an optional airport code.
func NormalizeAirport(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseIdent re-derives the airline and number components of a flight
// number. When the regular form does not match (e.g. "B61234"), the first two
// characters are taken as the airline code and the rest as the number. The
// fallback is lossy and only meant for building provider queries.
func ParseIdent(flightNumber string) Ident {
	fn := NormalizeFlightNumber(flightNumber)
	if m := identRE.FindStringSubmatch(fn); m != nil {
		return Ident{Airline: m[1], Number: m[2]}
	}
	r := []rune(fn)
	if len(r) <= 2 {
		return Ident{Airline: fn}
	}
	return Ident{Airline: string(r[:2]), Number: string(r[2:])}
}
