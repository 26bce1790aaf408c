// Package reference resolves storefront state names and ISO country codes to
// the values the remote ERP expects. Lookups are static and case, accent and
// whitespace insensitive.
package reference

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/erp/ordersync/internal/domain/integration"
)

// Resolver implements integration.ReferenceResolver over static tables.
type Resolver struct {
	states        map[string]string
	stateCodes    map[string]struct{}
	countries     map[string]string
	countryByName map[string]string
}

var _ integration.ReferenceResolver = (*Resolver)(nil)

// New builds a Resolver from the bundled tables.
func New() *Resolver {
	r := &Resolver{
		states:        make(map[string]string),
		stateCodes:    make(map[string]struct{}),
		countries:     make(map[string]string, len(isoCountries)),
		countryByName: make(map[string]string, len(isoCountries)),
	}
	for _, table := range []map[string]string{usStates, canadianProvinces, australianStates} {
		for name, code := range table {
			r.states[normalize(name)] = code
			r.stateCodes[code] = struct{}{}
		}
	}
	for iso, name := range isoCountries {
		value, ok := countryOverrides[iso]
		if !ok {
			value = enumName(name)
		}
		r.countries[iso] = value
		r.countryByName[normalize(name)] = value
	}
	return r
}

// StateCodeFor returns the subdivision code for a state or province name.
// Values that already are a known code come back upper-cased; anything
// unknown is returned trimmed but otherwise unchanged.
func (r *Resolver) StateCodeFor(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	if code, ok := r.states[normalize(trimmed)]; ok {
		return code
	}
	if upper := strings.ToUpper(trimmed); isKnown(r.stateCodes, upper) {
		return upper
	}
	return trimmed
}

// CountryCodeFor returns the ERP country value for an ISO alpha-2 code. A full
// country name is accepted too. Unknown values pass through trimmed.
func (r *Resolver) CountryCodeFor(isoCode string) string {
	trimmed := strings.TrimSpace(isoCode)
	if trimmed == "" {
		return ""
	}
	if value, ok := r.countries[strings.ToUpper(trimmed)]; ok {
		return value
	}
	if value, ok := r.countryByName[normalize(trimmed)]; ok {
		return value
	}
	return trimmed
}

func isKnown(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// normalize strips accents, folds case and collapses whitespace so
// "Québec", "QUEBEC" and " quebec " compare equal.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// enumName turns "Antigua and Barbuda" into "_antiguaAndBarbuda".
func enumName(name string) string {
	plain := strings.NewReplacer("'", "", "’", "").Replace(normalize(name))
	words := strings.FieldsFunc(plain, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	titler := cases.Title(language.Und)
	var b strings.Builder
	b.WriteByte('_')
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(titler.String(w))
	}
	return b.String()
}
