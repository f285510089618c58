package region

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer resolves free-text administrative names to canonical region
// names. A false return means the feature has no canonical region and
// must be skipped.
type Normalizer interface {
	Lookup(rawAdmin string) (string, bool)
}

// NameTable is the default Normalizer: a fixed alias table over folded
// (lowercased, diacritic-stripped) names, plus a set of territories that
// map to no region at all. Unlisted names canonicalize to themselves.
type NameTable struct {
	aliases map[string]string
	none    map[string]bool
}

// Natural Earth admin-0 names whose canonical region name differs.
var defaultAliases = map[string]string{
	"United States of America":         "United States",
	"United Republic of Tanzania":      "Tanzania",
	"Democratic Republic of the Congo": "Democratic Republic of Congo",
	"Republic of the Congo":            "Congo",
	"Republic of Serbia":               "Serbia",
	"Czechia":                          "Czech Republic",
	"eSwatini":                         "Swaziland",
	"The Bahamas":                      "Bahamas",
	"East Timor":                       "Timor-Leste",
	"Cabo Verde":                       "Cape Verde",
	"Federated States of Micronesia":   "Micronesia",
	"Guinea Bissau":                    "Guinea-Bissau",
	"Macedonia":                        "North Macedonia",
	"Ivory Coast":                      "Côte d'Ivoire",
}

// Features with no canonical region: uninhabited or disputed territories
// excluded from the aggregation output.
var defaultNone = []string{
	"Antarctica",
	"French Southern and Antarctic Lands",
	"Fr. S. Antarctic Lands",
	"Kashmir",
	"Siachen Glacier",
	"Spratly Islands",
	"Scarborough Reef",
	"Serranilla Bank",
	"Bajo Nuevo Bank (Petrel Is.)",
	"Coral Sea Islands",
	"Clipperton Island",
	"Ashmore and Cartier Islands",
	"Bir Tawil",
	"Southern Patagonian Ice Field",
	"Baikonur",
}

// NewNameTable builds the default name normalizer.
func NewNameTable() *NameTable {
	t := &NameTable{
		aliases: make(map[string]string, len(defaultAliases)),
		none:    make(map[string]bool, len(defaultNone)),
	}
	for raw, canonical := range defaultAliases {
		t.aliases[fold(raw)] = canonical
	}
	for _, raw := range defaultNone {
		t.none[fold(raw)] = true
	}
	return t
}

// Lookup resolves a raw admin name. Matching is case- and
// diacritic-insensitive.
func (t *NameTable) Lookup(rawAdmin string) (string, bool) {
	cleaned := strings.Join(strings.Fields(rawAdmin), " ")
	if cleaned == "" {
		return "", false
	}
	key := fold(cleaned)
	if t.none[key] {
		return "", false
	}
	if canonical, ok := t.aliases[key]; ok {
		return canonical, true
	}
	return cleaned, true
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// fold lowercases and strips combining marks so "Côte d'Ivoire" and
// "cote d'ivoire" compare equal.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
