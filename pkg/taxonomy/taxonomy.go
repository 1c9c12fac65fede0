// Package taxonomy assigns placeholder taxonomic paths to sequences and
// aggregates them into per-rank and per-country distributions.
//
// The classifier here is a heuristic stand-in, not a scientific one: it picks
// among five canonical lineages from GC content, length and header keywords,
// falling back to a random pick.
package taxonomy

type Level string

const (
	Kingdom Level = "kingdom"
	Phylum  Level = "phylum"
	Class   Level = "class"
	Order   Level = "order"
	Family  Level = "family"
	Genus   Level = "genus"
	Species Level = "species"
)

// Levels lists the ranks from root to leaf.
var Levels = []Level{Kingdom, Phylum, Class, Order, Family, Genus, Species}

// Next returns the rank below l. Species has none.
func (l Level) Next() (Level, bool) {
	for i, v := range Levels {
		if v == l && i+1 < len(Levels) {
			return Levels[i+1], true
		}
	}
	return "", false
}

// ParseLevel accepts a rank name as used in URLs and JSON keys.
func ParseLevel(s string) (Level, bool) {
	for _, v := range Levels {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

type Location struct {
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type Classification struct {
	Kingdom    string   `json:"kingdom"`
	Phylum     string   `json:"phylum"`
	Class      string   `json:"class"`
	Order      string   `json:"order"`
	Family     string   `json:"family"`
	Genus      string   `json:"genus"`
	Species    string   `json:"species"`
	Confidence float64  `json:"confidence"`
	Location   Location `json:"location"`
}

// At returns the taxon name at the given rank.
func (c Classification) At(l Level) string {
	switch l {
	case Kingdom:
		return c.Kingdom
	case Phylum:
		return c.Phylum
	case Class:
		return c.Class
	case Order:
		return c.Order
	case Family:
		return c.Family
	case Genus:
		return c.Genus
	case Species:
		return c.Species
	}
	return ""
}

// globalLocation marks lineages whose origin is drawn from sampleLocations.
const globalLocation = "Global"

// Indexes into canonicalTaxonomies.
const (
	animalia = iota
	plantae
	fungi
	protista
	bacteria
)

var canonicalTaxonomies = [...]Classification{
	animalia: {
		Kingdom: "Animalia", Phylum: "Chordata", Class: "Mammalia",
		Order: "Primates", Family: "Hominidae", Genus: "Homo", Species: "sapiens",
		Confidence: 0.95, Location: Location{Country: globalLocation},
	},
	plantae: {
		Kingdom: "Plantae", Phylum: "Tracheophyta", Class: "Magnoliopsida",
		Order: "Rosales", Family: "Rosaceae", Genus: "Rosa", Species: "rubiginosa",
		Confidence: 0.92, Location: Location{Country: "Europe", Lat: 48.8566, Lng: 2.3522},
	},
	fungi: {
		Kingdom: "Fungi", Phylum: "Basidiomycota", Class: "Agaricomycetes",
		Order: "Agaricales", Family: "Amanitaceae", Genus: "Amanita", Species: "muscaria",
		Confidence: 0.88, Location: Location{Country: "North America", Lat: 40.7128, Lng: -74.0060},
	},
	protista: {
		Kingdom: "Protista", Phylum: "Sarcomastigophora", Class: "Polycystinea",
		Order: "Spumellarida", Family: "Thalassicollidae", Genus: "Thalassicolla", Species: "nucleata",
		Confidence: 0.85, Location: Location{Country: "Ocean"},
	},
	bacteria: {
		Kingdom: "Bacteria", Phylum: "Proteobacteria", Class: "Gammaproteobacteria",
		Order: "Enterobacterales", Family: "Enterobacteriaceae", Genus: "Escherichia", Species: "coli",
		Confidence: 0.90, Location: Location{Country: globalLocation},
	},
}

var sampleLocations = [...]Location{
	{Country: "United States", Lat: 39.8283, Lng: -98.5795},
	{Country: "Brazil", Lat: -14.2350, Lng: -51.9253},
	{Country: "China", Lat: 35.8617, Lng: 104.1954},
	{Country: "India", Lat: 20.5937, Lng: 78.9629},
	{Country: "Australia", Lat: -25.2744, Lng: 133.7751},
	{Country: "South Africa", Lat: -30.5595, Lng: 22.9375},
	{Country: "Russia", Lat: 61.5240, Lng: 105.3188},
	{Country: "Germany", Lat: 51.1657, Lng: 10.4515},
}

// CanonicalTaxonomies returns a copy of the fixed lineage table.
func CanonicalTaxonomies() []Classification {
	out := make([]Classification, len(canonicalTaxonomies))
	copy(out, canonicalTaxonomies[:])
	return out
}

// SampleLocations returns a copy of the countries used for "Global" lineages.
func SampleLocations() []Location {
	out := make([]Location, len(sampleLocations))
	copy(out, sampleLocations[:])
	return out
}
