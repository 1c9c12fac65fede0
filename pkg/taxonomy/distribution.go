package taxonomy

import (
	"sort"
)

type LevelEntry struct {
	Name       string   `json:"name"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Children   []string `json:"children,omitempty"`
}

// HierarchicalDistribution maps every rank to its entries, sorted by count
// descending and then by name.
type HierarchicalDistribution map[Level][]LevelEntry

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CountryEntry struct {
	Country      string      `json:"country"`
	Count        int         `json:"count"`
	Percentage   float64     `json:"percentage"`
	Coordinates  Coordinates `json:"coordinates"`
	SpeciesCount int         `json:"speciesCount"`
	Intensity    float64     `json:"intensity"`
}

type Point struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Country string  `json:"country"`
	Species string  `json:"species"`
}

type GeographicDistribution struct {
	ByCountry   []CountryEntry `json:"byCountry"`
	Coordinates []Point        `json:"coordinates"`
}

type tally struct {
	count    int
	children map[string]struct{}
}

// Hierarchical counts classifications at every rank. Entries at a rank list
// the distinct names seen one rank below them.
func Hierarchical(cs []Classification) HierarchicalDistribution {
	dist := make(HierarchicalDistribution, len(Levels))
	total := float64(len(cs))

	for _, level := range Levels {
		next, hasNext := level.Next()
		tallies := map[string]*tally{}
		for _, c := range cs {
			name := c.At(level)
			t, ok := tallies[name]
			if !ok {
				t = &tally{children: map[string]struct{}{}}
				tallies[name] = t
			}
			t.count++
			if hasNext {
				t.children[c.At(next)] = struct{}{}
			}
		}

		entries := make([]LevelEntry, 0, len(tallies))
		for name, t := range tallies {
			e := LevelEntry{
				Name:       name,
				Count:      t.count,
				Percentage: float64(t.count) / total * 100,
			}
			if hasNext {
				e.Children = sortedKeys(t.children)
			}
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Count != entries[j].Count {
				return entries[i].Count > entries[j].Count
			}
			return entries[i].Name < entries[j].Name
		})
		dist[level] = entries
	}
	return dist
}

// Frequencies maps entry names to counts.
func Frequencies(entries []LevelEntry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.Name] += e.Count
	}
	return out
}

type countryTally struct {
	count   int
	coords  Coordinates
	species map[string]struct{}
}

// Geographic groups classifications by country. Coordinates of a country
// come from its first classification and intensity is relative to the
// busiest country. Points follow input order.
func Geographic(cs []Classification) GeographicDistribution {
	tallies := map[string]*countryTally{}
	points := make([]Point, 0, len(cs))

	for _, c := range cs {
		loc := c.Location
		t, ok := tallies[loc.Country]
		if !ok {
			t = &countryTally{
				coords:  Coordinates{Lat: loc.Lat, Lng: loc.Lng},
				species: map[string]struct{}{},
			}
			tallies[loc.Country] = t
		}
		t.count++
		t.species[c.Species] = struct{}{}

		points = append(points, Point{Lat: loc.Lat, Lng: loc.Lng, Country: loc.Country, Species: c.Species})
	}

	maxCount := 0
	for _, t := range tallies {
		maxCount = max(maxCount, t.count)
	}

	total := float64(len(cs))
	byCountry := make([]CountryEntry, 0, len(tallies))
	for country, t := range tallies {
		byCountry = append(byCountry, CountryEntry{
			Country:      country,
			Count:        t.count,
			Percentage:   float64(t.count) / total * 100,
			Coordinates:  t.coords,
			SpeciesCount: len(t.species),
			Intensity:    float64(t.count) / float64(maxCount),
		})
	}
	sort.Slice(byCountry, func(i, j int) bool {
		if byCountry[i].Count != byCountry[j].Count {
			return byCountry[i].Count > byCountry[j].Count
		}
		return byCountry[i].Country < byCountry[j].Country
	})

	return GeographicDistribution{ByCountry: byCountry, Coordinates: points}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
