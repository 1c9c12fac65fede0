// Package diversity computes biodiversity indices from a taxon frequency
// table.
package diversity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type Indices struct {
	ShannonIndex    float64 `json:"shannonIndex"`
	SimpsonIndex    float64 `json:"simpsonIndex"`
	SpeciesRichness int     `json:"speciesRichness"`
	Evenness        float64 `json:"evenness"`
	Dominance       float64 `json:"dominance"`
}

// proportions returns count/total for every nonzero taxon, in name order so
// float sums are reproducible.
func proportions(freq map[string]int) []float64 {
	names := make([]string, 0, len(freq))
	total := 0
	for name, n := range freq {
		if n > 0 {
			names = append(names, name)
			total += n
		}
	}
	if total == 0 {
		return nil
	}
	sort.Strings(names)

	p := make([]float64, len(names))
	for i, name := range names {
		p[i] = float64(freq[name]) / float64(total)
	}
	return p
}

func sumSquares(p []float64) float64 {
	var s float64
	for _, v := range p {
		s += v * v
	}
	return s
}

// Compute returns all indices, each rounded to two decimals. SimpsonIndex is
// the dominance form Σp² and Dominance is its complement.
func Compute(freq map[string]int) Indices {
	p := proportions(freq)
	if len(p) == 0 {
		return Indices{}
	}

	shannon := stat.Entropy(p)
	simpson := sumSquares(p)
	richness := len(p)

	var evenness float64
	if richness > 1 {
		evenness = shannon / math.Log(float64(richness))
	}

	return Indices{
		ShannonIndex:    round2(shannon),
		SimpsonIndex:    round2(simpson),
		SpeciesRichness: richness,
		Evenness:        round2(evenness),
		Dominance:       round2(1 - simpson),
	}
}

// ShannonIndex is -Σ p ln p, rounded to two decimals.
func ShannonIndex(freq map[string]int) float64 {
	p := proportions(freq)
	if len(p) == 0 {
		return 0
	}
	return round2(stat.Entropy(p))
}

// SimpsonDominanceIndex is Σp², the probability that two draws with
// replacement hit the same taxon. Rounded to two decimals.
func SimpsonDominanceIndex(freq map[string]int) float64 {
	return round2(sumSquares(proportions(freq)))
}

// SimpsonDiversityIndex is 1-Σp², rounded to two decimals. Empty input is 0.
func SimpsonDiversityIndex(freq map[string]int) float64 {
	p := proportions(freq)
	if len(p) == 0 {
		return 0
	}
	return round2(1 - sumSquares(p))
}

// Evenness is Pielou's J from the rounded Shannon index.
func Evenness(freq map[string]int) float64 {
	richness := len(proportions(freq))
	if richness <= 1 {
		return 0
	}
	return round2(ShannonIndex(freq) / math.Log(float64(richness)))
}

// DominantTaxon returns the most frequent taxon, ties broken by name. ok is
// false when every count is zero.
func DominantTaxon(freq map[string]int) (name string, count int, ok bool) {
	for n, c := range freq {
		if c <= 0 {
			continue
		}
		if !ok || c > count || (c == count && n < name) {
			name, count, ok = n, c, true
		}
	}
	return name, count, ok
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
