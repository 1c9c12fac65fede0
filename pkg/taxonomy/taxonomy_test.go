package taxonomy

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/biodiv/pkg/fasta"
)

func isSampleLocation(loc Location) bool {
	for _, l := range SampleLocations() {
		if l == loc {
			return true
		}
	}
	return false
}

func TestClassifyRules(t *testing.T) {
	h := NewHeuristicClassifier(rand.NewSource(42))

	tests := []struct {
		name, header, seq string
		genus             string
	}{
		{"gc rich and long", "plant", strings.Repeat("GC", 600), "Rosa"},
		{"gc poor and short", "human", strings.Repeat("AT", 100), "Escherichia"},
		{"human header", "Homo sapiens chr1", strings.Repeat("ACGT", 150), "Homo"},
		{"human any case", "HUMAN sample", strings.Repeat("ACGT", 150), "Homo"},
		{"mushroom header", "Mushroom isolate", strings.Repeat("ACGT", 150), "Amanita"},
		{"fungus header", "soil fungus 3", strings.Repeat("ACGT", 150), "Amanita"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := h.Classify(tt.header, tt.seq)
			assert.Equal(t, tt.genus, c.Genus)
			assert.GreaterOrEqual(t, c.Confidence, 0.7)
			assert.LessOrEqual(t, c.Confidence, 0.95)
		})
	}
}

func TestClassifyLocations(t *testing.T) {
	h := NewHeuristicClassifier(rand.NewSource(1))

	plant := h.Classify("p", strings.Repeat("GC", 600))
	assert.Equal(t, Location{Country: "Europe", Lat: 48.8566, Lng: 2.3522}, plant.Location)
	assert.Greater(t, plant.Confidence, 0.92-0.2)
	assert.LessOrEqual(t, plant.Confidence, 0.92)

	for i := 0; i < 20; i++ {
		bact := h.Classify("b", strings.Repeat("AT", 100))
		assert.True(t, isSampleLocation(bact.Location), "unexpected location %+v", bact.Location)
		assert.NotEqual(t, globalLocation, bact.Location.Country)
	}
}

func TestClassifyFallbackIsCanonical(t *testing.T) {
	h := NewHeuristicClassifier(rand.NewSource(3))
	families := map[string]bool{}
	for _, c := range CanonicalTaxonomies() {
		families[c.Family] = true
	}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c := h.Classify("unknown", strings.Repeat("ACGT", 150))
		require.True(t, families[c.Family], c.Family)
		assert.NotEqual(t, globalLocation, c.Location.Country)
		seen[c.Family] = true
	}
	assert.Len(t, seen, 5)
}

func TestClassifyConcurrentWorkers(t *testing.T) {
	h := NewHeuristicClassifier(rand.NewSource(11))
	families := map[string]bool{}
	for _, c := range CanonicalTaxonomies() {
		families[c.Family] = true
	}
	seqs := make([]fasta.SequenceRecord, 400)
	for i := range seqs {
		seqs[i] = fasta.SequenceRecord{Header: "unknown", Sequence: strings.Repeat("ACGT", 150), Length: 600}
	}

	out, err := ClassifyBatch(context.Background(), h, seqs, BatchOptions{Size: 100, Workers: 8})
	require.NoError(t, err)
	require.Len(t, out, len(seqs))
	for _, c := range out {
		require.True(t, families[c.Family], c.Family)
		assert.NotEqual(t, globalLocation, c.Location.Country)
		assert.GreaterOrEqual(t, c.Confidence, 0.7)
	}
}

func TestClassifySeeded(t *testing.T) {
	a := NewHeuristicClassifier(rand.NewSource(99))
	b := NewHeuristicClassifier(rand.NewSource(99))
	for i := 0; i < 25; i++ {
		seq := strings.Repeat("ACGT", 100+i)
		assert.Equal(t, a.Classify("x", seq), b.Classify("x", seq))
	}
}

type headerClassifier struct {
	calls atomic.Int64
}

func (f *headerClassifier) Classify(header, _ string) Classification {
	f.calls.Add(1)
	return Classification{Species: header}
}

func records(n int) []fasta.SequenceRecord {
	out := make([]fasta.SequenceRecord, n)
	for i := range out {
		out[i] = fasta.SequenceRecord{Header: fmt.Sprintf("r%03d", i), Sequence: "ACGT", Length: 4}
	}
	return out
}

func TestClassifyBatchKeepsOrder(t *testing.T) {
	seqs := records(53)
	var batches []int
	f := &headerClassifier{}

	out, err := ClassifyBatch(context.Background(), f, seqs, BatchOptions{
		Size:    7,
		Workers: 8,
		OnBatch: func(done, total int) {
			assert.Equal(t, 53, total)
			batches = append(batches, done)
		},
	})
	require.NoError(t, err)
	require.Len(t, out, len(seqs))
	for i := range seqs {
		assert.Equal(t, seqs[i].Header, out[i].Species)
	}
	assert.Equal(t, int64(53), f.calls.Load())
	assert.Equal(t, []int{7, 14, 21, 28, 35, 42, 49, 53}, batches)
}

func TestClassifyBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &headerClassifier{}

	_, err := ClassifyBatch(ctx, f, records(30), BatchOptions{
		Size:    10,
		Workers: 1,
		OnBatch: func(done, _ int) {
			if done == 10 {
				cancel()
			}
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), f.calls.Load())
}

func TestClassifyBatchEmpty(t *testing.T) {
	out, err := ClassifyBatch(context.Background(), &headerClassifier{}, nil, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func sample() []Classification {
	tax := CanonicalTaxonomies()
	human, rose, coli := tax[animalia], tax[plantae], tax[bacteria]
	human.Location = Location{Country: "India", Lat: 20.5937, Lng: 78.9629}
	coli.Location = Location{Country: "India", Lat: 1, Lng: 2}
	coli2 := coli
	coli2.Location = Location{Country: "Brazil", Lat: -14.2350, Lng: -51.9253}
	return []Classification{human, rose, coli, coli2, human}
}

func TestHierarchical(t *testing.T) {
	dist := Hierarchical(sample())
	require.Len(t, dist, len(Levels))

	for _, level := range Levels {
		entries := dist[level]
		var sum float64
		for i, e := range entries {
			sum += e.Percentage
			if i > 0 {
				assert.GreaterOrEqual(t, entries[i-1].Count, e.Count)
			}
		}
		assert.InDelta(t, 100, sum, 0.01*float64(len(entries)), "level %s", level)
	}

	kingdoms := dist[Kingdom]
	require.Len(t, kingdoms, 3)
	// Animalia and Bacteria tie at 2 and sort by name.
	assert.Equal(t, "Animalia", kingdoms[0].Name)
	assert.Equal(t, "Bacteria", kingdoms[1].Name)
	assert.Equal(t, LevelEntry{Name: "Plantae", Count: 1, Percentage: 20, Children: []string{"Tracheophyta"}}, kingdoms[2])
	assert.InDelta(t, 40.0, kingdoms[0].Percentage, 1e-9)

	for _, e := range dist[Species] {
		assert.Nil(t, e.Children)
	}

	assert.Equal(t, map[string]int{"Hominidae": 2, "Enterobacteriaceae": 2, "Rosaceae": 1}, Frequencies(dist[Family]))
}

func TestHierarchicalEmpty(t *testing.T) {
	dist := Hierarchical(nil)
	for _, level := range Levels {
		assert.Empty(t, dist[level])
	}
}

func TestGeographic(t *testing.T) {
	cs := sample()
	geo := Geographic(cs)

	require.Len(t, geo.ByCountry, 3)
	india := geo.ByCountry[0]
	assert.Equal(t, "India", india.Country)
	assert.Equal(t, 3, india.Count)
	assert.InDelta(t, 60.0, india.Percentage, 1e-9)
	assert.Equal(t, 2, india.SpeciesCount)
	assert.Equal(t, Coordinates{Lat: 20.5937, Lng: 78.9629}, india.Coordinates)
	assert.Equal(t, 1.0, india.Intensity)

	for _, e := range geo.ByCountry[1:] {
		assert.Greater(t, e.Intensity, 0.0)
		assert.InDelta(t, 1.0/3.0, e.Intensity, 1e-9)
	}

	require.Len(t, geo.Coordinates, len(cs))
	for i, p := range geo.Coordinates {
		assert.Equal(t, cs[i].Location.Country, p.Country)
		assert.Equal(t, cs[i].Species, p.Species)
	}
}

func TestLevelHelpers(t *testing.T) {
	next, ok := Kingdom.Next()
	assert.True(t, ok)
	assert.Equal(t, Phylum, next)
	_, ok = Species.Next()
	assert.False(t, ok)

	l, ok := ParseLevel("family")
	assert.True(t, ok)
	assert.Equal(t, Family, l)
	_, ok = ParseLevel("domain")
	assert.False(t, ok)

	c := CanonicalTaxonomies()[fungi]
	assert.Equal(t, "Amanitaceae", c.At(Family))
	assert.Equal(t, "muscaria", c.At(Species))
}
