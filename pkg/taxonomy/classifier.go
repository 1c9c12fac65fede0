package taxonomy

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Classifier assigns one Classification per sequence. Implementations must
// be safe for concurrent use.
type Classifier interface {
	Classify(header, sequence string) Classification
}

// HeuristicClassifier picks a canonical lineage from sequence features and
// jitters its confidence and origin with its own random source.
type HeuristicClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicClassifier uses src for every random draw. A nil src seeds from
// the clock.
func NewHeuristicClassifier(src rand.Source) *HeuristicClassifier {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &HeuristicClassifier{rng: rand.New(src)}
}

func (h *HeuristicClassifier) Classify(header, sequence string) Classification {
	gc, length := gcContent(sequence)
	idx, ruled := ruleBased(strings.ToLower(header), gc, length)

	h.mu.Lock()
	if !ruled {
		idx = h.rng.Intn(len(canonicalTaxonomies))
	}
	jitter := h.rng.Float64() * 0.2
	loc := h.rng.Intn(len(sampleLocations))
	h.mu.Unlock()

	c := canonicalTaxonomies[idx]
	c.Confidence = math.Max(0.7, c.Confidence-jitter)
	if c.Location.Country == globalLocation {
		c.Location = sampleLocations[loc]
	}
	return c
}

// ruleBased applies the deterministic selection rules in order.
func ruleBased(headerLower string, gc float64, length int) (int, bool) {
	switch {
	case gc > 60 && length > 1000:
		return plantae, true
	case gc < 40 && length < 500:
		return bacteria, true
	case strings.Contains(headerLower, "homo") || strings.Contains(headerLower, "human"):
		return animalia, true
	case strings.Contains(headerLower, "fungus") || strings.Contains(headerLower, "mushroom"):
		return fungi, true
	}
	return 0, false
}

// gcContent counts upper-case G and C, as the parser hands over upper-cased
// sequences.
func gcContent(seq string) (float64, int) {
	var gc, n int
	for _, c := range seq {
		n++
		if c == 'G' || c == 'C' {
			gc++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return float64(gc) / float64(n) * 100, n
}
