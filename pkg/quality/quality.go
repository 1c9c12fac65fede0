// Package quality scores parsed sequences and estimates contamination risk.
package quality

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yumyai/biodiv/pkg/fasta"
)

type Metrics struct {
	QualityScore        float64 `json:"qualityScore"`
	ContaminationRisk   float64 `json:"contaminationRisk"`
	Completeness        float64 `json:"completeness"`
	AverageQuality      float64 `json:"averageQuality"`
	LowQualitySequences int     `json:"lowQualitySequences"`
}

const (
	lowQualityNContent = 5.0
	shortLength        = 100
	veryShortLength    = 50
)

// IsLowQuality flags sequences with more than 5% N or shorter than 100 bp.
func IsLowQuality(s fasta.SequenceRecord) bool {
	return s.NContent > lowQualityNContent || s.Length < shortLength
}

// SequenceScore is the 0-100 score of a single sequence.
func SequenceScore(s fasta.SequenceRecord) float64 {
	score := 100.0
	score -= math.Min(50, s.NContent*2)
	if s.Length < shortLength {
		score -= 20
	}
	if s.Length < veryShortLength {
		score -= 30
	}
	if s.Length > 0 {
		score -= math.Min(30, float64(s.AmbiguousBases)/float64(s.Length)*100)
	}
	return math.Max(0, score)
}

// Score computes file-level metrics. An empty input scores zero with a
// contamination risk of 100.
func Score(seqs []fasta.SequenceRecord) Metrics {
	if len(seqs) == 0 {
		return Metrics{ContaminationRisk: 100}
	}

	scores := make([]float64, len(seqs))
	low := 0
	for i, s := range seqs {
		if IsLowQuality(s) {
			low++
		}
		scores[i] = SequenceScore(s)
	}

	total := float64(len(seqs))
	avg := round1(stat.Mean(scores, nil))
	risk := round1(math.Min(100, float64(low)/total*100))

	return Metrics{
		QualityScore:        avg,
		ContaminationRisk:   risk,
		Completeness:        round1(math.Max(0, 100-risk)),
		AverageQuality:      avg,
		LowQualitySequences: low,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
