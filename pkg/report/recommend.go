package report

import (
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/quality"
)

type Recommendation struct {
	Type       string `json:"type"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

const (
	contaminationThreshold = 10.0
	lowQualityFraction     = 0.1
	nContentThreshold      = 2.0
	minFamilies            = 5
	dominanceThreshold     = 80.0
	excellentQualityScore  = 90.0
)

// Recommend derives advice from quality and family composition. families
// must be sorted by count, largest first.
func Recommend(total int, q quality.Metrics, stats fasta.FileStats, families []FamilyEntry) []Recommendation {
	recs := make([]Recommendation, 0, 6)

	if q.ContaminationRisk > contaminationThreshold {
		recs = append(recs, Recommendation{
			Type:       "warning",
			Category:   "Quality",
			Message:    "High contamination risk detected. Consider additional filtering.",
			Suggestion: "Implement quality filtering and remove low-complexity regions.",
		})
	}

	if float64(q.LowQualitySequences) > float64(total)*lowQualityFraction {
		recs = append(recs, Recommendation{
			Type:       "warning",
			Category:   "Quality",
			Message:    "More than 10% of sequences are low quality.",
			Suggestion: "Apply length and quality filters to improve dataset quality.",
		})
	}

	if stats.NContent > nContentThreshold {
		recs = append(recs, Recommendation{
			Type:       "info",
			Category:   "Sequencing",
			Message:    "Elevated N-content detected in sequences.",
			Suggestion: "Check sequencing quality and consider trimming ambiguous bases.",
		})
	}

	if len(families) < minFamilies {
		recs = append(recs, Recommendation{
			Type:       "info",
			Category:   "Diversity",
			Message:    "Low family diversity detected.",
			Suggestion: "Sample may be from a specialized environment or require deeper sequencing.",
		})
	}

	if len(families) > 0 && families[0].Percentage > dominanceThreshold {
		recs = append(recs, Recommendation{
			Type:       "info",
			Category:   "Diversity",
			Message:    "Single family dominance detected.",
			Suggestion: "Consider if this reflects the true biological sample or indicates bias.",
		})
	}

	if q.QualityScore > excellentQualityScore {
		recs = append(recs, Recommendation{
			Type:       "success",
			Category:   "Quality",
			Message:    "Excellent sequence quality achieved.",
			Suggestion: "Dataset is suitable for detailed biodiversity analysis.",
		})
	}

	return recs
}
