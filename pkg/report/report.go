// Package report turns a completed analysis into a downloadable report,
// chart series and recommendations.
package report

import (
	"errors"
	"time"

	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/diversity"
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/quality"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

var ErrNotCompleted = errors.New("analysis not complete")

type Metadata struct {
	FileID         string     `json:"fileId"`
	FileName       string     `json:"fileName"`
	AnalysisDate   *time.Time `json:"analysisDate,omitempty"`
	UploadDate     time.Time  `json:"uploadDate"`
	ProcessingTime float64    `json:"processingTime"`
	TotalSequences int        `json:"totalSequences"`
}

type FamilyEntry struct {
	Family     string  `json:"family"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DiversityMetrics are computed over families. SimpsonIndex is Σp² and
// SimpsonDiversity is 1-Σp².
type DiversityMetrics struct {
	ShannonIndex     float64 `json:"shannonIndex"`
	SimpsonIndex     float64 `json:"simpsonIndex"`
	SimpsonDiversity float64 `json:"simpsonDiversity"`
	SpeciesRichness  int     `json:"speciesRichness"`
	Evenness         float64 `json:"evenness"`
	DominantFamily   string  `json:"dominantFamily,omitempty"`
}

type Biodiversity struct {
	FamilyDistribution []FamilyEntry    `json:"familyDistribution"`
	DiversityMetrics   DiversityMetrics `json:"diversityMetrics"`
}

type Report struct {
	Metadata           Metadata         `json:"metadata"`
	SequenceStatistics fasta.FileStats  `json:"sequenceStatistics"`
	QualityAssessment  quality.Metrics  `json:"qualityAssessment"`
	Biodiversity       Biodiversity     `json:"biodiversity"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// Build assembles the report of a completed analysis.
func Build(a *db.Analysis) (*Report, error) {
	if a.Status != db.StatusCompleted || a.Result == nil {
		return nil, ErrNotCompleted
	}
	res := a.Result

	families := familyDistribution(res.HierarchicalDistribution[taxonomy.Family])
	freq := taxonomy.Frequencies(res.HierarchicalDistribution[taxonomy.Family])
	dominant, _, _ := diversity.DominantTaxon(freq)

	r := &Report{
		Metadata: Metadata{
			FileID:         a.FileID,
			FileName:       a.OriginalName,
			AnalysisDate:   a.AnalysisDate,
			UploadDate:     a.UploadDate,
			ProcessingTime: a.ProcessingTime,
			TotalSequences: a.TotalSequences,
		},
		SequenceStatistics: res.SequenceStats,
		QualityAssessment:  res.QualityMetrics,
		Biodiversity: Biodiversity{
			FamilyDistribution: families,
			DiversityMetrics: DiversityMetrics{
				ShannonIndex:     diversity.ShannonIndex(freq),
				SimpsonIndex:     diversity.SimpsonDominanceIndex(freq),
				SimpsonDiversity: diversity.SimpsonDiversityIndex(freq),
				SpeciesRichness:  len(families),
				Evenness:         diversity.Evenness(freq),
				DominantFamily:   dominant,
			},
		},
	}
	r.Recommendations = Recommend(a.TotalSequences, res.QualityMetrics, res.SequenceStats, families)
	return r, nil
}

func familyDistribution(entries []taxonomy.LevelEntry) []FamilyEntry {
	out := make([]FamilyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FamilyEntry{Family: e.Name, Count: e.Count, Percentage: e.Percentage})
	}
	return out
}
