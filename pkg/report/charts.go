package report

import (
	"errors"
	"math"

	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

var ErrChartType = errors.New("supported chart types: familyDistribution, qualityMetrics, sequenceLengths")

type ChartType string

const (
	ChartFamilyDistribution ChartType = "familyDistribution"
	ChartQualityMetrics     ChartType = "qualityMetrics"
	ChartSequenceLengths    ChartType = "sequenceLengths"
)

// ParseChartType maps the query value to a ChartType. Empty selects the
// family distribution.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case "":
		return ChartFamilyDistribution, nil
	case ChartFamilyDistribution, ChartQualityMetrics, ChartSequenceLengths:
		return ChartType(s), nil
	}
	return "", ErrChartType
}

type ChartPoint struct {
	Name       string   `json:"name"`
	Value      float64  `json:"value"`
	Percentage *float64 `json:"percentage,omitempty"`
}

type LengthBin struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type ChartMetadata struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

type Chart struct {
	ChartType ChartType     `json:"chartType"`
	Data      any           `json:"data"`
	Metadata  ChartMetadata `json:"metadata"`
}

// lengthBins spreads the sequence count over fixed length ranges. It is an
// estimate: per-sequence lengths are not kept with the result.
var lengthBins = []struct {
	label    string
	fraction float64
}{
	{"0-500", 0.1},
	{"501-1000", 0.2},
	{"1001-2000", 0.35},
	{"2001-5000", 0.25},
	{"5001+", 0.1},
}

// BuildChart returns the series for one chart of a completed analysis.
func BuildChart(a *db.Analysis, ct ChartType) (*Chart, error) {
	if a.Status != db.StatusCompleted || a.Result == nil {
		return nil, ErrNotCompleted
	}
	res := a.Result

	chart := &Chart{
		ChartType: ct,
		Metadata:  ChartMetadata{FileID: a.FileID, FileName: a.OriginalName},
	}

	switch ct {
	case ChartFamilyDistribution:
		families := res.HierarchicalDistribution[taxonomy.Family]
		points := make([]ChartPoint, 0, len(families))
		for _, f := range families {
			pct := f.Percentage
			points = append(points, ChartPoint{Name: f.Name, Value: float64(f.Count), Percentage: &pct})
		}
		chart.Data = points

	case ChartQualityMetrics:
		q := res.QualityMetrics
		chart.Data = []ChartPoint{
			{Name: "Quality Score", Value: q.QualityScore},
			{Name: "Completeness", Value: q.Completeness},
			{Name: "Contamination Risk", Value: q.ContaminationRisk},
		}

	case ChartSequenceLengths:
		bins := make([]LengthBin, 0, len(lengthBins))
		for _, b := range lengthBins {
			bins = append(bins, LengthBin{
				Range: b.label,
				Count: int(math.Round(float64(res.SequenceStats.TotalSequences) * b.fraction)),
			})
		}
		chart.Data = bins

	default:
		return nil, ErrChartType
	}
	return chart, nil
}
