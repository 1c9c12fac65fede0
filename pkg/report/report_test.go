package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/biodiv/pkg/analysis"
	"github.com/yumyai/biodiv/pkg/db"
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/quality"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

func completed() *db.Analysis {
	done := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)
	return &db.Analysis{
		FileID:         "3f0c6d8e-5b7a-4c1e-9d2f-0a1b2c3d4e5f",
		FileName:       "3f0c6d8e-5b7a-4c1e-9d2f-0a1b2c3d4e5f.fasta",
		OriginalName:   "lake sample.fasta",
		Status:         db.StatusCompleted,
		UploadDate:     done.Add(-time.Minute),
		AnalysisDate:   &done,
		TotalSequences: 10,
		ProcessingTime: 250,
		Result: &analysis.Result{
			TotalSequences: 10,
			SequenceStats:  fasta.FileStats{TotalSequences: 10, TotalLength: 12000, AverageLength: 1200, NContent: 3.5},
			QualityMetrics: quality.Metrics{QualityScore: 95, ContaminationRisk: 20, Completeness: 80, AverageQuality: 95, LowQualitySequences: 2},
			HierarchicalDistribution: taxonomy.HierarchicalDistribution{
				taxonomy.Family: {
					{Name: "Rosaceae", Count: 9, Percentage: 90},
					{Name: "Hominidae", Count: 1, Percentage: 10},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	r, err := Build(completed())
	require.NoError(t, err)

	assert.Equal(t, "lake sample.fasta", r.Metadata.FileName)
	assert.Equal(t, 10, r.Metadata.TotalSequences)
	require.Len(t, r.Biodiversity.FamilyDistribution, 2)
	assert.Equal(t, FamilyEntry{Family: "Rosaceae", Count: 9, Percentage: 90}, r.Biodiversity.FamilyDistribution[0])

	m := r.Biodiversity.DiversityMetrics
	// p = 0.9, 0.1
	assert.InDelta(t, 0.33, m.ShannonIndex, 1e-9)
	assert.InDelta(t, 0.82, m.SimpsonIndex, 1e-9)
	assert.InDelta(t, 0.18, m.SimpsonDiversity, 1e-9)
	assert.Equal(t, 2, m.SpeciesRichness)
	assert.InDelta(t, 0.48, m.Evenness, 1e-9)
	assert.Equal(t, "Rosaceae", m.DominantFamily)
}

func TestBuildRejectsIncomplete(t *testing.T) {
	a := completed()
	a.Status = db.StatusProcessing
	_, err := Build(a)
	assert.ErrorIs(t, err, ErrNotCompleted)

	a = completed()
	a.Result = nil
	_, err = Build(a)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func categories(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Type+"/"+r.Message)
	}
	return out
}

func TestRecommend(t *testing.T) {
	r, err := Build(completed())
	require.NoError(t, err)

	got := categories(r.Recommendations)
	assert.Equal(t, []string{
		"warning/High contamination risk detected. Consider additional filtering.",
		"warning/More than 10% of sequences are low quality.",
		"info/Elevated N-content detected in sequences.",
		"info/Low family diversity detected.",
		"info/Single family dominance detected.",
		"success/Excellent sequence quality achieved.",
	}, got)
}

func TestRecommendQuiet(t *testing.T) {
	families := []FamilyEntry{
		{Family: "a", Percentage: 30}, {Family: "b", Percentage: 20}, {Family: "c", Percentage: 20},
		{Family: "d", Percentage: 20}, {Family: "e", Percentage: 10},
	}
	recs := Recommend(100, quality.Metrics{QualityScore: 90, ContaminationRisk: 10, LowQualitySequences: 10},
		fasta.FileStats{NContent: 2}, families)
	assert.Empty(t, recs)

	recs = Recommend(0, quality.Metrics{}, fasta.FileStats{}, nil)
	assert.Equal(t, []string{"info/Low family diversity detected."}, categories(recs))
}

func TestWriteCSV(t *testing.T) {
	r, err := Build(completed())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Biodiversity Analysis Report\n\nMETADATA\n"))
	assert.Contains(t, out, "lake sample.fasta,2024-06-02T08:30:00Z,10,250\n")
	assert.Contains(t, out, "12000,1200,0,3.5,0,0,0\n")
	assert.Contains(t, out, "Rosaceae,9,90\nHominidae,1,10\n")
	assert.Contains(t, out, "0.33,0.82,0.18,2,0.48\n")

	cr := csv.NewReader(strings.NewReader(out))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"DIVERSITY METRICS"}, rows[len(rows)-3])
}

func TestBuildChart(t *testing.T) {
	a := completed()

	c, err := BuildChart(a, ChartFamilyDistribution)
	require.NoError(t, err)
	points := c.Data.([]ChartPoint)
	require.Len(t, points, 2)
	assert.Equal(t, "Rosaceae", points[0].Name)
	assert.Equal(t, 9.0, points[0].Value)
	require.NotNil(t, points[0].Percentage)
	assert.Equal(t, 90.0, *points[0].Percentage)
	assert.Equal(t, a.FileID, c.Metadata.FileID)

	c, err = BuildChart(a, ChartQualityMetrics)
	require.NoError(t, err)
	assert.Equal(t, []ChartPoint{
		{Name: "Quality Score", Value: 95},
		{Name: "Completeness", Value: 80},
		{Name: "Contamination Risk", Value: 20},
	}, c.Data)

	c, err = BuildChart(a, ChartSequenceLengths)
	require.NoError(t, err)
	assert.Equal(t, []LengthBin{
		{Range: "0-500", Count: 1},
		{Range: "501-1000", Count: 2},
		{Range: "1001-2000", Count: 4},
		{Range: "2001-5000", Count: 3},
		{Range: "5001+", Count: 1},
	}, c.Data)
}

func TestParseChartType(t *testing.T) {
	ct, err := ParseChartType("")
	require.NoError(t, err)
	assert.Equal(t, ChartFamilyDistribution, ct)

	ct, err = ParseChartType("sequenceLengths")
	require.NoError(t, err)
	assert.Equal(t, ChartSequenceLengths, ct)

	_, err = ParseChartType("pie")
	assert.ErrorIs(t, err, ErrChartType)
}
