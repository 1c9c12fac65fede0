package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes r as a sectioned CSV document.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	analysisDate := ""
	if r.Metadata.AnalysisDate != nil {
		analysisDate = r.Metadata.AnalysisDate.Format(time.RFC3339)
	}
	stats := r.SequenceStatistics
	metrics := r.Biodiversity.DiversityMetrics

	records := [][]string{
		{"Biodiversity Analysis Report"},
		nil,
		{"METADATA"},
		{"File Name", "Analysis Date", "Total Sequences", "Processing Time (ms)"},
		{r.Metadata.FileName, analysisDate, strconv.Itoa(r.Metadata.TotalSequences), ftoa(r.Metadata.ProcessingTime)},
		nil,
		{"SEQUENCE STATISTICS"},
		{"Total Length", "Average Length", "GC Content (%)", "N Content (%)", "Ambiguous Bases", "Shortest Sequence", "Longest Sequence"},
		{
			strconv.Itoa(stats.TotalLength), ftoa(stats.AverageLength), ftoa(stats.GCContent), ftoa(stats.NContent),
			strconv.Itoa(stats.AmbiguousBases), strconv.Itoa(stats.ShortestSequence), strconv.Itoa(stats.LongestSequence),
		},
		nil,
		{"FAMILY DISTRIBUTION"},
		{"Family", "Count", "Percentage (%)"},
	}
	for _, f := range r.Biodiversity.FamilyDistribution {
		records = append(records, []string{f.Family, strconv.Itoa(f.Count), ftoa(f.Percentage)})
	}
	records = append(records,
		nil,
		[]string{"DIVERSITY METRICS"},
		[]string{"Shannon Index", "Simpson Index", "Simpson Diversity", "Species Richness", "Evenness"},
		[]string{
			ftoa(metrics.ShannonIndex), ftoa(metrics.SimpsonIndex), ftoa(metrics.SimpsonDiversity),
			strconv.Itoa(metrics.SpeciesRichness), ftoa(metrics.Evenness),
		},
	)

	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
