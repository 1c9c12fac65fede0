package analysis

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

func writeFasta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.fasta")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		ts := times[min(i, len(times)-1)]
		i++
		return ts
	}
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(
		taxonomy.NewHeuristicClassifier(rand.NewSource(seed)),
		taxonomy.BatchOptions{Size: 2, Workers: 1},
	)
}

func TestAnalyzeFileHumanOnly(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(">human read\n")
		sb.WriteString(strings.Repeat("ACGT", 150))
		sb.WriteString("\n")
	}
	path := writeFasta(t, sb.String())

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(5)
	e.Now = fixedClock(start, start.Add(1500*time.Millisecond))

	var steps []string
	res, err := e.AnalyzeFile(context.Background(), path, "reads.fasta", func(s string) {
		steps = append(steps, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{StepParse, StepClassify, StepDistributions, StepQuality, StepBiodiversity}, steps)
	assert.Equal(t, "reads.fasta", res.FileName)
	assert.Equal(t, 5, res.TotalSequences)
	assert.Equal(t, 3000, res.SequenceStats.TotalLength)
	assert.InDelta(t, 1500.0, res.ProcessingTime, 1e-9)
	assert.Equal(t, start.Add(1500*time.Millisecond), res.AnalyzedAt)

	species := res.HierarchicalDistribution[taxonomy.Species]
	require.Len(t, species, 1)
	assert.Equal(t, "sapiens", species[0].Name)
	assert.InDelta(t, 100.0, species[0].Percentage, 1e-9)

	idx := res.BiodiversityIndices
	assert.Equal(t, 1, idx.SpeciesRichness)
	assert.Equal(t, 1.0, idx.SimpsonIndex)
	assert.Equal(t, 0.0, idx.Evenness)
	assert.Equal(t, 0.0, idx.Dominance)

	assert.Len(t, res.GeographicDistribution.Coordinates, 5)
	assert.Equal(t, 100.0, res.QualityMetrics.QualityScore)
	assert.Equal(t, 0, res.QualityMetrics.LowQualitySequences)

	require.Len(t, res.SequencePreview, PreviewSize)
	for _, p := range res.SequencePreview {
		assert.Len(t, p.Sequence, 60)
		assert.Equal(t, 600, p.Length)
	}
}

func TestAnalyzeFileMixed(t *testing.T) {
	input := ">plant\n" + strings.Repeat("GGC", 400) + "\n" +
		">short at rich\n" + strings.Repeat("AT", 30) + "\n" +
		">mushroom cap\n" + strings.Repeat("ACGT", 150) + "\n"
	res, err := newTestEngine(8).AnalyzeFile(context.Background(), writeFasta(t, input), "mix.fa", nil)
	require.NoError(t, err)

	families := taxonomy.Frequencies(res.HierarchicalDistribution[taxonomy.Family])
	assert.Equal(t, map[string]int{"Rosaceae": 1, "Enterobacteriaceae": 1, "Amanitaceae": 1}, families)
	assert.Equal(t, 3, res.BiodiversityIndices.SpeciesRichness)
	assert.InDelta(t, 1.1, res.BiodiversityIndices.ShannonIndex, 1e-9)
	assert.Equal(t, 1, res.QualityMetrics.LowQualitySequences)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"fileName", "totalSequences", "sequenceStats", "qualityMetrics",
		"hierarchicalDistribution", "geographicDistribution", "biodiversityIndices", "processingTime", "analyzedAt"} {
		assert.Contains(t, decoded, key)
	}
}

func TestAnalyzeFileErrors(t *testing.T) {
	e := newTestEngine(1)

	_, err := e.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nope.fa"), "nope.fa", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysis)
	assert.ErrorIs(t, err, fasta.ErrFileNotFound)
	assert.True(t, strings.HasPrefix(err.Error(), "analysis failed: "))

	var steps []string
	_, err = e.AnalyzeFile(context.Background(), writeFasta(t, ""), "empty.fa", func(s string) {
		steps = append(steps, s)
	})
	assert.ErrorIs(t, err, fasta.ErrNoSequencesFound)
	assert.Equal(t, []string{StepParse}, steps)
}

func TestAnalyzeFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestEngine(1).AnalyzeFile(ctx, writeFasta(t, ">a\nACGT\n"), "a.fa", nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestValidateFile(t *testing.T) {
	e := newTestEngine(1)

	v := e.ValidateFile(writeFasta(t, ">a\nACGT\n>b\nACGTACGT\n"))
	assert.True(t, v.IsValid)
	assert.Equal(t, 2, v.SequenceCount)
	assert.Equal(t, 12, v.TotalLength)
	assert.InDelta(t, 6.0, v.AverageLength, 1e-9)

	v = e.ValidateFile(writeFasta(t, "plain text\n"))
	assert.False(t, v.IsValid)
	assert.ErrorIs(t, v.Err(), fasta.ErrInvalidFasta)
}

func TestSeededEngineIsReproducible(t *testing.T) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(4))

	seqs := make([]fasta.SequenceRecord, 500)
	for i := range seqs {
		// no rule matches, so every record takes the random fallback
		seqs[i] = fasta.SequenceRecord{Header: "read", Sequence: strings.Repeat("ACGT", 150), Length: 600}
	}

	run := func() []taxonomy.Classification {
		e := NewSeededEngine(7, taxonomy.BatchOptions{Size: 100})
		assert.Equal(t, 1, e.Batch.Workers)
		out, err := taxonomy.ClassifyBatch(context.Background(), e.Classifier, seqs, e.Batch)
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, run(), run())
}

func TestUnseededEngineKeepsWorkers(t *testing.T) {
	e := NewSeededEngine(0, taxonomy.BatchOptions{Size: 10, Workers: 4})
	assert.Equal(t, 4, e.Batch.Workers)
	assert.NotNil(t, e.Classifier)
}
