// Package analysis runs the full pipeline over one FASTA file: parse,
// classify, aggregate, score and compute diversity.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/diversity"
	"github.com/yumyai/biodiv/pkg/fasta"
	"github.com/yumyai/biodiv/pkg/quality"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

// Step names reported through a Progress callback, in pipeline order.
const (
	StepParse         = "Parsing FASTA file"
	StepClassify      = "Taxonomic classification"
	StepDistributions = "Calculating distributions"
	StepQuality       = "Calculating quality metrics"
	StepBiodiversity  = "Calculating biodiversity indices"
)

const (
	// PreviewSize is the number of records sampled into Result.SequencePreview.
	PreviewSize = 5
	// previewResidues caps each preview sequence.
	previewResidues = 60
)

// ErrAnalysis prefixes every failure returned by AnalyzeFile.
var ErrAnalysis = errors.New("analysis failed")

type Result struct {
	FileName                 string                            `json:"fileName"`
	TotalSequences           int                               `json:"totalSequences"`
	SequenceStats            fasta.FileStats                   `json:"sequenceStats"`
	QualityMetrics           quality.Metrics                   `json:"qualityMetrics"`
	HierarchicalDistribution taxonomy.HierarchicalDistribution `json:"hierarchicalDistribution"`
	GeographicDistribution   taxonomy.GeographicDistribution   `json:"geographicDistribution"`
	BiodiversityIndices      diversity.Indices                 `json:"biodiversityIndices"`
	SequencePreview          []fasta.SequenceRecord            `json:"sequencePreview,omitempty"`
	// ProcessingTime is wall-clock milliseconds.
	ProcessingTime float64   `json:"processingTime"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
}

// Progress receives the name of each step as it starts.
type Progress func(step string)

type Engine struct {
	Classifier taxonomy.Classifier
	Batch      taxonomy.BatchOptions
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewEngine(c taxonomy.Classifier, batch taxonomy.BatchOptions) *Engine {
	return &Engine{Classifier: c, Batch: batch, Now: time.Now}
}

// NewSeededEngine builds an engine on a HeuristicClassifier. A zero seed is
// time-seeded. A non-zero seed classifies in input order (Workers 1) so
// that equal seeds give equal results.
func NewSeededEngine(seed int64, batch taxonomy.BatchOptions) *Engine {
	var src rand.Source
	if seed != 0 {
		src = rand.NewSource(seed)
		batch.Workers = 1
	}
	return NewEngine(taxonomy.NewHeuristicClassifier(src), batch)
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// AnalyzeFile runs the pipeline on path. name is carried into the result
// for display. No partial result is returned on failure; errors match
// ErrAnalysis as well as the underlying cause.
func (e *Engine) AnalyzeFile(ctx context.Context, path, name string, progress Progress) (*Result, error) {
	start := e.now()
	step := func(s string) {
		logger.Debug("analysis step", zap.String("file", name), zap.String("step", s))
		if progress != nil {
			progress(s)
		}
	}

	logger.Info("starting analysis", zap.String("file", name), zap.String("path", path))

	step(StepParse)
	parsed, err := fasta.Parse(path)
	if err != nil {
		return nil, e.fail(name, err)
	}
	seqs := parsed.Sequences
	logger.Info("parsed sequences", zap.String("file", name), zap.Int("sequences", len(seqs)))
	if bad := fasta.SuspiciousRecords(seqs); len(bad) > 0 {
		logger.Warn("records with unusual header or residues",
			zap.String("file", name),
			zap.Int("count", len(bad)),
			zap.String("first_header", seqs[bad[0]].Header),
		)
	}

	step(StepClassify)
	classifications, err := taxonomy.ClassifyBatch(ctx, e.Classifier, seqs, e.Batch)
	if err != nil {
		return nil, e.fail(name, err)
	}

	step(StepDistributions)
	hier := taxonomy.Hierarchical(classifications)
	geo := taxonomy.Geographic(classifications)

	step(StepQuality)
	metrics := quality.Score(seqs)

	step(StepBiodiversity)
	indices := diversity.Compute(taxonomy.Frequencies(hier[taxonomy.Species]))

	end := e.now()
	elapsed := end.Sub(start)
	logger.Info("analysis completed",
		zap.String("file", name),
		zap.Int("sequences", len(seqs)),
		zap.Duration("elapsed", elapsed),
	)

	return &Result{
		FileName:                 name,
		TotalSequences:           len(seqs),
		SequenceStats:            parsed.Stats,
		QualityMetrics:           metrics,
		HierarchicalDistribution: hier,
		GeographicDistribution:   geo,
		BiodiversityIndices:      indices,
		SequencePreview:          preview(seqs, start),
		ProcessingTime:           float64(elapsed) / float64(time.Millisecond),
		AnalyzedAt:               end.UTC(),
	}, nil
}

// preview samples PreviewSize records with their sequences truncated.
func preview(seqs []fasta.SequenceRecord, seed time.Time) []fasta.SequenceRecord {
	rng := rand.New(rand.NewSource(seed.UnixNano()))
	sample := fasta.SampleSequences(seqs, PreviewSize, rng)
	out := make([]fasta.SequenceRecord, len(sample))
	for i, s := range sample {
		if len(s.Sequence) > previewResidues {
			s.Sequence = s.Sequence[:previewResidues]
		}
		out[i] = s
	}
	return out
}

func (e *Engine) fail(name string, err error) error {
	logger.Error("analysis error", zap.String("file", name), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrAnalysis, err)
}

// ValidateFile runs only the parser over path.
func (e *Engine) ValidateFile(path string) fasta.Validation {
	return fasta.Validate(path)
}
