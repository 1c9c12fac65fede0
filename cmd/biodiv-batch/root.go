package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/yumyai/biodiv/internal/config"
	"github.com/yumyai/biodiv/internal/util"
	"github.com/yumyai/biodiv/logger"
	"github.com/yumyai/biodiv/pkg/analysis"
	"github.com/yumyai/biodiv/pkg/taxonomy"
)

var errSomeFailed = errors.New("one or more files failed")

type options struct {
	out       string
	seed      int64
	batchSize int
	workers   int
	jobs      int
	logLevel  string
	noBar     bool
}

// fileResult is one line of the run summary.
type fileResult struct {
	path   string
	size   int64
	result *analysis.Result
	err    error
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "biodiv-batch [flags] <file.fasta> [file.fasta ...]",
		Short: "Analyze FASTA files offline",
		Long: `Analyze one or more FASTA files (optionally gzip-compressed) with the same
pipeline as the server: parse, classify, aggregate distributions, score quality
and compute diversity indices. With --out, each result is written as
<out>/<name>.json.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("batch-size") {
				opts.batchSize = cfg.BatchSize
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = cfg.Seed
			}
			lvl := cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				if lvl, err = zapcore.ParseLevel(opts.logLevel); err != nil {
					return fmt.Errorf("--log-level: %w", err)
				}
			}
			return logger.InitLogger(lvl)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.out, "out", "o", "", "directory to write <name>.json results into")
	flags.Int64Var(&opts.seed, "seed", 0, "classifier seed, 0 for time-seeded; a seed forces --workers 1")
	flags.IntVar(&opts.batchSize, "batch-size", taxonomy.DefaultBatchSize, "sequences classified per batch")
	flags.IntVar(&opts.workers, "workers", 1, "concurrent classifications within a batch")
	flags.IntVarP(&opts.jobs, "jobs", "j", 2, "files analyzed concurrently")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.BoolVar(&opts.noBar, "no-progress", false, "disable the progress bar")

	return cmd
}

func run(ctx context.Context, opts options, paths []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	if opts.out != "" {
		if err := util.EnsureDir(opts.out); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!opts.noBar),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]fileResult, len(paths))
	var barMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = analyzeOne(gctx, newFileEngine(opts, i), path, opts.out)

			barMu.Lock()
			_ = bar.Add(1)
			barMu.Unlock()
			return nil
		})
	}
	// Per-file failures are collected in results, not returned.
	_ = g.Wait()
	_ = bar.Finish()

	return summarize(stdout, results)
}

// newFileEngine gives each input its own classifier. With a seed, file i is
// seeded with seed+i so results do not depend on which files run together.
func newFileEngine(opts options, i int) *analysis.Engine {
	seed := opts.seed
	if seed != 0 {
		seed += int64(i)
	}
	return analysis.NewSeededEngine(seed, taxonomy.BatchOptions{
		Size:    opts.batchSize,
		Workers: opts.workers,
	})
}

func analyzeOne(ctx context.Context, engine *analysis.Engine, path, outDir string) fileResult {
	fr := fileResult{path: path}
	if info, err := os.Stat(path); err == nil {
		fr.size = info.Size()
	}

	name := filepath.Base(path)
	if v := engine.ValidateFile(path); !v.IsValid {
		fr.err = fmt.Errorf("invalid FASTA file: %s", v.Error)
		logger.Warn("Skipping file", zap.String("path", path), zap.Error(fr.err))
		return fr
	}

	res, err := engine.AnalyzeFile(ctx, path, name, func(step string) {
		logger.Debug("Analysis step", zap.String("path", path), zap.String("step", step))
	})
	if err != nil {
		fr.err = err
		logger.Warn("Analysis failed", zap.String("path", path), zap.Error(err))
		return fr
	}
	fr.result = res

	if outDir != "" {
		if err := writeResult(filepath.Join(outDir, resultName(name)), res); err != nil {
			fr.err = err
		}
	}
	return fr
}

// resultName turns "sample.fa.gz" into "sample.json".
func resultName(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, ".gz") {
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}
	return strings.TrimSuffix(name, ext) + ".json"
}

func writeResult(path string, res *analysis.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func summarize(w io.Writer, results []fileResult) error {
	failed := 0
	var total int64
	for _, fr := range results {
		total += fr.size
		if fr.err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s  %s  %v\n", fr.path, humanize.Bytes(uint64(fr.size)), fr.err)
			continue
		}
		idx := fr.result.BiodiversityIndices
		fmt.Fprintf(w, "OK    %s  %s  %s sequences  shannon=%.2f simpson=%.2f richness=%d\n",
			fr.path,
			humanize.Bytes(uint64(fr.size)),
			humanize.Comma(int64(fr.result.TotalSequences)),
			idx.ShannonIndex, idx.SimpsonIndex, idx.SpeciesRichness,
		)
	}
	fmt.Fprintf(w, "%d file(s), %s, %d failed\n", len(results), humanize.Bytes(uint64(total)), failed)

	if failed > 0 {
		return errSomeFailed
	}
	return nil
}
