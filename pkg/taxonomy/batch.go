package taxonomy

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/yumyai/biodiv/pkg/fasta"
)

const DefaultBatchSize = 100

type BatchOptions struct {
	// Size is the number of sequences per batch. Zero means DefaultBatchSize.
	Size int
	// Pause is slept between batches.
	Pause time.Duration
	// Workers bounds concurrent Classify calls within a batch. Zero means
	// GOMAXPROCS. Use 1 for a reproducible draw order with a seeded classifier.
	Workers int
	// OnBatch is called after each batch with the number classified so far.
	OnBatch func(done, total int)
}

// ClassifyBatch classifies seqs in batches and returns one result per input,
// in input order. ctx is checked before each batch.
func ClassifyBatch(ctx context.Context, c Classifier, seqs []fasta.SequenceRecord, opts BatchOptions) ([]Classification, error) {
	size := opts.Size
	if size <= 0 {
		size = DefaultBatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Classification, len(seqs))
	for start := 0; start < len(seqs); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if start > 0 && opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Pause):
			}
		}

		end := min(start+size, len(seqs))
		classifyRange(c, seqs, out, start, end, workers)

		if opts.OnBatch != nil {
			opts.OnBatch(end, len(seqs))
		}
	}
	return out, nil
}

func classifyRange(c Classifier, seqs []fasta.SequenceRecord, out []Classification, start, end, workers int) {
	if workers == 1 {
		for i := start; i < end; i++ {
			out[i] = c.Classify(seqs[i].Header, seqs[i].Sequence)
		}
		return
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(workers, end-start); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				out[i] = c.Classify(seqs[i].Header, seqs[i].Sequence)
			}
		}()
	}
	for i := start; i < end; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}
