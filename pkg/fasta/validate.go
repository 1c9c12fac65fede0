package fasta

import (
	"fmt"
	"math/rand"
	"strings"
)

// Validation is the outcome of a parser-only pass over a file.
type Validation struct {
	IsValid       bool    `json:"isValid"`
	SequenceCount int     `json:"sequenceCount,omitempty"`
	TotalLength   int     `json:"totalLength,omitempty"`
	AverageLength float64 `json:"averageLength,omitempty"`
	Error         string  `json:"error,omitempty"`

	cause error
}

// Err returns nil for a valid file, otherwise an error matching both
// ErrInvalidFasta and the parser's own error.
func (v Validation) Err() error {
	if v.IsValid {
		return nil
	}
	if v.cause == nil {
		return fmt.Errorf("%w: %s", ErrInvalidFasta, v.Error)
	}
	return fmt.Errorf("%w: %w", ErrInvalidFasta, v.cause)
}

// Validate parses path and reports the outcome without returning an error.
func Validate(path string) Validation {
	res, err := Parse(path)
	if err != nil {
		return Validation{IsValid: false, Error: err.Error(), cause: err}
	}
	return Validation{
		IsValid:       true,
		SequenceCount: len(res.Sequences),
		TotalLength:   res.Stats.TotalLength,
		AverageLength: res.Stats.AverageLength,
	}
}

const maxHeaderLength = 1000

// ValidHeader reports whether h is a usable header.
func ValidHeader(h string) bool {
	return h != "" && len(h) <= maxHeaderLength
}

// ValidSequence reports whether s only holds IUPAC nucleotide codes, U, gaps
// and stop markers.
func ValidSequence(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range strings.ToUpper(s) {
		switch c {
		case 'A', 'C', 'G', 'T', 'U', 'R', 'Y', 'K', 'M', 'S', 'W', 'B', 'D', 'H', 'V', 'N', '-', '*':
		default:
			return false
		}
	}
	return true
}

// SuspiciousRecords returns the indexes of records whose header or sequence
// fails ValidHeader / ValidSequence.
func SuspiciousRecords(seqs []SequenceRecord) []int {
	var idx []int
	for i, s := range seqs {
		if !ValidHeader(s.Header) || !ValidSequence(s.Sequence) {
			idx = append(idx, i)
		}
	}
	return idx
}

// SampleSequences picks up to n records without replacement. The input is
// returned unchanged when it already has n records or fewer.
func SampleSequences(seqs []SequenceRecord, n int, rng *rand.Rand) []SequenceRecord {
	if n <= 0 {
		return nil
	}
	if len(seqs) <= n {
		return seqs
	}
	perm := rng.Perm(len(seqs))
	out := make([]SequenceRecord, n)
	for i := 0; i < n; i++ {
		out[i] = seqs[perm[i]]
	}
	return out
}
