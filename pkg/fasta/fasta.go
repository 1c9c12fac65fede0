// Package fasta parses nucleotide FASTA files into per-sequence records and
// file-level composition statistics.
package fasta

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// SequenceRecord is one parsed FASTA entry. Sequence is upper-cased and
// Length counts every character, including non-nucleotide ones.
type SequenceRecord struct {
	Header         string  `json:"header"`
	Sequence       string  `json:"sequence"`
	Length         int     `json:"length"`
	GCContent      float64 `json:"gcContent"`
	NContent       float64 `json:"nContent"`
	AmbiguousBases int     `json:"ambiguousBases"`
}

// FileStats aggregates every record of a file. GCContent and NContent are
// the mean of the per-record percentages, not recomputed from base totals.
type FileStats struct {
	TotalSequences   int     `json:"totalSequences"`
	TotalLength      int     `json:"totalLength"`
	AverageLength    float64 `json:"averageLength"`
	GCContent        float64 `json:"gcContent"`
	NContent         float64 `json:"nContent"`
	AmbiguousBases   int     `json:"ambiguousBases"`
	ShortestSequence int     `json:"shortestSequence"`
	LongestSequence  int     `json:"longestSequence"`

	gcSum float64
	nSum  float64
}

type ParseResult struct {
	Sequences []SequenceRecord `json:"sequences"`
	Stats     FileStats        `json:"stats"`
}

// Parse reads the FASTA file at path (plain or .gz).
func Parse(path string) (*ParseResult, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = in.Close()
	}()

	res, err := ParseReader(in)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return res, nil
}

const byteOrderMark = "\uFEFF"

// ParseReader parses FASTA text from r. A leading UTF-8 byte order mark is
// skipped. It fails with ErrNoSequencesFound when r holds no header with a
// non-empty sequence.
func ParseReader(r io.Reader) (*ParseResult, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	res := &ParseResult{}

	var (
		header  string
		seq     strings.Builder
		lineNum int
	)

	flush := func() {
		if header != "" && seq.Len() > 0 {
			res.add(newRecord(header, seq.String()))
		}
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, &ParseError{Line: lineNum + 1, Err: err}
		}
		if len(line) > 0 {
			lineNum++
			if !utf8.ValidString(line) {
				return nil, &ParseError{Line: lineNum, Err: errors.New("invalid UTF-8")}
			}

			if lineNum == 1 {
				line = strings.TrimPrefix(line, byteOrderMark)
			}
			trimmed := strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(trimmed, ">"):
				flush()
				header = strings.TrimSpace(trimmed[1:])
				seq.Reset()
			case trimmed != "" && header != "":
				seq.WriteString(strings.ToUpper(trimmed))
			}
		}
		if err == io.EOF {
			break
		}
	}
	flush()

	if res.Stats.TotalSequences == 0 {
		return nil, ErrNoSequencesFound
	}
	res.Stats.finalize()
	return res, nil
}

func newRecord(header, seq string) SequenceRecord {
	var length, gc, n, ambiguous int
	for _, c := range seq {
		length++
		switch c {
		case 'G', 'C':
			gc++
		case 'N':
			n++
		}
		if isAmbiguous(c) {
			ambiguous++
		}
	}

	rec := SequenceRecord{
		Header:         header,
		Sequence:       seq,
		Length:         length,
		AmbiguousBases: ambiguous,
	}
	if length > 0 {
		rec.GCContent = float64(gc) / float64(length) * 100
		rec.NContent = float64(n) / float64(length) * 100
	}
	return rec
}

// IUPAC ambiguity codes, N included.
func isAmbiguous(c rune) bool {
	switch c {
	case 'N', 'R', 'Y', 'K', 'M', 'S', 'W', 'B', 'D', 'H', 'V':
		return true
	}
	return false
}

func (r *ParseResult) add(rec SequenceRecord) {
	r.Sequences = append(r.Sequences, rec)

	s := &r.Stats
	s.TotalSequences++
	s.TotalLength += rec.Length
	s.AmbiguousBases += rec.AmbiguousBases
	s.gcSum += rec.GCContent
	s.nSum += rec.NContent
	if s.TotalSequences == 1 || rec.Length < s.ShortestSequence {
		s.ShortestSequence = rec.Length
	}
	if rec.Length > s.LongestSequence {
		s.LongestSequence = rec.Length
	}
}

func (s *FileStats) finalize() {
	if s.TotalSequences == 0 {
		return
	}
	n := float64(s.TotalSequences)
	s.AverageLength = float64(s.TotalLength) / n
	s.GCContent = s.gcSum / n
	s.NContent = s.nSum / n
}
