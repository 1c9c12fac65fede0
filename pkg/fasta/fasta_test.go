package fasta

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTwoRecords(t *testing.T) {
	res, err := ParseReader(strings.NewReader(">seq1\nACGT\n>seq2\nGGCC\n"))
	require.NoError(t, err)

	require.Len(t, res.Sequences, 2)
	assert.Equal(t, "seq1", res.Sequences[0].Header)
	assert.Equal(t, 4, res.Sequences[0].Length)
	assert.Equal(t, 4, res.Sequences[1].Length)
	assert.InDelta(t, 50.0, res.Sequences[0].GCContent, 1e-9)
	assert.InDelta(t, 100.0, res.Sequences[1].GCContent, 1e-9)

	s := res.Stats
	assert.Equal(t, 2, s.TotalSequences)
	assert.Equal(t, 8, s.TotalLength)
	assert.InDelta(t, 4.0, s.AverageLength, 1e-9)
	assert.Equal(t, 4, s.ShortestSequence)
	assert.Equal(t, 4, s.LongestSequence)
	assert.InDelta(t, 75.0, s.GCContent, 1e-9)
}

func TestParseMultilineAndCase(t *testing.T) {
	input := "  >first record  \nacgt\n  ggnn  \n\n>second\r\nAAAA\r\nTT\r\n"
	res, err := ParseReader(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Sequences, 2)

	first := res.Sequences[0]
	assert.Equal(t, "first record", first.Header)
	assert.Equal(t, "ACGTGGNN", first.Sequence)
	assert.Equal(t, 8, first.Length)
	assert.InDelta(t, 50.0, first.GCContent, 1e-9)
	assert.InDelta(t, 25.0, first.NContent, 1e-9)
	assert.Equal(t, 2, first.AmbiguousBases)

	second := res.Sequences[1]
	assert.Equal(t, "AAAATT", second.Sequence)
	assert.Equal(t, 6, second.Length)

	assert.Equal(t, 6, res.Stats.ShortestSequence)
	assert.Equal(t, 8, res.Stats.LongestSequence)
	assert.InDelta(t, 7.0, res.Stats.AverageLength, 1e-9)
	assert.Equal(t, 2, res.Stats.AmbiguousBases)
}

func TestParseAmbiguousAndNonStandard(t *testing.T) {
	res, err := ParseReader(strings.NewReader(">x\nRYKMSWBDHVNACGTX-\n"))
	require.NoError(t, err)
	rec := res.Sequences[0]
	assert.Equal(t, 17, rec.Length)
	assert.Equal(t, 11, rec.AmbiguousBases)
	assert.LessOrEqual(t, rec.AmbiguousBases, rec.Length)
}

func TestParseSkipsEmptyRecordsAndPreamble(t *testing.T) {
	input := "junk before header\n>empty\n>\nACGT\n>real\nAC\n"
	res, err := ParseReader(strings.NewReader(input))
	require.NoError(t, err)
	// ">" with no name never opens a record, so ACGT is dropped with it
	require.Len(t, res.Sequences, 1)
	assert.Equal(t, "real", res.Sequences[0].Header)
}

func TestParseByteOrderMark(t *testing.T) {
	res, err := ParseReader(strings.NewReader("\ufeff>seq1\nACGT\n"))
	require.NoError(t, err)
	require.Len(t, res.Sequences, 1)
	assert.Equal(t, "seq1", res.Sequences[0].Header)

	res, err = ParseReader(strings.NewReader("\ufeff>seq1\r\nACGT\r\n>seq2\r\nGGCC\r\n"))
	require.NoError(t, err)
	require.Len(t, res.Sequences, 2)
	assert.Equal(t, "seq1", res.Sequences[0].Header)
	assert.Equal(t, 4, res.Sequences[0].Length)
	assert.Equal(t, "seq2", res.Sequences[1].Header)
}

func TestParseNoSequences(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"no headers": "ACGT\nGGCC\n",
		"only heads": ">a\n>b\n",
		"blank":      "\n\n   \n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReader(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrNoSequencesFound)
		})
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := ParseReader(bytes.NewReader([]byte(">a\nAC\xffGT\n")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
}

func TestParseFileErrors(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.fasta"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	empty := writeFile(t, "empty.fasta", "")
	_, err = Parse(empty)
	assert.ErrorIs(t, err, ErrNoSequencesFound)

	_, err = Parse(t.TempDir())
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestParseGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(">gz1\nACGTACGT\n>gz2\nAAA\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := writeFile(t, "reads.fasta.gz", buf.String())
	res, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.TotalSequences)
	assert.Equal(t, 11, res.Stats.TotalLength)
}

func TestStatsInvariants(t *testing.T) {
	var sb strings.Builder
	rng := rand.New(rand.NewSource(7))
	bases := "ACGTNRY"
	n := 50
	for i := 0; i < n; i++ {
		sb.WriteString(">r\n")
		l := 1 + rng.Intn(300)
		for j := 0; j < l; j++ {
			sb.WriteByte(bases[rng.Intn(len(bases))])
			if j%60 == 59 {
				sb.WriteByte('\n')
			}
		}
		sb.WriteByte('\n')
	}

	res, err := ParseReader(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Len(t, res.Sequences, n)

	total := 0
	for _, r := range res.Sequences {
		total += r.Length
		assert.GreaterOrEqual(t, r.GCContent, 0.0)
		assert.LessOrEqual(t, r.GCContent, 100.0)
		assert.GreaterOrEqual(t, r.NContent, 0.0)
		assert.LessOrEqual(t, r.NContent, 100.0)
		assert.LessOrEqual(t, r.AmbiguousBases, r.Length)
	}
	s := res.Stats
	assert.Equal(t, total, s.TotalLength)
	assert.InDelta(t, float64(total)/float64(n), s.AverageLength, 1e-9)
	assert.LessOrEqual(t, float64(s.ShortestSequence), s.AverageLength)
	assert.GreaterOrEqual(t, float64(s.LongestSequence), s.AverageLength)
}

func TestValidate(t *testing.T) {
	ok := Validate(writeFile(t, "ok.fa", ">a\nACGT\n>b\nAC\n"))
	assert.True(t, ok.IsValid)
	assert.Equal(t, 2, ok.SequenceCount)
	assert.Equal(t, 6, ok.TotalLength)
	assert.InDelta(t, 3.0, ok.AverageLength, 1e-9)
	assert.NoError(t, ok.Err())

	bad := Validate(writeFile(t, "bad.fa", "no header here\n"))
	assert.False(t, bad.IsValid)
	assert.NotEmpty(t, bad.Error)
	assert.ErrorIs(t, bad.Err(), ErrInvalidFasta)
	assert.ErrorIs(t, bad.Err(), ErrNoSequencesFound)
}

func TestValidHeaderAndSequence(t *testing.T) {
	assert.True(t, ValidHeader("seq1"))
	assert.False(t, ValidHeader(""))
	assert.False(t, ValidHeader(strings.Repeat("h", 1001)))

	assert.True(t, ValidSequence("ACGTURYKMSWBDHVN-*"))
	assert.True(t, ValidSequence("acgt"))
	assert.False(t, ValidSequence("ACGX"))
	assert.False(t, ValidSequence(""))

	recs := []SequenceRecord{{Header: "ok", Sequence: "ACGT"}, {Header: "bad", Sequence: "AC1T"}}
	assert.Equal(t, []int{1}, SuspiciousRecords(recs))
}

func TestSampleSequences(t *testing.T) {
	recs := make([]SequenceRecord, 10)
	for i := range recs {
		recs[i].Header = string(rune('a' + i))
	}
	rng := rand.New(rand.NewSource(1))

	assert.Len(t, SampleSequences(recs, 20, rng), 10)
	assert.Nil(t, SampleSequences(recs, 0, rng))

	sample := SampleSequences(recs, 4, rng)
	require.Len(t, sample, 4)
	seen := map[string]bool{}
	for _, s := range sample {
		assert.False(t, seen[s.Header], "duplicate %s", s.Header)
		seen[s.Header] = true
	}
}
