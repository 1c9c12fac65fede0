package fasta

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrParse            = errors.New("FASTA parsing failed")
	ErrNoSequencesFound = errors.New("no valid sequences found in FASTA file")
	ErrInvalidFasta     = errors.New("invalid FASTA file")
)

// ParseError reports a read or encoding failure. errors.Is(err, ErrParse)
// holds for every ParseError; Unwrap exposes the underlying cause.
type ParseError struct {
	Path string
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Path != "":
		return fmt.Sprintf("%s: %s line %d: %v", ErrParse, e.Path, e.Line, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %v", ErrParse, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", ErrParse, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
