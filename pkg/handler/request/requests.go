package request

import (
	"errors"
	"math"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

var ErrInvalidFileID = errors.New("invalid file ID format")

const (
	defaultPageSize   = 10
	defaultPageNumber = 1
	maxPageSize       = 100
	maxPageNumber     = math.MaxInt32 / maxPageSize
)

// Structure for paging through uploads
type PageRequest struct {
	Page  int `json:"page"`  // Page number, starting at 1
	Limit int `json:"limit"` // Records per page
}

func parsePositiveIntFallback(v string, fallback int) int {
	num, err := strconv.Atoi(v)
	if err != nil || num <= 0 {
		return fallback
	}
	return num
}

// NewPageRequest reads limit and page from the query string.
func NewPageRequest(q url.Values) PageRequest {
	return PageRequest{
		Page:  min(parsePositiveIntFallback(q.Get("page"), defaultPageNumber), maxPageNumber),
		Limit: min(parsePositiveIntFallback(q.Get("limit"), defaultPageSize), maxPageSize),
	}
}

// Pages is the number of pages needed for total records.
func (p PageRequest) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// ParseFileID accepts only version 4 UUIDs and returns the canonical
// lower-case form.
func ParseFileID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 || len(raw) != 36 {
		return "", ErrInvalidFileID
	}
	return id.String(), nil
}
