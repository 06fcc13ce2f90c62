// internal/app/system/paging/paging.go
package paging

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// Activity feed sizes. Keep these as int64 because they go straight into
// Mongo Find().SetLimit().
const (
	DefaultLimit int64 = 20
	MaxLimit     int64 = 100
)

// ErrBadLimit is returned by ParseLimit for non-numeric or non-positive input.
var ErrBadLimit = errors.New("limit must be a positive integer")

// ParseLimit extracts the "limit" query parameter. Missing means
// DefaultLimit; values above MaxLimit are capped.
func ParseLimit(r *http.Request) (int64, error) {
	s := query.Get(r, "limit")
	if s == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, ErrBadLimit
	}
	return min(n, MaxLimit), nil
}

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int64 {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset converts a 1-based start into a Mongo skip.
func Offset(start int64) int64 { return start - 1 }

// LimitPlusOne returns limit+1 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne(limit int64) int64 { return limit + 1 }

// TrimPage trims a slice fetched with LimitPlusOne back to limit and reports
// whether another page exists.
func TrimPage[T any](rows *[]T, limit int64) (hasNext bool) {
	if int64(len(*rows)) > limit {
		*rows = (*rows)[:limit]
		return true
	}
	return false
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int64 `json:"start"`     // 1-based start index (0 if no results)
	End       int64 `json:"end"`       // 1-based end index (0 if no results)
	PrevStart int64 `json:"prevStart"` // start value for previous page link
	NextStart int64 `json:"nextStart"` // start value for next page link
}

// ComputeRange calculates display range values given the current start
// index, the page size and the number of items shown.
func ComputeRange(start, pageSize int64, shown int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - pageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + int64(shown) - 1,
		PrevStart: prevStart,
		NextStart: start + int64(shown),
	}
}
