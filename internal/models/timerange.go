// Package models defines data structures and domain types.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeRange is the symbolic window selected for a usage plot.
type TimeRange string

const (
	// RangeHour plots the last hour at one-second granularity.
	RangeHour TimeRange = "HOUR"
	// RangeDay plots the last day at one-minute granularity.
	RangeDay TimeRange = "DAY"
	// RangeWeek plots the last week at one-minute granularity.
	RangeWeek TimeRange = "WEEK"
	// RangeMonth plots the last 31 days at one-hour granularity.
	RangeMonth TimeRange = "MONTH"
	// RangeYear plots the last 365 days at one-day granularity.
	RangeYear TimeRange = "YEAR"
)

// Granularity is the sampling unit requested from the usage API.
type Granularity string

// Granularities understood by the usage history endpoint.
const (
	GranularitySecond Granularity = "SECOND"
	GranularityMinute Granularity = "MINUTE"
	GranularityHour   Granularity = "HOUR"
	GranularityDay    Granularity = "DAY"
)

// ErrInvalidRange is matched by every InvalidRangeError.
var ErrInvalidRange = errors.New("invalid time range")

// InvalidRangeError reports a token that is not one of the known ranges.
type InvalidRangeError struct {
	Token string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid scale used: %q (want one of HOUR, DAY, WEEK, MONTH, YEAR)", e.Token)
}

// Is reports whether target is ErrInvalidRange.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// RangeQuery is the query window derived from a TimeRange.
type RangeQuery struct {
	Lookback    time.Duration
	SampleCount int
	Granularity Granularity
}

// LookbackMilliseconds returns the lookback window in milliseconds.
func (q RangeQuery) LookbackMilliseconds() int64 {
	return q.Lookback.Milliseconds()
}

// Start returns the beginning of the window that ends at now.
func (q RangeQuery) Start(now time.Time) time.Time {
	return now.Add(-q.Lookback)
}

// The hour window asks for 75 minutes so trailing unpopulated points at the
// query boundary still leave a full hour of data. Nothing trims the padding.
var rangeQueries = map[TimeRange]RangeQuery{
	RangeHour:  {Lookback: 75 * time.Minute, SampleCount: 75 * 60, Granularity: GranularitySecond},
	RangeDay:   {Lookback: 24 * time.Hour, SampleCount: 24 * 60, Granularity: GranularityMinute},
	RangeWeek:  {Lookback: 7 * 24 * time.Hour, SampleCount: 7 * 24 * 60, Granularity: GranularityMinute},
	RangeMonth: {Lookback: 31 * 24 * time.Hour, SampleCount: 31 * 24, Granularity: GranularityHour},
	RangeYear:  {Lookback: 365 * 24 * time.Hour, SampleCount: 365, Granularity: GranularityDay},
}

var rangeOrder = []TimeRange{RangeHour, RangeDay, RangeWeek, RangeMonth, RangeYear}

// AllRanges returns every valid range, shortest first.
func AllRanges() []TimeRange {
	out := make([]TimeRange, len(rangeOrder))
	copy(out, rangeOrder)
	return out
}

// ParseTimeRange converts a user supplied token into a TimeRange.
// Surrounding whitespace is ignored; matching is case-sensitive.
func ParseTimeRange(token string) (TimeRange, error) {
	r := TimeRange(strings.TrimSpace(token))
	if !r.Valid() {
		return "", &InvalidRangeError{Token: token}
	}
	return r, nil
}

// Resolve maps a TimeRange to its query window.
func Resolve(r TimeRange) (RangeQuery, error) {
	q, ok := rangeQueries[r]
	if !ok {
		return RangeQuery{}, &InvalidRangeError{Token: string(r)}
	}
	return q, nil
}

// Query is shorthand for Resolve(r).
func (r TimeRange) Query() (RangeQuery, error) {
	return Resolve(r)
}

// Valid reports whether r is one of the known ranges.
func (r TimeRange) Valid() bool {
	_, ok := rangeQueries[r]
	return ok
}

// String returns the raw token.
func (r TimeRange) String() string {
	return string(r)
}

// Label returns the token with only its first letter capitalized ("Hour").
func (r TimeRange) Label() string {
	s := string(r)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Next cycles to the next longer range, wrapping from YEAR back to HOUR.
// Unknown ranges restart at HOUR.
func (r TimeRange) Next() TimeRange {
	for i, candidate := range rangeOrder {
		if candidate == r {
			return rangeOrder[(i+1)%len(rangeOrder)]
		}
	}
	return RangeHour
}
