package models

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

// minValidLow is the low reading at or below which a total is treated as a
// sentinel (the API reports 1 or -1 for unpopulated points).
const minValidLow = 1.0

// UsageSeries is an ordered, chronological sequence of usage samples in watts.
type UsageSeries []float64

// ReduceTotals turns raw [low, high] totals into a usage series.
// A total is kept, as its high reading, only when its low reading exceeds 1.0.
// Entries with fewer than two readings are dropped.
func ReduceTotals(totals [][]float64) UsageSeries {
	return lo.FilterMap(totals, func(pair []float64, _ int) (float64, bool) {
		if len(pair) < 2 {
			return 0, false
		}
		return pair[1], pair[0] > minValidLow
	})
}

// Peak returns the largest sample, or 0 for an empty series.
func (s UsageSeries) Peak() float64 {
	if len(s) == 0 {
		return 0
	}
	return lo.Max(s)
}

// Latest returns the most recent sample, or 0 for an empty series.
func (s UsageSeries) Latest() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// UsageResponse is the raw body of the usage history endpoint.
type UsageResponse struct {
	Start     json.RawMessage `json:"start"`
	EndOfData json.RawMessage `json:"endOfData"`
	Totals    [][]float64     `json:"totals"`
}

// PlotData is a reduced usage series ready for charting.
type PlotData struct {
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Range     TimeRange   `json:"range"`
	Usage     UsageSeries `json:"usage"`
	Retrieved int         `json:"retrieved"`
}

// NewPlotData reduces a raw response into plot data for the given range.
func NewPlotData(r TimeRange, resp *UsageResponse) *PlotData {
	p := &PlotData{
		Range:     r,
		Usage:     ReduceTotals(resp.Totals),
		Retrieved: len(resp.Totals),
	}
	if len(resp.Start) > 0 {
		p.StartTime = parseTimeField(resp.Start)
	}
	if len(resp.EndOfData) > 0 {
		p.EndTime = parseTimeField(resp.EndOfData)
	}
	return p
}

// Title returns the widget heading for the plot.
func (p *PlotData) Title() string {
	return "Sense Usage, Past " + p.Range.Label()
}

// FetchRecord is one entry of the fetch log.
type FetchRecord struct {
	Timestamp   time.Time
	ID          string
	Range       TimeRange
	Granularity Granularity
	Error       string
	Frames      int
	Retrieved   int
	Used        int
	PeakWatts   float64
	LatestWatts float64
}

// Succeeded reports whether the fetch produced data.
func (r *FetchRecord) Succeeded() bool {
	return r.Error == ""
}
