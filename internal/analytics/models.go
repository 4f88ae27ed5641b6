// Package analytics computes every derived view of the ingested data:
// per-day time series, top-N breakdowns, the export table and totals.
// Aggregation runs as one synchronous pass over the full collections,
// never incrementally per event.
package analytics

import (
	"golang.org/x/text/language"

	"nostrlytics/internal/timeframe"
)

// MetricCount represents a generic key-count pair in a breakdown.
type MetricCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Options configures an aggregation pass. All of it is process-wide
// configuration captured once at startup and passed explicitly, so a pass
// is a pure function of its inputs.
type Options struct {
	Offset timeframe.Offset
	Locale language.Tag
	TopN   int
}

// DefaultTopN bounds every breakdown.
const DefaultTopN = 5

// Report holds the output of one aggregation pass. The zero report (empty
// series, zero totals) is a valid, displayable state.
type Report struct {
	ImpressionsByDay []timeframe.DateStat `json:"impressionsByDay"`
	ClickOutsByDay   []timeframe.DateStat `json:"clickOutsByDay"`

	TotalImpressions        int64  `json:"totalImpressions"`
	TotalImpressionsDisplay string `json:"totalImpressionsDisplay"`

	ByReferrer    []MetricCount `json:"byReferrer"`
	ByPage        []MetricCount `json:"byPage"`
	ByBrowser     []MetricCount `json:"byBrowser"`
	ByClickOutURL []MetricCount `json:"byClickOutUrl"`

	ExportRows [][]string `json:"-"`
}

// ExportHeader is the fixed first row of the export table.
var ExportHeader = []string{
	"date",
	"type",
	"browser",
	"browserVersion",
	"os",
	"osVersion",
	"language",
	"location",
	"referrer",
	"clickOutUrl",
}

// DirectReferrer labels impressions that arrived without a referrer.
const DirectReferrer = "Direct"
