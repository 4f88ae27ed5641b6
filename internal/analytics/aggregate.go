package analytics

import (
	"net/url"
	"sort"
	"time"

	"nostrlytics/internal/ingest"
	"nostrlytics/internal/timeframe"
)

// counter accumulates per-key counts while remembering first-seen order,
// so ties rank by earliest appearance. Counting is a map lookup per
// entry: the pass stays linear in the number of entries.
type counter struct {
	counts map[string]int64
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int64)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns the n highest counts, descending; ties keep the
// first-encountered key ahead.
func (c *counter) top(n int) []MetricCount {
	results := make([]MetricCount, len(c.order))
	for i, key := range c.order {
		results[i] = MetricCount{Name: key, Count: c.counts[key]}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Count > results[j].Count
	})
	if len(results) > n {
		results = results[:n]
	}
	return results
}

// Aggregate computes the full report from the current collections. Pure
// and deterministic: the same collections produce the same report no
// matter in which order entries arrived.
func Aggregate(impressions, clickOuts []ingest.Entry, opts Options) *Report {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	byReferrer := newCounter()
	byPage := newCounter()
	byBrowser := newCounter()
	byClickOutURL := newCounter()

	exportRows := make([][]string, 0, len(impressions)+len(clickOuts))

	for _, entry := range impressions {
		referrer := entry.Data.Referrer
		if referrer == "" {
			referrer = DirectReferrer
		}

		client := parseUserAgent(entry.Data.UserAgent)

		byReferrer.add(referrer)
		byPage.add(pagePath(entry.Data.Location))
		byBrowser.add(client.signature())

		exportRows = append(exportRows, exportRow(entry, client, referrer, ""))
	}

	for _, entry := range clickOuts {
		destination := entry.Data.ClickOutURL
		if destination == "" {
			// Defended against upstream of the store, but the invariant
			// is the aggregator's to keep as well.
			continue
		}

		client := parseUserAgent(entry.Data.UserAgent)

		byClickOutURL.add(destination)

		exportRows = append(exportRows, exportRow(entry, client, "", destination))
	}

	// Timestamp first, remaining columns as tie-breakers, so the table is
	// identical no matter in which order entries arrived.
	sort.SliceStable(exportRows, func(i, j int) bool {
		a, b := exportRows[i], exportRows[j]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	exportRows = append([][]string{ExportHeader}, exportRows...)

	impressionsByDay := timeframe.CountByDay(timestamps(impressions), opts.Offset)

	var total int64
	for _, stat := range impressionsByDay {
		total += int64(stat.Count)
	}

	return &Report{
		ImpressionsByDay:        impressionsByDay,
		ClickOutsByDay:          timeframe.CountByDay(timestamps(clickOuts), opts.Offset),
		TotalImpressions:        total,
		TotalImpressionsDisplay: FormatCompact(total, opts.Locale),
		ByReferrer:              byReferrer.top(opts.TopN),
		ByPage:                  byPage.top(opts.TopN),
		ByBrowser:               byBrowser.top(opts.TopN),
		ByClickOutURL:           byClickOutURL.top(opts.TopN),
		ExportRows:              exportRows,
	}
}

// EmptyReport is the zero-filled state shown before any data loads.
func EmptyReport(opts Options) *Report {
	return Aggregate(nil, nil, opts)
}

func timestamps(entries []ingest.Entry) []int64 {
	ts := make([]int64, len(entries))
	for i, entry := range entries {
		ts[i] = entry.Timestamp
	}
	return ts
}

// pagePath reduces an absolute page URL to its path component. Malformed
// locations degrade to an empty key instead of failing the pass.
func pagePath(location string) string {
	parsed, err := url.Parse(location)
	if err != nil {
		return ""
	}
	if parsed.Path == "" && parsed.Host != "" {
		return "/"
	}
	return parsed.Path
}

func exportRow(entry ingest.Entry, client clientInfo, referrer, clickOutURL string) []string {
	return []string{
		time.Unix(entry.Timestamp, 0).UTC().Format(time.RFC3339),
		string(entry.Data.Type),
		client.Browser,
		client.BrowserVersion,
		client.OS,
		client.OSVersion,
		entry.Data.Language,
		entry.Data.Location,
		referrer,
		clickOutURL,
	}
}
