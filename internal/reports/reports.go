// Package reports performs display-level grouping of pre-aggregated backend
// rows into chart-ready shapes. No financial computation happens here; the
// FIFO capital-gains math, reconciliation matching and NAV processing are
// all backend-side.
package reports

import (
	"sort"

	"rtaportal/internal/rta"
)

// ChartSlice is one wedge of a donut/pie chart.
type ChartSlice struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// AssetAllocation sums holdings by scheme category and computes the wedge
// percentages. Slices come back sorted by value, largest first, which is
// the order the chart legend renders in.
func AssetAllocation(rows []rta.AllocationRow) []ChartSlice {
	byCategory := map[string]float64{}
	var total float64
	for _, row := range rows {
		byCategory[row.Category] += row.Value
		total += row.Value
	}
	out := make([]ChartSlice, 0, len(byCategory))
	for label, value := range byCategory {
		s := ChartSlice{Label: label, Value: value}
		if total > 0 {
			s.Percent = value / total * 100
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

type CapitalGainsSummary struct {
	ShortTermTotal float64              `json:"short_term_total"`
	LongTermTotal  float64              `json:"long_term_total"`
	Rows           []rta.CapitalGainRow `json:"rows"`
}

// CapitalGains buckets already-computed gain rows by term.
func CapitalGains(rows []rta.CapitalGainRow) CapitalGainsSummary {
	summary := CapitalGainsSummary{Rows: rows}
	if summary.Rows == nil {
		summary.Rows = []rta.CapitalGainRow{}
	}
	for _, row := range rows {
		if row.Term == "long" {
			summary.LongTermTotal += row.Gain
		} else {
			summary.ShortTermTotal += row.Gain
		}
	}
	return summary
}

type AgingBucket struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// UnclaimedAging buckets unclaimed amounts into the 0-90 / 91-365 / 365+
// day bands the dashboard bar chart shows.
func UnclaimedAging(rows []rta.UnclaimedRow) []AgingBucket {
	buckets := []AgingBucket{
		{Label: "0-90 days"},
		{Label: "91-365 days"},
		{Label: "over 1 year"},
	}
	for _, row := range rows {
		idx := 0
		switch {
		case row.AgingDays > 365:
			idx = 2
		case row.AgingDays > 90:
			idx = 1
		}
		buckets[idx].Count++
		buckets[idx].Amount += row.Amount
	}
	return buckets
}

type ReconciliationSummary struct {
	Matched         int     `json:"matched"`
	Unmatched       int     `json:"unmatched"`
	MatchedAmount   float64 `json:"matched_amount"`
	UnmatchedAmount float64 `json:"unmatched_amount"`
}

// Reconciliation counts the backend's per-record match statuses. Anything
// not explicitly matched is treated as an exception for display.
func Reconciliation(rows []rta.ReconciliationRow) ReconciliationSummary {
	var s ReconciliationSummary
	for _, row := range rows {
		if row.Status == "matched" {
			s.Matched++
			s.MatchedAmount += row.Amount
			continue
		}
		s.Unmatched++
		s.UnmatchedAmount += row.Amount
	}
	return s
}
