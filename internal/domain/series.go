package domain

import "sort"

// windowSize is the trailing moving-average window, in rows. The window is
// row-indexed over the sorted series: when dates have gaps it still spans
// the most recent 7 rows, not 7 calendar days.
const windowSize = 7

// Aggregate derives the per-date series for one region filter. It is a pure
// function of its inputs: identical (table, region) always produces
// identical output, with no hidden state and no I/O.
//
// Stages, in order: filter rows by region (RegionAll keeps everything; an
// unmatched label yields an empty series, not an error), group by date
// summing the cumulative counters, first-difference the cumulatives with
// the first row's deltas defined as zero, floor negative deltas at zero
// recording a Correction per clip, and compute the trailing moving average
// of each delta column.
func Aggregate(table CleanTable, region RegionFilter) DerivedSeries {
	rows := groupByDate(table.Rows, region)
	corrections := deriveDeltas(rows)
	smooth(rows)

	return DerivedSeries{
		Region:      region,
		Rows:        rows,
		Corrections: corrections,
	}
}

// groupByDate filters by region and collapses the matching rows into one
// SeriesRow per distinct date, summing counters, sorted ascending by date.
func groupByDate(records []CaseRecord, region RegionFilter) []SeriesRow {
	byDate := make(map[string]*SeriesRow)
	for _, rec := range records {
		if region != RegionAll && rec.Region != string(region) {
			continue
		}
		key := rec.Date.Format("2006-01-02")
		row, ok := byDate[key]
		if !ok {
			row = &SeriesRow{Date: rec.Date}
			byDate[key] = row
		}
		row.Confirmed += rec.Confirmed
		row.Deaths += rec.Deaths
		row.Cured += rec.Cured
	}

	rows := make([]SeriesRow, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// deriveDeltas fills the new_* columns as first differences of the
// cumulative columns, floored at zero. The first row has no prior day to
// diff against; its deltas are zero, matching the fill policy rather than
// reporting the raw cumulative as a one-day spike. Each clipped negative is
// returned as a Correction.
func deriveDeltas(rows []SeriesRow) []Correction {
	var corrections []Correction

	clip := func(i int, field string, delta int64) int64 {
		if delta >= 0 {
			return delta
		}
		corrections = append(corrections, Correction{
			Date:   rows[i].Date,
			Field:  field,
			Amount: -delta,
		})
		return 0
	}

	for i := 1; i < len(rows); i++ {
		rows[i].NewCases = clip(i, "new_cases", rows[i].Confirmed-rows[i-1].Confirmed)
		rows[i].NewDeaths = clip(i, "new_deaths", rows[i].Deaths-rows[i-1].Deaths)
		rows[i].NewRecoveries = clip(i, "new_recoveries", rows[i].Cured-rows[i-1].Cured)
	}
	return corrections
}

// smooth fills the moving-average columns with a trailing simple mean over
// windowSize rows, using a running sum. Rows before index windowSize-1 have
// no defined average and keep nil.
func smooth(rows []SeriesRow) {
	var sumCases, sumDeaths, sumRecoveries int64
	for i := range rows {
		sumCases += rows[i].NewCases
		sumDeaths += rows[i].NewDeaths
		sumRecoveries += rows[i].NewRecoveries
		if i >= windowSize {
			sumCases -= rows[i-windowSize].NewCases
			sumDeaths -= rows[i-windowSize].NewDeaths
			sumRecoveries -= rows[i-windowSize].NewRecoveries
		}
		if i < windowSize-1 {
			continue
		}
		rows[i].NewCasesAvg = mean(sumCases)
		rows[i].NewDeathsAvg = mean(sumDeaths)
		rows[i].NewRecoveriesAvg = mean(sumRecoveries)
	}
}

func mean(sum int64) *float64 {
	v := float64(sum) / windowSize
	return &v
}

// Summary returns the scalar metrics for the most recent date of the
// series, with active = confirmed − cured − deaths. An empty series yields
// a zero Summary; callers render the metrics as undefined rather than
// failing.
func (s DerivedSeries) Summary() Summary {
	if len(s.Rows) == 0 {
		return Summary{}
	}
	last := s.Rows[len(s.Rows)-1]
	return Summary{
		Date:      last.Date,
		Confirmed: last.Confirmed,
		Deaths:    last.Deaths,
		Cured:     last.Cured,
		Active:    last.Confirmed - last.Cured - last.Deaths,
	}
}

// Latest returns the rows matching the series' maximum date, for a
// latest-snapshot view. After grouping there is one row per date, so this
// is at most one row; empty series returns nil.
func (s DerivedSeries) Latest() []SeriesRow {
	if len(s.Rows) == 0 {
		return nil
	}
	maxDate := s.Rows[len(s.Rows)-1].Date
	var latest []SeriesRow
	for _, r := range s.Rows {
		if r.Date.Equal(maxDate) {
			latest = append(latest, r)
		}
	}
	return latest
}
