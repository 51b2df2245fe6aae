package domain

import "time"

// RawCaseRecord represents one row of the source CSV before any typing.
// Every field is a string; the loader maps columns by header name, so
// missing columns simply arrive as empty strings.
type RawCaseRecord struct {
	Date      string `json:"Date"`
	Region    string `json:"State/UnionTerritory"`
	Confirmed string `json:"Confirmed"`
	Deaths    string `json:"Deaths"`
	Cured     string `json:"Cured"`
}

// CaseRecord is the typed representation after cleaning: a day-granular UTC
// date, a trimmed region label, and non-negative cumulative counters.
type CaseRecord struct {
	Date      time.Time `json:"date"`
	Region    string    `json:"region"`
	Confirmed int64     `json:"confirmed"`
	Deaths    int64     `json:"deaths"`
	Cured     int64     `json:"cured"`
}

// CleanStats counts what the lossy cleaning policy discarded or coerced.
type CleanStats struct {
	// Duplicates is the number of raw rows dropped because a later row
	// shared their (date, region) key.
	Duplicates int `json:"duplicates"`
	// Coercions is the number of counter values that were missing or
	// non-numeric and were silently treated as zero.
	Coercions int `json:"coercions"`
}

// CleanTable is the normalized in-memory table: at most one record per
// (date, region), counters non-negative, rows ascending by date. Tables are
// immutable once built; the dataset store caches them for the process
// lifetime.
type CleanTable struct {
	Rows     []CaseRecord `json:"rows"`
	Stats    CleanStats   `json:"stats"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// RegionFilter selects either a single region label (exact match against
// cleaned labels) or the union of all regions.
type RegionFilter string

// RegionAll sums counters across every region.
const RegionAll RegionFilter = "ALL"

// SeriesRow is one date of a derived series: cumulative totals, daily
// deltas floored at zero, and trailing moving averages of those deltas.
// The averages are nil for the first windowSize-1 rows of a series —
// absent, never zero.
type SeriesRow struct {
	Date          time.Time `json:"date"`
	Confirmed     int64     `json:"confirmed"`
	Deaths        int64     `json:"deaths"`
	Cured         int64     `json:"cured"`
	NewCases      int64     `json:"new_cases"`
	NewDeaths     int64     `json:"new_deaths"`
	NewRecoveries int64     `json:"new_recoveries"`

	NewCasesAvg      *float64 `json:"new_cases_avg,omitempty"`
	NewDeathsAvg     *float64 `json:"new_deaths_avg,omitempty"`
	NewRecoveriesAvg *float64 `json:"new_recoveries_avg,omitempty"`
}

// Correction records a negative daily delta that was clipped to zero.
// Cumulative counters are monotone in principle, but source data corrects
// downward; the clipped rows keep only the floor, so corrections are the
// audit trail of what was discarded.
type Correction struct {
	Date   time.Time `json:"date"`
	Field  string    `json:"field"` // "new_cases", "new_deaths", or "new_recoveries"
	Amount int64     `json:"amount"`
}

// DerivedSeries is the per-date output of Aggregate for one region filter.
type DerivedSeries struct {
	Region      RegionFilter `json:"region"`
	Rows        []SeriesRow  `json:"rows"`
	Corrections []Correction `json:"corrections,omitempty"`
}

// Summary holds the scalar metrics for the most recent date of a series.
// All fields are zero for an empty series.
type Summary struct {
	Date      time.Time `json:"date"`
	Confirmed int64     `json:"confirmed"`
	Deaths    int64     `json:"deaths"`
	Cured     int64     `json:"cured"`
	Active    int64     `json:"active"`
}
