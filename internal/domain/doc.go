// Package domain models per-region COVID-19 case report data and the
// derived daily time series a dashboard renders.
//
// # Data Source
//
// Records follow the shape of the public covid_19_india.csv dataset: one
// row per (date, state/union territory) carrying cumulative counters for
// confirmed cases, deaths, and recoveries ("Cured"). Counters are
// cumulative running totals and are monotonically non-decreasing in
// principle, but the published files contain downward corrections,
// duplicated rows, blank cells, and stray non-numeric values.
//
// # Cleaning Policy
//
// Clean applies a deliberately lossy policy, matching the behavior the
// dashboard has always had:
//
//   - Dates must parse against a known layout; a malformed date aborts the
//     load with MalformedDateError rather than silently dropping the row.
//   - Region labels are whitespace-trimmed; matching is exact afterwards.
//   - Missing or non-numeric counters become zero, and negative counters
//     are floored at zero. No error is raised. This masks bad data; the
//     CleanStats coercion count is the only trace.
//   - When multiple rows share a (date, region) key, the last row in input
//     order wins.
//
// # Derivation
//
// Aggregate turns a CleanTable into a DerivedSeries for one region filter:
// group by date (summing counters across matching regions), first-difference
// the cumulatives into daily deltas with the first row's deltas defined as
// zero, floor negative deltas at zero (each clip recorded as a Correction),
// and smooth each delta column with a trailing 7-row simple moving average.
//
// The moving-average window is row-indexed, not calendar-indexed: if the
// series has date gaps the window still spans the most recent 7 rows.
// Reimplementing it over calendar days would change every published average
// near a gap and must not be done casually.
package domain
