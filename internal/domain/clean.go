package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the calendar-date formats the source datasets actually
// use. The published covid_19_india.csv switched from DD/MM/YY to
// YYYY-MM-DD partway through its life, so both families are accepted.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
}

// MalformedDateError reports a Date value that matched no accepted layout.
// Unlike counter coercion, date failures are not recoverable locally: a row
// without a date cannot be keyed or sorted, so the whole load fails.
type MalformedDateError struct {
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q", e.Value)
}

// ParseRawRecord converts one raw CSV row into a typed CaseRecord.
// The region label is whitespace-trimmed. Counters go through the two-stage
// coercion parseOrDefault → toNonNegativeInt; the number of values coerced
// to zero is returned so callers can account for the lossy policy.
func ParseRawRecord(raw RawCaseRecord) (CaseRecord, int, error) {
	date, err := parseDate(raw.Date)
	if err != nil {
		return CaseRecord{}, 0, err
	}

	coerced := 0
	confirmed := parseCounter(raw.Confirmed, &coerced)
	deaths := parseCounter(raw.Deaths, &coerced)
	cured := parseCounter(raw.Cured, &coerced)

	return CaseRecord{
		Date:      date,
		Region:    strings.TrimSpace(raw.Region),
		Confirmed: confirmed,
		Deaths:    deaths,
		Cured:     cured,
	}, coerced, nil
}

// Clean normalizes a batch of raw records into a CleanTable: every row
// parsed, duplicates on (date, region) resolved in favor of the last row in
// input order, result sorted ascending by date. Date ties across regions
// keep their input-relative order; Aggregate regroups by date immediately,
// so no secondary sort key is applied.
func Clean(records []RawCaseRecord) (CleanTable, error) {
	order := make([]string, 0, len(records))
	byKey := make(map[string]CaseRecord, len(records))
	stats := CleanStats{}

	for _, raw := range records {
		rec, coerced, err := ParseRawRecord(raw)
		if err != nil {
			return CleanTable{}, fmt.Errorf("clean records: %w", err)
		}
		stats.Coercions += coerced

		key := rec.Date.Format("2006-01-02") + "|" + rec.Region
		if _, seen := byKey[key]; seen {
			stats.Duplicates++
		} else {
			order = append(order, key)
		}
		// Last row for a key wins.
		byKey[key] = rec
	}

	rows := make([]CaseRecord, 0, len(order))
	for _, key := range order {
		rows = append(rows, byKey[key])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	return CleanTable{
		Rows:     rows,
		Stats:    stats,
		LoadedAt: clock.Now(),
	}, nil
}

// Regions returns the sorted distinct region labels in the table. This is
// what populates a region selector.
func (t CleanTable) Regions() []string {
	seen := make(map[string]struct{}, len(t.Rows))
	regions := make([]string, 0, 8)
	for _, r := range t.Rows {
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		regions = append(regions, r.Region)
	}
	sort.Strings(regions)
	return regions
}

// LatestRows returns the per-region rows at the table's maximum date.
// Returns nil for an empty table.
func (t CleanTable) LatestRows() []CaseRecord {
	if len(t.Rows) == 0 {
		return nil
	}
	// Rows are date-ascending, so the maximum date is the last row's.
	maxDate := t.Rows[len(t.Rows)-1].Date
	var latest []CaseRecord
	for _, r := range t.Rows {
		if r.Date.Equal(maxDate) {
			latest = append(latest, r)
		}
	}
	return latest
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &MalformedDateError{Value: value}
}

// parseCounter applies the documented lossy-cleaning policy to one counter
// value and bumps *coerced when the value was missing or non-numeric.
// Masking bad data as zero is deliberate: the source files contain blanks
// and stray text, and a dashboard row with a zero is preferred over a
// failed load. The coercion count is the only trace it leaves.
func parseCounter(value string, coerced *int) int64 {
	v, ok := parseOrDefault(value)
	if !ok {
		*coerced++
	}
	return toNonNegativeInt(v)
}

// parseOrDefault parses a counter string as an integer, reporting whether
// the value was genuinely numeric. Empty and non-numeric values yield zero.
// Decimal values like "12.0" appear in some exports and are accepted.
func parseOrDefault(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// toNonNegativeInt floors a counter at zero. Cumulative counters cannot
// meaningfully be negative; negatives only appear as data-entry artifacts.
func toNonNegativeInt(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
