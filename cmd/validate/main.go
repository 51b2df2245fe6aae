// Command validate loads a case-count CSV through the real loader and
// checks the pipeline's invariants over every region: dedup, delta
// non-negativity, first-row zero deltas, moving-average definedness, the
// active-case identity, cross-region aggregation consistency, and
// determinism. It reports recorded data corrections and exits non-zero if
// any check fails.
//
// Usage:
//
//	go run ./cmd/validate -csv dataset/covid_19_india.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/couchcryptid/covid-trends/internal/dataset"
	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the case-count CSV to validate")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath string) int {
	fmt.Println("=== Case Data Integrity Validation ===")
	fmt.Println()

	loader := dataset.NewLoader(slog.New(slog.DiscardHandler), observability.NewMetrics())
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open CSV: %v\n", err)
		return 1
	}
	defer f.Close()

	table, err := loader.ReadTable(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}

	fmt.Printf("Loaded %d rows across %d regions (%d duplicates dropped, %d counters coerced)\n\n",
		len(table.Rows), len(table.Regions()), table.Stats.Duplicates, table.Stats.Coercions)

	phases := []*phase{
		checkTable(table),
		checkSeries(table),
		checkConsistency(table),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("\nAll %d phases passed\n", len(phases))
	return 0
}

// checkTable verifies the clean-table invariants: unique (date, region)
// keys, non-negative counters, ascending dates.
func checkTable(table domain.CleanTable) *phase {
	p := &phase{name: "clean table invariants"}

	seen := map[string]bool{}
	for i, row := range table.Rows {
		key := row.Date.Format("2006-01-02") + "|" + row.Region
		if seen[key] {
			p.errorf("duplicate key after cleaning: %s", key)
		}
		seen[key] = true

		if row.Confirmed < 0 || row.Deaths < 0 || row.Cured < 0 {
			p.errorf("negative counter at %s", key)
		}
		if i > 0 && row.Date.Before(table.Rows[i-1].Date) {
			p.errorf("rows not sorted by date at index %d", i)
		}
	}
	return p
}

// checkSeries verifies per-series invariants for ALL plus every region.
func checkSeries(table domain.CleanTable) *phase {
	p := &phase{name: "derived series invariants"}

	filters := []domain.RegionFilter{domain.RegionAll}
	for _, r := range table.Regions() {
		filters = append(filters, domain.RegionFilter(r))
	}

	totalCorrections := 0
	for _, filter := range filters {
		series := domain.Aggregate(table, filter)
		totalCorrections += len(series.Corrections)
		validateSeries(p, filter, series)

		if again := domain.Aggregate(table, filter); !reflect.DeepEqual(series, again) {
			p.errorf("%s: aggregate is not deterministic", filter)
		}
	}

	fmt.Printf("Data corrections clipped across all filters: %d\n", totalCorrections)
	return p
}

func validateSeries(p *phase, filter domain.RegionFilter, series domain.DerivedSeries) {
	rows := series.Rows
	if len(rows) == 0 {
		p.errorf("%s: empty series", filter)
		return
	}

	if rows[0].NewCases != 0 || rows[0].NewDeaths != 0 || rows[0].NewRecoveries != 0 {
		p.errorf("%s: first row has non-zero deltas", filter)
	}

	for i, row := range rows {
		if row.NewCases < 0 || row.NewDeaths < 0 || row.NewRecoveries < 0 {
			p.errorf("%s: negative delta at row %d", filter, i)
		}
		defined := row.NewCasesAvg != nil
		if i < 6 && defined {
			p.errorf("%s: average defined before row 7 (row %d)", filter, i)
		}
		if i >= 6 && !defined {
			p.errorf("%s: average missing at row %d", filter, i)
		}
	}

	summary := series.Summary()
	if summary.Active != summary.Confirmed-summary.Cured-summary.Deaths {
		p.errorf("%s: active identity violated", filter)
	}
}

// checkConsistency verifies that the ALL series equals the sum of every
// region's series, date by date.
func checkConsistency(table domain.CleanTable) *phase {
	p := &phase{name: "cross-region consistency"}

	type totals struct{ confirmed, deaths, cured int64 }
	summed := map[string]*totals{}
	for _, region := range table.Regions() {
		for _, row := range domain.Aggregate(table, domain.RegionFilter(region)).Rows {
			key := row.Date.Format("2006-01-02")
			t, ok := summed[key]
			if !ok {
				t = &totals{}
				summed[key] = t
			}
			t.confirmed += row.Confirmed
			t.deaths += row.Deaths
			t.cured += row.Cured
		}
	}

	all := domain.Aggregate(table, domain.RegionAll)
	if len(all.Rows) != len(summed) {
		p.errorf("ALL has %d dates, per-region union has %d", len(all.Rows), len(summed))
	}
	for _, row := range all.Rows {
		t, ok := summed[row.Date.Format("2006-01-02")]
		if !ok {
			p.errorf("date %s missing from per-region series", row.Date.Format("2006-01-02"))
			continue
		}
		if t.confirmed != row.Confirmed || t.deaths != row.Deaths || t.cured != row.Cured {
			p.errorf("totals mismatch on %s", row.Date.Format("2006-01-02"))
		}
	}
	return p
}
