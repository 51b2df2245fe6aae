// Command genmock generates a synthetic covid_19_india-style CSV plus JSON
// fixtures of the cleaned table and the ALL-regions derived series. It uses
// the actual domain package so the fixtures match real pipeline behavior,
// and it deliberately injects the defects the cleaner must absorb:
// duplicate (date, region) rows, blank counter cells, and downward
// cumulative corrections.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -days 60 \
//	  -csv-out data/mock/cases.csv \
//	  -table-out data/mock/cases_clean.json \
//	  -series-out data/mock/cases_series_all.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/jonboulle/clockwork"
)

var startDate = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

// regionProfile shapes one region's random walk.
type regionProfile struct {
	name   string
	growth int // mean daily new cases
}

var profiles = []regionProfile{
	{name: "Maharashtra", growth: 900},
	{name: "Kerala", growth: 400},
	{name: "Delhi", growth: 350},
	{name: "Tamil Nadu", growth: 300},
	{name: "Karnataka", growth: 250},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	days := flag.Int("days", 60, "number of calendar days to generate")
	seed := flag.Int64("seed", 42, "random seed")
	csvOut := flag.String("csv-out", "", "output path for the raw CSV fixture")
	tableOut := flag.String("table-out", "", "output path for the cleaned-table JSON fixture")
	seriesOut := flag.String("series-out", "", "output path for the ALL-regions derived series JSON fixture")
	flag.Parse()

	if *csvOut == "" || *tableOut == "" || *seriesOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -table-out, -series-out")
	}

	// Fix the clock for a reproducible LoadedAt in the table fixture.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2021, time.January, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))
	records, rows := generate(rng, *days)

	if err := writeCSV(*csvOut, rows); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s (%d rows)", *csvOut, len(rows))

	table, err := domain.Clean(records)
	if err != nil {
		return fmt.Errorf("cleaning generated records: %w", err)
	}
	if err := writeJSON(*tableOut, table); err != nil {
		return fmt.Errorf("writing table fixture: %w", err)
	}
	log.Printf("wrote table fixture: %s", *tableOut)

	series := domain.Aggregate(table, domain.RegionAll)
	if err := writeJSON(*seriesOut, series); err != nil {
		return fmt.Errorf("writing series fixture: %w", err)
	}
	log.Printf("wrote series fixture: %s", *seriesOut)

	printStats(table, series)
	return nil
}

// generate produces raw records plus their CSV rows, injecting duplicates,
// blanks, and downward corrections at fixed rates.
func generate(rng *rand.Rand, days int) ([]domain.RawCaseRecord, [][]string) {
	var records []domain.RawCaseRecord
	var rows [][]string

	emit := func(rec domain.RawCaseRecord) {
		records = append(records, rec)
		rows = append(rows, []string{rec.Date, rec.Region, rec.Cured, rec.Deaths, rec.Confirmed})
	}

	for _, p := range profiles {
		var confirmed, deaths, cured int64
		for d := 0; d < days; d++ {
			date := startDate.AddDate(0, 0, d).Format("2006-01-02")

			confirmed += int64(rng.Intn(p.growth + 1))
			deaths += int64(rng.Intn(p.growth/50 + 1))
			cured += int64(rng.Intn(p.growth*4/5 + 1))
			if cured > confirmed {
				cured = confirmed
			}

			rec := domain.RawCaseRecord{
				Date:      date,
				Region:    p.name,
				Confirmed: strconv.FormatInt(confirmed, 10),
				Deaths:    strconv.FormatInt(deaths, 10),
				Cured:     strconv.FormatInt(cured, 10),
			}

			// ~3% blank counter cells.
			if rng.Intn(100) < 3 {
				rec.Deaths = ""
			}
			// ~2% downward corrections of the confirmed counter.
			if d > 7 && rng.Intn(100) < 2 {
				rec.Confirmed = strconv.FormatInt(confirmed-int64(rng.Intn(p.growth)), 10)
			}

			emit(rec)

			// ~2% duplicated keys; the duplicate carries the corrected value
			// and must win during cleaning.
			if rng.Intn(100) < 2 {
				dup := rec
				dup.Confirmed = strconv.FormatInt(confirmed, 10)
				emit(dup)
			}
		}
	}
	return records, rows
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "State/UnionTerritory", "Cured", "Deaths", "Confirmed"}); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(table domain.CleanTable, series domain.DerivedSeries) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Clean rows: %d\n", len(table.Rows))
	fmt.Printf("Duplicates dropped: %d\n", table.Stats.Duplicates)
	fmt.Printf("Counters coerced: %d\n", table.Stats.Coercions)
	fmt.Printf("Regions: %v\n", table.Regions())

	summary := series.Summary()
	fmt.Printf("\nALL summary on %s:\n", summary.Date.Format("2006-01-02"))
	fmt.Printf("  Confirmed: %d\n", summary.Confirmed)
	fmt.Printf("  Deaths:    %d\n", summary.Deaths)
	fmt.Printf("  Cured:     %d\n", summary.Cured)
	fmt.Printf("  Active:    %d\n", summary.Active)
	fmt.Printf("Corrections clipped: %d\n", len(series.Corrections))

	for _, region := range table.Regions() {
		s := domain.Aggregate(table, domain.RegionFilter(region)).Summary()
		fmt.Printf("  %s: confirmed=%d active=%d\n", region, s.Confirmed, s.Active)
	}

	if len(series.Rows) >= 7 && series.Rows[6].NewCasesAvg != nil {
		fmt.Printf("\nFirst defined 7-row average (row 6): %.2f\n", *series.Rows[6].NewCasesAvg)
	}
}
