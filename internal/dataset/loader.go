package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
)

// Column headers the loader reads. Any other columns in the file (serial
// numbers, reporting times, nationality splits) are ignored.
const (
	colDate      = "Date"
	colRegion    = "State/UnionTerritory"
	colConfirmed = "Confirmed"
	colDeaths    = "Deaths"
	colCured     = "Cured"
)

// Loader decodes a delimited record source into a normalized CleanTable.
type Loader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader with the given observability.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{logger: logger, metrics: metrics}
}

// ReadTable parses one CSV source into a CleanTable. The first row must be
// a header; columns are located by name so column order does not matter.
// A malformed date anywhere in the file fails the whole load.
func (l *Loader) ReadTable(r io.Reader) (domain.CleanTable, error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // source files have ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.CleanTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return domain.CleanTable{}, fmt.Errorf("read csv: missing header row")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	if _, ok := colIdx[colDate]; !ok {
		return domain.CleanTable{}, fmt.Errorf("read csv: missing %q column", colDate)
	}

	records := make([]domain.RawCaseRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, domain.RawCaseRecord{
			Date:      get(row, colIdx, colDate),
			Region:    get(row, colIdx, colRegion),
			Confirmed: get(row, colIdx, colConfirmed),
			Deaths:    get(row, colIdx, colDeaths),
			Cured:     get(row, colIdx, colCured),
		})
	}

	table, err := domain.Clean(records)
	if err != nil {
		return domain.CleanTable{}, err
	}

	l.metrics.RowsLoaded.Add(float64(len(table.Rows)))
	l.metrics.DuplicatesDropped.Add(float64(table.Stats.Duplicates))
	l.metrics.CounterCoercions.Add(float64(table.Stats.Coercions))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	l.logger.Info("dataset loaded",
		"rows", len(table.Rows),
		"regions", len(table.Regions()),
		"duplicates_dropped", table.Stats.Duplicates,
		"counters_coerced", table.Stats.Coercions,
	)

	return table, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
