package dataset

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return NewLoader(slog.Default(), observability.NewMetricsForTesting())
}

func TestLoader_ReadTable(t *testing.T) {
	t.Run("typical file", func(t *testing.T) {
		csv := strings.Join([]string{
			"Sno,Date,Time,State/UnionTerritory,ConfirmedIndianNational,ConfirmedForeignNational,Cured,Deaths,Confirmed",
			"1,2020-03-15,6:00 PM,Kerala,22,0,3,0,22",
			"2,2020-03-15,6:00 PM,Delhi,7,0,1,1,7",
			"3,2020-03-16,6:00 PM,Kerala,24,0,3,0,24",
		}, "\n")

		table, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.NoError(t, err)
		require.Len(t, table.Rows, 3)
		assert.Equal(t, "Delhi", table.Rows[0].Region)
		assert.Equal(t, int64(7), table.Rows[0].Confirmed)
		assert.Equal(t, int64(1), table.Rows[0].Deaths)
		assert.Equal(t, time.Date(2020, 3, 16, 0, 0, 0, 0, time.UTC), table.Rows[2].Date)
	})

	t.Run("column order does not matter", func(t *testing.T) {
		csv := "Confirmed,Date,State/UnionTerritory\n10,2020-03-15,Kerala\n"

		table, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, int64(10), table.Rows[0].Confirmed)
	})

	t.Run("missing counter columns read as zero", func(t *testing.T) {
		csv := "Date,State/UnionTerritory\n2020-03-15,Kerala\n"

		table, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, int64(0), table.Rows[0].Confirmed)
		assert.Equal(t, 3, table.Stats.Coercions)
	})

	t.Run("short rows tolerated", func(t *testing.T) {
		csv := "Date,State/UnionTerritory,Cured,Deaths,Confirmed\n2020-03-15,Kerala\n"

		table, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, int64(0), table.Rows[0].Confirmed)
	})

	t.Run("malformed date fails the load", func(t *testing.T) {
		csv := "Date,State/UnionTerritory,Confirmed\nsoon,Kerala,10\n"

		_, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.Error(t, err)
		var dateErr *domain.MalformedDateError
		assert.True(t, errors.As(err, &dateErr))
	})

	t.Run("missing Date column", func(t *testing.T) {
		csv := "State/UnionTerritory,Confirmed\nKerala,10\n"

		_, err := newTestLoader().ReadTable(strings.NewReader(csv))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Date")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := newTestLoader().ReadTable(strings.NewReader(""))
		require.Error(t, err)
	})
}
