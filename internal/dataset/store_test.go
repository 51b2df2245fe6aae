package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/covid-trends/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = "Date,State/UnionTerritory,Cured,Deaths,Confirmed\n" +
	"2020-03-15,Kerala,3,0,22\n" +
	"2020-03-16,Kerala,3,0,24\n"

// countingSource serves the same CSV for every key and counts opens.
type countingSource struct {
	opens int
	err   error
}

func (s *countingSource) Open(_ string) (io.ReadCloser, error) {
	s.opens++
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(testCSV)), nil
}

func newTestStore(src Source) *Store {
	metrics := observability.NewMetricsForTesting()
	return NewStore(src, NewLoader(slog.Default(), metrics), slog.Default(), metrics)
}

func TestStore_MemoizesPerKey(t *testing.T) {
	src := &countingSource{}
	store := newTestStore(src)

	first, err := store.Table("cases.csv")
	require.NoError(t, err)
	require.Len(t, first.Rows, 2)

	second, err := store.Table("cases.csv")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.opens, "should only open the source once")
}

func TestStore_DistinctKeysLoadSeparately(t *testing.T) {
	src := &countingSource{}
	store := newTestStore(src)

	_, err := store.Table("a.csv")
	require.NoError(t, err)
	_, err = store.Table("b.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, src.opens)
}

func TestStore_ResetForcesReload(t *testing.T) {
	src := &countingSource{}
	store := newTestStore(src)

	_, err := store.Table("cases.csv")
	require.NoError(t, err)

	store.Reset()

	_, err = store.Table("cases.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, src.opens)
}

func TestStore_FailedLoadNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("disk gone")}
	store := newTestStore(src)

	_, err := store.Table("cases.csv")
	require.Error(t, err)

	// Source recovers; the next lookup must retry.
	src.err = nil
	table, err := store.Table("cases.csv")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, 2, src.opens)
}

func TestStore_Readiness(t *testing.T) {
	store := newTestStore(&countingSource{})

	require.Error(t, store.CheckReadiness(context.Background()))

	_, err := store.Table("cases.csv")
	require.NoError(t, err)

	assert.NoError(t, store.CheckReadiness(context.Background()))
}
