package model

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// stubDriver records every statement the models emit so tests can assert on
// the SQL text and bound arguments without a live Postgres.
type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

type stubConn struct {
	mu      sync.Mutex
	queries []string
	args    [][]driver.Value
	cols    []string
	rows    [][]driver.Value
}

func (c *stubConn) Prepare(q string) (driver.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)
	return &stubStmt{conn: c}, nil
}

func (c *stubConn) Close() error              { return nil }
func (c *stubConn) Begin() (driver.Tx, error) { return nil, errors.New("stub: no transactions") }

func (c *stubConn) reset(cols []string, rows [][]driver.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries, c.args = nil, nil
	c.cols, c.rows = cols, rows
}

func (c *stubConn) lastQuery(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.queries)
	return c.queries[len(c.queries)-1]
}

func (c *stubConn) lastArgs(t *testing.T) []driver.Value {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.args)
	return c.args[len(c.args)-1]
}

type stubStmt struct{ conn *stubConn }

func (s *stubStmt) Close() error  { return nil }
func (s *stubStmt) NumInput() int { return -1 }

func (s *stubStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.conn.args = append(s.conn.args, args)
	return driver.RowsAffected(1), nil
}

func (s *stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.conn.args = append(s.conn.args, args)
	return &stubRows{cols: s.conn.cols, rows: s.conn.rows}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	next int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

var sharedStub = &stubConn{}

func init() {
	sql.Register("modelstub", &stubDriver{conn: sharedStub})
}

func newStubConn(t *testing.T, cols []string, rows [][]driver.Value) (*stubConn, sqlx.SqlConn) {
	t.Helper()
	db, err := sql.Open("modelstub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sharedStub.reset(cols, rows)
	return sharedStub, sqlx.NewSqlConnFromDB(db)
}

var rangeSeriesColumns = []string{
	"id", "provider", "coin_id", "mode", "from_ts", "to_ts", "timestamps", "sample_values",
}

func TestRangeSeriesUpsertUsesSampleValuesColumn(t *testing.T) {
	stub, conn := newStubConn(t, nil, nil)
	m := NewRangeSeriesModel(conn)

	row := &RangeSeries{
		Provider:   "coingecko",
		CoinId:     "bitcoin",
		Mode:       SeriesModePrice,
		FromTs:     1700000000,
		ToTs:       1700003600,
		Timestamps: pq.Int64Array{1700000000000, 1700003600000},
		Values:     pq.Float64Array{2000.5, 2010.25},
	}
	require.NoError(t, m.Upsert(context.Background(), row))

	q := stub.lastQuery(t)
	assert.Contains(t, q, "timestamps, sample_values")
	assert.Contains(t, q, "sample_values = EXCLUDED.sample_values")
	// VALUES is reserved in Postgres and must never appear as a bare column.
	assert.NotRegexp(t, `(?i)(^|[\s(,])values\s*(,|=)`, q)
	assert.Len(t, stub.lastArgs(t), 7)
}

func TestRangeSeriesFindCoveringScansArrays(t *testing.T) {
	stub, conn := newStubConn(t, rangeSeriesColumns, [][]driver.Value{{
		int64(7), "coingecko", "bitcoin", SeriesModePrice,
		int64(1700000000), int64(1700003600),
		[]byte("{1700000000000,1700003600000}"), []byte("{2000.5,2010.25}"),
	}})
	m := NewRangeSeriesModel(conn)

	got, err := m.FindCovering(context.Background(), "coingecko", "bitcoin", SeriesModePrice, 1700000000, 1700000000)
	require.NoError(t, err)
	assert.Equal(t, pq.Int64Array{1700000000000, 1700003600000}, got.Timestamps)
	assert.Equal(t, pq.Float64Array{2000.5, 2010.25}, got.Values)

	q := stub.lastQuery(t)
	assert.Contains(t, q, "from_ts <= $4 AND to_ts >= $5")
	assert.Contains(t, q, "ORDER BY to_ts DESC")
}

func TestRangeSeriesFindWindowNotFound(t *testing.T) {
	_, conn := newStubConn(t, rangeSeriesColumns, nil)
	m := NewRangeSeriesModel(conn)

	_, err := m.FindWindow(context.Background(), "coingecko", "bitcoin", SeriesModeMarketCap, 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
