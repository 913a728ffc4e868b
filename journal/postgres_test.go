package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	j, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestPostgresRecord(t *testing.T) {
	j := setupPostgres(t)
	ctx := context.Background()

	res := sampleResult("R1")
	require.NoError(t, Record(ctx, j, res, true))

	run, err := j.GetRun(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", run.Symbol)
	assert.Equal(t, "20", run.Params)
	assert.True(t, run.Start.Equal(res.Report.Start))
	assert.Equal(t, 1500*time.Millisecond, run.Elapsed)

	n, err := j.CountEquity(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	var unset int64
	require.NoError(t, j.pool.QueryRow(ctx, `SELECT count(*) FROM backtest_equity WHERE run_id = $1 AND signal IS NULL`, "R1").Scan(&unset))
	assert.Equal(t, int64(3), unset)

	_, err = j.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresTradesNeedRun(t *testing.T) {
	j := setupPostgres(t)
	ctx := context.Background()

	_, trades, _ := FromResult(sampleResult("orphan"))
	assert.Error(t, j.RecordTrades(ctx, trades))
}
