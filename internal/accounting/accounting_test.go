package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountant(t *testing.T, projectID, sessionID string) (*Accountant, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store.DB(), projectID, sessionID), store
}

func TestRecordAndAggregateQueries(t *testing.T) {
	acct, _ := newTestAccountant(t, "test", "session-1")
	ctx := context.Background()

	require.NoError(t, acct.RecordQuery(ctx, "find main function", 300, 0, 15000))
	require.NoError(t, acct.RecordQuery(ctx, "search currency service", 250, 1200, 12000))

	stats, err := acct.GetCumulativeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TotalQueries)
	assert.Equal(t, uint64(550), stats.TotalPointerTokens)
	assert.Equal(t, uint64(1200), stats.TotalFetchedTokens)
	assert.Equal(t, uint64(27000), stats.TotalTraditionalEstimate)
	assert.Equal(t, uint64(25250), stats.CumulativeSavingsTokens)
	assert.Greater(t, stats.CumulativeSavingsPct, 90.0)

	session, err := acct.GetSessionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), session.TotalQueries)
	assert.Equal(t, uint64(25250), session.CumulativeSavingsTokens)
}

func TestGetCumulativeStats_EmptyReturnsZeros(t *testing.T) {
	acct, _ := newTestAccountant(t, "test", "session-1")
	ctx := context.Background()

	stats, err := acct.GetCumulativeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.TotalQueries)
	assert.Equal(t, 0.0, stats.CumulativeSavingsPct)

	session, err := acct.GetSessionStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), session.TotalQueries)
}

func TestGetStatsSince_ReturnsOnlyRecentRows(t *testing.T) {
	acct, _ := newTestAccountant(t, "test-since", "session-1")
	ctx := context.Background()

	require.NoError(t, acct.RecordQuery(ctx, "q1", 100, 0, 5000))

	window := time.Hour
	stats, err := acct.GetStatsSince(ctx, &window)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalQueries)
}

func TestParseSinceDuration_24h(t *testing.T) {
	d, ok := ParseSinceDuration("24h")
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, d)
}

func TestParseSinceDuration_7d(t *testing.T) {
	d, ok := ParseSinceDuration("7d")
	require.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, d)
}

func TestParseSinceDuration_AllReturnsFalse(t *testing.T) {
	_, ok := ParseSinceDuration("all")
	assert.False(t, ok)
}

func TestParseSinceDuration_InvalidReturnsFalse(t *testing.T) {
	for _, s := range []string{"yesterday", "", "abc"} {
		_, ok := ParseSinceDuration(s)
		assert.False(t, ok, "expected %q to be invalid", s)
	}
}

func TestParseSinceDuration_1h(t *testing.T) {
	d, ok := ParseSinceDuration("1h")
	require.True(t, ok)
	assert.Equal(t, time.Hour, d)
}

func TestSessionStatsAreIsolatedBySessionID(t *testing.T) {
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	acctA := New(store.DB(), "test-session-iso", "session-A")
	acctB := New(store.DB(), "test-session-iso", "session-B")

	require.NoError(t, acctA.RecordQuery(ctx, "q1", 100, 0, 1000))
	require.NoError(t, acctB.RecordQuery(ctx, "q2", 200, 0, 2000))

	statsA, err := acctA.GetSessionStats(ctx)
	require.NoError(t, err)
	statsB, err := acctB.GetSessionStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), statsA.TotalQueries)
	assert.Equal(t, uint64(100), statsA.TotalPointerTokens)
	assert.Equal(t, uint64(1), statsB.TotalQueries)
	assert.Equal(t, uint64(200), statsB.TotalPointerTokens)

	all, err := acctA.GetCumulativeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), all.TotalQueries)
}

func TestSavingsPctZeroWhenNoTraditionalEstimate(t *testing.T) {
	acct, _ := newTestAccountant(t, "test-zero-est", "session-1")
	ctx := context.Background()

	require.NoError(t, acct.RecordQuery(ctx, "q", 50, 0, 0))

	stats, err := acct.GetCumulativeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.CumulativeSavingsPct)
}
