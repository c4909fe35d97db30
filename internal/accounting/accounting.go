package accounting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hermes-engine/hermes/internal/storage"
)

// CumulativeStats summarizes token spend and savings over a set of recorded
// queries: either everything for a project, a wall-clock window of it, or a
// single session's slice of it.
type CumulativeStats struct {
	TotalQueries             uint64
	TotalPointerTokens       uint64
	TotalFetchedTokens       uint64
	TotalTraditionalEstimate uint64
	CumulativeSavingsTokens  uint64
	CumulativeSavingsPct     float64
}

// Accountant journals per-query token accounting and aggregates it back out,
// scoped to one project and one session within that project.
type Accountant struct {
	q         storage.Querier
	projectID string
	sessionID string
}

// New returns an Accountant scoped to projectID and sessionID.
func New(q storage.Querier, projectID, sessionID string) *Accountant {
	return &Accountant{q: q, projectID: projectID, sessionID: sessionID}
}

// RecordQuery appends one row to the accounting journal.
func (a *Accountant) RecordQuery(ctx context.Context, queryText string, pointerTokens, fetchedTokens, traditionalEstimate uint64) error {
	_, err := a.q.ExecContext(ctx, `
		INSERT INTO accounting (project_id, session_id, query_text, pointer_tokens, fetched_tokens, traditional_est)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.projectID, a.sessionID, queryText, pointerTokens, fetchedTokens, traditionalEstimate)
	return err
}

// GetCumulativeStats aggregates every journaled query for the project.
func (a *Accountant) GetCumulativeStats(ctx context.Context) (CumulativeStats, error) {
	return a.GetStatsSince(ctx, nil)
}

// GetStatsSince aggregates journaled queries for the project, optionally
// restricted to rows created within the last since window. A nil since
// covers the whole project history.
func (a *Accountant) GetStatsSince(ctx context.Context, since *time.Duration) (CumulativeStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(pointer_tokens), 0),
		       COALESCE(SUM(fetched_tokens), 0),
		       COALESCE(SUM(traditional_est), 0)
		FROM accounting WHERE project_id = ?`
	args := []interface{}{a.projectID}

	if since != nil {
		secs := int64(since.Seconds())
		query += fmt.Sprintf(" AND created_at >= datetime('now', '-%d seconds')", secs)
	}

	row := a.q.QueryRowContext(ctx, query, args...)
	return scanStats(row)
}

// GetSessionStats aggregates journaled queries for this project, restricted
// to this Accountant's session.
func (a *Accountant) GetSessionStats(ctx context.Context) (CumulativeStats, error) {
	row := a.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(pointer_tokens), 0),
		       COALESCE(SUM(fetched_tokens), 0),
		       COALESCE(SUM(traditional_est), 0)
		FROM accounting WHERE project_id = ? AND session_id = ?
	`, a.projectID, a.sessionID)
	return scanStats(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStats(row rowScanner) (CumulativeStats, error) {
	var queries, ptrTokens, fetchTokens, tradEst uint64
	if err := row.Scan(&queries, &ptrTokens, &fetchTokens, &tradEst); err != nil {
		return CumulativeStats{}, err
	}

	actual := ptrTokens + fetchTokens
	var saved uint64
	if tradEst > actual {
		saved = tradEst - actual
	}
	var pct float64
	if tradEst > 0 {
		pct = (float64(saved) / float64(tradEst)) * 100.0
	}

	return CumulativeStats{
		TotalQueries:             queries,
		TotalPointerTokens:       ptrTokens,
		TotalFetchedTokens:       fetchTokens,
		TotalTraditionalEstimate: tradEst,
		CumulativeSavingsTokens:  saved,
		CumulativeSavingsPct:     pct,
	}, nil
}

// ParseSinceDuration parses a stats window of the form "Nh", "Nd", or "all".
// "all" and any unrecognized form return (0, false). Callers handle "all"
// before calling and report any other false result as an invalid since
// argument.
func ParseSinceDuration(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "all":
		return 0, false
	case strings.HasSuffix(s, "h"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "h"), 10, 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(n) * time.Hour, true
	case strings.HasSuffix(s, "d"):
		n, err := strconv.ParseUint(strings.TrimSuffix(s, "d"), 10, 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	default:
		return 0, false
	}
}
