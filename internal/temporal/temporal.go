package temporal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/pkg/types"
)

// Store is a project-scoped view over the shared store's temporal_facts
// table. Facts are append-only: invalidation updates ValidTo/SupersededBy
// in place but never deletes a row.
type Store struct {
	q         storage.Querier
	projectID string
}

// New returns a Store scoped to projectID.
func New(q storage.Querier, projectID string) *Store {
	return &Store{q: q, projectID: projectID}
}

// AddFact records a new fact and returns its generated ID. nodeID and
// sourceReference may be empty when the fact isn't anchored to a graph node
// or doesn't cite a source.
func (s *Store) AddFact(ctx context.Context, factType types.FactType, content, nodeID, sourceReference string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO temporal_facts (id, project_id, node_id, fact_type, content, valid_from, source_reference)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, s.projectID, nullableString(nodeID), string(factType), content, now, nullableString(sourceReference))
	if err != nil {
		return "", fmt.Errorf("add fact: %w", err)
	}
	return id, nil
}

// InvalidateFact sets a fact's ValidTo to now and, when supersededBy is
// non-empty, records the chain to its replacement.
func (s *Store) InvalidateFact(ctx context.Context, factID, supersededBy string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.q.ExecContext(ctx, `
		UPDATE temporal_facts SET valid_to = ?, superseded_by = ?
		WHERE id = ? AND project_id = ?
	`, now, nullableString(supersededBy), factID, s.projectID)
	if err != nil {
		return fmt.Errorf("invalidate fact: %w", err)
	}
	return nil
}

// GetActiveFacts returns every fact with ValidTo unset, most recent first.
// An empty factType returns facts of every type.
func (s *Store) GetActiveFacts(ctx context.Context, factType types.FactType) ([]types.TemporalFact, error) {
	if factType == "" {
		rows, err := s.q.QueryContext(ctx, `
			SELECT id, project_id, node_id, fact_type, content, valid_from, valid_to, superseded_by, source_reference
			FROM temporal_facts
			WHERE project_id = ? AND valid_to IS NULL
			ORDER BY valid_from DESC
		`, s.projectID)
		if err != nil {
			return nil, fmt.Errorf("get active facts: %w", err)
		}
		defer func() { _ = rows.Close() }()
		return scanFacts(rows)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, node_id, fact_type, content, valid_from, valid_to, superseded_by, source_reference
		FROM temporal_facts
		WHERE project_id = ? AND valid_to IS NULL AND fact_type = ?
		ORDER BY valid_from DESC
	`, s.projectID, string(factType))
	if err != nil {
		return nil, fmt.Errorf("get active facts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFacts(rows)
}

// GetFactHistory returns every fact ever recorded for nodeID, active or
// invalidated, most recent first.
func (s *Store) GetFactHistory(ctx context.Context, nodeID string) ([]types.TemporalFact, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, project_id, node_id, fact_type, content, valid_from, valid_to, superseded_by, source_reference
		FROM temporal_facts
		WHERE project_id = ? AND node_id = ?
		ORDER BY valid_from DESC
	`, s.projectID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("get fact history: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFacts(rows)
}

func scanFacts(rows *sql.Rows) ([]types.TemporalFact, error) {
	var out []types.TemporalFact
	for rows.Next() {
		var (
			f                                             types.TemporalFact
			factType                                      string
			nodeID, validTo, supersededBy, sourceRef sql.NullString
		)
		if err := rows.Scan(
			&f.ID, &f.ProjectID, &nodeID, &factType, &f.Content, &f.ValidFrom, &validTo, &supersededBy, &sourceRef,
		); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		f.FactType = types.ParseFactType(factType)
		f.NodeID = nodeID.String
		f.ValidTo = validTo.String
		f.SupersededBy = supersededBy.String
		f.SourceReference = sourceRef.String
		out = append(out, f)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
