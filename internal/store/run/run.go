package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"board-automator-api/internal/database"
	"board-automator-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultLimit is used when a caller asks for a non-positive number of runs.
const DefaultLimit = 50

// CreateRunParams contains the fields of one audit record.
type CreateRunParams struct {
	RuleID        uuid.UUID
	WorkspaceID   uuid.UUID
	CardID        uuid.UUID
	TriggerSource domain.TriggerKind
	Status        domain.RunStatus
	Details       json.RawMessage
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RunStorer defines the interface for the automation run audit log.
type RunStorer interface {
	CreateRun(ctx context.Context, arg CreateRunParams) error
	GetRunsForRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]domain.AutomationRun, error)
	GetRunsForWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.AutomationRun, error)
}

// RunStore handles the append-only automation_runs table.
type RunStore struct {
	pool database.Querier
}

// NewRunStore creates a new RunStore
func NewRunStore(pool database.Querier) RunStorer {
	return &RunStore{pool: pool}
}

// CreateRun appends an audit record. Runs are never updated.
func (s *RunStore) CreateRun(ctx context.Context, arg CreateRunParams) error {
	query := `
    INSERT INTO automation_runs (
        rule_id, workspace_id, card_id, trigger_source, status, details, started_at, finished_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `
	_, err := s.pool.Exec(ctx, query,
		arg.RuleID,
		arg.WorkspaceID,
		arg.CardID,
		arg.TriggerSource,
		arg.Status,
		arg.Details,
		arg.StartedAt,
		arg.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	return nil
}

// GetRunsForRule haalt de meest recente runs op voor een regel.
func (s *RunStore) GetRunsForRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	query := `
    SELECT id, rule_id, workspace_id, card_id, trigger_source, status, details, started_at, finished_at
    FROM automation_runs
    WHERE rule_id = $1
    ORDER BY started_at DESC, id DESC
    LIMIT $2;
    `
	rows, err := s.pool.Query(ctx, query, ruleID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return scanRuns(rows)
}

// GetRunsForWorkspace haalt de meest recente runs op voor een workspace.
func (s *RunStore) GetRunsForWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	query := `
    SELECT id, rule_id, workspace_id, card_id, trigger_source, status, details, started_at, finished_at
    FROM automation_runs
    WHERE workspace_id = $1
    ORDER BY started_at DESC, id DESC
    LIMIT $2;
    `
	rows, err := s.pool.Query(ctx, query, workspaceID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return scanRuns(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func scanRuns(rows pgx.Rows) ([]domain.AutomationRun, error) {
	defer rows.Close()

	runs := []domain.AutomationRun{}
	for rows.Next() {
		var r domain.AutomationRun
		err := rows.Scan(
			&r.ID,
			&r.RuleID,
			&r.WorkspaceID,
			&r.CardID,
			&r.TriggerSource,
			&r.Status,
			&r.Details,
			&r.StartedAt,
			&r.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}
	return runs, nil
}
