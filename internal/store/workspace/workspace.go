package workspace

import (
	"context"
	"errors"
	"fmt"

	"board-automator-api/internal/database"
	"board-automator-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotMember is returned when the user has no membership in the workspace.
var ErrNotMember = errors.New("user is not a member of this workspace")

// WorkspaceStorer defines the interface for membership lookups.
type WorkspaceStorer interface {
	GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error)
	BoardInWorkspace(ctx context.Context, boardID, workspaceID uuid.UUID) (bool, error)
}

// WorkspaceStore handles workspace-related database operations
type WorkspaceStore struct {
	pool database.Querier
}

// NewWorkspaceStore creates a new WorkspaceStore
func NewWorkspaceStore(pool database.Querier) WorkspaceStorer {
	return &WorkspaceStore{pool: pool}
}

// GetMemberRole geeft de rol van een gebruiker binnen een workspace.
func (s *WorkspaceStore) GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error) {
	query := `
    SELECT role
    FROM workspace_members
    WHERE workspace_id = $1 AND user_id = $2;
    `
	var role domain.WorkspaceRole
	err := s.pool.QueryRow(ctx, query, workspaceID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("db query error: %w", err)
	}
	return role, nil
}

// BoardInWorkspace controleert of een board bij de workspace hoort.
func (s *WorkspaceStore) BoardInWorkspace(ctx context.Context, boardID, workspaceID uuid.UUID) (bool, error) {
	query := `
    SELECT 1
    FROM boards
    WHERE id = $1 AND workspace_id = $2
    LIMIT 1;
    `
	var exists int
	err := s.pool.QueryRow(ctx, query, boardID, workspaceID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil // Geen board gevonden, dit is geen error
		}
		return false, fmt.Errorf("db query error: %w", err)
	}
	return true, nil
}
