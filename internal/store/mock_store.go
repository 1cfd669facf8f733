package store

import (
	"context"
	"time"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/card"
	"board-automator-api/internal/store/rule"
	"board-automator-api/internal/store/run"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of the Storer interface for testing
type MockStore struct {
	mock.Mock
}

var _ Storer = (*MockStore)(nil)

// --- Rules ---

func (m *MockStore) CreateRule(ctx context.Context, arg rule.CreateRuleParams) (domain.RuleDefinition, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.RuleDefinition), args.Error(1)
}

func (m *MockStore) GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) GetRuleDefinition(ctx context.Context, ruleID uuid.UUID) (domain.RuleDefinition, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(domain.RuleDefinition), args.Error(1)
}

func (m *MockStore) GetRulesForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.AutomationRule, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutomationRule), args.Error(1)
}

func (m *MockStore) UpdateRule(ctx context.Context, arg rule.UpdateRuleParams) (domain.RuleDefinition, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(domain.RuleDefinition), args.Error(1)
}

func (m *MockStore) ToggleRuleStatus(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	args := m.Called(ctx, ruleID)
	return args.Get(0).(domain.AutomationRule), args.Error(1)
}

func (m *MockStore) GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error) {
	args := m.Called(ctx, workspaceID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutomationRule), args.Error(1)
}

func (m *MockStore) GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error) {
	args := m.Called(ctx, ruleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RuleCondition), args.Error(1)
}

func (m *MockStore) GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error) {
	args := m.Called(ctx, ruleIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RuleAction), args.Error(1)
}

// --- Runs ---

func (m *MockStore) CreateRun(ctx context.Context, arg run.CreateRunParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockStore) GetRunsForRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	args := m.Called(ctx, ruleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutomationRun), args.Error(1)
}

func (m *MockStore) GetRunsForWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	args := m.Called(ctx, workspaceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AutomationRun), args.Error(1)
}

// --- Cards ---

func (m *MockStore) MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error {
	args := m.Called(ctx, cardID, listID, position)
	return args.Error(0)
}

func (m *MockStore) AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error {
	args := m.Called(ctx, cardID, labelID)
	return args.Error(0)
}

func (m *MockStore) AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error {
	args := m.Called(ctx, cardID, userID, assignedBy)
	return args.Error(0)
}

func (m *MockStore) SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error {
	args := m.Called(ctx, cardID, dueAt)
	return args.Error(0)
}

func (m *MockStore) CreateComment(ctx context.Context, arg card.CreateCommentParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockStore) CreateNotification(ctx context.Context, arg card.CreateNotificationParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *MockStore) GetCardContext(ctx context.Context, cardID uuid.UUID) (card.CardContext, error) {
	args := m.Called(ctx, cardID)
	return args.Get(0).(card.CardContext), args.Error(1)
}

func (m *MockStore) ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]card.CardContext, error) {
	args := m.Called(ctx, now, window, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]card.CardContext), args.Error(1)
}

func (m *MockStore) ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]card.CardContext, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]card.CardContext), args.Error(1)
}

// --- Workspaces ---

func (m *MockStore) GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(domain.WorkspaceRole), args.Error(1)
}

func (m *MockStore) BoardInWorkspace(ctx context.Context, boardID, workspaceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, boardID, workspaceID)
	return args.Bool(0), args.Error(1)
}
