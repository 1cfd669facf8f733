package store

import (
	"context"
	"time"

	"board-automator-api/internal/database"
	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/card"
	"board-automator-api/internal/store/rule"
	"board-automator-api/internal/store/run"
	"board-automator-api/internal/store/workspace"

	"github.com/google/uuid"
)

// Storer is de interface voor al onze database-interacties.
// Het is de som van de sub-stores en voldoet ook aan automation.Store.
type Storer interface {
	// Rules
	CreateRule(ctx context.Context, arg rule.CreateRuleParams) (domain.RuleDefinition, error)
	GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)
	GetRuleDefinition(ctx context.Context, ruleID uuid.UUID) (domain.RuleDefinition, error)
	GetRulesForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.AutomationRule, error)
	UpdateRule(ctx context.Context, arg rule.UpdateRuleParams) (domain.RuleDefinition, error)
	ToggleRuleStatus(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)
	GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error)
	GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error)
	GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error)

	// Runs
	CreateRun(ctx context.Context, arg run.CreateRunParams) error
	GetRunsForRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]domain.AutomationRun, error)
	GetRunsForWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.AutomationRun, error)

	// Cards
	MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error
	AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error
	AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error
	SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error
	CreateComment(ctx context.Context, arg card.CreateCommentParams) error
	CreateNotification(ctx context.Context, arg card.CreateNotificationParams) error
	GetCardContext(ctx context.Context, cardID uuid.UUID) (card.CardContext, error)
	ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]card.CardContext, error)
	ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]card.CardContext, error)

	// Workspaces
	GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error)
	BoardInWorkspace(ctx context.Context, boardID, workspaceID uuid.UUID) (bool, error)
}

// DBStore implementeert de Storer interface door te delegeren naar de sub-stores.
type DBStore struct {
	ruleStore      rule.RuleStorer
	runStore       run.RunStorer
	cardStore      card.CardStorer
	workspaceStore workspace.WorkspaceStorer
}

// NewStore maakt een nieuwe DBStore
func NewStore(pool database.TxQuerier) Storer {
	return &DBStore{
		ruleStore:      rule.NewRuleStore(pool),
		runStore:       run.NewRunStore(pool),
		cardStore:      card.NewCardStore(pool),
		workspaceStore: workspace.NewWorkspaceStore(pool),
	}
}

// --- Rules ---

func (s *DBStore) CreateRule(ctx context.Context, arg rule.CreateRuleParams) (domain.RuleDefinition, error) {
	return s.ruleStore.CreateRule(ctx, arg)
}

func (s *DBStore) GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	return s.ruleStore.GetRuleByID(ctx, ruleID)
}

func (s *DBStore) GetRuleDefinition(ctx context.Context, ruleID uuid.UUID) (domain.RuleDefinition, error) {
	return s.ruleStore.GetRuleDefinition(ctx, ruleID)
}

func (s *DBStore) GetRulesForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.AutomationRule, error) {
	return s.ruleStore.GetRulesForWorkspace(ctx, workspaceID)
}

func (s *DBStore) UpdateRule(ctx context.Context, arg rule.UpdateRuleParams) (domain.RuleDefinition, error) {
	return s.ruleStore.UpdateRule(ctx, arg)
}

func (s *DBStore) ToggleRuleStatus(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	return s.ruleStore.ToggleRuleStatus(ctx, ruleID)
}

func (s *DBStore) GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error) {
	return s.ruleStore.GetActiveRules(ctx, workspaceID, trigger)
}

func (s *DBStore) GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error) {
	return s.ruleStore.GetConditionsForRules(ctx, ruleIDs)
}

func (s *DBStore) GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error) {
	return s.ruleStore.GetActionsForRules(ctx, ruleIDs)
}

// --- Runs ---

func (s *DBStore) CreateRun(ctx context.Context, arg run.CreateRunParams) error {
	return s.runStore.CreateRun(ctx, arg)
}

func (s *DBStore) GetRunsForRule(ctx context.Context, ruleID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	return s.runStore.GetRunsForRule(ctx, ruleID, limit)
}

func (s *DBStore) GetRunsForWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]domain.AutomationRun, error) {
	return s.runStore.GetRunsForWorkspace(ctx, workspaceID, limit)
}

// --- Cards ---

func (s *DBStore) MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error {
	return s.cardStore.MoveCard(ctx, cardID, listID, position)
}

func (s *DBStore) AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error {
	return s.cardStore.AddCardLabel(ctx, cardID, labelID)
}

func (s *DBStore) AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error {
	return s.cardStore.AssignCardMember(ctx, cardID, userID, assignedBy)
}

func (s *DBStore) SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error {
	return s.cardStore.SetCardDueDate(ctx, cardID, dueAt)
}

func (s *DBStore) CreateComment(ctx context.Context, arg card.CreateCommentParams) error {
	return s.cardStore.CreateComment(ctx, arg)
}

func (s *DBStore) CreateNotification(ctx context.Context, arg card.CreateNotificationParams) error {
	return s.cardStore.CreateNotification(ctx, arg)
}

func (s *DBStore) GetCardContext(ctx context.Context, cardID uuid.UUID) (card.CardContext, error) {
	return s.cardStore.GetCardContext(ctx, cardID)
}

func (s *DBStore) ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]card.CardContext, error) {
	return s.cardStore.ClaimDueSoonCards(ctx, now, window, limit)
}

func (s *DBStore) ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]card.CardContext, error) {
	return s.cardStore.ClaimOverdueCards(ctx, now, limit)
}

// --- Workspaces ---

func (s *DBStore) GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error) {
	return s.workspaceStore.GetMemberRole(ctx, workspaceID, userID)
}

func (s *DBStore) BoardInWorkspace(ctx context.Context, boardID, workspaceID uuid.UUID) (bool, error) {
	return s.workspaceStore.BoardInWorkspace(ctx, boardID, workspaceID)
}
