package rule

import (
	"context"
	"errors"
	"fmt"

	"board-automator-api/internal/database"
	"board-automator-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrRuleNotFound is returned when no rule exists for the given id.
var ErrRuleNotFound = errors.New("rule not found")

// ConditionParams is one condition of a rule definition being written.
type ConditionParams struct {
	Type     domain.ConditionType
	Payload  domain.Payload
	Position int
}

// ActionParams is one action of a rule definition being written.
type ActionParams struct {
	Kind     domain.ActionKind
	Payload  domain.Payload
	Position int
}

// CreateRuleParams contains parameters for creating automation rules.
type CreateRuleParams struct {
	WorkspaceID uuid.UUID
	BoardID     *uuid.UUID
	Name        string
	TriggerKind domain.TriggerKind
	CreatedBy   uuid.UUID
	Conditions  []ConditionParams
	Actions     []ActionParams
}

// UpdateRuleParams definieert de parameters voor het herdefiniëren van een regel.
type UpdateRuleParams struct {
	RuleID      uuid.UUID
	BoardID     *uuid.UUID
	Name        string
	TriggerKind domain.TriggerKind
	Conditions  []ConditionParams
	Actions     []ActionParams
}

// RuleStorer defines the interface for rule definitions.
type RuleStorer interface {
	CreateRule(ctx context.Context, arg CreateRuleParams) (domain.RuleDefinition, error)
	GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)
	GetRuleDefinition(ctx context.Context, ruleID uuid.UUID) (domain.RuleDefinition, error)
	GetRulesForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.AutomationRule, error)
	UpdateRule(ctx context.Context, arg UpdateRuleParams) (domain.RuleDefinition, error)
	ToggleRuleStatus(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)

	GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error)
	GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error)
	GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error)
}

// RuleStore handles rule-related database operations
type RuleStore struct {
	pool database.TxQuerier
}

// NewRuleStore creates a new RuleStore
func NewRuleStore(pool database.TxQuerier) RuleStorer {
	return &RuleStore{pool: pool}
}

const ruleColumns = `id, workspace_id, board_id, name, trigger_kind, is_active, created_by, created_at, updated_at`

// scanRule scans a database row into an AutomationRule
func scanRule(row pgx.Row) (domain.AutomationRule, error) {
	var rule domain.AutomationRule
	err := row.Scan(
		&rule.ID,
		&rule.WorkspaceID,
		&rule.BoardID,
		&rule.Name,
		&rule.TriggerKind,
		&rule.IsActive,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	return rule, err
}

func collectRules(rows pgx.Rows) ([]domain.AutomationRule, error) {
	defer rows.Close()

	rules := []domain.AutomationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}
	return rules, nil
}

// CreateRule slaat een regel met condities en acties op in een transactie.
func (s *RuleStore) CreateRule(ctx context.Context, arg CreateRuleParams) (domain.RuleDefinition, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db begin error: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
    INSERT INTO automation_rules (
        workspace_id, board_id, name, trigger_kind, created_by
    ) VALUES (
        $1, $2, $3, $4, $5
    )
    RETURNING ` + ruleColumns + `;
    `
	rule, err := scanRule(tx.QueryRow(ctx, query,
		arg.WorkspaceID,
		arg.BoardID,
		arg.Name,
		arg.TriggerKind,
		arg.CreatedBy,
	))
	if err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db scan error: %w", err)
	}

	def, err := insertDefinition(ctx, tx, rule, arg.Conditions, arg.Actions)
	if err != nil {
		return domain.RuleDefinition{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db commit error: %w", err)
	}
	committed = true
	return def, nil
}

func insertDefinition(
	ctx context.Context,
	tx pgx.Tx,
	rule domain.AutomationRule,
	conds []ConditionParams,
	actions []ActionParams,
) (domain.RuleDefinition, error) {
	def := domain.RuleDefinition{
		AutomationRule: rule,
		Conditions:     make([]domain.RuleCondition, 0, len(conds)),
		Actions:        make([]domain.RuleAction, 0, len(actions)),
	}

	for _, c := range conds {
		rc := domain.RuleCondition{
			ID:            uuid.New(),
			RuleID:        rule.ID,
			ConditionType: c.Type,
			Payload:       nonNil(c.Payload),
			Position:      c.Position,
		}
		_, err := tx.Exec(ctx, `
        INSERT INTO automation_rule_conditions (id, rule_id, condition_type, payload, position)
        VALUES ($1, $2, $3, $4, $5);
        `, rc.ID, rc.RuleID, rc.ConditionType, rc.Payload, rc.Position)
		if err != nil {
			return domain.RuleDefinition{}, fmt.Errorf("db exec error (condition): %w", err)
		}
		def.Conditions = append(def.Conditions, rc)
	}

	for _, a := range actions {
		ra := domain.RuleAction{
			ID:         uuid.New(),
			RuleID:     rule.ID,
			ActionKind: a.Kind,
			Payload:    nonNil(a.Payload),
			Position:   a.Position,
		}
		_, err := tx.Exec(ctx, `
        INSERT INTO automation_rule_actions (id, rule_id, action_kind, payload, position)
        VALUES ($1, $2, $3, $4, $5);
        `, ra.ID, ra.RuleID, ra.ActionKind, ra.Payload, ra.Position)
		if err != nil {
			return domain.RuleDefinition{}, fmt.Errorf("db exec error (action): %w", err)
		}
		def.Actions = append(def.Actions, ra)
	}

	return def, nil
}

func nonNil(p domain.Payload) domain.Payload {
	if p == nil {
		return domain.Payload{}
	}
	return p
}

// GetRuleByID ...
func (s *RuleStore) GetRuleByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    WHERE id = $1;
    `
	rule, err := scanRule(s.pool.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AutomationRule{}, ErrRuleNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("db query error: %w", err)
	}
	return rule, nil
}

// GetRuleDefinition haalt een regel op inclusief condities en acties.
func (s *RuleStore) GetRuleDefinition(ctx context.Context, ruleID uuid.UUID) (domain.RuleDefinition, error) {
	rule, err := s.GetRuleByID(ctx, ruleID)
	if err != nil {
		return domain.RuleDefinition{}, err
	}
	conds, err := s.GetConditionsForRules(ctx, []uuid.UUID{ruleID})
	if err != nil {
		return domain.RuleDefinition{}, err
	}
	actions, err := s.GetActionsForRules(ctx, []uuid.UUID{ruleID})
	if err != nil {
		return domain.RuleDefinition{}, err
	}
	return domain.RuleDefinition{AutomationRule: rule, Conditions: conds, Actions: actions}, nil
}

// GetRulesForWorkspace geeft alle regels (actief en inactief) van een workspace.
func (s *RuleStore) GetRulesForWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    WHERE workspace_id = $1
    ORDER BY created_at DESC;
    `
	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return collectRules(rows)
}

// GetActiveRules geeft de actieve regels voor een workspace en trigger.
// Board-scope wordt door de aanroeper gefilterd.
func (s *RuleStore) GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error) {
	query := `
    SELECT ` + ruleColumns + `
    FROM automation_rules
    WHERE workspace_id = $1 AND trigger_kind = $2 AND is_active = true
    ORDER BY created_at, id;
    `
	rows, err := s.pool.Query(ctx, query, workspaceID, trigger)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return collectRules(rows)
}

// GetConditionsForRules laadt de condities van een set regels in een query.
func (s *RuleStore) GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error) {
	query := `
    SELECT id, rule_id, condition_type, payload, position
    FROM automation_rule_conditions
    WHERE rule_id = ANY($1)
    ORDER BY rule_id, position;
    `
	rows, err := s.pool.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	conds := []domain.RuleCondition{}
	for rows.Next() {
		var c domain.RuleCondition
		if err := rows.Scan(&c.ID, &c.RuleID, &c.ConditionType, &c.Payload, &c.Position); err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		conds = append(conds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}
	return conds, nil
}

// GetActionsForRules laadt de acties van een set regels in een query.
func (s *RuleStore) GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error) {
	query := `
    SELECT id, rule_id, action_kind, payload, position
    FROM automation_rule_actions
    WHERE rule_id = ANY($1)
    ORDER BY rule_id, position;
    `
	rows, err := s.pool.Query(ctx, query, ruleIDs)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	defer rows.Close()

	actions := []domain.RuleAction{}
	for rows.Next() {
		var a domain.RuleAction
		if err := rows.Scan(&a.ID, &a.RuleID, &a.ActionKind, &a.Payload, &a.Position); err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}
	return actions, nil
}

// UpdateRule vervangt naam, scope, trigger, condities en acties van een regel
// in een transactie. is_active blijft ongewijzigd.
func (s *RuleStore) UpdateRule(ctx context.Context, arg UpdateRuleParams) (domain.RuleDefinition, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db begin error: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	query := `
    UPDATE automation_rules
    SET board_id = $1, name = $2, trigger_kind = $3, updated_at = now()
    WHERE id = $4
    RETURNING ` + ruleColumns + `;
    `
	rule, err := scanRule(tx.QueryRow(ctx, query, arg.BoardID, arg.Name, arg.TriggerKind, arg.RuleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RuleDefinition{}, ErrRuleNotFound
		}
		return domain.RuleDefinition{}, fmt.Errorf("db scan error: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM automation_rule_conditions WHERE rule_id = $1;`, arg.RuleID); err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db exec error: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM automation_rule_actions WHERE rule_id = $1;`, arg.RuleID); err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db exec error: %w", err)
	}

	def, err := insertDefinition(ctx, tx, rule, arg.Conditions, arg.Actions)
	if err != nil {
		return domain.RuleDefinition{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RuleDefinition{}, fmt.Errorf("db commit error: %w", err)
	}
	committed = true
	return def, nil
}

// ToggleRuleStatus zet de 'is_active' boolean van een regel om.
func (s *RuleStore) ToggleRuleStatus(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	query := `
    UPDATE automation_rules
    SET is_active = NOT is_active, updated_at = now()
    WHERE id = $1
    RETURNING ` + ruleColumns + `;
    `
	rule, err := scanRule(s.pool.QueryRow(ctx, query, ruleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AutomationRule{}, ErrRuleNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("db scan error: %w", err)
	}
	return rule, nil
}
