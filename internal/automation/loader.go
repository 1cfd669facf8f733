package automation

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"board-automator-api/internal/domain"

	"github.com/google/uuid"
)

// RuleReader is the read side of rule storage.
type RuleReader interface {
	GetActiveRules(ctx context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error)
	GetConditionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleCondition, error)
	GetActionsForRules(ctx context.Context, ruleIDs []uuid.UUID) ([]domain.RuleAction, error)
}

// Loader resolves the candidate rules for an event.
type Loader struct {
	rules RuleReader
}

func NewLoader(r RuleReader) *Loader {
	return &Loader{rules: r}
}

// LoadCandidateRules returns the active rules for the event's workspace and
// trigger that are in scope for its board, each with conditions and actions
// sorted by position. Conditions and actions are fetched with one query each.
func (l *Loader) LoadCandidateRules(ctx context.Context, event domain.AutomationEvent) ([]domain.RuleDefinition, error) {
	rules, err := l.rules.GetActiveRules(ctx, event.WorkspaceID, event.Trigger)
	if err != nil {
		return nil, fmt.Errorf("get active rules: %w", err)
	}

	defs := make([]domain.RuleDefinition, 0, len(rules))
	ids := make([]uuid.UUID, 0, len(rules))
	for _, r := range rules {
		if !r.AppliesToBoard(event.BoardID) {
			continue
		}
		defs = append(defs, domain.RuleDefinition{AutomationRule: r})
		ids = append(ids, r.ID)
	}
	if len(defs) == 0 {
		return nil, nil
	}

	conds, err := l.rules.GetConditionsForRules(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get conditions: %w", err)
	}
	actions, err := l.rules.GetActionsForRules(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get actions: %w", err)
	}

	condsByRule := make(map[uuid.UUID][]domain.RuleCondition, len(defs))
	for _, c := range conds {
		condsByRule[c.RuleID] = append(condsByRule[c.RuleID], c)
	}
	actionsByRule := make(map[uuid.UUID][]domain.RuleAction, len(defs))
	for _, a := range actions {
		actionsByRule[a.RuleID] = append(actionsByRule[a.RuleID], a)
	}

	for i := range defs {
		c := condsByRule[defs[i].ID]
		slices.SortStableFunc(c, func(a, b domain.RuleCondition) int { return cmp.Compare(a.Position, b.Position) })
		a := actionsByRule[defs[i].ID]
		slices.SortStableFunc(a, func(x, y domain.RuleAction) int { return cmp.Compare(x.Position, y.Position) })
		defs[i].Conditions = c
		defs[i].Actions = a
	}

	return defs, nil
}
