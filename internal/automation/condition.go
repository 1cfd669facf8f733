package automation

import (
	"time"

	"board-automator-api/internal/domain"
)

// MissingFieldPolicy decides what a condition evaluates to when its payload
// field is absent or malformed.
type MissingFieldPolicy int

const (
	// FailOpen: an absent field means "matches".
	FailOpen MissingFieldPolicy = iota
	// FailClosed: an absent field means "does not match".
	FailClosed
)

func (p MissingFieldPolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// conditionPolicies is de expliciete policy per conditietype.
// due_within_hours is de enige numerieke vergelijking en faalt dus dicht.
var conditionPolicies = map[domain.ConditionType]MissingFieldPolicy{
	domain.ConditionCardPriorityIs: FailOpen,
	domain.ConditionLabelIs:        FailOpen,
	domain.ConditionAssigneeIs:     FailOpen,
	domain.ConditionDueWithinHours: FailClosed,
	domain.ConditionListIs:         FailOpen,
}

// UnknownConditionPolicy applies to condition types that are not registered.
const UnknownConditionPolicy = FailOpen

// PolicyFor returns the missing-field policy of a condition type.
func PolicyFor(t domain.ConditionType) MissingFieldPolicy {
	if p, ok := conditionPolicies[t]; ok {
		return p
	}
	return UnknownConditionPolicy
}

func missing(t domain.ConditionType) bool {
	return PolicyFor(t) == FailOpen
}

// EvaluateCondition reports whether cond holds for event at time now.
// It does no I/O.
func EvaluateCondition(event domain.AutomationEvent, cond domain.RuleCondition, now time.Time) bool {
	card := event.Card
	p := cond.Payload

	switch cond.ConditionType {
	case domain.ConditionCardPriorityIs:
		priority, ok := p.String("priority")
		if !ok {
			return missing(cond.ConditionType)
		}
		return card.Priority == priority

	case domain.ConditionLabelIs:
		labelID, ok := p.UUID("labelId")
		if !ok {
			return missing(cond.ConditionType)
		}
		return card.HasLabel(labelID)

	case domain.ConditionAssigneeIs:
		userID, ok := p.UUID("userId")
		if !ok {
			return missing(cond.ConditionType)
		}
		return card.HasAssignee(userID)

	case domain.ConditionDueWithinHours:
		hours, ok := p.Number("hours")
		if !ok || card.DueAt == nil {
			return missing(cond.ConditionType)
		}
		// negatief = al verlopen, telt ook als binnen de window.
		// Vergelijken in uren: hours*time.Hour loopt over bij grote waarden.
		return card.DueAt.Sub(now).Hours() <= hours

	case domain.ConditionListIs:
		listID, ok := p.UUID("listId")
		if !ok {
			return missing(cond.ConditionType)
		}
		return card.ListID == listID
	}

	return UnknownConditionPolicy == FailOpen
}

// RuleMatches is the conjunction of all conditions. Zero conditions match.
func RuleMatches(event domain.AutomationEvent, conds []domain.RuleCondition, now time.Time) bool {
	for _, cond := range conds {
		if !EvaluateCondition(event, cond, now) {
			return false
		}
	}
	return true
}
