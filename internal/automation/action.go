package automation

import (
	"context"
	"fmt"
	"math"
	"time"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/card"

	"github.com/google/uuid"
)

// ActionStore is the write side the executor needs, one call per action kind.
type ActionStore interface {
	MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error
	AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error
	AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error
	SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error
	CreateComment(ctx context.Context, arg card.CreateCommentParams) error
	CreateNotification(ctx context.Context, arg card.CreateNotificationParams) error
}

// ActionOutcome says whether an action wrote anything.
type ActionOutcome string

const (
	OutcomeApplied ActionOutcome = "applied"
	OutcomeSkipped ActionOutcome = "skipped"
)

// ActionFieldPolicy decides what an action does when a required payload field
// is absent or malformed.
type ActionFieldPolicy int

const (
	// SkipOnMissing: do nothing, report no error.
	SkipOnMissing ActionFieldPolicy = iota
)

var actionPolicies = map[domain.ActionKind]ActionFieldPolicy{
	domain.ActionMoveCard:     SkipOnMissing,
	domain.ActionAddLabel:     SkipOnMissing,
	domain.ActionAssignMember: SkipOnMissing,
	domain.ActionSetDueDate:   SkipOnMissing,
	domain.ActionPostComment:  SkipOnMissing,
	domain.ActionNotify:       SkipOnMissing,
}

// UnknownActionPolicy applies to action kinds that are not registered.
const UnknownActionPolicy = SkipOnMissing

// ActionPolicyFor returns the missing-field policy of an action kind.
func ActionPolicyFor(k domain.ActionKind) ActionFieldPolicy {
	if p, ok := actionPolicies[k]; ok {
		return p
	}
	return UnknownActionPolicy
}

const (
	defaultDueOffsetHours  = 24
	maxDueOffsetHours      = 100 * 365 * 24
	automationNotification = "automation"
)

// Executor performs rule actions against an ActionStore.
type Executor struct {
	store ActionStore
	now   func() time.Time
}

func NewExecutor(s ActionStore, now func() time.Time) *Executor {
	if now == nil {
		now = time.Now
	}
	return &Executor{store: s, now: now}
}

// Execute performs exactly one persisted mutation for action. Missing payload
// fields and unknown kinds return OutcomeSkipped with a nil error; only a failed
// write returns an error.
func (x *Executor) Execute(
	ctx context.Context,
	event domain.AutomationEvent,
	rule domain.AutomationRule,
	action domain.RuleAction,
) (ActionOutcome, error) {
	p := action.Payload
	cardID := event.Card.ID

	switch action.ActionKind {
	case domain.ActionMoveCard:
		listID, ok := p.UUID("listId")
		if !ok {
			return x.missing(action.ActionKind)
		}
		position, ok := p.Number("position")
		if !ok {
			position = float64(x.now().UnixMilli())
		}
		if err := x.store.MoveCard(ctx, cardID, listID, position); err != nil {
			return "", fmt.Errorf("move_card: %w", err)
		}

	case domain.ActionAddLabel:
		labelID, ok := p.UUID("labelId")
		if !ok {
			return x.missing(action.ActionKind)
		}
		if err := x.store.AddCardLabel(ctx, cardID, labelID); err != nil {
			return "", fmt.Errorf("add_label: %w", err)
		}

	case domain.ActionAssignMember:
		userID, ok := p.UUID("userId")
		if !ok {
			return x.missing(action.ActionKind)
		}
		if err := x.store.AssignCardMember(ctx, cardID, userID, event.ActorID); err != nil {
			return "", fmt.Errorf("assign_member: %w", err)
		}

	case domain.ActionSetDueDate:
		offset, ok := p.Number("offsetHours")
		if !ok {
			offset = defaultDueOffsetHours
		}
		// buiten bereik (of NaN) past niet in een time.Duration
		if !(math.Abs(offset) <= maxDueOffsetHours) {
			return x.missing(action.ActionKind)
		}
		dueAt := x.now().Add(time.Duration(offset * float64(time.Hour)))
		if err := x.store.SetCardDueDate(ctx, cardID, dueAt); err != nil {
			return "", fmt.Errorf("set_due_date: %w", err)
		}

	case domain.ActionPostComment:
		content, ok := p.String("content")
		if !ok {
			return x.missing(action.ActionKind)
		}
		err := x.store.CreateComment(ctx, card.CreateCommentParams{
			CardID:   cardID,
			AuthorID: event.ActorID,
			Content:  content,
		})
		if err != nil {
			return "", fmt.Errorf("post_comment: %w", err)
		}

	case domain.ActionNotify:
		userID, ok := p.UUID("userId")
		if !ok {
			return x.missing(action.ActionKind)
		}
		message, ok := p.String("message")
		if !ok {
			message = fmt.Sprintf("Automation %q ran on a card", rule.Name)
		}
		err := x.store.CreateNotification(ctx, card.CreateNotificationParams{
			UserID:      userID,
			WorkspaceID: event.WorkspaceID,
			BoardID:     event.BoardID,
			CardID:      cardID,
			Type:        automationNotification,
			Message:     message,
		})
		if err != nil {
			return "", fmt.Errorf("notify: %w", err)
		}

	default:
		return x.missing(action.ActionKind)
	}

	return OutcomeApplied, nil
}

func (x *Executor) missing(k domain.ActionKind) (ActionOutcome, error) {
	if ActionPolicyFor(k) != SkipOnMissing {
		return "", fmt.Errorf("%s: unsupported field policy", k)
	}
	return OutcomeSkipped, nil
}
