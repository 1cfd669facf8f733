package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AutomationRule is an administrator-authored rule. A nil BoardID means the rule
// applies to every board in the workspace.
type AutomationRule struct {
	WorkspaceEntity
	BoardID     *uuid.UUID  `db:"board_id"     json:"board_id,omitempty"`
	Name        string      `db:"name"         json:"name"`
	TriggerKind TriggerKind `db:"trigger_kind" json:"trigger_kind"`
	IsActive    bool        `db:"is_active"    json:"is_active"`
	CreatedBy   uuid.UUID   `db:"created_by"   json:"created_by"`
}

// AppliesToBoard reports whether the rule is in scope for an event on boardID.
func (r AutomationRule) AppliesToBoard(boardID uuid.UUID) bool {
	return r.BoardID == nil || *r.BoardID == boardID
}

// RuleCondition is one predicate of a rule.
type RuleCondition struct {
	ID            uuid.UUID     `db:"id"             json:"id"`
	RuleID        uuid.UUID     `db:"rule_id"        json:"rule_id"`
	ConditionType ConditionType `db:"condition_type" json:"condition_type"`
	Payload       Payload       `db:"payload"        json:"payload"`
	Position      int           `db:"position"       json:"position"`
}

// RuleAction is one side effect of a rule.
type RuleAction struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	RuleID     uuid.UUID  `db:"rule_id"     json:"rule_id"`
	ActionKind ActionKind `db:"action_kind" json:"action_kind"`
	Payload    Payload    `db:"payload"     json:"payload"`
	Position   int        `db:"position"    json:"position"`
}

// RuleDefinition is a rule together with its ordered conditions and actions.
type RuleDefinition struct {
	AutomationRule
	Conditions []RuleCondition `json:"conditions"`
	Actions    []RuleAction    `json:"actions"`
}

// CardSnapshot is the point-in-time view of a card carried by an event.
type CardSnapshot struct {
	ID          uuid.UUID   `json:"id"`
	BoardID     uuid.UUID   `json:"board_id"`
	ListID      uuid.UUID   `json:"list_id"`
	Priority    string      `json:"priority"`
	DueAt       *time.Time  `json:"due_at,omitempty"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids,omitempty"`
	LabelIDs    []uuid.UUID `json:"label_ids,omitempty"`
}

// HasLabel reports whether the snapshot carries labelID.
func (c CardSnapshot) HasLabel(labelID uuid.UUID) bool {
	for _, id := range c.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// HasAssignee reports whether the snapshot carries userID as assignee.
func (c CardSnapshot) HasAssignee(userID uuid.UUID) bool {
	for _, id := range c.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AutomationEvent is the ephemeral input of the engine. It is never persisted.
type AutomationEvent struct {
	Trigger     TriggerKind  `json:"trigger"`
	WorkspaceID uuid.UUID    `json:"workspace_id"`
	BoardID     uuid.UUID    `json:"board_id"`
	ActorID     uuid.UUID    `json:"actor_id"`
	Card        CardSnapshot `json:"card"`
}

// AutomationRun is the append-only audit record of one attempted rule.
type AutomationRun struct {
	ID            int64           `db:"id"             json:"id"`
	RuleID        uuid.UUID       `db:"rule_id"        json:"rule_id"`
	WorkspaceID   uuid.UUID       `db:"workspace_id"   json:"workspace_id"`
	CardID        uuid.UUID       `db:"card_id"        json:"card_id"`
	TriggerSource TriggerKind     `db:"trigger_source" json:"trigger_source"`
	Status        RunStatus       `db:"status"         json:"status"`
	Details       json.RawMessage `db:"details"        json:"details"`
	StartedAt     time.Time       `db:"started_at"     json:"started_at"`
	FinishedAt    time.Time       `db:"finished_at"    json:"finished_at"`
}

// RunDetails is the details blob stored with a run.
type RunDetails struct {
	CardID  uuid.UUID `json:"cardId"`
	Message string    `json:"message,omitempty"`
}

// Comment is a card comment. Automation comments are authored by the acting user.
type Comment struct {
	BaseEntity
	CardID   uuid.UUID `db:"card_id"   json:"card_id"`
	AuthorID uuid.UUID `db:"author_id" json:"author_id"`
	Content  string    `db:"content"   json:"content"`
}

// Notification is an in-app notification row. Delivery happens elsewhere.
type Notification struct {
	WorkspaceEntity
	UserID  uuid.UUID  `db:"user_id"  json:"user_id"`
	BoardID uuid.UUID  `db:"board_id" json:"board_id"`
	CardID  uuid.UUID  `db:"card_id"  json:"card_id"`
	Type    string     `db:"type"     json:"type"`
	Message string     `db:"message"  json:"message"`
	ReadAt  *time.Time `db:"read_at" json:"read_at,omitempty"`
}
