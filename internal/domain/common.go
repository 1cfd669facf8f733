package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- ENUM Types ---

// TriggerKind is de domein-event categorie waar een regel op reageert.
type TriggerKind string

const (
	TriggerCardMoved          TriggerKind = "card_moved"
	TriggerDueSoon            TriggerKind = "due_soon"
	TriggerOverdue            TriggerKind = "overdue"
	TriggerLabelAdded         TriggerKind = "label_added"
	TriggerChecklistCompleted TriggerKind = "checklist_completed"
)

// TriggerKinds lists every trigger kind the engine accepts.
var TriggerKinds = []TriggerKind{
	TriggerCardMoved,
	TriggerDueSoon,
	TriggerOverdue,
	TriggerLabelAdded,
	TriggerChecklistCompleted,
}

// Valid reports whether t is one of the known trigger kinds.
func (t TriggerKind) Valid() bool {
	switch t {
	case TriggerCardMoved, TriggerDueSoon, TriggerOverdue, TriggerLabelAdded, TriggerChecklistCompleted:
		return true
	}
	return false
}

// ParseTriggerKind converts a raw string into a TriggerKind.
func ParseTriggerKind(s string) (TriggerKind, error) {
	t := TriggerKind(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown trigger kind %q", s)
	}
	return t, nil
}

// ConditionType is the registry key of a rule condition.
type ConditionType string

const (
	ConditionCardPriorityIs ConditionType = "card_priority_is"
	ConditionLabelIs        ConditionType = "label_is"
	ConditionAssigneeIs     ConditionType = "assignee_is"
	ConditionDueWithinHours ConditionType = "due_within_hours"
	ConditionListIs         ConditionType = "list_is"
)

// Valid reports whether c is a registered condition type.
func (c ConditionType) Valid() bool {
	switch c {
	case ConditionCardPriorityIs, ConditionLabelIs, ConditionAssigneeIs, ConditionDueWithinHours, ConditionListIs:
		return true
	}
	return false
}

// ActionKind is the registry key of a rule action.
type ActionKind string

const (
	ActionMoveCard     ActionKind = "move_card"
	ActionAddLabel     ActionKind = "add_label"
	ActionAssignMember ActionKind = "assign_member"
	ActionSetDueDate   ActionKind = "set_due_date"
	ActionPostComment  ActionKind = "post_comment"
	ActionNotify       ActionKind = "notify"
)

// Valid reports whether a is a registered action kind.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionMoveCard, ActionAddLabel, ActionAssignMember, ActionSetDueDate, ActionPostComment, ActionNotify:
		return true
	}
	return false
}

// RunStatus is the outcome of one attempted rule execution.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

type WorkspaceRole string

const (
	RoleAdmin  WorkspaceRole = "admin"
	RoleMember WorkspaceRole = "member"
)

// --- Base Structs ---

type BaseEntity struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type WorkspaceEntity struct {
	BaseEntity
	WorkspaceID uuid.UUID `db:"workspace_id" json:"workspace_id"`
}
