package automation

import (
	"context"
	"sync"
	"time"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/card"
	"board-automator-api/internal/store/run"

	"github.com/google/uuid"
)

type call struct {
	op   string
	card uuid.UUID
	arg  uuid.UUID
}

// fakeStore is an in-memory Store with upsert semantics for labels and assignees.
type fakeStore struct {
	mu sync.Mutex

	rules   []domain.AutomationRule
	conds   []domain.RuleCondition
	actions []domain.RuleAction

	labels        map[uuid.UUID]map[uuid.UUID]bool
	assignees     map[uuid.UUID]map[uuid.UUID]uuid.UUID
	cardLists     map[uuid.UUID]uuid.UUID
	dueDates      map[uuid.UUID]time.Time
	comments      []card.CreateCommentParams
	notifications []card.CreateNotificationParams
	runs          []run.CreateRunParams
	calls         []call

	ruleQueries   int
	detailQueries int

	loadErr   error
	runErr    error
	failOn    map[string]error
	failRunOn map[uuid.UUID]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		labels:    map[uuid.UUID]map[uuid.UUID]bool{},
		assignees: map[uuid.UUID]map[uuid.UUID]uuid.UUID{},
		cardLists: map[uuid.UUID]uuid.UUID{},
		dueDates:  map[uuid.UUID]time.Time{},
		failOn:    map[string]error{},
		failRunOn: map[uuid.UUID]error{},
	}
}

// addRule registers a rule with its conditions and actions, in the given order.
func (f *fakeStore) addRule(r domain.AutomationRule, conds []domain.RuleCondition, actions []domain.RuleAction) domain.AutomationRule {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.IsActive = true
	f.rules = append(f.rules, r)
	for _, c := range conds {
		c.RuleID = r.ID
		f.conds = append(f.conds, c)
	}
	for _, a := range actions {
		a.RuleID = r.ID
		f.actions = append(f.actions, a)
	}
	return r
}

func (f *fakeStore) GetActiveRules(_ context.Context, workspaceID uuid.UUID, trigger domain.TriggerKind) ([]domain.AutomationRule, error) {
	f.ruleQueries++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []domain.AutomationRule
	for _, r := range f.rules {
		if r.WorkspaceID == workspaceID && r.TriggerKind == trigger && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (f *fakeStore) GetConditionsForRules(_ context.Context, ids []uuid.UUID) ([]domain.RuleCondition, error) {
	f.detailQueries++
	var out []domain.RuleCondition
	for _, c := range f.conds {
		if contains(ids, c.RuleID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetActionsForRules(_ context.Context, ids []uuid.UUID) ([]domain.RuleAction, error) {
	f.detailQueries++
	var out []domain.RuleAction
	for _, a := range f.actions {
		if contains(ids, a.RuleID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) record(op string, cardID, arg uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[op+":"+arg.String()]; ok {
		return err
	}
	if err, ok := f.failOn[op]; ok {
		return err
	}
	f.calls = append(f.calls, call{op: op, card: cardID, arg: arg})
	return nil
}

func (f *fakeStore) MoveCard(_ context.Context, cardID, listID uuid.UUID, _ float64) error {
	if err := f.record("move_card", cardID, listID); err != nil {
		return err
	}
	f.cardLists[cardID] = listID
	return nil
}

func (f *fakeStore) AddCardLabel(_ context.Context, cardID, labelID uuid.UUID) error {
	if err := f.record("add_label", cardID, labelID); err != nil {
		return err
	}
	if f.labels[cardID] == nil {
		f.labels[cardID] = map[uuid.UUID]bool{}
	}
	f.labels[cardID][labelID] = true
	return nil
}

func (f *fakeStore) AssignCardMember(_ context.Context, cardID, userID, assignedBy uuid.UUID) error {
	if err := f.record("assign_member", cardID, userID); err != nil {
		return err
	}
	if f.assignees[cardID] == nil {
		f.assignees[cardID] = map[uuid.UUID]uuid.UUID{}
	}
	if _, ok := f.assignees[cardID][userID]; !ok {
		f.assignees[cardID][userID] = assignedBy
	}
	return nil
}

func (f *fakeStore) SetCardDueDate(_ context.Context, cardID uuid.UUID, dueAt time.Time) error {
	if err := f.record("set_due_date", cardID, uuid.Nil); err != nil {
		return err
	}
	f.dueDates[cardID] = dueAt
	return nil
}

func (f *fakeStore) CreateComment(_ context.Context, arg card.CreateCommentParams) error {
	if err := f.record("post_comment", arg.CardID, arg.AuthorID); err != nil {
		return err
	}
	f.comments = append(f.comments, arg)
	return nil
}

func (f *fakeStore) CreateNotification(_ context.Context, arg card.CreateNotificationParams) error {
	if err := f.record("notify", arg.CardID, arg.UserID); err != nil {
		return err
	}
	f.notifications = append(f.notifications, arg)
	return nil
}

func (f *fakeStore) CreateRun(_ context.Context, arg run.CreateRunParams) error {
	if err, ok := f.failRunOn[arg.RuleID]; ok {
		return err
	}
	if f.runErr != nil {
		return f.runErr
	}
	f.runs = append(f.runs, arg)
	return nil
}

func (f *fakeStore) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}
