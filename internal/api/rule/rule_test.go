package rule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"board-automator-api/internal/api/common"
	"board-automator-api/internal/domain"
	"board-automator-api/internal/store"
	rulestore "board-automator-api/internal/store/rule"
	"board-automator-api/internal/store/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newRequest bouwt een request met user in de context en chi URL params
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), common.UserContextKey, userID)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func testRule(workspaceID uuid.UUID) domain.AutomationRule {
	r := domain.AutomationRule{Name: "Triage", TriggerKind: domain.TriggerCardMoved, IsActive: true}
	r.ID = uuid.New()
	r.WorkspaceID = workspaceID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	return r
}

const validBody = `{
	"name": "  Urgent triage ",
	"trigger_kind": "card_moved",
	"conditions": [{"type": "card_priority_is", "payload": {"priority": "urgent"}}],
	"actions": [
		{"kind": "add_label", "payload": {"labelId": "6f1c9c8e-4a7e-4c55-9b0e-1f3f3c2e7d10"}},
		{"kind": "post_comment", "payload": {"content": "Triaged"}}
	]
}`

func TestHandleCreateRule(t *testing.T) {
	mockStore := &store.MockStore{}
	userID, workspaceID := uuid.New(), uuid.New()

	expected := domain.RuleDefinition{AutomationRule: testRule(workspaceID)}

	mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleAdmin, nil).Once()
	mockStore.On("CreateRule", mock.Anything, mock.MatchedBy(func(p rulestore.CreateRuleParams) bool {
		return p.WorkspaceID == workspaceID &&
			p.CreatedBy == userID &&
			p.Name == "Urgent triage" &&
			p.BoardID == nil &&
			p.TriggerKind == domain.TriggerCardMoved &&
			len(p.Conditions) == 1 && p.Conditions[0].Position == 0 &&
			len(p.Actions) == 2 && p.Actions[1].Kind == domain.ActionPostComment && p.Actions[1].Position == 1
	})).Return(expected, nil).Once()

	req := newRequest(http.MethodPost, "/api/v1/workspaces/"+workspaceID.String()+"/rules", validBody, userID,
		map[string]string{"workspaceId": workspaceID.String()})
	rr := httptest.NewRecorder()

	HandleCreateRule(mockStore, zap.NewNop()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), expected.ID.String())
	mockStore.AssertExpectations(t)
}

func TestHandleCreateRule_BoardScope(t *testing.T) {
	userID, workspaceID, boardID := uuid.New(), uuid.New(), uuid.New()
	body := `{"name":"r","board_id":"` + boardID.String() + `","trigger_kind":"overdue","conditions":[],"actions":[]}`
	params := map[string]string{"workspaceId": workspaceID.String()}

	t.Run("board in workspace", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleAdmin, nil)
		mockStore.On("BoardInWorkspace", mock.Anything, boardID, workspaceID).Return(true, nil)
		mockStore.On("CreateRule", mock.Anything, mock.MatchedBy(func(p rulestore.CreateRuleParams) bool {
			return p.BoardID != nil && *p.BoardID == boardID && p.TriggerKind == domain.TriggerOverdue
		})).Return(domain.RuleDefinition{AutomationRule: testRule(workspaceID)}, nil)

		rr := httptest.NewRecorder()
		HandleCreateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPost, "/", body, userID, params))

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("board from other workspace", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleAdmin, nil)
		mockStore.On("BoardInWorkspace", mock.Anything, boardID, workspaceID).Return(false, nil)

		rr := httptest.NewRecorder()
		HandleCreateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPost, "/", body, userID, params))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockStore.AssertNotCalled(t, "CreateRule", mock.Anything, mock.Anything)
	})
}

func TestHandleCreateRule_Rejections(t *testing.T) {
	userID, workspaceID := uuid.New(), uuid.New()
	params := map[string]string{"workspaceId": workspaceID.String()}

	testCases := []struct {
		name       string
		body       string
		role       domain.WorkspaceRole
		roleErr    error
		wantStatus int
	}{
		{"member is not admin", validBody, domain.RoleMember, nil, http.StatusForbidden},
		{"not a member", validBody, "", workspace.ErrNotMember, http.StatusForbidden},
		{"unknown trigger", `{"name":"r","trigger_kind":"card_archived"}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"unknown condition", `{"name":"r","trigger_kind":"card_moved","conditions":[{"type":"title_is","payload":{}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"unknown action", `{"name":"r","trigger_kind":"card_moved","actions":[{"kind":"archive_card","payload":{}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"unknown field", `{"name":"r","trigger_kind":"card_moved","priority":1}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"missing name", `{"name":" ","trigger_kind":"card_moved"}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"malformed json", `{"name":`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"malformed label id", `{"name":"r","trigger_kind":"label_added","conditions":[{"type":"label_is","payload":{"labelId":"L1"}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"malformed list id", `{"name":"r","trigger_kind":"card_moved","actions":[{"kind":"move_card","payload":{"listId":"done"}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"user id wrong type", `{"name":"r","trigger_kind":"card_moved","actions":[{"kind":"notify","payload":{"userId":42}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
		{"hours not a number", `{"name":"r","trigger_kind":"due_soon","conditions":[{"type":"due_within_hours","payload":{"hours":"soon"}}]}`, domain.RoleAdmin, nil, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockStore := &store.MockStore{}
			mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(tc.role, tc.roleErr)

			rr := httptest.NewRecorder()
			HandleCreateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPost, "/", tc.body, userID, params))

			assert.Equal(t, tc.wantStatus, rr.Code)
			mockStore.AssertNotCalled(t, "CreateRule", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleCreateRule_InvalidWorkspaceID(t *testing.T) {
	mockStore := &store.MockStore{}

	rr := httptest.NewRecorder()
	HandleCreateRule(mockStore, zap.NewNop()).ServeHTTP(rr,
		newRequest(http.MethodPost, "/", validBody, uuid.New(), map[string]string{"workspaceId": "invalid-id"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockStore.AssertExpectations(t)
}

func TestHandleGetRules(t *testing.T) {
	mockStore := &store.MockStore{}
	userID, workspaceID := uuid.New(), uuid.New()
	rules := []domain.AutomationRule{testRule(workspaceID), testRule(workspaceID)}

	mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleMember, nil)
	mockStore.On("GetRulesForWorkspace", mock.Anything, workspaceID).Return(rules, nil)

	rr := httptest.NewRecorder()
	HandleGetRules(mockStore, zap.NewNop()).ServeHTTP(rr,
		newRequest(http.MethodGet, "/", "", userID, map[string]string{"workspaceId": workspaceID.String()}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), rules[1].ID.String())
	mockStore.AssertExpectations(t)
}

func TestHandleGetRule(t *testing.T) {
	userID, workspaceID := uuid.New(), uuid.New()
	def := domain.RuleDefinition{
		AutomationRule: testRule(workspaceID),
		Actions:        []domain.RuleAction{{ID: uuid.New(), ActionKind: domain.ActionNotify, Payload: domain.Payload{}}},
	}

	t.Run("member sees definition", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleDefinition", mock.Anything, def.ID).Return(def, nil)
		mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleMember, nil)

		rr := httptest.NewRecorder()
		HandleGetRule(mockStore, zap.NewNop()).ServeHTTP(rr,
			newRequest(http.MethodGet, "/", "", userID, map[string]string{"ruleId": def.ID.String()}))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"action_kind":"notify"`)
	})

	t.Run("not found", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleDefinition", mock.Anything, def.ID).Return(domain.RuleDefinition{}, rulestore.ErrRuleNotFound)

		rr := httptest.NewRecorder()
		HandleGetRule(mockStore, zap.NewNop()).ServeHTTP(rr,
			newRequest(http.MethodGet, "/", "", userID, map[string]string{"ruleId": def.ID.String()}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("store error", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleDefinition", mock.Anything, def.ID).Return(domain.RuleDefinition{}, errors.New("db down"))

		rr := httptest.NewRecorder()
		HandleGetRule(mockStore, zap.NewNop()).ServeHTTP(rr,
			newRequest(http.MethodGet, "/", "", userID, map[string]string{"ruleId": def.ID.String()}))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleUpdateRule(t *testing.T) {
	userID, workspaceID := uuid.New(), uuid.New()
	existing := testRule(workspaceID)
	params := map[string]string{"ruleId": existing.ID.String()}

	t.Run("admin redefines rule", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleByID", mock.Anything, existing.ID).Return(existing, nil)
		mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleAdmin, nil)
		mockStore.On("UpdateRule", mock.Anything, mock.MatchedBy(func(p rulestore.UpdateRuleParams) bool {
			return p.RuleID == existing.ID && len(p.Actions) == 2 && p.Name == "Urgent triage"
		})).Return(domain.RuleDefinition{AutomationRule: existing}, nil)

		rr := httptest.NewRecorder()
		HandleUpdateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPut, "/", validBody, userID, params))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockStore.AssertExpectations(t)
	})

	t.Run("member forbidden", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleByID", mock.Anything, existing.ID).Return(existing, nil)
		mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleMember, nil)

		rr := httptest.NewRecorder()
		HandleUpdateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPut, "/", validBody, userID, params))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockStore.AssertNotCalled(t, "UpdateRule", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mockStore := &store.MockStore{}
		mockStore.On("GetRuleByID", mock.Anything, existing.ID).Return(domain.AutomationRule{}, rulestore.ErrRuleNotFound)

		rr := httptest.NewRecorder()
		HandleUpdateRule(mockStore, zap.NewNop()).ServeHTTP(rr, newRequest(http.MethodPut, "/", validBody, userID, params))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleToggleRule(t *testing.T) {
	mockStore := &store.MockStore{}
	userID, workspaceID := uuid.New(), uuid.New()
	existing := testRule(workspaceID)
	toggled := existing
	toggled.IsActive = false

	mockStore.On("GetRuleByID", mock.Anything, existing.ID).Return(existing, nil)
	mockStore.On("GetMemberRole", mock.Anything, workspaceID, userID).Return(domain.RoleAdmin, nil)
	mockStore.On("ToggleRuleStatus", mock.Anything, existing.ID).Return(toggled, nil)

	rr := httptest.NewRecorder()
	HandleToggleRule(mockStore, zap.NewNop()).ServeHTTP(rr,
		newRequest(http.MethodPut, "/", "", userID, map[string]string{"ruleId": existing.ID.String()}))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"is_active":false`)
	mockStore.AssertExpectations(t)
}

func TestValidatePayload(t *testing.T) {
	assert.NoError(t, validatePayload(nil))
	assert.NoError(t, validatePayload(domain.Payload{}), "omitted keys are allowed")
	assert.NoError(t, validatePayload(domain.Payload{"listId": nil}))
	assert.NoError(t, validatePayload(domain.Payload{"userId": uuid.NewString(), "hours": 24.0, "content": "x"}))
	assert.NoError(t, validatePayload(domain.Payload{"offsetHours": "1.5"}))

	err := validatePayload(domain.Payload{"labelId": "L1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload.labelId")
	assert.Error(t, validatePayload(domain.Payload{"position": true}))
}
