package common

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetUserIDFromContext(t *testing.T) {
	t.Run("Valid user ID in context", func(t *testing.T) {
		userID := uuid.New()
		ctx := context.WithValue(context.Background(), UserContextKey, userID)

		result, err := GetUserIDFromContext(ctx)

		assert.NoError(t, err)
		assert.Equal(t, userID, result)
	})

	t.Run("No user ID in context", func(t *testing.T) {
		result, err := GetUserIDFromContext(context.Background())

		assert.Error(t, err)
		assert.Equal(t, uuid.Nil, result)
		assert.Contains(t, err.Error(), "missing or invalid user ID in context")
	})

	t.Run("Invalid type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserContextKey, "not-a-uuid")

		result, err := GetUserIDFromContext(ctx)

		assert.Error(t, err)
		assert.Equal(t, uuid.Nil, result)
	})
}

func TestWriteJSON(t *testing.T) {
	logger := zap.NewNop()

	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"count": 42}, logger)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":42}`, w.Body.String())
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, http.StatusBadRequest, "Invalid input", zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid input"}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"trailing object", `{"name":"x"}{"name":"y"}`, true},
		{"malformed", `{"name":`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", p.Name)
		})
	}
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("ruleId", id.String())
	rctx.URLParams.Add("bad", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := URLParamUUID(req, "ruleId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = URLParamUUID(req, "bad")
	assert.Error(t, err)
}

func TestQueryLimit(t *testing.T) {
	testCases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"?limit=10", 10, false},
		{"?limit=1000", 200, false},
		{"?limit=0", 0, true},
		{"?limit=abc", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/runs"+tc.query, nil)
			got, err := QueryLimit(req, 200)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

type stubChecker struct {
	role domain.WorkspaceRole
	err  error
}

func (s stubChecker) GetMemberRole(context.Context, uuid.UUID, uuid.UUID) (domain.WorkspaceRole, error) {
	return s.role, s.err
}

func TestAuthorizeWorkspace(t *testing.T) {
	userID := uuid.New()
	wsID := uuid.New()

	testCases := []struct {
		name       string
		checker    stubChecker
		adminOnly  bool
		withUser   bool
		wantOK     bool
		wantStatus int
	}{
		{"member read", stubChecker{role: domain.RoleMember}, false, true, true, http.StatusOK},
		{"admin write", stubChecker{role: domain.RoleAdmin}, true, true, true, http.StatusOK},
		{"member write", stubChecker{role: domain.RoleMember}, true, true, false, http.StatusForbidden},
		{"not a member", stubChecker{err: workspace.ErrNotMember}, false, true, false, http.StatusForbidden},
		{"db error", stubChecker{err: errors.New("boom")}, false, true, false, http.StatusInternalServerError},
		{"unauthenticated", stubChecker{role: domain.RoleAdmin}, false, false, false, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.withUser {
				req = req.WithContext(context.WithValue(req.Context(), UserContextKey, userID))
			}
			w := httptest.NewRecorder()

			got, ok := AuthorizeWorkspace(w, req, tc.checker, wsID, tc.adminOnly, zap.NewNop())

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantOK {
				assert.Equal(t, userID, got)
			}
		})
	}
}
