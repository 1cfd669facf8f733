package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// contextKey for user ID
type contextKey string

var UserContextKey contextKey = "user_id"

// MaxBodyBytes begrenst request bodies.
const MaxBodyBytes = 1 << 20

// GetUserIDFromContext haalt de user ID op die door de middleware in de context is gezet
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing or invalid user ID in context")
	}
	return userID, nil
}

// WriteJSON schrijft een standaard JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(
			"failed to write JSON response",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("component", "api"),
		)
	}
}

// WriteJSONError schrijft een standaard JSON error response
func WriteJSONError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	WriteJSON(w, status, map[string]string{"error": message}, logger)
}

// DecodeJSON decodes a single JSON object and rejects unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// URLParamUUID parses a chi path parameter as UUID.
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// QueryLimit reads ?limit=, returns 0 when absent. Values above max are capped.
func QueryLimit(r *http.Request, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

// MembershipChecker is the part of the store needed for authorization.
type MembershipChecker interface {
	GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.WorkspaceRole, error)
}

// AuthorizeWorkspace checks that the authenticated user is a member of the
// workspace, and an admin when adminOnly is set. On failure it writes the
// response and returns false.
func AuthorizeWorkspace(
	w http.ResponseWriter,
	r *http.Request,
	checker MembershipChecker,
	workspaceID uuid.UUID,
	adminOnly bool,
	logger *zap.Logger,
) (uuid.UUID, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		WriteJSONError(w, http.StatusUnauthorized, err.Error(), logger)
		return uuid.Nil, false
	}

	role, err := checker.GetMemberRole(r.Context(), workspaceID, userID)
	if err != nil {
		if errors.Is(err, workspace.ErrNotMember) {
			logger.Warn("forbidden workspace access attempt",
				zap.String("user_id", userID.String()),
				zap.String("workspace_id", workspaceID.String()),
				zap.String("component", "api"))
			WriteJSONError(w, http.StatusForbidden, "Geen toegang tot deze workspace", logger)
			return uuid.Nil, false
		}
		logger.Error("failed to look up workspace role", zap.Error(err), zap.String("component", "api"))
		WriteJSONError(w, http.StatusInternalServerError, "Kon rechten niet controleren", logger)
		return uuid.Nil, false
	}

	if adminOnly && role != domain.RoleAdmin {
		WriteJSONError(w, http.StatusForbidden, "Alleen workspace admins mogen automations beheren", logger)
		return uuid.Nil, false
	}
	return userID, true
}
