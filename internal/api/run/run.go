package run

import (
	"errors"
	"net/http"

	"board-automator-api/internal/api/common"
	"board-automator-api/internal/store"
	rulestore "board-automator-api/internal/store/rule"

	"go.uber.org/zap"
)

// MaxLimit caps ?limit= on run listings.
const MaxLimit = 200

// HandleGetRunsForRule geeft de audit trail van een rule, nieuwste eerst.
func HandleGetRunsForRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := common.URLParamUUID(r, "ruleId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig rule ID", log)
			return
		}
		limit, err := common.QueryLimit(r, MaxLimit)
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		rule, err := storer.GetRuleByID(r.Context(), ruleID)
		if err != nil {
			if errors.Is(err, rulestore.ErrRuleNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "Rule niet gevonden", log)
				return
			}
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon rule niet ophalen", log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, rule.WorkspaceID, false, log); !ok {
			return
		}

		runs, err := storer.GetRunsForRule(r.Context(), ruleID, limit)
		if err != nil {
			log.Error("failed to get runs for rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon runs niet ophalen", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, runs, log)
	}
}

// HandleGetRunsForWorkspace geeft de audit trail van een workspace.
func HandleGetRunsForWorkspace(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, err := common.URLParamUUID(r, "workspaceId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig workspace ID", log)
			return
		}
		limit, err := common.QueryLimit(r, MaxLimit)
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, workspaceID, false, log); !ok {
			return
		}

		runs, err := storer.GetRunsForWorkspace(r.Context(), workspaceID, limit)
		if err != nil {
			log.Error("failed to get runs for workspace", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon runs niet ophalen", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, runs, log)
	}
}
