package rule

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"board-automator-api/internal/api/common"
	"board-automator-api/internal/domain"
	"board-automator-api/internal/store"
	rulestore "board-automator-api/internal/store/rule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConditionRequest is one condition in a rule request. Order in the array is the position.
type ConditionRequest struct {
	Type    domain.ConditionType `json:"type"`
	Payload domain.Payload       `json:"payload"`
}

// ActionRequest is one action in a rule request. Order in the array is the position.
type ActionRequest struct {
	Kind    domain.ActionKind `json:"kind"`
	Payload domain.Payload    `json:"payload"`
}

// RuleRequest is the body of create and update.
type RuleRequest struct {
	Name        string             `json:"name"`
	BoardID     *uuid.UUID         `json:"board_id"`
	TriggerKind domain.TriggerKind `json:"trigger_kind"`
	Conditions  []ConditionRequest `json:"conditions"`
	Actions     []ActionRequest    `json:"actions"`
}

// Payload keys with a fixed shape. A key may be omitted, but if present it must parse.
var (
	idPayloadKeys     = []string{"labelId", "userId", "listId"}
	numberPayloadKeys = []string{"hours", "offsetHours", "position"}
)

func validatePayload(p domain.Payload) error {
	for _, key := range idPayloadKeys {
		if v, ok := p[key]; ok && v != nil {
			if _, valid := p.UUID(key); !valid {
				return fmt.Errorf("payload.%s: invalid id %v", key, v)
			}
		}
	}
	for _, key := range numberPayloadKeys {
		if v, ok := p[key]; ok && v != nil {
			if _, valid := p.Number(key); !valid {
				return fmt.Errorf("payload.%s: not a number %v", key, v)
			}
		}
	}
	return nil
}

// validate checks the closed enums and the shape of known payload keys.
func (req RuleRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if !req.TriggerKind.Valid() {
		return fmt.Errorf("unknown trigger_kind %q", req.TriggerKind)
	}
	for i, c := range req.Conditions {
		if !c.Type.Valid() {
			return fmt.Errorf("conditions[%d]: unknown type %q", i, c.Type)
		}
		if err := validatePayload(c.Payload); err != nil {
			return fmt.Errorf("conditions[%d]: %w", i, err)
		}
	}
	for i, a := range req.Actions {
		if !a.Kind.Valid() {
			return fmt.Errorf("actions[%d]: unknown kind %q", i, a.Kind)
		}
		if err := validatePayload(a.Payload); err != nil {
			return fmt.Errorf("actions[%d]: %w", i, err)
		}
	}
	return nil
}

func (req RuleRequest) params() ([]rulestore.ConditionParams, []rulestore.ActionParams) {
	conds := make([]rulestore.ConditionParams, len(req.Conditions))
	for i, c := range req.Conditions {
		conds[i] = rulestore.ConditionParams{Type: c.Type, Payload: c.Payload, Position: i}
	}
	actions := make([]rulestore.ActionParams, len(req.Actions))
	for i, a := range req.Actions {
		actions[i] = rulestore.ActionParams{Kind: a.Kind, Payload: a.Payload, Position: i}
	}
	return conds, actions
}

// decodeRuleRequest decodes and validates; writes a 400 and returns false on failure.
func decodeRuleRequest(w http.ResponseWriter, r *http.Request, storer store.Storer, workspaceID uuid.UUID, log *zap.Logger) (RuleRequest, bool) {
	var req RuleRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, "Ongeldige request body: "+err.Error(), log)
		return req, false
	}
	if err := req.validate(); err != nil {
		common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
		return req, false
	}
	if req.BoardID != nil {
		ok, err := storer.BoardInWorkspace(r.Context(), *req.BoardID, workspaceID)
		if err != nil {
			log.Error("failed to check board", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon board niet controleren", log)
			return req, false
		}
		if !ok {
			common.WriteJSONError(w, http.StatusBadRequest, "Board hoort niet bij deze workspace", log)
			return req, false
		}
	}
	return req, true
}

// HandleCreateRule creert een nieuwe automation rule.
func HandleCreateRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, err := common.URLParamUUID(r, "workspaceId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig workspace ID", log)
			return
		}

		userID, ok := common.AuthorizeWorkspace(w, r, storer, workspaceID, true, log)
		if !ok {
			return
		}

		req, ok := decodeRuleRequest(w, r, storer, workspaceID, log)
		if !ok {
			return
		}

		conds, actions := req.params()
		def, err := storer.CreateRule(r.Context(), rulestore.CreateRuleParams{
			WorkspaceID: workspaceID,
			BoardID:     req.BoardID,
			Name:        strings.TrimSpace(req.Name),
			TriggerKind: req.TriggerKind,
			CreatedBy:   userID,
			Conditions:  conds,
			Actions:     actions,
		})
		if err != nil {
			log.Error("failed to create rule", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon rule niet creren", log)
			return
		}

		log.Info("automation rule created",
			zap.String("rule_id", def.ID.String()),
			zap.String("workspace_id", workspaceID.String()),
			zap.String("component", "api"))
		common.WriteJSON(w, http.StatusCreated, def, log)
	}
}

// HandleGetRules haalt alle rules op voor een workspace.
func HandleGetRules(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, err := common.URLParamUUID(r, "workspaceId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig workspace ID", log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, workspaceID, false, log); !ok {
			return
		}

		rules, err := storer.GetRulesForWorkspace(r.Context(), workspaceID)
		if err != nil {
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon rules niet ophalen", log)
			return
		}

		common.WriteJSON(w, http.StatusOK, rules, log)
	}
}

// HandleGetRule geeft een rule met condities en acties.
func HandleGetRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := common.URLParamUUID(r, "ruleId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig rule ID", log)
			return
		}

		def, err := storer.GetRuleDefinition(r.Context(), ruleID)
		if err != nil {
			writeRuleLookupError(w, err, log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, def.WorkspaceID, false, log); !ok {
			return
		}

		common.WriteJSON(w, http.StatusOK, def, log)
	}
}

// HandleUpdateRule herdefinieert een bestaande rule.
func HandleUpdateRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := common.URLParamUUID(r, "ruleId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig rule ID", log)
			return
		}

		existing, err := storer.GetRuleByID(r.Context(), ruleID)
		if err != nil {
			writeRuleLookupError(w, err, log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, existing.WorkspaceID, true, log); !ok {
			return
		}

		req, ok := decodeRuleRequest(w, r, storer, existing.WorkspaceID, log)
		if !ok {
			return
		}

		conds, actions := req.params()
		def, err := storer.UpdateRule(r.Context(), rulestore.UpdateRuleParams{
			RuleID:      ruleID,
			BoardID:     req.BoardID,
			Name:        strings.TrimSpace(req.Name),
			TriggerKind: req.TriggerKind,
			Conditions:  conds,
			Actions:     actions,
		})
		if err != nil {
			writeRuleLookupError(w, err, log)
			return
		}

		common.WriteJSON(w, http.StatusOK, def, log)
	}
}

// HandleToggleRule togglet de active status van een rule.
func HandleToggleRule(storer store.Storer, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ruleID, err := common.URLParamUUID(r, "ruleId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig rule ID", log)
			return
		}

		existing, err := storer.GetRuleByID(r.Context(), ruleID)
		if err != nil {
			writeRuleLookupError(w, err, log)
			return
		}

		if _, ok := common.AuthorizeWorkspace(w, r, storer, existing.WorkspaceID, true, log); !ok {
			return
		}

		updated, err := storer.ToggleRuleStatus(r.Context(), ruleID)
		if err != nil {
			writeRuleLookupError(w, err, log)
			return
		}

		common.WriteJSON(w, http.StatusOK, updated, log)
	}
}

func writeRuleLookupError(w http.ResponseWriter, err error, log *zap.Logger) {
	if errors.Is(err, rulestore.ErrRuleNotFound) {
		common.WriteJSONError(w, http.StatusNotFound, "Rule niet gevonden", log)
		return
	}
	log.Error("rule store error", zap.Error(err), zap.String("component", "api"))
	common.WriteJSONError(w, http.StatusInternalServerError, "Interne fout", log)
}
