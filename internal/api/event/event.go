package event

import (
	"context"
	"errors"
	"net/http"

	"board-automator-api/internal/api/common"
	"board-automator-api/internal/automation"
	"board-automator-api/internal/domain"
	"board-automator-api/internal/store"
	"board-automator-api/internal/store/card"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner is implemented by *automation.Engine.
type Runner interface {
	RunForEvent(ctx context.Context, event domain.AutomationEvent) (automation.EventResult, error)
}

// TriggerRequest is sent by board producers after a card changed.
type TriggerRequest struct {
	Trigger domain.TriggerKind `json:"trigger"`
	CardID  uuid.UUID          `json:"card_id"`
}

// TriggerResponse is the per-rule outcome. AuditError is set when runs could not be recorded.
type TriggerResponse struct {
	automation.EventResult
	AuditError string `json:"audit_error,omitempty"`
}

// HandleTriggerEvent laadt de kaart en laat de engine de regels uitvoeren.
func HandleTriggerEvent(storer store.Storer, runner Runner, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, err := common.URLParamUUID(r, "workspaceId")
		if err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldig workspace ID", log)
			return
		}

		userID, ok := common.AuthorizeWorkspace(w, r, storer, workspaceID, false, log)
		if !ok {
			return
		}

		var req TriggerRequest
		if err := common.DecodeJSON(w, r, &req); err != nil {
			common.WriteJSONError(w, http.StatusBadRequest, "Ongeldige request body: "+err.Error(), log)
			return
		}
		if !req.Trigger.Valid() {
			common.WriteJSONError(w, http.StatusBadRequest, "Onbekende trigger: "+string(req.Trigger), log)
			return
		}
		if req.CardID == uuid.Nil {
			common.WriteJSONError(w, http.StatusBadRequest, "card_id is verplicht", log)
			return
		}

		cc, err := storer.GetCardContext(r.Context(), req.CardID)
		if err != nil {
			if errors.Is(err, card.ErrCardNotFound) {
				common.WriteJSONError(w, http.StatusNotFound, "Kaart niet gevonden", log)
				return
			}
			log.Error("failed to load card", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Kon kaart niet ophalen", log)
			return
		}
		// Een kaart uit een andere workspace bestaat voor deze gebruiker niet
		if cc.WorkspaceID != workspaceID {
			common.WriteJSONError(w, http.StatusNotFound, "Kaart niet gevonden", log)
			return
		}

		res, err := runner.RunForEvent(r.Context(), domain.AutomationEvent{
			Trigger:     req.Trigger,
			WorkspaceID: workspaceID,
			BoardID:     cc.Card.BoardID,
			ActorID:     userID,
			Card:        cc.Card,
		})
		switch {
		case err == nil:
			common.WriteJSON(w, http.StatusOK, TriggerResponse{EventResult: res}, log)
		case errors.Is(err, automation.ErrAuditWrite):
			// Acties zijn wel uitgevoerd, dus geen 5xx
			common.WriteJSON(w, http.StatusOK, TriggerResponse{EventResult: res, AuditError: err.Error()}, log)
		case errors.Is(err, automation.ErrInvalidEvent):
			common.WriteJSONError(w, http.StatusBadRequest, err.Error(), log)
		default:
			log.Error("automation failed", zap.Error(err), zap.String("component", "api"))
			common.WriteJSONError(w, http.StatusInternalServerError, "Automation kon niet worden uitgevoerd", log)
		}
	}
}
