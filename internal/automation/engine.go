package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"board-automator-api/internal/domain"
	"board-automator-api/internal/store/run"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "board-automator-api/internal/automation"
	// auditTimeout bounds the run write, also when the event context is already done.
	auditTimeout = 5 * time.Second
)

// Store is everything the engine needs from persistence.
type Store interface {
	RuleReader
	ActionStore
	CreateRun(ctx context.Context, arg run.CreateRunParams) error
}

// RuleResult describes what happened to one candidate rule.
type RuleResult struct {
	RuleID         uuid.UUID        `json:"rule_id"`
	Name           string           `json:"name"`
	Matched        bool             `json:"matched"`
	Status         domain.RunStatus `json:"status,omitempty"`
	Error          string           `json:"error,omitempty"`
	ActionsApplied int              `json:"actions_applied"`
	ActionsSkipped int              `json:"actions_skipped"`
}

// EventResult is returned by RunForEvent, one entry per candidate rule in load order.
type EventResult struct {
	Trigger domain.TriggerKind `json:"trigger"`
	CardID  uuid.UUID          `json:"card_id"`
	Rules   []RuleResult       `json:"rules"`
}

// Attempted counts the rules whose conditions matched.
func (r EventResult) Attempted() int {
	n := 0
	for _, rr := range r.Rules {
		if rr.Matched {
			n++
		}
	}
	return n
}

// Engine runs automation rules for events. An event is processed sequentially:
// rules one after the other, actions in position order.
type Engine struct {
	store        Store
	loader       *Loader
	executor     *Executor
	log          *zap.Logger
	now          func() time.Time
	tracer       trace.Tracer
	eventTimeout time.Duration
}

type Option func(*Engine)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithEventTimeout bounds the processing of one event. Zero means no limit.
func WithEventTimeout(d time.Duration) Option {
	return func(e *Engine) { e.eventTimeout = d }
}

func NewEngine(s Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		log:    log.With(zap.String("component", "automation")),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loader = NewLoader(s)
	e.executor = NewExecutor(s, e.now)
	return e
}

// RunAutomationForEvent runs event against s with default settings.
func RunAutomationForEvent(ctx context.Context, s Store, event domain.AutomationEvent) (EventResult, error) {
	return NewEngine(s, zap.L()).RunForEvent(ctx, event)
}

func validateEvent(event *domain.AutomationEvent) error {
	if !event.Trigger.Valid() {
		return fmt.Errorf("%w: unknown trigger %q", ErrInvalidEvent, event.Trigger)
	}
	if event.WorkspaceID == uuid.Nil {
		return fmt.Errorf("%w: missing workspace id", ErrInvalidEvent)
	}
	if event.Card.ID == uuid.Nil {
		return fmt.Errorf("%w: missing card id", ErrInvalidEvent)
	}
	if event.BoardID == uuid.Nil {
		event.BoardID = event.Card.BoardID
	}
	if event.BoardID == uuid.Nil {
		return fmt.Errorf("%w: missing board id", ErrInvalidEvent)
	}
	return nil
}

// RunForEvent loads the candidate rules for event and attempts each of them.
//
// A load failure aborts the event before anything runs. A failing action only
// stops its own rule and is recorded as a failed run. Failures to record runs
// do not stop other rules; they are returned joined under ErrAuditWrite along
// with the full result.
func (e *Engine) RunForEvent(ctx context.Context, event domain.AutomationEvent) (EventResult, error) {
	if err := validateEvent(&event); err != nil {
		return EventResult{}, err
	}

	if e.eventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.eventTimeout)
		defer cancel()
	}

	ctx, span := e.tracer.Start(ctx, "automation.RunForEvent", trace.WithAttributes(
		attribute.String("automation.trigger", string(event.Trigger)),
		attribute.String("automation.workspace_id", event.WorkspaceID.String()),
		attribute.String("automation.board_id", event.BoardID.String()),
		attribute.String("automation.card_id", event.Card.ID.String()),
	))
	defer span.End()

	log := e.log.With(
		zap.String("trigger", string(event.Trigger)),
		zap.String("workspace_id", event.WorkspaceID.String()),
		zap.String("card_id", event.Card.ID.String()),
	)

	result := EventResult{Trigger: event.Trigger, CardID: event.Card.ID, Rules: []RuleResult{}}

	defs, err := e.loader.LoadCandidateRules(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load rules")
		log.Error("failed to load automation rules", zap.Error(err))
		return EventResult{}, fmt.Errorf("%w: %w", ErrLoadRules, err)
	}
	span.SetAttributes(attribute.Int("automation.candidates", len(defs)))
	if len(defs) == 0 {
		log.Debug("no candidate rules for event")
		return result, nil
	}

	var auditErrs []error
	for _, def := range defs {
		rr, err := e.runRule(ctx, event, def, log)
		result.Rules = append(result.Rules, rr)
		if err != nil {
			auditErrs = append(auditErrs, err)
		}
	}

	if len(auditErrs) > 0 {
		err := fmt.Errorf("%w: %w", ErrAuditWrite, errors.Join(auditErrs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit write")
		return result, err
	}
	return result, nil
}

// runRule evaluates and, on match, executes one rule and records its run.
// The returned error is only ever an audit write failure.
func (e *Engine) runRule(
	ctx context.Context,
	event domain.AutomationEvent,
	def domain.RuleDefinition,
	log *zap.Logger,
) (RuleResult, error) {
	ctx, span := e.tracer.Start(ctx, "automation.rule", trace.WithAttributes(
		attribute.String("automation.rule_id", def.ID.String()),
		attribute.String("automation.rule_name", def.Name),
	))
	defer span.End()

	log = log.With(zap.String("rule_id", def.ID.String()), zap.String("rule_name", def.Name))
	res := RuleResult{RuleID: def.ID, Name: def.Name}

	startedAt := e.now()
	if !RuleMatches(event, def.Conditions, startedAt) {
		span.SetAttributes(attribute.Bool("automation.matched", false))
		log.Debug("rule conditions did not match")
		return res, nil
	}
	res.Matched = true
	span.SetAttributes(attribute.Bool("automation.matched", true))

	var actionErr error
	for _, action := range def.Actions {
		outcome, err := e.executor.Execute(ctx, event, def.AutomationRule, action)
		if err != nil {
			actionErr = fmt.Errorf("action %d (%s): %w", action.Position, action.ActionKind, err)
			break
		}
		if outcome == OutcomeSkipped {
			res.ActionsSkipped++
			log.Debug("action skipped", zap.String("action_kind", string(action.ActionKind)))
			continue
		}
		res.ActionsApplied++
	}
	finishedAt := e.now()

	details := domain.RunDetails{CardID: event.Card.ID}
	res.Status = domain.RunSuccess
	if actionErr != nil {
		res.Status = domain.RunFailed
		res.Error = actionErr.Error()
		details.Message = actionErr.Error()
		span.RecordError(actionErr)
		span.SetStatus(codes.Error, "action failed")
		log.Warn("automation rule failed", zap.Error(actionErr))
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return res, fmt.Errorf("rule %s: marshal run details: %w", def.ID, err)
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	err = e.store.CreateRun(auditCtx, run.CreateRunParams{
		RuleID:        def.ID,
		WorkspaceID:   event.WorkspaceID,
		CardID:        event.Card.ID,
		TriggerSource: event.Trigger,
		Status:        res.Status,
		Details:       raw,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	})
	if err != nil {
		span.RecordError(err)
		log.Error("failed to record automation run", zap.String("status", string(res.Status)), zap.Error(err))
		return res, fmt.Errorf("rule %s: %w", def.ID, err)
	}

	log.Info("automation rule executed",
		zap.String("status", string(res.Status)),
		zap.Int("actions_applied", res.ActionsApplied),
		zap.Int("actions_skipped", res.ActionsSkipped),
		zap.Duration("duration", finishedAt.Sub(startedAt)))
	return res, nil
}
