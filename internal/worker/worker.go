package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"board-automator-api/internal/automation"
	"board-automator-api/internal/domain"
	"board-automator-api/internal/logger"
	"board-automator-api/internal/store/card"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CardClaimer hands out cards whose due-date trigger has not fired yet. A
// claimed card is marked in the same statement, so it is returned only once.
type CardClaimer interface {
	ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]card.CardContext, error)
	ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]card.CardContext, error)
}

// EventRunner is implemented by *automation.Engine.
type EventRunner interface {
	RunForEvent(ctx context.Context, event domain.AutomationEvent) (automation.EventResult, error)
}

// Config voor de due-date scanner
type Config struct {
	Schedule    string
	Window      time.Duration
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
}

// ScanStats summarises one scan cycle.
type ScanStats struct {
	DueSoon int
	Overdue int
	Failed  int
}

// Scanner is de achtergrond-processor die due_soon en overdue events produceert
type Scanner struct {
	cards    CardClaimer
	runner   EventRunner
	cfg      Config
	schedule cron.Schedule
	logger   *zap.Logger
	now      func() time.Time

	cron   *cron.Cron
	job     cron.Job
	cycles  atomic.Int64
	startup sync.WaitGroup // startscan draait buiten cron
}

// NewScanner ...
func NewScanner(c CardClaimer, r EventRunner, cfg Config, log *zap.Logger) (*Scanner, error) {
	if c == nil || r == nil {
		return nil, errors.New("scanner needs a card claimer and an event runner")
	}
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	log = log.With(zap.String("component", "due_scanner"))
	s := &Scanner{
		cards:    c,
		runner:   r,
		cfg:      cfg,
		schedule: sched,
		logger:   log,
		now:      time.Now,
		cron:     cron.New(cron.WithLogger(cronLogger{log})),
	}
	// Startscan en geplande scans delen de wrapper, ze overlappen dus nooit
	s.job = cron.NewChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})).
		Then(cron.FuncJob(s.doWork))
	return s, nil
}

// Start plant de scan in en draait één keer direct bij het opstarten
func (s *Scanner) Start() {
	s.logger.Info("starting due-date scanner", zap.String("schedule", s.cfg.Schedule))
	s.cron.Schedule(s.schedule, s.job)
	s.cron.Start()

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.job.Run()
	}()
}

// Stop stops scheduling and returns a context that is done once running scans
// finished, the startup scan included.
func (s *Scanner) Stop() context.Context {
	s.logger.Info("stopping due-date scanner")
	cronDone := s.cron.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.startup.Wait()
		cancel()
	}()
	return ctx
}

// doWork is de daadwerkelijke werklading
func (s *Scanner) doWork() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cycle := s.cycles.Add(1)
	stats, err := s.ScanOnce(ctx)
	if err != nil {
		s.logger.Error("due-date scan failed", zap.Int64("cycle", cycle), zap.Error(err))
	}
	logger.LogDuration(s.logger, "due_scan", time.Since(start),
		zap.Int64("cycle", cycle),
		zap.Int("due_soon", stats.DueSoon),
		zap.Int("overdue", stats.Overdue),
		zap.Int("failed", stats.Failed))
}

// ScanOnce claims one batch of due-soon and one batch of overdue cards and
// runs the automation engine for each of them. Engine errors are counted and
// logged per card. Only claim errors are returned.
func (s *Scanner) ScanOnce(ctx context.Context) (ScanStats, error) {
	var stats ScanStats
	now := s.now()

	dueSoon, errSoon := s.cards.ClaimDueSoonCards(ctx, now, s.cfg.Window, s.cfg.BatchSize)
	if errSoon != nil {
		errSoon = fmt.Errorf("claim due soon cards: %w", errSoon)
	}
	overdue, errOver := s.cards.ClaimOverdueCards(ctx, now, s.cfg.BatchSize)
	if errOver != nil {
		errOver = fmt.Errorf("claim overdue cards: %w", errOver)
	}
	stats.DueSoon, stats.Overdue = len(dueSoon), len(overdue)

	if len(dueSoon) == s.cfg.BatchSize || len(overdue) == s.cfg.BatchSize {
		s.logger.Info("scan batch full, remaining cards follow next cycle", zap.Int("batch_size", s.cfg.BatchSize))
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	dispatch := func(trigger domain.TriggerKind, cards []card.CardContext) {
		for _, cc := range cards {
			event := newDueEvent(trigger, cc)
			g.Go(func() error {
				if err := s.runEvent(gctx, event); err != nil {
					failed.Add(1)
				}
				return nil
			})
		}
	}
	dispatch(domain.TriggerDueSoon, dueSoon)
	dispatch(domain.TriggerOverdue, overdue)
	_ = g.Wait()

	stats.Failed = int(failed.Load())
	return stats, errors.Join(errSoon, errOver)
}

func (s *Scanner) runEvent(ctx context.Context, event domain.AutomationEvent) error {
	res, err := s.runner.RunForEvent(ctx, event)
	if err != nil {
		s.logger.Error("automation failed for card",
			zap.String("trigger", string(event.Trigger)),
			zap.String("card_id", event.Card.ID.String()),
			zap.Error(err))
		return err
	}
	s.logger.Debug("automation ran for card",
		zap.String("trigger", string(event.Trigger)),
		zap.String("card_id", event.Card.ID.String()),
		zap.Int("rules_attempted", res.Attempted()))
	return nil
}

// newDueEvent builds the event for a claimed card. The card creator acts as the user.
func newDueEvent(trigger domain.TriggerKind, cc card.CardContext) domain.AutomationEvent {
	return domain.AutomationEvent{
		Trigger:     trigger,
		WorkspaceID: cc.WorkspaceID,
		BoardID:     cc.Card.BoardID,
		ActorID:     cc.CreatedBy,
		Card:        cc.Card,
	}
}

// cronLogger routes robfig/cron logging into zap.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
