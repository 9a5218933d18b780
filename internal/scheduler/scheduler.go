// Package scheduler drives periodic discovery generation from a cron
// expression and owns the start/stop lifecycle around it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/announce"
	"github.com/cratebot/cratebot/internal/models"
	"github.com/cratebot/cratebot/internal/shared"
	"github.com/robfig/cron/v3"
)

// State is the scheduler lifecycle state.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return ""
	}
}

var (
	// ErrAlreadyRunning is returned by Start when the scheduler is not stopped.
	ErrAlreadyRunning = errors.New("scheduler already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("scheduler not running")
)

// InvalidCronError is a cron expression rejected during Start, before
// anything was registered.
type InvalidCronError struct {
	Expression string
	Err        error
}

func (e *InvalidCronError) Error() string {
	return fmt.Sprintf("invalid cron expression %q: %v", e.Expression, e.Err)
}

func (e *InvalidCronError) Unwrap() error { return e.Err }

// Pipeline is the work a scheduled firing executes.
type Pipeline interface {
	Run(ctx context.Context) (models.DiscoveryPlaylist, error)
}

// Scheduler runs the discovery pipeline on a recurring cron schedule and on
// demand. Scheduled firings of the job never overlap; a firing that lands
// while the previous one is still running is skipped. Manual triggers and
// scheduled firings both funnel through the pipeline's own mutex, so the two
// paths cannot interleave either.
type Scheduler struct {
	mu sync.Mutex

	state     State
	cron      *cron.Cron
	entryID   cron.EntryID
	pipeline  Pipeline
	announcer announce.Announcer
	logger    *log.Logger
	parser    cron.Parser

	// manual tracks TriggerNow runs so Stop can await them; cron.Stop
	// already awaits scheduled firings.
	manual sync.WaitGroup
}

// New creates a Scheduler in the Stopped state. The parser accepts six-field
// expressions with a seconds column, e.g. "0 0 12 * * MON".
func New(pipeline Pipeline, announcer announce.Announcer, logger *log.Logger) *Scheduler {
	return &Scheduler{
		state:     Stopped,
		pipeline:  pipeline,
		announcer: announcer,
		logger:    shared.WithLogger(logger, "component", "scheduler"),
		parser: cron.NewParser(
			cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
	}
}

// Start validates the cron expression, registers the recurring discovery
// job, and transitions to Running. A malformed expression fails before
// anything is registered.
func (s *Scheduler) Start(expression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped {
		return fmt.Errorf("%w: state is %s", ErrAlreadyRunning, s.state)
	}
	s.state = Starting

	schedule, err := s.parser.Parse(expression)
	if err != nil {
		s.state = Stopped
		return &InvalidCronError{Expression: expression, Err: err}
	}

	c := cron.New(
		cron.WithParser(s.parser),
		cron.WithChain(cron.SkipIfStillRunning(&cronLogger{s.logger})),
	)
	s.entryID = c.Schedule(schedule, cron.FuncJob(s.runScheduled))
	c.Start()

	s.cron = c
	s.state = Running

	s.logger.Info("scheduler started", "cron", expression, "next_run", c.Entry(s.entryID).Next)
	return nil
}

// TriggerNow executes the discovery workflow immediately, outside the
// schedule. It does not require a running schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	s.manual.Add(1)
	defer s.manual.Done()

	s.logger.Info("manual discovery trigger")
	return s.execute(ctx)
}

// Stop cancels the recurring registration and waits for in-flight work,
// bounded by ctx. A timed-out wait is reported but still leaves the
// scheduler Stopped so process shutdown can proceed.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrNotRunning, s.state)
	}
	s.state = Stopping
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("stopping scheduler")

	done := make(chan struct{})
	go func() {
		<-c.Stop().Done()
		s.manual.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("scheduler stop aborted with work in flight: %w", ctx.Err())
		s.logger.Warn("scheduler stop aborted with work in flight")
	}

	s.mu.Lock()
	s.state = Stopped
	s.cron = nil
	s.mu.Unlock()

	if err == nil {
		s.logger.Info("scheduler stopped")
	}
	return err
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns the next scheduled firing time, or false when not running.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running || s.cron == nil {
		return time.Time{}, false
	}
	return s.cron.Entry(s.entryID).Next, true
}

func (s *Scheduler) runScheduled() {
	s.logger.Info("scheduled discovery firing")
	if err := s.execute(context.Background()); err != nil {
		// Reported through the announcer; the schedule continues
		s.logger.Error("scheduled discovery run failed", "err", err)
	}
}

func (s *Scheduler) execute(ctx context.Context) error {
	result, err := s.pipeline.Run(ctx)
	if err != nil {
		if s.announcer != nil {
			s.announcer.DiscoveryFailed(ctx, err)
		}
		return fmt.Errorf("discovery run failed: %w", err)
	}

	if s.announcer != nil {
		s.announcer.DiscoveryComplete(ctx, result)
	}
	return nil
}

// cronLogger adapts the bot logger to the cron.Logger interface.
type cronLogger struct {
	logger *log.Logger
}

func (l *cronLogger) Info(msg string, kv ...interface{}) {
	l.logger.Debug(msg, kv...)
}

func (l *cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.logger.Error(msg, append(kv, "err", err)...)
}
