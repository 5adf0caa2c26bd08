package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the recurring jobs of the dashboard host.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
	started bool
}

// New creates a scheduler working in UTC. Panicking jobs are recovered and
// a job still running when its next activation fires is skipped.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log.Sugar()}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Every runs fn at a fixed interval. Intervals below one second are rounded
// up to one second by cron.
func (s *Scheduler) Every(interval time.Duration, name string, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", name, interval)
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		fn(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.Duration("every", interval))
	return nil
}

// Cron runs fn on a standard five-field cron spec. Errors are logged.
func (s *Scheduler) Cron(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info("job triggered", zap.String("job", name))
		if err := fn(s.ctx); err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("job %s: bad spec %q: %w", name, spec, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.started = true
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts future activations, waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.started = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.started && len(s.cron.Entries()) > 0
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
