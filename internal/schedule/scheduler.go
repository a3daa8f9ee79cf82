package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on five field cron expressions. A job whose previous
// run has not finished is skipped rather than stacked.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
	jobs map[string]cron.EntryID
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		ctx:  context.Background(),
		jobs: make(map[string]cron.EntryID),
	}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", job.Name()), zap.String("spec", spec))
	entryID, err := s.cron.AddFunc(spec, s.wrap(job))
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	s.jobs[job.Name()] = entryID
	logger.Info("job scheduled")
	return nil
}

func (s *CronScheduler) Next(name string) (time.Time, bool) {
	id, ok := s.jobs[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		s.ctx = ctx
	}
	s.cron.Start()
}

// Stop waits for running jobs to return.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		logger := logutil.GetLogger(s.ctx).With(zap.String("job", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: still running")
			return
		}
		defer running.Store(false)
		RunOnce(s.ctx, job, logger)
	}
}

// RunOnce runs job synchronously and logs its outcome.
func RunOnce(ctx context.Context, job Job, logger *zap.Logger) error {
	start := time.Now()
	logger.Info("job started")
	err := job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}
