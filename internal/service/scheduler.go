package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a periodic task run by the Scheduler.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on cron schedules. A job whose previous
// tick is still running skips the current tick.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	locks  map[string]*sync.Mutex
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	return &Scheduler{locks: make(map[string]*sync.Mutex)}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.locks[j.Name()]; exists {
		return fmt.Errorf("scheduler: duplicate job %q", j.Name())
	}
	s.locks[j.Name()] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(cron.WithParser(parser))

	for _, job := range s.jobs {
		job := job
		lock := s.locks[job.Name()]

		_, err := s.cron.AddFunc(job.Schedule(), func() {
			if !lock.TryLock() {
				slog.Warn("scheduler: job still running, skipping tick", "job", job.Name())
				return
			}
			defer lock.Unlock()

			if err := job.Run(ctx); err != nil {
				slog.Error("scheduler: job failed", "job", job.Name(), "error", err)
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("scheduler: invalid schedule for %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		slog.Info("scheduler stopped")
	}
}

// ExpiryNotifier tells a user their premium ended.
type ExpiryNotifier interface {
	PremiumExpired(ctx context.Context, userID int64)
}

// ExpiryJob revokes ended premium grants on a fixed interval.
type ExpiryJob struct {
	entitlements *EntitlementService
	notifier     ExpiryNotifier
	interval     time.Duration
}

func NewExpiryJob(entitlements *EntitlementService, notifier ExpiryNotifier, interval time.Duration) *ExpiryJob {
	return &ExpiryJob{entitlements: entitlements, notifier: notifier, interval: interval}
}

func (j *ExpiryJob) Name() string { return "premium-expiry" }

func (j *ExpiryJob) Schedule() string {
	return "@every " + j.interval.String()
}

func (j *ExpiryJob) Run(ctx context.Context) error {
	expired, err := j.entitlements.SweepExpired(ctx)
	if err != nil {
		return err
	}
	for _, uid := range expired {
		slog.Info("premium expired", "user_id", uid)
		j.notifier.PremiumExpired(ctx, uid)
	}
	return nil
}
