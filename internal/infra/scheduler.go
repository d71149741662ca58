package infra

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"copydesk/internal/usecase"
)

// DefaultReconcileSchedule runs the reconciler once a minute
const DefaultReconcileSchedule = "@every 1m"

// ReconcileRunner runs one reconciliation pass
type ReconcileRunner interface {
	RunOnce(ctx context.Context) (usecase.ReconcileReport, error)
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron       *cron.Cron
	reconciler ReconcileRunner
	schedule   string
	timeout    time.Duration

	running sync.Mutex
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler; schedule defaults to every minute
func NewScheduler(reconciler ReconcileRunner, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    5 * time.Minute,
	}
}

// Start registers the reconcile job and starts the cron scheduler
func (s *Scheduler) Start() error {
	log.Printf("Starting scheduler... [Reconcile: %s]", s.schedule)

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunReconcile("cron")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[OK] Scheduler started successfully")

	return nil
}

// Trigger starts a reconcile pass in the background. It returns false when a
// pass is already running.
func (s *Scheduler) Trigger() bool {
	if !s.running.TryLock() {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Unlock()
		s.reconcile("manual")
	}()
	return true
}

// RunReconcile runs one reconcile pass unless another one is in progress
func (s *Scheduler) RunReconcile(source string) {
	if !s.running.TryLock() {
		log.Printf("[CRON] Reconcile (%s) skipped: previous pass still running", source)
		return
	}
	defer s.running.Unlock()
	s.reconcile(source)
}

func (s *Scheduler) reconcile(source string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.reconciler.RunOnce(ctx)
	if err != nil {
		log.Printf("ERROR: Reconcile (%s) failed: %v", source, err)
		return
	}
	if report.Scanned > 0 {
		log.Printf("[CRON] Reconcile (%s): scanned=%d completed=%d retrying=%d failed=%d",
			source, report.Scanned, report.Completed, report.Retrying, report.Failed)
	}
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("[OK] Scheduler stopped")
}
