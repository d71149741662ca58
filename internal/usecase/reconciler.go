package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"copydesk/internal/domain"
)

// Reconciler defaults
const (
	DefaultReconcileGrace       = 2 * time.Minute
	DefaultReconcileMaxAttempts = 5
	DefaultReconcileBatch       = 100
)

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Completed int `json:"completed"`
	Retrying  int `json:"retrying"`
	Failed    int `json:"failed"`
}

// Reconciler re-drives membership transitions that stopped halfway
type Reconciler struct {
	intentRepo  domain.IntentRepository
	membership  *MembershipService
	alerter     domain.Alerter
	grace       time.Duration
	maxAttempts int
	batch       int
	now         func() time.Time
}

// NewReconciler creates a new Reconciler. Intents younger than grace are
// left alone because their transition may still be running.
func NewReconciler(
	intentRepo domain.IntentRepository,
	membership *MembershipService,
	alerter domain.Alerter,
	grace time.Duration,
	maxAttempts int,
) *Reconciler {
	if grace <= 0 {
		grace = DefaultReconcileGrace
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultReconcileMaxAttempts
	}
	return &Reconciler{
		intentRepo:  intentRepo,
		membership:  membership,
		alerter:     alerter,
		grace:       grace,
		maxAttempts: maxAttempts,
		batch:       DefaultReconcileBatch,
		now:         time.Now,
	}
}

// RunOnce re-drives every pending intent older than the grace period.
// An intent that keeps failing is marked failed after maxAttempts and an
// operator alert is sent. Lock contention does not count as an attempt.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	intents, err := r.intentRepo.ListPending(ctx, r.now().Add(-r.grace), r.batch)
	if err != nil {
		return report, fmt.Errorf("failed to list pending intents: %w", err)
	}
	report.Scanned = len(intents)
	if len(intents) == 0 {
		return report, nil
	}

	log.Printf("Reconciling %d pending membership intents", len(intents))

	for _, intent := range intents {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		err := r.membership.Redrive(ctx, intent)
		if err == nil {
			report.Completed++
			continue
		}

		// a live transition holds the trader; try again next pass
		if domain.CodeOf(err) == domain.CodeLockBusy {
			log.Printf("[WARN] Intent %s for trader %s skipped, trader is locked", intent.ID, intent.UserID)
			report.Retrying++
			continue
		}

		terminal := intent.Attempts+1 >= r.maxAttempts
		if recErr := r.intentRepo.RecordFailure(ctx, intent.ID, err.Error(), terminal); recErr != nil {
			log.Printf("[WARN] Failed to record failure on intent %s: %v", intent.ID, recErr)
		}

		if !terminal {
			log.Printf("[WARN] Intent %s (%s) for trader %s still incomplete: %v",
				intent.ID, intent.Operation, intent.UserID, err)
			report.Retrying++
			continue
		}

		report.Failed++
		log.Printf("ERROR: Intent %s (%s) for trader %s gave up after %d attempts: %v",
			intent.ID, intent.Operation, intent.UserID, intent.Attempts+1, err)
		r.alert(ctx, intent, err)
	}

	log.Printf("Reconcile complete: %d completed, %d retrying, %d failed",
		report.Completed, report.Retrying, report.Failed)

	return report, nil
}

func (r *Reconciler) alert(ctx context.Context, intent *domain.TransitionIntent, cause error) {
	if r.alerter == nil {
		return
	}
	message := fmt.Sprintf("Membership %s for trader %s needs manual repair (last step %s): %v",
		intent.Operation, intent.UserID, intent.Step, cause)
	if err := r.alerter.Alert(ctx, message); err != nil {
		log.Printf("[WARN] Failed to send reconcile alert: %v", err)
	}
}
