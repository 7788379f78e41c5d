package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const reconcileBatch = 200

// Reconciler periodically restores enrollments for SUCCESS orders that lost theirs.
type Reconciler struct {
	svc  *EnrollmentService
	cron *cron.Cron
}

func NewReconciler(svc *EnrollmentService) *Reconciler {
	return &Reconciler{
		svc:  svc,
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start schedules the job; schedule is a cron expression or "@every 5m".
func (r *Reconciler) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.runScheduled); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("[reconcile] scheduled %s", schedule)
	return nil
}

// Stop waits for a running pass to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reconciler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	report, err := r.RunOnce(ctx)
	if err != nil {
		log.Printf("[reconcile] pass failed: %v", err)
		return
	}
	if report.Scanned > 0 {
		log.Printf("[reconcile] scanned=%d repaired=%d duplicates=%d failed=%d",
			report.Scanned, report.Repaired, report.Duplicates, report.Failed)
	}
}

func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	return r.svc.RepairMissingEnrollments(ctx, reconcileBatch)
}
