// Package runner drives one complete run: escalate every watched list,
// then build the digest and notify.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harrisonrobin/reminda/pkg/digest"
	"github.com/harrisonrobin/reminda/pkg/escalation"
	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/notify"
	"github.com/harrisonrobin/reminda/pkg/store"
)

// Report summarises a run.
type Report struct {
	Now         time.Time
	Escalations []escalation.Outcome
	Digest      digest.Digest
	Notified    bool
}

type Runner struct {
	Store     store.Store
	Evaluator *escalation.Evaluator
	Builder   *digest.Builder
	Notifier  *notify.Notifier
	Watched   []escalation.WatchedList
	Logger    *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run performs a full run at now. The digest is built from the snapshot
// of incomplete tasks taken before any escalation changes the store.
// Escalation failures do not prevent the digest; every failure is
// returned joined.
func (r *Runner) Run(ctx context.Context, now time.Time) (Report, error) {
	report := Report{Now: now}

	snapshot, snapErr := r.snapshot(ctx)

	outcomes, escErr := r.Escalate(ctx, now)
	report.Escalations = outcomes
	if snapErr != nil {
		return report, errors.Join(escErr, snapErr)
	}

	report.Digest = r.build(now, snapshot)
	if r.Notifier != nil {
		sent, err := r.Notifier.Notify(ctx, now, report.Digest)
		if err != nil {
			r.logger().Error("notification failed", "error", err)
			return report, errors.Join(escErr, err)
		}
		report.Notified = sent
	}
	return report, escErr
}

// Escalate runs the evaluator over every watched list.
func (r *Runner) Escalate(ctx context.Context, now time.Time) ([]escalation.Outcome, error) {
	if len(r.Watched) == 0 {
		r.logger().Debug("no watched lists configured")
		return nil, nil
	}
	return r.Evaluator.EvaluateAll(ctx, now, r.Watched)
}

// Digest fetches a fresh snapshot of incomplete tasks and builds the digest.
func (r *Runner) Digest(ctx context.Context, now time.Time) (digest.Digest, error) {
	tasks, err := r.snapshot(ctx)
	if err != nil {
		return digest.Digest{}, err
	}
	return r.build(now, tasks), nil
}

func (r *Runner) snapshot(ctx context.Context) ([]model.Task, error) {
	tasks, err := r.Store.IncompleteTasks(ctx)
	if err != nil {
		r.logger().Error("fetching incomplete tasks failed", "error", err)
		return nil, fmt.Errorf("fetch incomplete tasks: %w", err)
	}
	return tasks, nil
}

func (r *Runner) build(now time.Time, tasks []model.Task) digest.Digest {
	d := r.Builder.Build(now, tasks)
	r.logger().Info("digest built", "urgent", d.Count, "inbox", d.Inbox, "scanned", len(tasks))
	return d
}
