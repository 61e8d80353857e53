// Package escalation keeps a single "review this list" reminder in the
// general list for every watched list that has grown too large or too old.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/store"
)

// WatchedList is a list monitored against its limits.
type WatchedList struct {
	Name          string
	LimitCount    int // open tasks tolerated before escalating
	LimitDateDiff int // days the oldest open task may age
}

// Outcome is what evaluating one watched list did.
type Outcome struct {
	List      string
	Count     int
	Oldest    time.Time
	Triggered bool
	Replaced  *model.Task // prior due reminder that was deleted
	Created   *model.Task
	Err       error
}

func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s: error: %v", o.List, o.Err)
	case !o.Triggered:
		return fmt.Sprintf("%s: %d open, oldest %s, ok", o.List, o.Count, o.Oldest.Format(time.DateOnly))
	case o.Replaced != nil:
		return fmt.Sprintf("%s: %d open, oldest %s, reminder replaced (due %s)", o.List, o.Count, o.Oldest.Format(time.DateOnly), o.Replaced.Due.Format(time.DateOnly))
	default:
		return fmt.Sprintf("%s: %d open, oldest %s, reminder created", o.List, o.Count, o.Oldest.Format(time.DateOnly))
	}
}

// Evaluator applies the staleness policy against a store.
type Evaluator struct {
	store       store.Store
	generalList string
	logger      *slog.Logger
}

func NewEvaluator(s store.Store, generalList string, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: s, generalList: generalList, logger: logger}
}

// EvaluateAll evaluates each list in order, finishing one before starting
// the next. A failing list does not stop the others; all failures are
// joined into the returned error.
func (e *Evaluator) EvaluateAll(ctx context.Context, now time.Time, lists []WatchedList) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(lists))
	var errs []error
	for _, wl := range lists {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		o, err := e.Evaluate(ctx, now, wl)
		if err != nil {
			e.logger.Error("escalation failed", "list", wl.Name, "error", err)
			errs = append(errs, err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, errors.Join(errs...)
}

// Evaluate applies the policy to a single watched list.
func (e *Evaluator) Evaluate(ctx context.Context, now time.Time, wl WatchedList) (Outcome, error) {
	out := Outcome{List: wl.Name, Oldest: now}
	fail := func(err error) (Outcome, error) {
		out.Err = err
		return out, err
	}

	list, err := e.store.ListByName(ctx, wl.Name)
	if err != nil {
		return fail(fmt.Errorf("resolve watched list %q: %w", wl.Name, err))
	}
	tasks, err := e.store.IncompleteTasks(ctx, list)
	if err != nil {
		return fail(fmt.Errorf("fetch tasks of %q: %w", wl.Name, err))
	}

	out.Count = len(tasks)
	out.Oldest = oldestCreated(tasks, now)
	out.Triggered = Triggered(wl, out.Count, out.Oldest, now)
	e.logger.Debug("watched list evaluated",
		"list", wl.Name, "count", out.Count, "oldest", out.Oldest, "triggered", out.Triggered)
	if !out.Triggered {
		return out, nil
	}

	general, err := e.store.ListByName(ctx, e.generalList)
	if err != nil {
		return fail(fmt.Errorf("resolve general list %q: %w", e.generalList, err))
	}
	existing, err := e.store.IncompleteTasks(ctx, general)
	if err != nil {
		return fail(fmt.Errorf("fetch tasks of %q: %w", e.generalList, err))
	}

	due := now
	if prior, ok := findDueReminder(existing, wl.Name, now); ok {
		due = *prior.Due
		if err := e.store.DeleteTask(ctx, prior); err != nil {
			return fail(fmt.Errorf("delete prior reminder for %q: %w", wl.Name, err))
		}
		out.Replaced = &prior
		e.logger.Info("prior escalation reminder deleted", "list", wl.Name, "due", due)
	}

	req := model.NewCreateRequest(general, wl.Name).WithDue(due, false)
	created, err := e.store.CreateTask(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("create reminder for %q: %w", wl.Name, err))
	}
	out.Created = &created
	e.logger.Info("escalation reminder created", "list", wl.Name, "general_list", e.generalList, "due", created.Due)
	return out, nil
}

// Triggered reports whether a list with count open tasks, the oldest
// created at oldest, breaches its limits.
func Triggered(wl WatchedList, count int, oldest, now time.Time) bool {
	limitDate := now.AddDate(0, 0, -wl.LimitDateDiff)
	return count >= wl.LimitCount || oldest.Before(limitDate)
}

func oldestCreated(tasks []model.Task, now time.Time) time.Time {
	oldest := now
	for _, t := range tasks {
		// Backends that cannot report a creation date leave it zero.
		if !t.Created.IsZero() && t.Created.Before(oldest) {
			oldest = t.Created
		}
	}
	return oldest
}

// findDueReminder finds an escalation reminder already due. Reminders
// scheduled after now are ignored so a postponed reminder stays put.
func findDueReminder(tasks []model.Task, name string, now time.Time) (model.Task, bool) {
	for _, t := range tasks {
		if t.Title == name && t.DueBy(now) {
			return t, true
		}
	}
	return model.Task{}, false
}
