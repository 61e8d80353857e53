package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/harrisonrobin/reminda/pkg/auth"
	"github.com/harrisonrobin/reminda/pkg/config"
	"github.com/harrisonrobin/reminda/pkg/digest"
	"github.com/harrisonrobin/reminda/pkg/escalation"
	"github.com/harrisonrobin/reminda/pkg/filestore"
	"github.com/harrisonrobin/reminda/pkg/google"
	"github.com/harrisonrobin/reminda/pkg/index"
	"github.com/harrisonrobin/reminda/pkg/logging"
	"github.com/harrisonrobin/reminda/pkg/notify"
	"github.com/harrisonrobin/reminda/pkg/runner"
	"github.com/harrisonrobin/reminda/pkg/store"
	"github.com/harrisonrobin/reminda/pkg/taskwarrior"
)

// app holds everything a command needs, built lazily from the config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	google *google.Services
	index  *index.ListIndex
	files  *filestore.Store
}

func newApp(cfg *config.Config, stderr io.Writer) *app {
	return &app{cfg: cfg, logger: logging.New(stderr, cfg.LogLevel)}
}

func (a *app) authenticator() (*auth.Authenticator, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return &auth.Authenticator{ConfigDir: dir, Logger: a.logger}, nil
}

func (a *app) googleServices(ctx context.Context) (*google.Services, *index.ListIndex, error) {
	if a.google != nil {
		return a.google, a.index, nil
	}
	authn, err := a.authenticator()
	if err != nil {
		return nil, nil, err
	}
	srv, err := google.NewServices(ctx, authn)
	if err != nil {
		return nil, nil, err
	}
	idx, err := index.NewListIndex(index.DefaultPath(authn.ConfigDir))
	if err != nil {
		a.logger.Warn("failed to load list index", "error", err)
		idx = nil
	}
	a.google, a.index = srv, idx
	return srv, idx, nil
}

func (a *app) store(ctx context.Context) (store.Store, error) {
	switch a.cfg.Backend {
	case config.BackendTaskwarrior:
		return taskwarrior.NewStore(taskwarrior.NewClient()), nil
	case config.BackendGoogle:
		srv, idx, err := a.googleServices(ctx)
		if err != nil {
			return nil, err
		}
		return google.NewTasksStore(srv.Tasks, idx), nil
	case config.BackendFile:
		path, err := a.cfg.StorePath()
		if err != nil {
			return nil, err
		}
		fs, err := filestore.New(path)
		if err != nil {
			return nil, err
		}
		a.files = fs
		return fs, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalid, a.cfg.Backend)
	}
}

func (a *app) scheduler(ctx context.Context) (notify.Scheduler, error) {
	n := a.cfg.Notification
	switch n.Scheduler {
	case config.SchedulerLog:
		return notify.LogScheduler{Logger: a.logger}, nil
	case config.SchedulerCommand:
		return notify.NewCommandScheduler(n.Command), nil
	case config.SchedulerCalendar:
		srv, idx, err := a.googleServices(ctx)
		if err != nil {
			return nil, err
		}
		sched, err := srv.CalendarScheduler(ctx, n.Calendar, idx)
		if err != nil {
			return nil, err
		}
		return sched, nil
	default:
		return nil, fmt.Errorf("%w: unknown scheduler %q", config.ErrInvalid, n.Scheduler)
	}
}

func (a *app) composer() *notify.Composer {
	return notify.NewComposer(a.cfg.NotifyOptions(), a.cfg.NumberSpeller(), a.logger)
}

// runner wires the store, policy and, when withNotifier is set, the
// notification scheduler together.
func (a *app) runner(ctx context.Context, withNotifier bool) (*runner.Runner, error) {
	s, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	r := &runner.Runner{
		Store:     s,
		Evaluator: escalation.NewEvaluator(s, a.cfg.GeneralList, a.logger),
		Builder: digest.NewBuilder(digest.Options{
			InboxList:       a.cfg.InboxList,
			RequirePriority: a.cfg.Digest.RequirePriority,
		}),
		Watched: a.cfg.Watched(),
		Logger:  a.logger,
	}
	if withNotifier {
		sched, err := a.scheduler(ctx)
		if err != nil {
			return nil, err
		}
		r.Notifier = notify.NewNotifier(a.composer(), sched, a.logger)
	}
	return r, nil
}

// close flushes local state written during the run. A store that cannot be
// saved fails the command; the list index is only a cache.
func (a *app) close() error {
	if a.index != nil {
		if err := a.index.Save(); err != nil {
			a.logger.Warn("failed to save list index", "error", err)
		}
	}
	if a.files != nil {
		if err := a.files.Save(); err != nil {
			return fmt.Errorf("failed to save file store: %w", err)
		}
	}
	return nil
}
