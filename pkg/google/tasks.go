// Package google implements the reminders store on Google Tasks and
// delivers notifications as Google Calendar popup events.
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/reminda/pkg/index"
	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/store"
	"google.golang.org/api/tasks/v1"
)

var _ store.Store = (*TasksStore)(nil)

var errStopPaging = errors.New("stop paging")

// Google Tasks keeps only the date of a due value and reports it as
// midnight UTC.
const dueSuffix = "T00:00:00.000Z"

// TasksStore maps Google tasklists onto reminder lists.
type TasksStore struct {
	srv   *tasks.Service
	index *index.ListIndex
}

func NewTasksStore(srv *tasks.Service, idx *index.ListIndex) *TasksStore {
	return &TasksStore{srv: srv, index: idx}
}

func (s *TasksStore) ListByName(ctx context.Context, name string) (model.List, error) {
	if s.index != nil {
		if id := s.index.Get(tasklistKey(name)); id != "" {
			return model.List{ID: id, Name: name}, nil
		}
	}
	lists, err := s.lists(ctx)
	if err != nil {
		return model.List{}, err
	}
	for _, l := range lists {
		if l.Name == name {
			return l, nil
		}
	}
	return model.List{}, fmt.Errorf("%w: tasklist %q", store.ErrListNotFound, name)
}

// lists enumerates every tasklist and refreshes the index.
func (s *TasksStore) lists(ctx context.Context) ([]model.List, error) {
	var out []model.List
	err := s.srv.Tasklists.List().MaxResults(100).Pages(ctx, func(page *tasks.TaskLists) error {
		for _, tl := range page.Items {
			out = append(out, model.List{ID: tl.Id, Name: tl.Title})
			if s.index != nil {
				s.index.Set(tasklistKey(tl.Title), tl.Id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve tasklists: %w", err)
	}
	return out, nil
}

func (s *TasksStore) IncompleteTasks(ctx context.Context, scope ...model.List) ([]model.Task, error) {
	if len(scope) == 0 {
		all, err := s.lists(ctx)
		if err != nil {
			return nil, err
		}
		scope = all
	}

	var out []model.Task
	for _, l := range scope {
		err := s.srv.Tasks.List(l.ID).
			ShowCompleted(false).
			ShowHidden(false).
			MaxResults(100).
			Pages(ctx, func(page *tasks.Tasks) error {
				for _, t := range page.Items {
					m, err := taskFromAPI(l, t)
					if err != nil {
						return err
					}
					if !m.Completed {
						out = append(out, m)
					}
				}
				return nil
			})
		if err != nil {
			return nil, s.listError(l, fmt.Errorf("unable to retrieve tasks of %q: %w", l.Name, err))
		}
	}
	return out, nil
}

func (s *TasksStore) CreateTask(ctx context.Context, req model.CreateRequest) (model.Task, error) {
	list := req.List()
	created, err := s.srv.Tasks.Insert(list.ID, taskToAPI(req)).Context(ctx).Do()
	if err != nil {
		return model.Task{}, s.listError(list, fmt.Errorf("unable to insert task into %q: %w", list.Name, err))
	}
	return taskFromAPI(list, created)
}

func (s *TasksStore) DeleteTask(ctx context.Context, task model.Task) error {
	if err := s.srv.Tasks.Delete(task.ListID, task.ID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete task %s: %w", task.ID, err)
	}
	return nil
}

// listError marks err as a missing list when the API no longer knows l,
// dropping its cached ID so the next lookup enumerates tasklists again.
func (s *TasksStore) listError(l model.List, err error) error {
	if !isNotFound(err) {
		return err
	}
	if s.index != nil {
		s.index.Remove(tasklistKey(l.Name))
	}
	return fmt.Errorf("%w: %w", store.ErrListNotFound, err)
}

// taskFromAPI converts an API task. Google Tasks has no priority and no
// creation date, so the last update time stands in for the latter.
func taskFromAPI(list model.List, t *tasks.Task) (model.Task, error) {
	m := model.Task{
		ID:        t.Id,
		Title:     t.Title,
		List:      list.Name,
		ListID:    list.ID,
		Completed: t.Status == "completed" || t.Deleted,
	}
	if t.Due != "" {
		due, err := parseDue(t.Due)
		if err != nil {
			return model.Task{}, err
		}
		m.Due = &due
	}
	if t.Updated != "" {
		updated, err := time.Parse(time.RFC3339, t.Updated)
		if err != nil {
			return model.Task{}, fmt.Errorf("invalid updated time %q on task %s: %w", t.Updated, t.Id, err)
		}
		m.Created = updated
	}
	return m, nil
}

func taskToAPI(req model.CreateRequest) *tasks.Task {
	t := &tasks.Task{Title: req.Title(), Status: "needsAction"}
	if due := req.Due(); due != nil {
		t.Due = due.Format(time.DateOnly) + dueSuffix
	}
	return t
}

// parseDue returns the due date at local midnight.
func parseDue(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
}
