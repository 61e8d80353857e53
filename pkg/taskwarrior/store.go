package taskwarrior

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store exposes taskwarrior projects as reminder lists. Projects exist as
// soon as a task names them, so any non-empty list name resolves.
type Store struct {
	client *Client
	now    func() time.Time
}

func NewStore(c *Client) *Store {
	return &Store{client: c, now: time.Now}
}

func (s *Store) ListByName(_ context.Context, name string) (model.List, error) {
	if name == "" {
		return model.List{}, fmt.Errorf("%w: empty project name", store.ErrListNotFound)
	}
	return model.List{ID: name, Name: name}, nil
}

func (s *Store) IncompleteTasks(ctx context.Context, scope ...model.List) ([]model.Task, error) {
	filter := []string{"status:pending"}
	if len(scope) == 1 {
		filter = append(filter, "project.is:"+scope[0].Name)
	}
	tasks, err := s.client.GetTasks(ctx, filter...)
	if err != nil {
		return nil, err
	}

	var out []model.Task
	for _, t := range tasks {
		m := t.ToModel()
		if m.Completed || !store.InScope(m, scope) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, req model.CreateRequest) (model.Task, error) {
	t := fromRequest(uuid.NewString(), req, s.now())
	if err := s.client.Import(ctx, t); err != nil {
		return model.Task{}, fmt.Errorf("import task %q: %w", req.Title(), err)
	}
	created := req.Task(t.Entry.Time)
	created.ID = t.UUID
	return created, nil
}

func (s *Store) DeleteTask(ctx context.Context, task model.Task) error {
	if task.ID == "" {
		return fmt.Errorf("%w: task has no uuid", store.ErrTaskNotFound)
	}
	return s.client.Delete(ctx, task.ID)
}
