// Package store defines the reminders backend the escalation and digest
// steps run against.
package store

import (
	"context"
	"errors"

	"github.com/harrisonrobin/reminda/pkg/model"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrTaskNotFound = errors.New("task not found")
)

// Store is a reminders store. Implementations persist tasks themselves;
// callers never mutate a returned Task expecting it to be saved.
type Store interface {
	// ListByName resolves a list by its display name.
	ListByName(ctx context.Context, name string) (model.List, error)
	// IncompleteTasks returns incomplete tasks in the given lists, or in
	// every list when scope is empty.
	IncompleteTasks(ctx context.Context, scope ...model.List) ([]model.Task, error)
	CreateTask(ctx context.Context, req model.CreateRequest) (model.Task, error)
	DeleteTask(ctx context.Context, task model.Task) error
}

// InScope reports whether a task belongs to one of the lists. An empty
// scope matches everything.
func InScope(t model.Task, scope []model.List) bool {
	if len(scope) == 0 {
		return true
	}
	for _, l := range scope {
		if (l.ID != "" && l.ID == t.ListID) || (l.Name != "" && l.Name == t.List) {
			return true
		}
	}
	return false
}
