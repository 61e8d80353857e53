// Package filestore is a reminders store kept in a local JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/store"
)

var _ store.Store = (*Store)(nil)

type entry struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	List       string     `json:"list"`
	Due        *time.Time `json:"due,omitempty"`
	DueHasTime bool       `json:"due_has_time,omitempty"`
	Created    time.Time  `json:"created"`
	Priority   int        `json:"priority,omitempty"`
	Completed  bool       `json:"completed,omitempty"`
}

type document struct {
	Lists []string `json:"lists"`
	Tasks []entry  `json:"tasks"`
}

// Store holds every list and task in memory and writes them back on Save.
// An empty Path keeps the store in memory only.
type Store struct {
	Path string

	mu    sync.Mutex
	doc   document
	dirty bool
	now   func() time.Time
}

// New opens the store at path, loading it when the file exists.
func New(path string) (*Store, error) {
	s := &Store{Path: path, now: time.Now}
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); err == nil {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewMemory returns an empty store that is never written to disk.
func NewMemory() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Load() error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := json.NewDecoder(f).Decode(&s.doc); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	return nil
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}

	content, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	// Write to a temp file, then rename it over the store.
	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, append(content, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}
	s.dirty = false
	return nil
}

// AddList registers a list name. Adding an existing name is a no-op.
func (s *Store) AddList(name string) model.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasList(name) {
		s.doc.Lists = append(s.doc.Lists, name)
		sort.Strings(s.doc.Lists)
		s.dirty = true
	}
	return model.List{ID: name, Name: name}
}

// Put inserts or replaces a task as-is, registering its list. Tasks without
// an ID are given one.
func (s *Store) Put(t model.Task) model.Task {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.AddList(t.List)
	t.ListID = t.List

	s.mu.Lock()
	defer s.mu.Unlock()
	e := toEntry(t)
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == t.ID {
			s.doc.Tasks[i] = e
			s.dirty = true
			return t
		}
	}
	s.doc.Tasks = append(s.doc.Tasks, e)
	s.dirty = true
	return t
}

// All returns every task, complete or not, in insertion order.
func (s *Store) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]model.Task, 0, len(s.doc.Tasks))
	for _, e := range s.doc.Tasks {
		tasks = append(tasks, e.task())
	}
	return tasks
}

func (s *Store) ListByName(_ context.Context, name string) (model.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasList(name) {
		return model.List{}, fmt.Errorf("%w: %q", store.ErrListNotFound, name)
	}
	return model.List{ID: name, Name: name}, nil
}

func (s *Store) IncompleteTasks(ctx context.Context, scope ...model.List) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []model.Task
	for _, e := range s.doc.Tasks {
		t := e.task()
		if t.Completed || !store.InScope(t, scope) {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, req model.CreateRequest) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	if _, err := s.ListByName(ctx, req.List().Name); err != nil {
		return model.Task{}, err
	}
	t := req.Task(s.now())
	t.ID = uuid.NewString()
	return s.Put(t), nil
}

func (s *Store) DeleteTask(ctx context.Context, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doc.Tasks {
		if s.doc.Tasks[i].ID == task.ID {
			s.doc.Tasks = append(s.doc.Tasks[:i], s.doc.Tasks[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", store.ErrTaskNotFound, task.ID)
}

func (s *Store) hasList(name string) bool {
	for _, l := range s.doc.Lists {
		if l == name {
			return true
		}
	}
	return false
}

func toEntry(t model.Task) entry {
	return entry{
		ID:         t.ID,
		Title:      t.Title,
		List:       t.List,
		Due:        t.Due,
		DueHasTime: t.DueHasTime,
		Created:    t.Created,
		Priority:   int(t.Priority),
		Completed:  t.Completed,
	}
}

func (e entry) task() model.Task {
	var due *time.Time
	if e.Due != nil {
		d := *e.Due
		due = &d
	}
	return model.Task{
		ID:         e.ID,
		Title:      e.Title,
		List:       e.List,
		ListID:     e.List,
		Due:        due,
		DueHasTime: e.DueHasTime,
		Created:    e.Created,
		Priority:   model.Priority(e.Priority),
		Completed:  e.Completed,
	}
}
