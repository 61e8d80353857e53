package model

import "time"

// Priority is a reminder priority. NoPriority (0) means none was set;
// among the rest a lower value is more urgent.
type Priority int

const (
	NoPriority Priority = 0

	// UnsetPriorityRank is the sort rank used for tasks without a priority
	// so they land after every prioritized task.
	UnsetPriorityRank = 1000
)

// IsSet reports whether an explicit priority was set.
func (p Priority) IsSet() bool {
	return p != NoPriority
}

// Effective returns the value used for ordering.
func (p Priority) Effective() int {
	if !p.IsSet() {
		return UnsetPriorityRank
	}
	return int(p)
}

// List is a named grouping of tasks (a reminders list, a project, a tasklist).
type List struct {
	ID   string
	Name string
}

// Task represents a reminder from any backend.
type Task struct {
	ID         string
	Title      string
	List       string // owning list name
	ListID     string // backend handle of the owning list
	Due        *time.Time
	DueHasTime bool
	Created    time.Time
	Priority   Priority
	Completed  bool
}

// DueBy reports whether the task has a due date at or before t.
func (t Task) DueBy(now time.Time) bool {
	return t.Due != nil && !t.Due.After(now)
}
