package model

import "time"

// CreateRequest describes a task to be created. It is a value; WithDue
// returns a modified copy.
type CreateRequest struct {
	list       List
	title      string
	due        *time.Time
	dueHasTime bool
}

// NewCreateRequest starts a request for a task titled title in list.
func NewCreateRequest(list List, title string) CreateRequest {
	return CreateRequest{list: list, title: title}
}

// WithDue sets the due date. When hasTime is false only the calendar date
// of due is kept, at local midnight.
func (r CreateRequest) WithDue(due time.Time, hasTime bool) CreateRequest {
	if !hasTime {
		due = StartOfDay(due)
	}
	r.due = &due
	r.dueHasTime = hasTime
	return r
}

func (r CreateRequest) List() List { return r.list }

func (r CreateRequest) Title() string { return r.title }

func (r CreateRequest) DueHasTime() bool { return r.dueHasTime }

// Due returns a copy of the due date, or nil.
func (r CreateRequest) Due() *time.Time {
	if r.due == nil {
		return nil
	}
	d := *r.due
	return &d
}

// Task returns the task the request describes, without an ID.
func (r CreateRequest) Task(created time.Time) Task {
	return Task{
		Title:      r.title,
		List:       r.list.Name,
		ListID:     r.list.ID,
		Due:        r.Due(),
		DueHasTime: r.dueHasTime,
		Created:    created,
	}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
