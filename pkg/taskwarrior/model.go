package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/reminda/pkg/model"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	DELETED   = "deleted"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.UTC().Format(taskwarriorTimeLayout) + `"`), nil
}

// Task is a task as exported and imported by `task`.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Entry       *CustomTime `json:"entry,omitempty"`
	Due         *CustomTime `json:"due,omitempty"`
	Project     string      `json:"project,omitempty"`
	Priority    string      `json:"priority,omitempty"` // H, M or L
	Tags        []string    `json:"tags,omitempty"`
}

// Taskwarrior priorities mapped onto the shared scale, using the same
// high/medium/low values Apple Reminders stores.
var priorities = map[string]model.Priority{
	"H": 1,
	"M": 5,
	"L": 9,
}

func priorityFromLetter(s string) model.Priority {
	return priorities[strings.ToUpper(s)]
}

// ToModel converts an exported task. Taskwarrior has no date-only due
// dates, so a due date at local midnight is treated as one.
func (t Task) ToModel() model.Task {
	m := model.Task{
		ID:        t.UUID,
		Title:     t.Description,
		List:      t.Project,
		ListID:    t.Project,
		Priority:  priorityFromLetter(t.Priority),
		Completed: t.Status == COMPLETED || t.Status == DELETED,
	}
	if t.Entry != nil {
		m.Created = t.Entry.Time
	}
	if t.Due != nil && !t.Due.IsZero() {
		due := t.Due.Time.Local()
		m.Due = &due
		m.DueHasTime = !due.Equal(model.StartOfDay(due))
	}
	return m
}

func fromRequest(uuid string, req model.CreateRequest, entry time.Time) Task {
	t := Task{
		UUID:        uuid,
		Description: req.Title(),
		Status:      PENDING,
		Entry:       &CustomTime{entry},
		Project:     req.List().Name,
	}
	if due := req.Due(); due != nil {
		t.Due = &CustomTime{*due}
	}
	return t
}
