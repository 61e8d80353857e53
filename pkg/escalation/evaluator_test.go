package escalation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/harrisonrobin/reminda/pkg/filestore"
	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/harrisonrobin/reminda/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const general = "Reminders"

var now = time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *filestore.Store {
	t.Helper()
	s := filestore.NewMemory()
	s.AddList(general)
	s.AddList("Pharmacy")
	return s
}

func dueReminders(s *filestore.Store, name string) []model.Task {
	var out []model.Task
	for _, task := range s.All() {
		if task.List == general && task.Title == name && task.DueBy(now) {
			out = append(out, task)
		}
	}
	return out
}

func TestTriggered(t *testing.T) {
	tests := map[string]struct {
		wl     WatchedList
		count  int
		oldest time.Time
		want   bool
	}{
		"count at limit":          {WatchedList{LimitCount: 3, LimitDateDiff: 30}, 3, now, true},
		"count below limit":       {WatchedList{LimitCount: 3, LimitDateDiff: 30}, 2, now, false},
		"oldest past limit":       {WatchedList{LimitCount: 10, LimitDateDiff: 7}, 1, now.AddDate(0, 0, -8), true},
		"oldest exactly at limit": {WatchedList{LimitCount: 10, LimitDateDiff: 7}, 1, now.AddDate(0, 0, -7), false},
		"empty list zero limit":   {WatchedList{LimitCount: 0, LimitDateDiff: 7}, 0, now, true},
		"empty list":              {WatchedList{LimitCount: 1, LimitDateDiff: 0}, 0, now, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Triggered(tt.wl, tt.count, tt.oldest, now))
		})
	}
}

func TestEvaluate_CountTriggerCreatesReminder(t *testing.T) {
	s := newStore(t)
	for _, title := range []string{"Aspirin", "Plasters", "Vitamin D"} {
		s.Put(model.Task{Title: title, List: "Pharmacy", Created: now.Add(-time.Hour)})
	}

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 3, LimitDateDiff: 30})
	require.NoError(t, err)

	assert.True(t, out.Triggered)
	assert.Equal(t, 3, out.Count)
	assert.Nil(t, out.Replaced)
	require.NotNil(t, out.Created)
	assert.Equal(t, "Pharmacy", out.Created.Title)
	assert.Equal(t, general, out.Created.List)
	assert.False(t, out.Created.DueHasTime)
	assert.True(t, out.Created.Due.Equal(model.StartOfDay(now)))
	assert.Len(t, dueReminders(s, "Pharmacy"), 1)
}

func TestEvaluate_AgeTrigger(t *testing.T) {
	s := newStore(t)
	s.Put(model.Task{Title: "Old", List: "Pharmacy", Created: now.AddDate(0, 0, -20)})

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 5, LimitDateDiff: 14})
	require.NoError(t, err)
	assert.True(t, out.Triggered)
	assert.True(t, out.Oldest.Equal(now.AddDate(0, 0, -20)))
	assert.NotNil(t, out.Created)
}

func TestEvaluate_NotTriggeredLeavesStoreAlone(t *testing.T) {
	s := newStore(t)
	s.Put(model.Task{Title: "Fresh", List: "Pharmacy", Created: now.Add(-time.Hour)})
	before := s.All()

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 5, LimitDateDiff: 14})
	require.NoError(t, err)
	assert.False(t, out.Triggered)
	assert.Nil(t, out.Created)
	assert.Equal(t, before, s.All())
}

func TestEvaluate_ReplacesDueReminderAndCarriesDate(t *testing.T) {
	s := newStore(t)
	s.Put(model.Task{Title: "a", List: "Pharmacy", Created: now})
	prevDue := model.StartOfDay(now.AddDate(0, 0, -3))
	prior := s.Put(model.Task{Title: "Pharmacy", List: general, Due: &prevDue, Created: prevDue})

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 1, LimitDateDiff: 30})
	require.NoError(t, err)

	require.NotNil(t, out.Replaced)
	assert.Equal(t, prior.ID, out.Replaced.ID)
	require.NotNil(t, out.Created)
	assert.NotEqual(t, prior.ID, out.Created.ID)
	assert.True(t, out.Created.Due.Equal(prevDue))

	reminders := dueReminders(s, "Pharmacy")
	require.Len(t, reminders, 1)
	assert.Equal(t, out.Created.ID, reminders[0].ID)
}

func TestEvaluate_FutureReminderIsDebounced(t *testing.T) {
	s := newStore(t)
	s.Put(model.Task{Title: "a", List: "Pharmacy", Created: now})
	later := now.AddDate(0, 0, 2)
	future := s.Put(model.Task{Title: "Pharmacy", List: general, Due: &later})

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 1, LimitDateDiff: 30})
	require.NoError(t, err)
	assert.Nil(t, out.Replaced)
	require.NotNil(t, out.Created)

	var ids []string
	for _, task := range s.All() {
		if task.Title == "Pharmacy" {
			ids = append(ids, task.ID)
		}
	}
	assert.Contains(t, ids, future.ID)
	assert.Len(t, ids, 2)
}

func TestEvaluate_RerunRegeneratesInsteadOfDuplicating(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 3; i++ {
		s.Put(model.Task{Title: "x", List: "Pharmacy", Created: now})
	}
	e := NewEvaluator(s, general, quietLogger())
	wl := WatchedList{Name: "Pharmacy", LimitCount: 3, LimitDateDiff: 30}

	first, err := e.Evaluate(context.Background(), now, wl)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), now, wl)
	require.NoError(t, err)

	require.NotNil(t, second.Replaced)
	assert.Equal(t, first.Created.ID, second.Replaced.ID)
	assert.Len(t, dueReminders(s, "Pharmacy"), 1)
	assert.Len(t, s.All(), 4)
}

func TestEvaluate_IgnoresUnknownCreationDate(t *testing.T) {
	s := newStore(t)
	s.Put(model.Task{Title: "no date", List: "Pharmacy"})

	e := NewEvaluator(s, general, quietLogger())
	out, err := e.Evaluate(context.Background(), now, WatchedList{Name: "Pharmacy", LimitCount: 5, LimitDateDiff: 1})
	require.NoError(t, err)
	assert.False(t, out.Triggered)
	assert.True(t, out.Oldest.Equal(now))
}

type failingDelete struct {
	*filestore.Store
}

func (f failingDelete) DeleteTask(context.Context, model.Task) error {
	return errors.New("backend unavailable")
}

func TestEvaluateAll_ContinuesAfterFailure(t *testing.T) {
	s := newStore(t)
	s.AddList("Groceries")
	s.Put(model.Task{Title: "a", List: "Groceries", Created: now})
	s.Put(model.Task{Title: "b", List: "Pharmacy", Created: now})
	prevDue := model.StartOfDay(now)
	s.Put(model.Task{Title: "Groceries", List: general, Due: &prevDue})

	e := NewEvaluator(failingDelete{s}, general, quietLogger())
	outcomes, err := e.EvaluateAll(context.Background(), now, []WatchedList{
		{Name: "Groceries", LimitCount: 1, LimitDateDiff: 30},
		{Name: "Missing", LimitCount: 1, LimitDateDiff: 30},
		{Name: "Pharmacy", LimitCount: 1, LimitDateDiff: 30},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrListNotFound)
	require.Len(t, outcomes, 3)

	assert.Error(t, outcomes[0].Err)
	assert.Nil(t, outcomes[0].Created)
	assert.ErrorIs(t, outcomes[1].Err, store.ErrListNotFound)
	assert.NoError(t, outcomes[2].Err)
	assert.NotNil(t, outcomes[2].Created)
}
