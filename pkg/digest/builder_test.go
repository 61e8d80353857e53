package digest

import (
	"testing"
	"time"

	"github.com/harrisonrobin/reminda/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 18, 0, 0, 0, time.Local)

func at(t time.Time) *time.Time { return &t }

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestBuild_FiltersByDueDate(t *testing.T) {
	tasks := []model.Task{
		{Title: "overdue", Due: at(now.AddDate(0, 0, -2))},
		{Title: "today", Due: at(model.StartOfDay(now))},
		{Title: "exactly now", Due: at(now)},
		{Title: "tomorrow", Due: at(now.AddDate(0, 0, 1))},
		{Title: "undated", Priority: 1},
	}

	d := NewBuilder(Options{}).Build(now, tasks)
	assert.Equal(t, []string{"overdue", "today", "exactly now"}, titles(d.Tasks))
	assert.Equal(t, 3, d.Count)
	assert.False(t, d.InboxEnabled)
	assert.Zero(t, d.Inbox)
}

func TestBuild_SortsByEffectivePriority(t *testing.T) {
	due := at(now.Add(-time.Hour))
	tasks := []model.Task{
		{Title: "none-1", Due: due},
		{Title: "p5", Due: due, Priority: 5},
		{Title: "none-2", Due: due},
		{Title: "p1", Due: due, Priority: 1},
		{Title: "p5-later", Due: due, Priority: 5},
	}

	d := NewBuilder(Options{}).Build(now, tasks)
	assert.Equal(t, []string{"p1", "p5", "p5-later", "none-1", "none-2"}, titles(d.Tasks))
	assert.Equal(t, "none-1", tasks[0].Title, "input must not be reordered")
}

func TestBuild_Body(t *testing.T) {
	due := at(now.Add(-time.Hour))
	d := NewBuilder(Options{}).Build(now, []model.Task{
		{Title: "Call pharmacy", Due: due},
		{Title: "Pay rent", Due: due, Priority: 1},
	})
	assert.Equal(t, "‣ ! Pay rent\n‣ Call pharmacy", d.Body)
}

func TestBuild_RequirePriority(t *testing.T) {
	due := at(now.Add(-time.Hour))
	d := NewBuilder(Options{RequirePriority: true}).Build(now, []model.Task{
		{Title: "plain", Due: due},
		{Title: "urgent", Due: due, Priority: 9},
	})
	assert.Equal(t, []string{"urgent"}, titles(d.Tasks))
}

func TestBuild_InboxCount(t *testing.T) {
	d := NewBuilder(Options{InboxList: "Inbox"}).Build(now, []model.Task{
		{Title: "a", List: "Inbox"},
		{Title: "b", List: "Inbox"},
		{Title: "dated", List: "Inbox", Due: at(now.AddDate(0, 0, 3))},
		{Title: "elsewhere", List: "Work"},
	})
	require.True(t, d.InboxEnabled)
	assert.Equal(t, 2, d.Inbox)
	assert.Zero(t, d.Count)
	assert.Empty(t, d.Body)
}
