// Package digest builds the daily summary of tasks due today or earlier.
package digest

import (
	"sort"
	"strings"
	"time"

	"github.com/harrisonrobin/reminda/pkg/model"
)

const (
	Bullet        = "‣"
	UrgencyMarker = "!"
)

// Options toggles the digest variants.
type Options struct {
	// InboxList names the list whose undated tasks are counted as inbox.
	// Empty disables the inbox count.
	InboxList string
	// RequirePriority drops due tasks that carry no priority.
	RequirePriority bool
}

// Digest is the outcome of one build.
type Digest struct {
	Tasks        []model.Task // matched tasks, in output order
	Body         string
	Count        int
	Inbox        int
	InboxEnabled bool
}

// Builder selects and formats the urgent tasks.
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build selects tasks due at or before now, ordered by priority with
// unprioritized tasks last. tasks is not modified.
func (b *Builder) Build(now time.Time, tasks []model.Task) Digest {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Effective() < sorted[j].Priority.Effective()
	})

	d := Digest{InboxEnabled: b.opts.InboxList != ""}
	lines := make([]string, 0, len(sorted))
	for _, t := range sorted {
		if !t.DueBy(now) {
			continue
		}
		if b.opts.RequirePriority && !t.Priority.IsSet() {
			continue
		}
		d.Tasks = append(d.Tasks, t)
		lines = append(lines, FormatLine(t))
	}
	d.Body = strings.Join(lines, "\n")
	d.Count = len(lines)

	if d.InboxEnabled {
		d.Inbox = InboxCount(tasks, b.opts.InboxList)
	}
	return d
}

// FormatLine renders one bulleted digest line.
func FormatLine(t model.Task) string {
	if t.Priority.IsSet() {
		return Bullet + " " + UrgencyMarker + " " + t.Title
	}
	return Bullet + " " + t.Title
}

// InboxCount counts undated tasks owned by the named list.
func InboxCount(tasks []model.Task, list string) int {
	n := 0
	for _, t := range tasks {
		if t.Due == nil && t.List == list {
			n++
		}
	}
	return n
}
