package google

import (
	"context"
	"fmt"
	"time"

	"github.com/harrisonrobin/reminda/pkg/notify"
	"google.golang.org/api/calendar/v3"
)

var _ notify.Scheduler = (*CalendarScheduler)(nil)

const notificationDuration = 15 * time.Minute

// CalendarScheduler delivers a notification as a short event that pops up
// immediately.
type CalendarScheduler struct {
	srv        *calendar.Service
	calendarID string
	forget     func()
	now        func() time.Time
}

func NewCalendarScheduler(srv *calendar.Service, calendarID string) *CalendarScheduler {
	return &CalendarScheduler{srv: srv, calendarID: calendarID, now: time.Now}
}

func (c *CalendarScheduler) Schedule(ctx context.Context, n notify.Notification) error {
	event := notificationEvent(n, c.now())
	if _, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do(); err != nil {
		if isNotFound(err) && c.forget != nil {
			c.forget()
		}
		return fmt.Errorf("unable to insert notification event: %w", err)
	}
	return nil
}

func notificationEvent(n notify.Notification, start time.Time) *calendar.Event {
	description := n.Body
	if n.DeepLink != "" {
		description += "\n\n" + n.DeepLink
	}
	return &calendar.Event{
		Summary:     n.Title,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: start.Add(notificationDuration).UTC().Format(time.RFC3339),
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 0, ForceSendFields: []string{"Minutes"}},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				"reminda_sound":    n.Sound,
				"reminda_open_url": n.DeepLink,
			},
		},
	}
}
