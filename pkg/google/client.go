package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/harrisonrobin/reminda/pkg/auth"
	"github.com/harrisonrobin/reminda/pkg/index"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

// Services holds the authenticated API clients.
type Services struct {
	Tasks    *tasks.Service
	Calendar *calendar.Service
}

// NewServices authenticates once and builds both API clients.
func NewServices(ctx context.Context, a *auth.Authenticator) (*Services, error) {
	client, err := a.Client(ctx, auth.Scopes)
	if err != nil {
		return nil, err
	}

	tasksSrv, err := tasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Tasks client: %w", err)
	}
	calSrv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return &Services{Tasks: tasksSrv, Calendar: calSrv}, nil
}

// Tasklists and calendars share one index file, so their keys are
// prefixed by kind.
func tasklistKey(name string) string { return "tasklist:" + name }

func calendarKey(name string) string { return "calendar:" + name }

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// CalendarID finds a calendar by its summary, consulting idx first.
func (s *Services) CalendarID(ctx context.Context, name string, idx *index.ListIndex) (string, error) {
	key := calendarKey(name)
	if idx != nil {
		if id := idx.Get(key); id != "" {
			return id, nil
		}
	}

	var calendarID string
	err := s.Calendar.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			if item.Summary == name {
				calendarID = item.Id
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	if calendarID == "" {
		return "", fmt.Errorf("calendar '%s' not found", name)
	}
	if idx != nil {
		idx.Set(key, calendarID)
	}
	return calendarID, nil
}

// CalendarScheduler returns a scheduler for the named calendar. When the
// calendar turns out to be gone, its cached ID is dropped from idx so the
// next run looks it up again.
func (s *Services) CalendarScheduler(ctx context.Context, name string, idx *index.ListIndex) (*CalendarScheduler, error) {
	id, err := s.CalendarID(ctx, name, idx)
	if err != nil {
		return nil, err
	}
	c := NewCalendarScheduler(s.Calendar, id)
	if idx != nil {
		c.forget = func() { idx.Remove(calendarKey(name)) }
	}
	return c, nil
}
