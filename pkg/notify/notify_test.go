package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/harrisonrobin/reminda/pkg/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var morning = time.Date(2024, 5, 10, 9, 0, 0, 0, time.Local)

type words map[int]string

func (w words) Cardinal(n int) string { return w[n] }

var english = words{1: "one", 2: "two", 3: "three"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompose(t *testing.T) {
	tests := map[string]struct {
		digest    digest.Digest
		wantOK    bool
		wantTitle string
		wantBody  string
	}{
		"nothing to say": {
			digest: digest.Digest{InboxEnabled: true},
		},
		"inbox disabled ignores stale count": {
			digest: digest.Digest{Inbox: 4},
		},
		"one urgent": {
			digest:    digest.Digest{Count: 1, Body: "‣ Pay rent"},
			wantOK:    true,
			wantTitle: "One urgent task",
			wantBody:  "‣ Pay rent",
		},
		"several urgent": {
			digest:    digest.Digest{Count: 3, Body: "a\nb\nc"},
			wantOK:    true,
			wantTitle: "Three urgent tasks",
			wantBody:  "a\nb\nc",
		},
		"urgent plus inbox": {
			digest:    digest.Digest{Count: 1, Body: "‣ Pay rent", Inbox: 2, InboxEnabled: true},
			wantOK:    true,
			wantTitle: "One urgent task + Two inbox",
			wantBody:  "‣ Pay rent",
		},
		"inbox only": {
			digest:    digest.Digest{Inbox: 1, InboxEnabled: true},
			wantOK:    true,
			wantTitle: "One inbox task",
			wantBody:  InboxPrompt,
		},
		"inbox only plural": {
			digest:    digest.Digest{Inbox: 2, InboxEnabled: true},
			wantOK:    true,
			wantTitle: "Two inbox tasks",
			wantBody:  InboxPrompt,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := NewComposer(Options{}, english, quietLogger())
			n, ok := c.Compose(morning, tt.digest)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.Equal(t, tt.wantBody, n.Body)
			assert.Equal(t, DefaultDeepLink, n.DeepLink)
			assert.Equal(t, DefaultSound, n.Sound)
		})
	}
}

func TestCompose_BlankWordsFallBackToDigits(t *testing.T) {
	c := NewComposer(Options{}, words{}, quietLogger())
	n, ok := c.Compose(morning, digest.Digest{Count: 12})
	require.True(t, ok)
	assert.Equal(t, "12 urgent tasks", n.Title)
}

func TestComposer_Sound(t *testing.T) {
	evening := time.Date(2024, 5, 10, 17, 0, 0, 0, time.Local)
	opts := Options{TimeAwareSound: true, MorningSound: "chime", EveningSound: "alarm", EveningHour: DefaultEveningHour}

	c := NewComposer(opts, english, quietLogger())
	assert.Equal(t, "chime", c.Sound(morning))
	assert.Equal(t, "alarm", c.Sound(evening))
	assert.Equal(t, "alarm", c.Sound(evening.Add(5*time.Hour)))

	plain := NewComposer(Options{Sound: "ping"}, english, quietLogger())
	assert.Equal(t, "ping", plain.Sound(evening))
}

func TestComposer_SoundEveningFromMidnight(t *testing.T) {
	c := NewComposer(Options{TimeAwareSound: true, MorningSound: "event", EveningSound: "alarm", EveningHour: 0}, english, quietLogger())
	assert.Equal(t, "alarm", c.Sound(morning))
	assert.Equal(t, "alarm", c.Sound(time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Twenty-one", Capitalize("twenty-one"))
	assert.Equal(t, "Два", Capitalize("два"))
	assert.Equal(t, "", Capitalize("  "))
}

func TestNum2Words(t *testing.T) {
	assert.Equal(t, "one", Num2Words{}.Cardinal(1))
	assert.Equal(t, "two", Num2Words{}.Cardinal(2))
}

func TestDigits(t *testing.T) {
	c := NewComposer(Options{}, Digits{}, quietLogger())
	n, ok := c.Compose(morning, digest.Digest{Count: 1, Inbox: 2, InboxEnabled: true})
	require.True(t, ok)
	assert.Equal(t, "1 urgent task + 2 inbox", n.Title)
}

type recorder struct {
	got []Notification
	err error
}

func (r *recorder) Schedule(_ context.Context, n Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func TestNotifier_Notify(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(NewComposer(Options{}, english, quietLogger()), rec, quietLogger())

	sent, err := n.Notify(context.Background(), morning, digest.Digest{})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, rec.got)

	sent, err = n.Notify(context.Background(), morning, digest.Digest{Count: 2, Body: "a\nb"})
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.got, 1)
	assert.Equal(t, "Two urgent tasks", rec.got[0].Title)
}

func TestNotifier_SchedulerError(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	n := NewNotifier(NewComposer(Options{}, english, quietLogger()), rec, quietLogger())

	sent, err := n.Notify(context.Background(), morning, digest.Digest{Count: 1})
	assert.False(t, sent)
	assert.ErrorContains(t, err, "boom")
}

func TestCommandScheduler(t *testing.T) {
	var gotName string
	var gotArgs []string
	s := NewCommandScheduler([]string{"notify-send", "--app-name=reminda"})
	s.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}

	require.NoError(t, s.Schedule(context.Background(), Notification{Title: "One urgent task", Body: "‣ x"}))
	assert.Equal(t, "notify-send", gotName)
	assert.Equal(t, []string{"--app-name=reminda", "One urgent task", "‣ x"}, gotArgs)

	empty := NewCommandScheduler(nil)
	assert.Error(t, empty.Schedule(context.Background(), Notification{}))
}
