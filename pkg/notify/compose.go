// Package notify turns a digest into a local notification.
package notify

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/harrisonrobin/reminda/pkg/digest"
)

const (
	DefaultDeepLink    = "x-apple-reminderkit://"
	DefaultSound       = "event"
	DefaultEveningHour = 17

	InboxPrompt = "Please organize the inbox"
)

// Notification is what gets handed to a Scheduler.
type Notification struct {
	Title    string
	Body     string
	Sound    string
	DeepLink string
}

// Options controls how notifications are composed.
type Options struct {
	DeepLink string
	Sound    string
	// TimeAwareSound picks MorningSound before EveningHour and
	// EveningSound from then on, instead of Sound. An EveningHour of 0
	// means the evening sound all day.
	TimeAwareSound bool
	MorningSound   string
	EveningSound   string
	EveningHour    int
}

// Composer builds notification content.
type Composer struct {
	opts    Options
	speller Speller
	logger  *slog.Logger
}

func NewComposer(opts Options, speller Speller, logger *slog.Logger) *Composer {
	if opts.DeepLink == "" {
		opts.DeepLink = DefaultDeepLink
	}
	if opts.Sound == "" {
		opts.Sound = DefaultSound
	}
	if speller == nil {
		speller = Num2Words{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{opts: opts, speller: speller, logger: logger}
}

// Compose returns the notification for d, or false when there is nothing
// worth announcing.
func (c *Composer) Compose(now time.Time, d digest.Digest) (Notification, bool) {
	inbox := 0
	if d.InboxEnabled {
		inbox = d.Inbox
	}
	if d.Count == 0 && inbox == 0 {
		return Notification{}, false
	}

	n := Notification{Sound: c.Sound(now), DeepLink: c.opts.DeepLink}
	if d.Count != 0 {
		n.Title = c.words(d.Count) + " urgent " + plural(d.Count, "task")
		n.Body = d.Body
		if inbox != 0 {
			n.Title += " + " + c.words(inbox) + " inbox"
		}
	} else {
		n.Title = c.words(inbox) + " inbox " + plural(inbox, "task")
		n.Body = InboxPrompt
	}
	return n, true
}

// Sound returns the sound to use at now.
func (c *Composer) Sound(now time.Time) string {
	if !c.opts.TimeAwareSound {
		return c.opts.Sound
	}
	if now.Hour() < c.opts.EveningHour {
		if c.opts.MorningSound != "" {
			return c.opts.MorningSound
		}
		return c.opts.Sound
	}
	if c.opts.EveningSound != "" {
		return c.opts.EveningSound
	}
	return c.opts.Sound
}

func (c *Composer) words(n int) string {
	w := Capitalize(c.speller.Cardinal(n))
	if w == "" {
		c.logger.Warn("number speller returned nothing, using digits", "n", n)
		return strconv.Itoa(n)
	}
	return w
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func (n Notification) String() string {
	return fmt.Sprintf("%s\n%s", n.Title, n.Body)
}
