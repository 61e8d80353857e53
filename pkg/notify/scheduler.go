package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/harrisonrobin/reminda/pkg/digest"
)

// Scheduler hands a notification to whatever delivers it.
type Scheduler interface {
	Schedule(ctx context.Context, n Notification) error
}

// Notifier composes and schedules at most one notification per call.
type Notifier struct {
	composer  *Composer
	scheduler Scheduler
	logger    *slog.Logger
}

func NewNotifier(c *Composer, s Scheduler, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{composer: c, scheduler: s, logger: logger}
}

// Notify schedules the digest notification. It reports whether one was
// scheduled; suppression is not an error.
func (n *Notifier) Notify(ctx context.Context, now time.Time, d digest.Digest) (bool, error) {
	note, ok := n.composer.Compose(now, d)
	if !ok {
		n.logger.Info("no urgent tasks and inbox is empty, skipping notification")
		return false, nil
	}
	if err := n.scheduler.Schedule(ctx, note); err != nil {
		return false, fmt.Errorf("schedule notification: %w", err)
	}
	n.logger.Info("notification scheduled", "title", note.Title, "sound", note.Sound)
	return true, nil
}

// LogScheduler writes notifications to a logger.
type LogScheduler struct {
	Logger *slog.Logger
}

func (s LogScheduler) Schedule(_ context.Context, n Notification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "title", n.Title, "body", n.Body, "sound", n.Sound, "open_url", n.DeepLink)
	return nil
}

// CommandScheduler runs an external notifier such as notify-send with the
// title and body appended as the last two arguments.
type CommandScheduler struct {
	Command []string
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewCommandScheduler(command []string) *CommandScheduler {
	return &CommandScheduler{Command: command, run: runCommand}
}

func (s *CommandScheduler) Schedule(ctx context.Context, n Notification) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("no notification command configured")
	}
	args := append(append([]string{}, s.Command[1:]...), n.Title, n.Body)
	out, err := s.run(ctx, s.Command[0], args...)
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", s.Command[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
