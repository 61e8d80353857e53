package taskwarrior

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Runner executes the task binary with args, feeding it stdin.
type Runner func(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error)

type Client struct {
	bin string
	run Runner
}

// NewClient returns a client for the task binary on PATH.
func NewClient() *Client {
	c := &Client{bin: "task"}
	c.run = c.exec
	return c
}

// NewClientWithRunner returns a client that sends every invocation to run.
func NewClientWithRunner(run Runner) *Client {
	return &Client{bin: "task", run: run}
}

func (c *Client) exec(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Stdin = stdin
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("taskwarrior command failed: exit code %d, %s, stderr: %s",
				exitErr.ExitCode(), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("taskwarrior command failed: %w", err)
	}
	return output, nil
}

// GetTasks exports the tasks matching filter.
func (c *Client) GetTasks(ctx context.Context, filter ...string) ([]Task, error) {
	args := append(append([]string{"rc.hooks=0"}, filter...), "export")
	output, err := c.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal(output, &tasks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
	}
	return tasks, nil
}

// Import adds or replaces tasks by UUID.
func (c *Client) Import(ctx context.Context, tasks ...Task) error {
	body, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks for import: %w", err)
	}
	_, err = c.run(ctx, bytes.NewReader(body), "rc.hooks=0", "rc.verbose=nothing", "import", "-")
	return err
}

// Delete marks the task with the given UUID deleted.
func (c *Client) Delete(ctx context.Context, uuid string) error {
	_, err := c.run(ctx, nil, "rc.hooks=0", "rc.confirmation=off", "rc.verbose=nothing", uuid, "delete")
	return err
}

// ParseTasks parses multiple JSON objects from an io.Reader, as a hook
// receives them on stdin.
func (c *Client) ParseTasks(r io.Reader) ([]Task, error) {
	var tasks []Task
	decoder := json.NewDecoder(r)
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
