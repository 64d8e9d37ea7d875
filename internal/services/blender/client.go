package blender

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"mcexport/internal/services"
)

const stageName = "render"

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithExtraArgs appends arguments after the driver script on render runs.
func WithExtraArgs(args []string) Option {
	return func(c *Client) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// Client wraps headless Blender invocations.
type Client struct {
	binary        string
	renderTimeout time.Duration
	extraArgs     []string
	exec          Executor
}

// New constructs a Blender client. A zero timeout means renders are bounded
// only by the caller's context.
func New(binary string, renderTimeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("blender binary required")
	}
	client := &Client{
		binary:        binary,
		renderTimeout: time.Duration(renderTimeoutSeconds) * time.Second,
		exec:          commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.binary
}

// Result summarizes one Blender run. It is populated even when the run fails.
type Result struct {
	Args           []string
	Stdout         string
	Stderr         string
	ExitCode       int
	LastFrame      int
	AppendedFrames int
	SavedFiles     int
	ScenesRendered []string
	ScenesMissing  []string
	Errors         []string
	LastFrameTime  time.Duration
	Quit           bool
	Duration       time.Duration
}

// Render runs `<binary> -b <blend> --python <script> [extra args]`.
func (c *Client) Render(ctx context.Context, blendFile, scriptPath string, progress func(Event)) (*Result, error) {
	if strings.TrimSpace(blendFile) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "blender", "blend file required", nil)
	}
	if strings.TrimSpace(scriptPath) == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "blender", "driver script required", nil)
	}

	runCtx := ctx
	if c.renderTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.renderTimeout)
		defer cancel()
	}

	args := []string{"-b", blendFile, "--python", scriptPath}
	args = append(args, c.extraArgs...)
	result, err := c.run(runCtx, args, progress)
	if err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrTimeout, stageName, "blender",
				fmt.Sprintf("render exceeded %s", c.renderTimeout), err)
		}
		return result, err
	}
	return result, nil
}

// RunScript runs a script against factory settings so user add-ons and
// preferences cannot influence the outcome. Arguments after "--" are passed
// to the script through sys.argv.
func (c *Client) RunScript(ctx context.Context, scriptPath string, scriptArgs ...string) (*Result, error) {
	if strings.TrimSpace(scriptPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "verify", "blender", "script required", nil)
	}
	args := []string{"-b", "--factory-startup", "--python", scriptPath}
	if len(scriptArgs) > 0 {
		args = append(args, "--")
		args = append(args, scriptArgs...)
	}
	return c.run(ctx, args, nil)
}

// Version returns the Blender version string, e.g. "4.2.1".
func (c *Client) Version(ctx context.Context) (string, error) {
	result, err := c.run(ctx, []string{"--version"}, nil)
	if err != nil {
		return "", err
	}
	version, ok := ParseVersion(result.Stdout)
	if !ok {
		return "", services.Wrap(services.ErrExternalTool, "deps", "blender", "unrecognised --version output", nil)
	}
	return version, nil
}

func (c *Client) run(ctx context.Context, args []string, progress func(Event)) (*Result, error) {
	result := &Result{Args: append([]string(nil), args...)}
	stdout := newTailBuffer(maxCapturedBytes)
	stderr := newTailBuffer(maxCapturedBytes)
	started := time.Now()

	runErr := c.exec.Run(ctx, c.binary, args, func(stream Stream, line string) {
		if stream == Stderr {
			stderr.WriteLine(line)
		} else {
			stdout.WriteLine(line)
		}
		event, ok := ParseLine(line)
		if !ok {
			return
		}
		result.apply(event)
		if progress != nil {
			progress(event)
		}
	})

	result.Duration = time.Since(started)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		msg := fmt.Sprintf("blender exited with status %d", result.ExitCode)
		if len(result.Errors) > 0 {
			msg += ": " + result.Errors[len(result.Errors)-1]
		}
		return result, services.Wrap(services.ErrExternalTool, stageName, "blender", msg, runErr)
	case errors.Is(runErr, exec.ErrNotFound), errors.Is(runErr, fs.ErrNotExist):
		result.ExitCode = -1
		return result, services.Wrap(services.ErrConfiguration, stageName, "blender",
			fmt.Sprintf("binary %q not found", c.binary), runErr)
	default:
		result.ExitCode = -1
		return result, services.Wrap(services.ErrExternalTool, stageName, "blender", "run failed", runErr)
	}
}

func (r *Result) apply(event Event) {
	switch event.Kind {
	case EventFrame:
		r.LastFrame = event.Frame
	case EventAppend:
		r.AppendedFrames++
		r.LastFrame = event.Frame
	case EventSaved:
		r.SavedFiles++
	case EventTime:
		r.LastFrameTime = event.Elapsed
	case EventSceneDone:
		r.ScenesRendered = append(r.ScenesRendered, event.Scene)
	case EventSceneMissing:
		r.ScenesMissing = append(r.ScenesMissing, event.Scene)
	case EventError:
		r.Errors = append(r.Errors, event.Line)
	case EventQuit:
		r.Quit = true
	}
}

// Contains reports whether the captured stdout holds marker on its own line.
func (r *Result) Contains(marker string) bool {
	if r == nil {
		return false
	}
	for _, line := range strings.Split(r.Stdout, "\n") {
		if strings.TrimSpace(line) == marker {
			return true
		}
	}
	return false
}
