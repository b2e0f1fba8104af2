// Package coordinator is the background side of the autofill client. It
// owns the session and resume cache, talks to the resume service, and
// answers named commands one at a time so storage is never written
// concurrently.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/resume-autofill/internal/api"
	"github.com/jonathan/resume-autofill/internal/metrics"
	"github.com/jonathan/resume-autofill/internal/session"
	"github.com/jonathan/resume-autofill/internal/types"
)

// Service is the part of the resume service client the coordinator uses.
type Service interface {
	Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error)
	GoogleLogin(ctx context.Context, req types.GoogleLoginRequest) (*types.LoginResponse, error)
	LoadUser(ctx context.Context, token string) (json.RawMessage, error)
	ResumePDF(ctx context.Context, token string) (*types.ResumePDF, error)
	Request(ctx context.Context, method, endpoint, token string, body json.RawMessage) (*api.Response, error)
}

var _ Service = (*api.Client)(nil)

// Options configures a Coordinator.
type Options struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// ValidateResume checks fetched resume documents. Failures are logged.
	ValidateResume func([]byte) error
	// QueueSize bounds pending commands. Defaults to 16.
	QueueSize int
}

type request struct {
	ctx   context.Context
	cmd   Command
	reply chan Result
}

// Coordinator serializes command execution.
type Coordinator struct {
	service  Service
	sessions *session.Manager
	logger   *slog.Logger
	recorder metrics.Recorder
	validate func([]byte) error

	queue    chan request
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	group    singleflight.Group
	handlers map[CommandType]handler
}

type handler func(ctx context.Context, payload json.RawMessage) (any, error)

// New creates a Coordinator and starts its loop. Close stops it.
func New(service Service, sessions *session.Manager, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := opts.QueueSize
	if size <= 0 {
		size = 16
	}
	c := &Coordinator{
		service:  service,
		sessions: sessions,
		logger:   logger,
		recorder: metrics.OrNop(opts.Recorder),
		validate: opts.ValidateResume,
		queue:    make(chan request, size),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	c.handlers = map[CommandType]handler{
		CheckAuth:      c.checkAuth,
		Login:          c.login,
		GoogleLogin:    c.googleLogin,
		TokenLogin:     c.tokenLogin,
		Logout:         c.logout,
		RefreshCache:   c.refreshCache,
		GetResumeData:  c.getResumeData,
		GetResumePDF:   c.getResumePDF,
		APIRequest:     c.apiRequest,
		GetPreferences: c.getPreferences,
		SetPreference:  c.setPreference,
	}
	go c.loop()
	return c
}

// Close stops the loop. Commands dispatched afterwards fail with an
// ExtensionLifecycleError; queued ones are answered the same way.
func (c *Coordinator) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.stopped
}

func (c *Coordinator) loop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stop:
			c.drain()
			return
		case req := <-c.queue:
			req.reply <- c.execute(req.ctx, req.cmd)
		}
	}
}

func (c *Coordinator) drain() {
	for {
		select {
		case req := <-c.queue:
			req.reply <- failure(req.cmd.ID, shutdownError())
		default:
			return
		}
	}
}

func shutdownError() error {
	return &types.ExtensionLifecycleError{Message: "coordinator is shut down"}
}

// shared reports whether concurrent identical commands may share one
// execution.
func shared(t CommandType) bool {
	switch t {
	case CheckAuth, GetResumeData, RefreshCache, GetResumePDF, GetPreferences:
		return true
	}
	return false
}

// Dispatch runs cmd and returns its result. It never returns a Go error;
// failures are reported in the Result.
func (c *Coordinator) Dispatch(ctx context.Context, cmd Command) Result {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if !shared(cmd.Type) {
		return c.enqueue(ctx, cmd)
	}
	if err := ctx.Err(); err != nil {
		return failure(cmd.ID, abandoned(err))
	}

	// The flight outlives any one caller; each caller waits on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	key := string(cmd.Type) + ":" + string(cmd.Payload)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.enqueue(flightCtx, cmd), nil
	})
	select {
	case r := <-ch:
		res := r.Val.(Result)
		if r.Shared {
			c.logger.Debug("shared in-flight command", "command", cmd.Type)
		}
		res.ID = cmd.ID
		return res
	case <-ctx.Done():
		return failure(cmd.ID, abandoned(ctx.Err()))
	}
}

func abandoned(cause error) error {
	return &types.ExtensionLifecycleError{Message: "request abandoned", Cause: cause}
}

func (c *Coordinator) enqueue(ctx context.Context, cmd Command) Result {
	select {
	case <-c.stop:
		return failure(cmd.ID, shutdownError())
	default:
	}

	req := request{ctx: ctx, cmd: cmd, reply: make(chan Result, 1)}
	select {
	case c.queue <- req:
	case <-c.stop:
		return failure(cmd.ID, shutdownError())
	case <-ctx.Done():
		return failure(cmd.ID, abandoned(ctx.Err()))
	}

	select {
	case res := <-req.reply:
		return res
	case <-ctx.Done():
		return failure(cmd.ID, abandoned(ctx.Err()))
	}
}

func (c *Coordinator) execute(ctx context.Context, cmd Command) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("command panicked", "command", cmd.Type, "panic", r)
			res = failure(cmd.ID, fmt.Errorf("internal error: %v", r))
		}
		outcome := metrics.ResultSuccess
		if !res.Success {
			outcome = metrics.ResultFailure
		}
		c.recorder.RecordCommand(string(cmd.Type), outcome)
		c.logger.Debug("command done", "command", cmd.Type, "id", cmd.ID, "success", res.Success, "duration", time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return failure(cmd.ID, abandoned(err))
	}
	h, ok := c.handlers[cmd.Type]
	if !ok {
		return failure(cmd.ID, &types.ValidationError{Field: "type", Message: fmt.Sprintf("unknown command %q", cmd.Type)})
	}
	data, err := h(ctx, cmd.Payload)
	if err != nil {
		c.logger.Info("command failed", "command", cmd.Type, "kind", types.ErrorKind(err), "error", err)
		return failure(cmd.ID, err)
	}
	res = Result{ID: cmd.ID, Success: true}
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return failure(cmd.ID, fmt.Errorf("failed to encode result: %w", err))
		}
		res.Data = encoded
	}
	return res
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return &types.ValidationError{Field: "payload", Message: "is required"}
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &types.ValidationError{Field: "payload", Message: "malformed", Cause: err}
	}
	return nil
}
