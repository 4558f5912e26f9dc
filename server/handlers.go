package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/execkit/config"
	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/resilience"
	"github.com/kbukum/execkit/version"
)

// StatusRunning marks an execution without an outcome yet.
const StatusRunning = "running"

// ExecutionView is the JSON form of a tracked execution.
type ExecutionView struct {
	ID               string            `json:"id"`
	Argv             []string          `json:"argv"`
	Pid              int               `json:"pid"`
	Status           string            `json:"status"`
	ExitCode         *int              `json:"exit_code,omitempty"`
	KilledByWatchdog bool              `json:"killed_by_watchdog"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         string            `json:"duration,omitempty"`
	Stdout           string            `json:"stdout"`
	Stderr           string            `json:"stderr"`
	Error            *errors.ErrorBody `json:"error,omitempty"`
}

func viewOf(e *entry) ExecutionView {
	x := e.execution
	v := ExecutionView{
		ID:        x.ID(),
		Argv:      x.Argv(),
		Pid:       x.Pid(),
		Status:    StatusRunning,
		StartedAt: x.StartedAt(),
		Stdout:    e.stdout.String(),
		Stderr:    e.stderr.String(),
	}
	o, done := x.Result().Outcome()
	if !done {
		return v
	}
	code := o.ExitCode
	v.ExitCode = &code
	v.KilledByWatchdog = o.KilledByWatchdog
	v.Duration = x.Duration().String()
	v.Status = observability.StatusOf(o.Err)
	if o.Err != nil {
		body := errors.Wrap(o.Err).ToResponse().Error
		v.Error = &body
	}
	return v
}

func notFoundRoute(path string) error {
	return errors.NotFound("route", path)
}

func (s *Server) createExecution(c *gin.Context) {
	if s.submissions != nil && !s.submissions.Allow() {
		retry := s.submissions.RetryAfter()
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
		RespondWithError(c, errors.RateLimited(retry))
		return
	}

	var req ExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		RespondWithError(c, err)
		return
	}
	line, err := req.Line()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if err := s.registry.reserve(); err != nil {
		RespondWithError(c, err)
		return
	}
	release, err := s.running.Acquire(c.Request.Context())
	if err != nil {
		RespondWithError(c, errors.Unavailable("too many running executions").
			WithCause(err).
			WithDetail("max_running", s.running.MaxConcurrent()))
		return
	}

	e := &entry{stdout: &syncBuffer{}, stderr: &syncBuffer{}}
	opts := append(process.FromConfig(s.executorCfg), process.WithLogger(s.baseLog.WithComponent("executor")))
	opts = append(opts, s.execOpts...)
	opts = append(opts, req.Options()...)
	opts = append(opts, process.WithStreams(nil, e.stdout, e.stderr))

	// Async executions outlive the request; sync ones die with it.
	ctx := c.Request.Context()
	if req.Async {
		ctx = context.WithoutCancel(ctx)
	}
	x, err := process.New(opts...).Start(ctx, line)
	if err != nil {
		release()
		RespondWithError(c, err)
		return
	}
	go func() {
		<-x.Done()
		release()
	}()
	e.execution = x
	s.registry.add(e)

	if req.Async {
		RespondAccepted(c, viewOf(e))
		return
	}

	<-x.Done()
	v := viewOf(e)
	if o, _ := x.Result().Outcome(); o.Err != nil {
		respondWithErrorDetails(c, o.Err, map[string]any{
			"execution_id": v.ID,
			"stdout":       v.Stdout,
			"stderr":       v.Stderr,
		})
		return
	}
	RespondOK(c, v)
}

func (s *Server) getExecution(c *gin.Context) {
	e, err := s.registry.get(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	wait, err := s.waitParam(c)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-e.execution.Done():
		case <-timer.C:
		case <-c.Request.Context().Done():
		}
		timer.Stop()
	}

	if e.execution.Result().HasResult() {
		RespondOK(c, viewOf(e))
		return
	}
	RespondAccepted(c, viewOf(e))
}

// waitParam parses ?wait= and caps it at the configured maximum.
func (s *Server) waitParam(c *gin.Context) (time.Duration, error) {
	raw := c.Query("wait")
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.InvalidInput("wait", "must be a non-negative duration such as 2s")
	}
	if s.cfg.MaxWait > 0 && d > s.cfg.MaxWait {
		d = s.cfg.MaxWait
	}
	return d, nil
}

func (s *Server) deleteExecution(c *gin.Context) {
	e, err := s.registry.get(c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	if e.execution.Result().HasResult() {
		RespondOK(c, viewOf(e))
		return
	}
	if err := e.execution.Terminate(); err != nil {
		RespondWithError(c, errors.Internal(err))
		return
	}
	RespondAccepted(c, viewOf(e))
}

// runningHealth reports the running-process bulkhead.
type runningHealth struct {
	bulkhead *resilience.Bulkhead
}

func (h runningHealth) CheckHealth(_ context.Context) observability.Health {
	health := observability.Health{
		Name:   "running",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"in_use": strconv.Itoa(h.bulkhead.InUse()),
			"max":    strconv.Itoa(h.bulkhead.MaxConcurrent()),
		},
	}
	if h.bulkhead.Available() == 0 {
		health.Status = observability.HealthStatusDegraded
		health.Message = "all process slots in use"
	}
	return health
}

func (s *Server) health(c *gin.Context) {
	sh := observability.CheckAll(c.Request.Context(), config.ServiceName, version.Get().Short(),
		s.registry, runningHealth{bulkhead: s.running})
	status := http.StatusOK
	if !sh.IsUp() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

func (s *Server) versionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
