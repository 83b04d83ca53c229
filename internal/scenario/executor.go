package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	prhttp "github.com/andro-kes/prload/internal/http"
)

// CreatePath is the pull-request creation endpoint.
const CreatePath = "/pullRequest/create/"

// ErrEmptyRoster is returned when an executor is built without actors.
var ErrEmptyRoster = errors.New("roster must contain at least one actor")

// Runner runs one iteration and reports what happened.
type Runner interface {
	RunIteration(ctx context.Context) Result
}

// Executor creates one pull request per iteration. It only returns data;
// recording is the Driver's job.
type Executor struct {
	client  *prhttp.Client
	roster  Roster
	rng     *Rand
	ids     IDGenerator
	timeout time.Duration
	now     func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRand sets the source used to pick actors.
func WithRand(rng *Rand) ExecutorOption {
	return func(e *Executor) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithIDGenerator overrides the pull_request_id strategy.
func WithIDGenerator(ids IDGenerator) ExecutorOption {
	return func(e *Executor) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// WithTimeout bounds a single call. Zero keeps the 10s default.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExecutor creates an executor posting through client.
func NewExecutor(client *prhttp.Client, roster Roster, opts ...ExecutorOption) (*Executor, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	e := &Executor{
		client:  client,
		roster:  append(Roster(nil), roster...),
		timeout: prhttp.DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewTimeSeededRand()
	}
	if e.ids == nil {
		e.ids = TimestampIDs(e.rng)
	}

	return e, nil
}

// Roster returns the actors the executor picks from.
func (e *Executor) Roster() Roster {
	return e.roster
}

// RunIteration posts one pull request. A timeout or transport failure is an
// OutcomeFailed result, never a returned error.
func (e *Executor) RunIteration(ctx context.Context) Result {
	actor := e.roster.Pick(e.rng)
	req := NewRequest(actor, e.now(), e.ids)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result := Result{Actor: actor, Request: req}

	resp, err := e.client.PostJSON(ctx, CreatePath, req)
	if err != nil {
		var transportErr *prhttp.TransportError
		if errors.As(err, &transportErr) {
			result.HTTPDuration = transportErr.Timing.TotalTime
		}
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("create pull request %s: %w", req.PullRequestID, err)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Body = resp.BodyString()
	result.HTTPDuration = resp.Timing.TotalTime
	result.Outcome = Classify(resp.StatusCode)
	return result
}
