package scenario

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andro-kes/prload/internal/metrics"
)

// Check names recorded for every iteration.
const (
	CheckCreated      = "PR created successfully"
	CheckResponseTime = "Response time under 1s"
)

const responseTimeLimit = time.Second

// Pacing is the uniform random sleep between iterations of one VU.
type Pacing struct {
	Min time.Duration
	Max time.Duration
}

// DefaultPacing sleeps between 1s and 3s.
var DefaultPacing = Pacing{Min: time.Second, Max: 3 * time.Second}

// Next returns a duration in [Min, Max), or Min when the range is empty.
func (p Pacing) Next(rng *Rand) time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rng.Int63n(int64(p.Max-p.Min)))
}

// Driver runs iterations and records their outcome. It is safe for use by
// any number of VUs at once.
type Driver struct {
	runner   Runner
	sink     metrics.Sink
	recorder metrics.Recorder
	pacing   Pacing
	rng      *Rand
	logger   *zap.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithRecorder also records the built-in per-request metrics and checks.
func WithRecorder(r metrics.Recorder) DriverOption {
	return func(d *Driver) {
		d.recorder = r
	}
}

// WithPacing overrides DefaultPacing.
func WithPacing(p Pacing) DriverOption {
	return func(d *Driver) {
		d.pacing = p
	}
}

// WithPacingRand sets the source used for pacing.
func WithPacingRand(rng *Rand) DriverOption {
	return func(d *Driver) {
		if rng != nil {
			d.rng = rng
		}
	}
}

// WithLogger sets the logger; results are logged at debug level.
func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver creates a driver recording into sink.
func NewDriver(runner Runner, sink metrics.Sink, opts ...DriverOption) *Driver {
	d := &Driver{
		runner: runner,
		sink:   sink,
		pacing: DefaultPacing,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rng == nil {
		d.rng = NewTimeSeededRand()
	}
	return d
}

// Iterate runs one iteration and records exactly one duration, one success
// sample and one of created or errors.
func (d *Driver) Iterate(ctx context.Context) Result {
	start := time.Now()
	res := d.runner.RunIteration(ctx)
	res.Elapsed = time.Since(start)

	d.sink.AddDuration(res.Elapsed)
	d.sink.AddSuccess(res.Success())
	if res.Success() {
		d.sink.AddCreated()
	} else {
		d.sink.AddError()
	}

	if d.recorder != nil {
		d.recorder.RecordHTTP(res.HTTPDuration, res.RequestFailed())
		d.recorder.Check(CheckCreated, res.Success())
		d.recorder.Check(CheckResponseTime, res.Err == nil && res.HTTPDuration < responseTimeLimit)
	}

	d.log(res)
	return res
}

// Pause sleeps the pacing interval. It returns false if ctx ended first.
func (d *Driver) Pause(ctx context.Context) bool {
	wait := d.pacing.Next(d.rng)
	if wait <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run is one full VU iteration: Iterate, then Pause, recorded as one
// iteration of the run.
func (d *Driver) Run(ctx context.Context) {
	start := time.Now()
	d.Iterate(ctx)
	d.Pause(ctx)
	if d.recorder != nil {
		d.recorder.RecordIteration(time.Since(start))
	}
}

func (d *Driver) log(res Result) {
	if ce := d.logger.Check(zap.DebugLevel, "iteration finished"); ce != nil {
		fields := []zap.Field{
			zap.String("outcome", res.Outcome.String()),
			zap.String("author", res.Actor.UserID),
			zap.String("pull_request_id", res.Request.PullRequestID),
			zap.Int("status", res.StatusCode),
			zap.Duration("elapsed", res.Elapsed),
		}
		switch {
		case res.Err != nil:
			fields = append(fields, zap.Error(res.Err))
		case res.Outcome == OutcomeFailed:
			fields = append(fields, zap.String("body", res.Body))
		}
		ce.Write(fields...)
	}
}
