package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// controllerInterval is how often the VU count is adjusted.
const controllerInterval = 100 * time.Millisecond

// ErrAlreadyRunning is returned by Run on an executor that was already started.
var ErrAlreadyRunning = errors.New("executor already started")

// RampingVUs ramps VU count up and down according to stages.
//
// The VU count is interpolated linearly between stage targets and adjusted
// every 100ms, so a stage ramping 0 to 10 over 30s adds a VU roughly every
// three seconds rather than all at once.
//
// Example stages:
//
//	stages:
//	  - duration: 30s
//	    target: 10     # Ramp from 0 to 10 VUs over 30s
//	  - duration: 2m
//	    target: 10     # Stay at 10 VUs for 2 minutes
//	  - duration: 30s
//	    target: 0      # Ramp down to 0 VUs over 30s
//
// Each VU runs iterations back to back until it is told to stop. A stopped
// VU finishes its current iteration; iterations still running GracefulStop
// after the schedule ends are cancelled.
type RampingVUs struct {
	config  Config
	limiter *RateLimiter
	logger  *zap.Logger
	onVUs   func(n int)

	// State
	startTime    atomic.Int64
	activeVUs    atomic.Int32
	targetVUs    atomic.Int32
	iterations   atomic.Int64
	currentStage atomic.Int32
	phase        atomic.Value
	started      atomic.Bool
	running      atomic.Bool

	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc

	wg sync.WaitGroup

	// VU tracking
	vus   []*vu
	vusMu sync.Mutex
}

type vu struct {
	id   int
	stop chan struct{}
	once sync.Once
}

func (v *vu) requestStop() {
	v.once.Do(func() { close(v.stop) })
}

// Option configures a RampingVUs.
type Option func(*RampingVUs)

// WithVUObserver is called with the VU count whenever it changes.
func WithVUObserver(fn func(n int)) Option {
	return func(e *RampingVUs) {
		e.onVUs = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *RampingVUs) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewRampingVUs creates a new ramping VUs executor.
func NewRampingVUs(config Config, opts ...Option) (*RampingVUs, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.GracefulStop == 0 {
		config.GracefulStop = DefaultGracefulStop
	}

	e := &RampingVUs{
		config:  config,
		limiter: NewRateLimiter(config.MaxRPS),
		logger:  zap.NewNop(),
	}
	e.phase.Store(PhaseInit)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the schedule, calling iterate from every VU, and blocks until
// every VU has returned. Cancelling ctx ends the schedule early and cancels
// in-flight iterations.
func (e *RampingVUs) Run(ctx context.Context, iterate IterationFunc) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	e.running.Store(true)
	defer e.running.Store(false)

	start := time.Now()
	e.startTime.Store(start.UnixNano())

	// Iterations outlive the schedule by up to GracefulStop.
	iterCtx, cancelIterations := context.WithCancel(ctx)
	defer cancelIterations()

	schedCtx, cancel := context.WithTimeout(ctx, e.config.TotalDuration())
	e.cancelMu.Lock()
	e.cancelFunc = cancel
	e.cancelMu.Unlock()
	defer cancel()

	e.logger.Info("starting schedule",
		zap.Int("stages", len(e.config.Stages)),
		zap.Duration("duration", e.config.TotalDuration()),
		zap.Float64("max_rps", e.config.MaxRPS),
	)

	e.adjust(schedCtx, iterCtx, start, iterate)
	controllerDone := make(chan struct{})
	go func() {
		e.vuController(schedCtx, iterCtx, start, iterate)
		close(controllerDone)
	}()

	<-schedCtx.Done()
	<-controllerDone

	e.gracefulShutdown(cancelIterations)
	e.phase.Store(PhaseDone)

	e.logger.Info("schedule finished",
		zap.Int64("iterations", e.iterations.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (e *RampingVUs) vuController(schedCtx, iterCtx context.Context, start time.Time, iterate IterationFunc) {
	ticker := time.NewTicker(controllerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-schedCtx.Done():
			return
		case <-ticker.C:
			e.adjust(schedCtx, iterCtx, start, iterate)
		}
	}
}

func (e *RampingVUs) adjust(schedCtx, iterCtx context.Context, start time.Time, iterate IterationFunc) {
	target, stage := TargetAt(e.config.Stages, time.Since(start))
	e.targetVUs.Store(int32(target))
	e.currentStage.Store(int32(stage))
	e.phase.Store(PhaseAt(e.config.Stages, stage))
	e.adjustVUs(schedCtx, iterCtx, target, iterate)
}

// adjustVUs adjusts the VU count to match the target.
func (e *RampingVUs) adjustVUs(schedCtx, iterCtx context.Context, target int, iterate IterationFunc) {
	e.vusMu.Lock()
	defer e.vusMu.Unlock()

	if schedCtx.Err() != nil {
		return
	}

	current := len(e.vus)
	if target == current {
		return
	}

	if target > current {
		for i := current; i < target; i++ {
			v := &vu{id: i + 1, stop: make(chan struct{})}
			e.vus = append(e.vus, v)
			e.wg.Add(1)
			go e.runVU(schedCtx, iterCtx, v, iterate)
		}
	} else {
		// Stop excess VUs (from the end)
		for i := current - 1; i >= target; i-- {
			e.vus[i].requestStop()
		}
		e.vus = e.vus[:target]
	}

	if e.onVUs != nil {
		e.onVUs(target)
	}
}

// runVU runs iterations until the VU is stopped or the schedule ends.
func (e *RampingVUs) runVU(schedCtx, iterCtx context.Context, v *vu, iterate IterationFunc) {
	defer e.wg.Done()

	e.activeVUs.Add(1)
	defer e.activeVUs.Add(-1)

	for {
		select {
		case <-schedCtx.Done():
			return
		case <-v.stop:
			return
		default:
		}

		if err := e.limiter.Wait(schedCtx); err != nil {
			return
		}

		iterate(iterCtx)
		e.iterations.Add(1)
	}
}

// gracefulShutdown stops every VU and waits for in-flight iterations. After
// GracefulStop they are cancelled and waited for again.
func (e *RampingVUs) gracefulShutdown(cancelIterations context.CancelFunc) {
	e.vusMu.Lock()
	for _, v := range e.vus {
		v.requestStop()
	}
	e.vus = nil
	e.vusMu.Unlock()

	if e.onVUs != nil {
		e.onVUs(0)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(e.config.GracefulStop)
	defer timer.Stop()

	select {
	case <-done:
		return
	case <-timer.C:
	}

	e.logger.Warn("graceful stop expired, interrupting iterations",
		zap.Duration("graceful_stop", e.config.GracefulStop),
		zap.Int32("vus", e.activeVUs.Load()),
	)
	cancelIterations()
	<-done
}

// Stop ends the schedule early. Run still waits for in-flight iterations.
func (e *RampingVUs) Stop() {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	if e.cancelFunc != nil {
		e.cancelFunc()
	}
}

// Progress returns current progress (0.0 to 1.0).
func (e *RampingVUs) Progress() float64 {
	startNanos := e.startTime.Load()
	if startNanos == 0 {
		return 0.0
	}
	if !e.running.Load() {
		return 1.0
	}

	total := e.config.TotalDuration()
	elapsed := time.Since(time.Unix(0, startNanos))
	progress := float64(elapsed) / float64(total)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// ActiveVUs returns the number of VU goroutines still running.
func (e *RampingVUs) ActiveVUs() int {
	return int(e.activeVUs.Load())
}

// Stats returns executor statistics.
func (e *RampingVUs) Stats() Stats {
	var start time.Time
	var elapsed time.Duration
	if nanos := e.startTime.Load(); nanos != 0 {
		start = time.Unix(0, nanos)
		elapsed = time.Since(start)
	}

	stageIdx := int(e.currentStage.Load())
	stageName := ""
	if stageIdx < len(e.config.Stages) {
		stageName = e.config.Stages[stageIdx].Name
	}

	return Stats{
		StartTime:        start,
		Elapsed:          elapsed,
		TotalDuration:    e.config.TotalDuration(),
		ActiveVUs:        int(e.activeVUs.Load()),
		TargetVUs:        int(e.targetVUs.Load()),
		Iterations:       e.iterations.Load(),
		CurrentStage:     stageIdx,
		CurrentStageName: stageName,
		TotalStages:      len(e.config.Stages),
		Phase:            e.phase.Load().(Phase),
	}
}
