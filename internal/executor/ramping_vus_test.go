package executor_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andro-kes/prload/internal/executor"
)

func TestTargetAt(t *testing.T) {
	stages := []executor.Stage{
		{Duration: 30 * time.Second, Target: 5},
		{Duration: time.Minute, Target: 10},
		{Duration: 2 * time.Minute, Target: 15},
		{Duration: 30 * time.Second, Target: 0},
	}

	tests := []struct {
		elapsed    time.Duration
		wantTarget int
		wantStage  int
	}{
		{0, 0, 0},
		{-time.Second, 0, 0},
		{15 * time.Second, 3, 0}, // 2.5 rounds up
		{30 * time.Second, 5, 1},
		{60 * time.Second, 8, 1}, // 7.5 rounds up
		{90 * time.Second, 10, 2},
		{150 * time.Second, 13, 2}, // 12.5 rounds up
		{210 * time.Second, 15, 3},
		{225 * time.Second, 8, 3}, // 7.5 rounds up
		{240 * time.Second, 0, 3},
		{time.Hour, 0, 3},
	}

	for _, tt := range tests {
		target, stage := executor.TargetAt(stages, tt.elapsed)
		if target != tt.wantTarget || stage != tt.wantStage {
			t.Errorf("TargetAt(%v) = (%d, %d), want (%d, %d)", tt.elapsed, target, stage, tt.wantTarget, tt.wantStage)
		}
	}

	if target, stage := executor.TargetAt(nil, time.Second); target != 0 || stage != 0 {
		t.Errorf("TargetAt(nil) = (%d, %d), want (0, 0)", target, stage)
	}
}

func TestPhaseAt(t *testing.T) {
	stages := []executor.Stage{
		{Duration: time.Second, Target: 5},
		{Duration: time.Second, Target: 5},
		{Duration: time.Second, Target: 0},
	}

	want := []executor.Phase{executor.PhaseRampUp, executor.PhaseSteady, executor.PhaseRampDown}
	for i, w := range want {
		if got := executor.PhaseAt(stages, i); got != w {
			t.Errorf("PhaseAt(%d) = %v, want %v", i, got, w)
		}
	}
	if got := executor.PhaseAt(stages, 3); got != executor.PhaseDone {
		t.Errorf("PhaseAt(3) = %v, want %v", got, executor.PhaseDone)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  executor.Config
		wantErr bool
	}{
		{"valid", executor.Config{Stages: []executor.Stage{{Duration: time.Second, Target: 1}}}, false},
		{"no stages", executor.Config{}, true},
		{"zero duration", executor.Config{Stages: []executor.Stage{{Target: 1}}}, true},
		{"negative target", executor.Config{Stages: []executor.Stage{{Duration: time.Second, Target: -1}}}, true},
		{"negative rps", executor.Config{Stages: []executor.Stage{{Duration: time.Second}}, MaxRPS: -1}, true},
		{"negative graceful stop", executor.Config{Stages: []executor.Stage{{Duration: time.Second}}, GracefulStop: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var verr *executor.ValidationError
			if err != nil && !errors.As(err, &verr) {
				t.Errorf("Validate() error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestRampingVUs_Run(t *testing.T) {
	cfg := executor.Config{
		Stages: []executor.Stage{
			{Duration: 300 * time.Millisecond, Target: 4},
			{Duration: 300 * time.Millisecond, Target: 4},
			{Duration: 200 * time.Millisecond, Target: 0},
		},
		GracefulStop: time.Second,
	}

	var mu sync.Mutex
	var observed []int
	e, err := executor.NewRampingVUs(cfg, executor.WithVUObserver(func(n int) {
		mu.Lock()
		observed = append(observed, n)
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("NewRampingVUs() error = %v", err)
	}

	var calls, concurrent, maxConcurrent atomic.Int64
	iterate := func(ctx context.Context) {
		calls.Add(1)
		n := concurrent.Add(1)
		for {
			m := maxConcurrent.Load()
			if n <= m || maxConcurrent.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		concurrent.Add(-1)
	}

	start := time.Now()
	if err := e.Run(context.Background(), iterate); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 800*time.Millisecond {
		t.Errorf("Run() returned after %v, want at least the schedule length", elapsed)
	}
	if calls.Load() == 0 {
		t.Fatal("no iterations were run")
	}
	if got := e.Stats().Iterations; got != calls.Load() {
		t.Errorf("Stats().Iterations = %d, want %d", got, calls.Load())
	}
	if maxConcurrent.Load() > 4 {
		t.Errorf("max concurrent iterations = %d, want <= 4", maxConcurrent.Load())
	}
	if e.ActiveVUs() != 0 {
		t.Errorf("ActiveVUs() = %d after Run, want 0", e.ActiveVUs())
	}
	if e.Progress() != 1.0 {
		t.Errorf("Progress() = %v after Run, want 1", e.Progress())
	}
	if e.Stats().Phase != executor.PhaseDone {
		t.Errorf("Stats().Phase = %v, want %v", e.Stats().Phase, executor.PhaseDone)
	}

	mu.Lock()
	defer mu.Unlock()
	peak := 0
	for _, n := range observed {
		if n > peak {
			peak = n
		}
	}
	if peak != 4 {
		t.Errorf("peak observed VUs = %d, want 4", peak)
	}
	if observed[len(observed)-1] != 0 {
		t.Errorf("last observed VUs = %d, want 0", observed[len(observed)-1])
	}

	if err := e.Run(context.Background(), iterate); !errors.Is(err, executor.ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRampingVUs_GracefulStopInterruptsIterations(t *testing.T) {
	cfg := executor.Config{
		Stages:       []executor.Stage{{Duration: 200 * time.Millisecond, Target: 2}},
		GracefulStop: 100 * time.Millisecond,
	}
	e, err := executor.NewRampingVUs(cfg)
	if err != nil {
		t.Fatalf("NewRampingVUs() error = %v", err)
	}

	var interrupted atomic.Int64
	iterate := func(ctx context.Context) {
		<-ctx.Done()
		interrupted.Add(1)
	}

	done := make(chan struct{})
	go func() {
		e.Run(context.Background(), iterate)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after graceful stop expired")
	}

	if interrupted.Load() == 0 {
		t.Error("expected blocked iterations to be cancelled")
	}
}

func TestRampingVUs_IterationsOutliveSchedule(t *testing.T) {
	cfg := executor.Config{
		Stages:       []executor.Stage{{Duration: 150 * time.Millisecond, Target: 1}},
		GracefulStop: 2 * time.Second,
	}
	e, err := executor.NewRampingVUs(cfg)
	if err != nil {
		t.Fatalf("NewRampingVUs() error = %v", err)
	}

	var completed, cancelled atomic.Int64
	iterate := func(ctx context.Context) {
		select {
		case <-time.After(300 * time.Millisecond):
			completed.Add(1)
		case <-ctx.Done():
			cancelled.Add(1)
		}
	}

	if err := e.Run(context.Background(), iterate); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if completed.Load() == 0 {
		t.Error("in-flight iteration should complete within the graceful stop")
	}
	if cancelled.Load() != 0 {
		t.Errorf("cancelled = %d, want 0", cancelled.Load())
	}
}

func TestRampingVUs_Stop(t *testing.T) {
	cfg := executor.Config{
		Stages:       []executor.Stage{{Duration: time.Hour, Target: 2}},
		GracefulStop: time.Second,
	}
	e, err := executor.NewRampingVUs(cfg)
	if err != nil {
		t.Fatalf("NewRampingVUs() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Run(context.Background(), func(ctx context.Context) { time.Sleep(time.Millisecond) })
		close(done)
	}()

	time.Sleep(200 * time.Millisecond)
	if p := e.Progress(); p <= 0 || p >= 1 {
		t.Errorf("Progress() = %v while running, want in (0, 1)", p)
	}
	e.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Stop()")
	}
}

func TestRampingVUs_MaxRPS(t *testing.T) {
	cfg := executor.Config{
		Stages:       []executor.Stage{{Duration: 500 * time.Millisecond, Target: 5}},
		GracefulStop: time.Second,
		MaxRPS:       20,
	}
	e, err := executor.NewRampingVUs(cfg)
	if err != nil {
		t.Fatalf("NewRampingVUs() error = %v", err)
	}

	var calls atomic.Int64
	e.Run(context.Background(), func(ctx context.Context) { calls.Add(1) })

	// burst of 20 plus ~10 over half a second
	if got := calls.Load(); got > 35 {
		t.Errorf("iterations = %d, want <= 35 with MaxRPS 20", got)
	}
	if calls.Load() == 0 {
		t.Error("no iterations were run")
	}
}

func TestNewRateLimiter(t *testing.T) {
	if executor.NewRateLimiter(0) != nil {
		t.Error("NewRateLimiter(0) should be nil")
	}

	var nilLimiter *executor.RateLimiter
	if err := nilLimiter.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait() error = %v", err)
	}
	if nilLimiter.Limit() != 0 {
		t.Errorf("nil limiter Limit() = %v, want 0", nilLimiter.Limit())
	}

	if l := executor.NewRateLimiter(2.5); l.Limit() != 2.5 {
		t.Errorf("Limit() = %v, want 2.5", l.Limit())
	}
}
