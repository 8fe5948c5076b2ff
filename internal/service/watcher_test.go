package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TickerSync/internal/interfaces"
)

type scriptedRunner struct {
	mu     sync.Mutex
	calls  int
	script []func() (*RunSummary, error)
	done   chan struct{}
	stopAt int
}

func (r *scriptedRunner) RunOnce(ctx context.Context, score, alerts bool) (*RunSummary, error) {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()
	if n == r.stopAt {
		close(r.done)
	}
	step := r.script[(n-1)%len(r.script)]
	return step()
}

func fastOptions() WatchOptions {
	return WatchOptions{Interval: time.Millisecond, MinSleep: time.Millisecond, Score: true}
}

// newFastWatcher 测试用：绕过最短间隔下限
func newFastWatcher(runner Runner, detector interfaces.ChangeDetector) *Watcher {
	w := NewWatcher(runner, detector, fastOptions(), quietLogger())
	w.opts.MinSleep = time.Millisecond
	return w
}

func TestWatcherSurvivesFailuresAndPanics(t *testing.T) {
	runner := &scriptedRunner{
		done:   make(chan struct{}),
		stopAt: 4,
		script: []func() (*RunSummary, error){
			func() (*RunSummary, error) { return nil, errors.New("stage failed") },
			func() (*RunSummary, error) { panic("boom") },
			func() (*RunSummary, error) { return nil, ErrRunInProgress },
			func() (*RunSummary, error) { return &RunSummary{RunID: "r4"}, nil },
		},
	}
	w := newFastWatcher(runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher stopped polling")
	}
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}

	st := w.Status()
	if st.LastPoll == nil || st.LastChange == nil {
		t.Fatalf("status not updated: %+v", st)
	}
}

func TestWatcherStopsDuringSleep(t *testing.T) {
	runner := &scriptedRunner{
		done:   make(chan struct{}),
		stopAt: 1,
		script: []func() (*RunSummary, error){
			func() (*RunSummary, error) { return &RunSummary{}, nil },
		},
	}
	opts := WatchOptions{Interval: time.Hour, MinSleep: time.Hour}
	w := NewWatcher(runner, nil, opts, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	<-runner.done
	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation should interrupt sleep")
	}
}

func TestWatcherCancelledBeforeStart(t *testing.T) {
	runner := &scriptedRunner{done: make(chan struct{}), script: []func() (*RunSummary, error){
		func() (*RunSummary, error) { return &RunSummary{}, nil },
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewWatcher(runner, nil, fastOptions(), quietLogger()).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if runner.calls != 0 {
		t.Fatalf("no run expected after cancel, got %d", runner.calls)
	}
}

type neverChanged struct{}

func (neverChanged) Changed(ctx context.Context) (bool, error) { return false, nil }

func TestWatcherSkipsRunWithoutChange(t *testing.T) {
	runner := &scriptedRunner{done: make(chan struct{}), script: []func() (*RunSummary, error){
		func() (*RunSummary, error) { return &RunSummary{}, nil },
	}}
	w := NewWatcher(runner, neverChanged{}, fastOptions(), quietLogger())
	w.poll(context.Background())
	if runner.calls != 0 {
		t.Fatal("runner should not be called when nothing changed")
	}
	st := w.Status()
	if st.LastPoll == nil || st.LastChange != nil {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestNextSleep(t *testing.T) {
	w := NewWatcher(nil, nil, WatchOptions{
		Interval: 75 * time.Second,
		Jitter:   20 * time.Second,
		MinSleep: 5 * time.Second,
	}, quietLogger())

	cases := []struct {
		name    string
		rand    float64
		elapsed time.Duration
		want    time.Duration
	}{
		{"no jitter", 0.5, 10 * time.Second, 65 * time.Second},
		{"max negative jitter", 0, 0, 55 * time.Second},
		{"max positive jitter", 1, 0, 95 * time.Second},
		{"floor", 0, 70 * time.Second, 5 * time.Second},
		{"slow run", 0.5, 5 * time.Minute, 5 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w.rand = func() float64 { return tc.rand }
			if got := w.nextSleep(tc.elapsed); got != tc.want {
				t.Fatalf("nextSleep = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusReturnsCopy(t *testing.T) {
	w := NewWatcher(nil, nil, fastOptions(), quietLogger())
	fixed := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }
	w.markPoll()

	st := w.Status()
	*st.LastPoll = time.Time{}
	if again := w.Status(); !again.LastPoll.Equal(fixed) {
		t.Fatalf("status should not be mutable from outside, got %v", again.LastPoll)
	}
}

type failingDetector struct{}

func (failingDetector) Changed(ctx context.Context) (bool, error) {
	return false, errors.New("listing unavailable")
}

type panickingDetector struct{}

func (panickingDetector) Changed(ctx context.Context) (bool, error) { panic("listing exploded") }

func TestPollStampsLastPollWhenDiscoveryFails(t *testing.T) {
	cases := []struct {
		name     string
		detector interfaces.ChangeDetector
	}{
		{"discovery error", failingDetector{}},
		{"discovery panic", panickingDetector{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &scriptedRunner{done: make(chan struct{}), script: []func() (*RunSummary, error){
				func() (*RunSummary, error) { return &RunSummary{}, nil },
			}}
			w := NewWatcher(runner, tc.detector, fastOptions(), quietLogger())
			w.poll(context.Background())

			st := w.Status()
			if st.LastPoll == nil {
				t.Fatal("last poll should be recorded even when discovery fails")
			}
			if st.LastChange != nil || runner.calls != 0 {
				t.Fatalf("no change or run expected, got %+v calls=%d", st, runner.calls)
			}
		})
	}
}

func TestPollStampsLastPollAfterRun(t *testing.T) {
	base := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	runner := &scriptedRunner{done: make(chan struct{}), script: []func() (*RunSummary, error){
		func() (*RunSummary, error) {
			clock = clock.Add(time.Minute)
			return nil, errors.New("stage failed")
		},
	}}
	w := NewWatcher(runner, nil, fastOptions(), quietLogger())
	w.now = func() time.Time { return clock }
	w.poll(context.Background())

	st := w.Status()
	if st.LastChange == nil || !st.LastChange.Equal(base) {
		t.Fatalf("last change should be stamped at discovery, got %v", st.LastChange)
	}
	if st.LastPoll == nil || !st.LastPoll.Equal(base.Add(time.Minute)) {
		t.Fatalf("last poll should be stamped after the run, got %v", st.LastPoll)
	}
}

func TestNewWatcherClampsMinSleep(t *testing.T) {
	w := NewWatcher(nil, nil, WatchOptions{Interval: time.Second, MinSleep: time.Second}, quietLogger())
	w.rand = func() float64 { return 0.5 }
	if got := w.nextSleep(0); got != 5*time.Second {
		t.Fatalf("nextSleep = %v, want 5s floor", got)
	}
}
