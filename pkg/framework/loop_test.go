package framework

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) ctl(name string) Controller {
	return ControlFunc(func(cc ControlContext) error {
		r.calls = append(r.calls, name)
		return nil
	})
}

func TestLoopTickOrder(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.AddController(PrLvPostProc, rec.ctl("report"))
	l.AddController(PrLvComm, rec.ctl("comm"))
	l.AddController(PrLvAcuate, rec.ctl("actuate"))
	l.AddController(PrLvControl, rec.ctl("decide"))
	l.AddController(PrLvSense, rec.ctl("sense"))
	l.Tick(context.TODO())
	require.Equal(t, []string{"sense", "decide", "actuate", "comm", "report"}, rec.calls)
	require.EqualValues(t, 1, l.Ticks())
}

func TestLoopTimeAndTick(t *testing.T) {
	clock := &ManualClock{}
	l := NewLoop()
	l.Clock = clock
	var seen []time.Duration
	var ticks []uint64
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, cc.Time())
		ticks = append(ticks, cc.Tick())
		return nil
	}))
	l.Tick(context.TODO())
	clock.Advance(20 * time.Millisecond)
	l.Tick(context.TODO())
	require.Equal(t, []time.Duration{0, 20 * time.Millisecond}, seen)
	require.Equal(t, []uint64{1, 2}, ticks)
}

func TestLoopPostRun(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		if cc.Tick() == 1 {
			cc.PostRun(rec.ctl("hook"))
		}
		return nil
	}))
	l.AddController(PrLvAcuate, rec.ctl("actuate"))
	l.Tick(context.TODO())
	l.Tick(context.TODO())
	require.Equal(t, []string{"hook", "actuate", "actuate"}, rec.calls)
}

func TestLoopControllerErrorContinues(t *testing.T) {
	var rec recorder
	l := NewLoop()
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		return errors.New("boom")
	}))
	l.AddController(PrLvAcuate, rec.ctl("actuate"))
	l.Tick(context.TODO())
	require.Equal(t, []string{"actuate"}, rec.calls)
}

type countingRunner struct {
	started chan struct{}
}

func (r *countingRunner) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunStartsRunners(t *testing.T) {
	r := &countingRunner{started: make(chan struct{})}
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddRunnable(r)
	ctx, cancel := context.WithCancel(context.TODO())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case <-r.started:
	case <-time.After(time.Second):
		t.Fatal("runner not started")
	}
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}

type ctlRunner struct {
	ctlCh chan LoopControl
}

func (r *ctlRunner) Run(ctx context.Context) error {
	r.ctlCh <- LoopCtlFrom(ctx)
	<-ctx.Done()
	return ctx.Err()
}

func TestTriggerNextWakesLoop(t *testing.T) {
	require.Nil(t, LoopCtlFrom(context.Background()))

	r := &ctlRunner{ctlCh: make(chan LoopControl, 1)}
	ticked := make(chan struct{}, 1)
	l := NewLoop()
	l.Interval = time.Hour
	l.AddRunnable(r)
	l.AddController(PrLvComm, ControlFunc(func(ControlContext) error {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go l.Run(ctx)

	ctl := <-r.ctlCh
	require.NotNil(t, ctl)
	ctl.TriggerNext()
	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("no tick after TriggerNext")
	}
}

type failingRunner struct {
	err error
}

func (r failingRunner) Run(context.Context) error {
	return r.err
}

func TestRunnerCollectsEarlyFailures(t *testing.T) {
	r := NewRunner()
	var failures []error
	for i := 0; i < 6; i++ {
		err := errors.New("failed " + strconv.Itoa(i))
		failures = append(failures, err)
		r.Go(NamedRun("fail", failingRunner{err: err}))
	}
	r.Go(failingRunner{err: context.Canceled}, failingRunner{})
	// every failure is recorded before anyone waits
	require.Eventually(t, func() bool {
		r.lock.Lock()
		defer r.lock.Unlock()
		return len(r.errs.Errors) == len(failures)
	}, time.Second, time.Millisecond)

	err := r.Wait()
	require.Error(t, err)
	for _, failure := range failures {
		require.True(t, errors.Is(err, failure))
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	err := errs.Aggregate()
	require.Error(t, err)
	require.Equal(t, "multiple errors: a; b", err.Error())

	var one AggregatedError
	closed := errors.New("closed")
	err = one.Add(closed).Aggregate()
	require.Equal(t, "closed", err.Error())
	require.True(t, errors.Is(err, closed))
}
