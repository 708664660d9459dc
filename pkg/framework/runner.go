package framework

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun gives a Runnable its name in the logs.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

func runnableName(runnable Runnable, index int) string {
	if named, ok := runnable.(Named); ok {
		return named.Name()
	}
	return "#" + strconv.Itoa(index)
}

// Runner starts Runnables on goroutines sharing one context and
// collects their errors as they stop, so a Runnable failing early
// never waits for Wait.
type Runner struct {
	Context context.Context

	started int
	errs    AggregatedError
	wg      sync.WaitGroup
	lock    sync.Mutex
	exitCh  chan struct{}
}

// NewRunner creates a Runner on the background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner on ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{Context: ctx, exitCh: make(chan struct{})}
}

// HandleSignals cancels the context on SIGINT or SIGTERM. A second
// signal makes Wait return without waiting for the Runnables.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v received, stopping", sig)
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go starts runnables on the Runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.lock.Lock()
		name := runnableName(runnable, r.started)
		r.started++
		r.lock.Unlock()
		r.wg.Add(1)
		go r.run(r.Context, runnable, name)
	}
	return r
}

func (r *Runner) run(ctx context.Context, runnable Runnable, name string) {
	defer r.wg.Done()
	glog.V(2).Infof("runner %s started", name)
	err := runnable.Run(ctx)
	if err == nil || err == context.Canceled {
		glog.V(2).Infof("runner %s stopped", name)
		return
	}
	glog.Warningf("runner %s stopped: %v", name, err)
	r.lock.Lock()
	r.errs.Add(err)
	r.lock.Unlock()
}

// Wait waits until every started Runnable stops and returns their
// errors, context.Canceled excluded.
func (r *Runner) Wait() error {
	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()
	select {
	case <-r.exitCh:
		return errors.New("forced exit")
	case <-doneCh:
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't accept a context.
// onCancel is called only when ctx is done and must make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
