package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/pkg/concurrent"
)

// Options tune the frame loop.
type Options struct {
	// Interval between frames; zero runs frames back to back.
	Interval time.Duration
	// Workers bounds how many trees tick concurrently.
	Workers int
	// MaxFrames stops the loop after that many frames; zero means no limit.
	MaxFrames uint64
}

// Runner ticks a set of trees once per frame. Independent trees tick in
// parallel; a tree is never ticked from two goroutines at once.
type Runner struct {
	mu     sync.Mutex
	opts   Options
	trees  []*bt.Tree
	frames uint64
	log    log.Log
}

func New(opts Options, l log.Log) *Runner {
	if l == nil {
		l = log.Nop()
	}
	return &Runner{opts: opts, log: l.Named("driver")}
}

// Add registers trees. Trees that were never spawned are spawned on the
// next frame.
func (r *Runner) Add(trees ...*bt.Tree) {
	r.mu.Lock()
	r.trees = append(r.trees, trees...)
	r.mu.Unlock()
}

func (r *Runner) Trees() []*bt.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*bt.Tree(nil), r.trees...)
}

// Frames is the number of frames stepped so far.
func (r *Runner) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Step ticks every running tree once, skipping the rest once ctx is done. Contract violations are returned as
// errors naming the tree; other trees still finish their frame.
func (r *Runner) Step(ctx context.Context) (running int, err error) {
	trees := r.Trees()
	var mu sync.Mutex
	var errs []error
	concurrent.EachMute(trees, r.opts.Workers, func(t *bt.Tree) error {
		if ctx.Err() != nil {
			return nil
		}
		return tickTree(t)
	}, func(t *bt.Tree, err error) {
		r.log.Error("tree aborted", log.String("tree", t.Name()), log.String("tree_id", t.ID()), log.Error(err))
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})
	for _, t := range trees {
		if t.Status() == bt.StatusRunning {
			running++
		}
	}
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return running, errors.Join(errs...)
}

func tickTree(t *bt.Tree) (err error) {
	defer bt.Recover(&err)
	if t.Status() == bt.StatusUninitialised {
		t.Spawn()
	}
	t.Tick()
	return nil
}

// Run steps frames until ctx is done, every tree has stopped running, the
// frame limit is reached, or a tree violates its contract. Cancellation is
// not an error.
func (r *Runner) Run(ctx context.Context) error {
	var ticker *time.Ticker
	if r.opts.Interval > 0 {
		ticker = time.NewTicker(r.opts.Interval)
		defer ticker.Stop()
	}
	r.log.Info("driver started",
		log.Int("trees", len(r.Trees())),
		log.Duration("interval", r.opts.Interval),
		log.Uint64("max_frames", r.opts.MaxFrames))
	for {
		if ctx.Err() != nil {
			r.log.Info("driver cancelled", log.Uint64("frames", r.Frames()))
			return nil
		}
		running, err := r.Step(ctx)
		if err != nil {
			return err
		}
		if running == 0 {
			r.log.Info("all trees finished", log.Uint64("frames", r.Frames()))
			return nil
		}
		if r.opts.MaxFrames > 0 && r.Frames() >= r.opts.MaxFrames {
			r.log.Info("frame limit reached", log.Uint64("frames", r.Frames()))
			return nil
		}
		if ticker == nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}
