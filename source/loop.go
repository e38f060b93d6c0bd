// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	errAlreadyStarted = errors.New("already started")
	errNoHandler      = errors.New("no handler")
)

// Handler is what consumes each point.
type Handler interface {
	HandleOutput(x, y float64)
}

// Generator is what produces each point.
type Generator interface {
	Next() (x, y float64)
}

// LoopConfig provides the control loop configuration options.
type LoopConfig struct {
	// MaxIterations stops the loop after that many points.  Zero runs until
	// stopped.
	MaxIterations int64
}

// Loop feeds points from a Generator to a Handler until stopped.  The handler
// sets the pace.
type Loop struct {
	m          sync.Mutex
	config     LoopConfig
	gen        Generator
	handler    Handler
	log        *zap.Logger
	cancel     context.CancelFunc
	finished   chan struct{}
	wg         sync.WaitGroup
	iterations atomic.Int64
}

// NewLoop makes a new control loop.
func NewLoop(cfg LoopConfig, gen Generator, h Handler, log *zap.Logger) (*Loop, error) {
	if gen == nil || h == nil {
		return nil, errNoHandler
	}
	if cfg.MaxIterations < 0 {
		return nil, ErrInvalidParameter
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Loop{
		config:  cfg,
		gen:     gen,
		handler: h,
		log:     log,
	}, nil
}

func (l *Loop) Start(ctx context.Context) error {
	l.m.Lock()
	defer l.m.Unlock()

	if l.cancel != nil {
		return errAlreadyStarted
	}

	// The loop outlives the start context.
	ctx, l.cancel = context.WithCancel(context.Background())
	l.finished = make(chan struct{})
	l.wg.Add(1)
	go l.run(ctx, l.finished)

	return nil
}

func (l *Loop) Stop(ctx context.Context) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.wg.Wait()
		l.cancel = nil
	}
}

// Finished is closed when the loop ends on its own after MaxIterations.  It
// is nil until the loop is started.
func (l *Loop) Finished() <-chan struct{} {
	l.m.Lock()
	defer l.m.Unlock()

	return l.finished
}

// Iterations returns the number of points handled so far.
func (l *Loop) Iterations() int64 {
	return l.iterations.Load()
}

func (l *Loop) run(ctx context.Context, finished chan struct{}) {
	defer l.wg.Done()

	l.log.Info("control loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Info("control loop stopped", zap.Int64("iterations", l.Iterations()))
			return
		default:
		}

		x, y := l.gen.Next()
		l.handler.HandleOutput(x, y)

		n := l.iterations.Add(1)
		if l.config.MaxIterations > 0 && n >= l.config.MaxIterations {
			l.log.Info("control loop finished", zap.Int64("iterations", n))
			close(finished)
			return
		}
	}
}
