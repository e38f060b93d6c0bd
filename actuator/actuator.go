// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package actuator turns a control signal into a brightness written to a
// single output channel.
package actuator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/glowworm/brightness"
	"github.com/schmidtw/glowworm/channel"
	"github.com/schmidtw/glowworm/ratemeter"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
)

const (
	// DefaultPace matches the cadence of the signal source.
	DefaultPace = 33 * time.Millisecond

	// DefaultRateWindow is how far back the measured write rate looks.
	DefaultRateWindow = time.Second
)

var (
	ErrInvalidPace    = errors.New("invalid pace")
	ErrInvalidChannel = errors.New("invalid channel")
)

// Config provides the actuator configuration options.
type Config struct {
	// Pace is how long each HandleOutput call blocks before returning.
	Pace time.Duration

	// DisablePlot stops the per call plot line.
	DisablePlot bool

	// RateWindow is the window the measured write rate is averaged over.
	RateWindow time.Duration
}

type Option interface {
	apply(*Actuator)
}

// Actuator drives one output channel.  It is meant to be called by a single
// control loop.
type Actuator struct {
	ch    channel.Channel
	pace  time.Duration
	clock clock.Clock
	log   *zap.Logger
	plot  io.Writer

	configure sync.Once
	rate      *ratemeter.Meter

	intensity   prometheus.Gauge
	level       prometheus.Gauge
	writes      prometheus.Counter
	writeErrors prometheus.Counter
	saturated   prometheus.Counter
}

// New makes a new actuator.  The channel is not configured until the first
// call to HandleOutput.
func New(cfg Config, ch channel.Channel, opts ...Option) (*Actuator, error) {
	if ch == nil {
		return nil, ErrInvalidChannel
	}
	if cfg.Pace < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPace, cfg.Pace)
	}
	if cfg.Pace == 0 {
		cfg.Pace = DefaultPace
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = DefaultRateWindow
	}

	a := Actuator{
		ch:    ch,
		pace:  cfg.Pace,
		clock: clock.New(),
		log:   zap.NewNop(),
		plot:  os.Stdout,
	}

	a.intensity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "glowworm",
		Subsystem: "actuator",
		Name:      "intensity",
		Help:      "Computed intensity before clamping.",
	})
	a.level = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "glowworm",
		Subsystem: "actuator",
		Name:      "level",
		Help:      "Level written to the channel (0-255).",
	})
	a.writes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "glowworm",
		Subsystem: "actuator",
		Name:      "writes_total",
		Help:      "Number of channel writes.",
	})
	a.writeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "glowworm",
		Subsystem: "actuator",
		Name:      "write_errors_total",
		Help:      "Number of channel writes that failed.",
	})
	a.saturated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "glowworm",
		Subsystem: "actuator",
		Name:      "saturated_total",
		Help:      "Number of intensities outside of 0-255 that were clamped.",
	})

	for _, opt := range opts {
		opt.apply(&a)
	}

	if cfg.DisablePlot {
		a.plot = io.Discard
	}

	var err error
	a.rate, err = ratemeter.New(ratemeter.Config{
		Window:        cfg.RateWindow,
		MaxEventCount: maxRateEvents(cfg.RateWindow, cfg.Pace),
	}, ratemeter.UseClock(a.clock))
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// maxRateEvents is enough events to measure up to twice the paced rate over
// the window.
func maxRateEvents(window, pace time.Duration) int {
	return 2*int(window/pace) + 10
}

// HandleOutput sets the channel brightness from y, where -1 is off and 1 is
// fully on.  y outside of [-1, 1] saturates.  x is only logged.  The call
// blocks for the configured pace before returning.
func (a *Actuator) HandleOutput(x, y float64) {
	a.configure.Do(func() {
		if err := a.ch.Configure(); err != nil {
			a.log.Error("unable to configure the output channel",
				zap.Stringer("channel", a.ch),
				zap.Error(err))
			return
		}
		a.log.Info("output channel configured", zap.Stringer("channel", a.ch))
	})

	intensity := brightness.FromSignal(y)
	level := brightness.Clamp(intensity)

	a.intensity.Set(float64(intensity))
	a.level.Set(float64(level))
	if brightness.Saturated(intensity) {
		a.saturated.Inc()
	}

	// On channels without PWM this is on above 127 and off otherwise.
	a.writes.Inc()
	a.rate.Mark()
	if err := a.ch.Write(level); err != nil {
		a.writeErrors.Inc()
		a.log.Warn("channel write failed",
			zap.Stringer("channel", a.ch),
			zap.Error(err))
	}

	a.log.Debug("output",
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.Int("intensity", intensity),
		zap.Stringer("level", level))

	// The plot line is the unclamped value.
	_, _ = fmt.Fprintf(a.plot, "%d\n", intensity)

	a.clock.Sleep(a.pace)
}

// Rate returns the measured write rate.
func (a *Actuator) Rate() physic.Frequency {
	return a.rate.Rate()
}

// Collectors returns the actuator metrics for registration.
func (a *Actuator) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		a.intensity,
		a.level,
		a.writes,
		a.writeErrors,
		a.saturated,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "glowworm",
			Subsystem: "actuator",
			Name:      "write_rate_hz",
			Help:      "Measured channel write rate.",
		}, func() float64 {
			return float64(a.Rate()) / float64(physic.Hertz)
		}),
	}
}

// UseClock provides a way to set the clock used for pacing.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (c clockOption) apply(a *Actuator) {
	if c.clk != nil {
		a.clock = c.clk
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return &loggerOption{log: l}
}

type loggerOption struct {
	log *zap.Logger
}

func (l loggerOption) apply(a *Actuator) {
	if l.log != nil {
		a.log = l.log
	}
}

// WithPlot sets where the plot lines are written.  The default is stdout.
func WithPlot(w io.Writer) Option {
	return &plotOption{w: w}
}

type plotOption struct {
	w io.Writer
}

func (p plotOption) apply(a *Actuator) {
	if p.w != nil {
		a.plot = p.w
	}
}
