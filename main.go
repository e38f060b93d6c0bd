// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alecthomas/kong"
	"github.com/goschtalt/goschtalt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/glowworm/actuator"
	"github.com/schmidtw/glowworm/channel"
	"github.com/schmidtw/glowworm/httpserver"
	"github.com/schmidtw/glowworm/mqttplot"
	"github.com/schmidtw/glowworm/source"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const applicationName = "glowworm"

// CLI is the command line interface.
type CLI struct {
	Dev   bool     `optional:"" short:"d" help:"Run in development mode."`
	Show  bool     `optional:"" short:"s" help:"Show the configuration and exit."`
	Graph string   `optional:"" short:"g" help:"Output the dependency graph to the specified file."`
	Files []string `optional:"" short:"f" name:"file" help:"Configuration files, later files win."`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name(applicationName),
		kong.Description("Drives an LED from a sine wave signal."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	if _, err = parser.Parse(args); err != nil {
		return err
	}

	gs, err := newConfig(cli.Files)
	if err != nil {
		return err
	}

	if cli.Show {
		out, err := gs.Marshal(goschtalt.FormatAs("yml"))
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}

	app := fx.New(options(&cli, gs, stdout)...)
	if err := app.Err(); err != nil {
		return err
	}

	app.Run()
	return nil
}

func options(cli *CLI, gs *goschtalt.Config, stdout io.Writer) []fx.Option {
	opts := []fx.Option{
		fx.Supply(cli, gs),
		fx.Provide(
			provideSections,
			provideLogger,
			prometheus.NewRegistry,
			func(r *prometheus.Registry) prometheus.Gatherer { return r },
			provideChannel,
			func(lc fx.Lifecycle, cfg mqttplot.Config, log *zap.Logger) (io.Writer, error) {
				return providePlot(lc, cfg, log, stdout)
			},
			provideActuator,
			provideLoop,
			httpserver.New,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(*source.Loop, *http.Server) {},
		),
	}

	if cli.Graph != "" {
		opts = append(opts, fx.Invoke(func(g fx.DotGraph) error {
			return os.WriteFile(cli.Graph, []byte(g), 0644)
		}))
	}

	return opts
}

func provideLogger(cli *CLI, cfg sallust.Config) (*zap.Logger, error) {
	if cli.Dev {
		cfg.Development = true
		cfg.Level = "debug"
	}
	return cfg.Build()
}

// closer is implemented by channels that hold onto hardware.
type closer interface {
	Close() error
}

func provideChannel(lc fx.Lifecycle, cfg channel.Config, log *zap.Logger) (channel.Channel, error) {
	ch, err := channel.New(cfg, log.Named("channel"))
	if err != nil {
		return nil, err
	}

	if c, ok := ch.(closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return c.Close()
			},
		})
	}

	return ch, nil
}

func providePlot(lc fx.Lifecycle, cfg mqttplot.Config, log *zap.Logger, stdout io.Writer) (io.Writer, error) {
	if !cfg.Enabled() {
		return stdout, nil
	}

	log = log.Named("mqtt")
	p, err := mqttplot.New(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The plot is diagnostic only, so a missing broker isn't fatal.
			if err := p.Connect(ctx); err != nil {
				log.Warn("unable to connect to the broker", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			p.Disconnect()
			return nil
		},
	})

	return io.MultiWriter(stdout, p), nil
}

func provideActuator(cfg actuator.Config, ch channel.Channel, plot io.Writer,
	log *zap.Logger, reg *prometheus.Registry) (*actuator.Actuator, error) {
	a, err := actuator.New(cfg, ch,
		actuator.WithLogger(log.Named("actuator")),
		actuator.WithPlot(plot),
	)
	if err != nil {
		return nil, err
	}

	for _, c := range a.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func provideLoop(lc fx.Lifecycle, shutdowner fx.Shutdowner, sine source.SineConfig,
	cfg source.LoopConfig, a *actuator.Actuator, log *zap.Logger) (*source.Loop, error) {
	s, err := source.NewSine(sine)
	if err != nil {
		return nil, err
	}

	log = log.Named("loop")
	l, err := source.NewLoop(cfg, s, a, log)
	if err != nil {
		return nil, err
	}

	stopped := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := l.Start(ctx); err != nil {
				return err
			}
			finished := l.Finished()
			go func() {
				select {
				case <-finished:
					_ = shutdowner.Shutdown()
				case <-stopped:
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stopped)
			l.Stop(ctx)
			return nil
		},
	})

	return l, nil
}
