// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/goschtalt/casemapper"
	"github.com/goschtalt/goschtalt"
	"github.com/mitchellh/mapstructure"
	"github.com/schmidtw/glowworm/actuator"
	"github.com/schmidtw/glowworm/channel"
	"github.com/schmidtw/glowworm/httpserver"
	"github.com/schmidtw/glowworm/mqttplot"
	"github.com/schmidtw/glowworm/source"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"periph.io/x/conn/v3/physic"

	_ "github.com/goschtalt/yaml-decoder"
	_ "github.com/goschtalt/yaml-encoder"
)

const configCase = "two_words"

// Config is the whole application configuration.
type Config struct {
	Logging  sallust.Config
	Channel  channel.Config
	Actuator actuator.Config
	Sine     source.SineConfig
	Loop     source.LoopConfig
	Mqtt     mqttplot.Config
	Metrics  httpserver.Config
}

var defaultConfig = Config{
	Logging: sallust.Config{
		Level:            "info",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	},
	Channel: channel.Config{
		Kind:      channel.KindLog,
		Pin:       "GPIO18",
		Frequency: physic.KiloHertz,
		I2cFile:   "/dev/i2c-1",
		Address:   0x20,
		Variant:   "tca9534",
	},
	Actuator: actuator.Config{
		Pace: actuator.DefaultPace,
	},
	Sine: source.SineConfig{
		InferencesPerCycle: 20,
		Amplitude:          1.0,
	},
	Mqtt: mqttplot.Config{
		ClientID:       "glowworm",
		Topic:          "glowworm/intensity",
		KeepAlive:      2 * time.Second,
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 5 * time.Second,
	},
	Metrics: httpserver.Config{
		Path:              "/metrics",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	},
}

// frequencyHook allows frequencies to be written as "1kHz" in the files.
func frequencyHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(physic.Frequency(0)) {
		return data, nil
	}

	var f physic.Frequency
	if err := f.Set(strings.TrimSpace(reflect.ValueOf(data).String())); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeHooks() goschtalt.UnmarshalOption {
	return goschtalt.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			frequencyHook,
		),
	)
}

// newConfig builds the configuration from the built in defaults and any
// files listed on the command line.  Later files win.
func newConfig(files []string) (*goschtalt.Config, error) {
	opts := []goschtalt.Option{
		goschtalt.AutoCompile(),
		goschtalt.AddValue("built-in", "", defaultConfig,
			casemapper.ConfigStoredAs(configCase),
		),
	}

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, err
		}
		opts = append(opts,
			goschtalt.AddFile(os.DirFS("/"), strings.TrimPrefix(abs, "/")))
	}

	return goschtalt.New(opts...)
}

type sections struct {
	fx.Out

	Logging  sallust.Config
	Channel  channel.Config
	Actuator actuator.Config
	Sine     source.SineConfig
	Loop     source.LoopConfig
	Mqtt     mqttplot.Config
	Metrics  httpserver.Config
}

func provideSections(gs *goschtalt.Config) (sections, error) {
	var c Config
	err := gs.Unmarshal("", &c,
		casemapper.ConfigStoredAs(configCase),
		decodeHooks(),
	)
	if err != nil {
		return sections{}, fmt.Errorf("unable to read the configuration: %w", err)
	}

	return sections{
		Logging:  c.Logging,
		Channel:  c.Channel,
		Actuator: c.Actuator,
		Sine:     c.Sine,
		Loop:     c.Loop,
		Mqtt:     c.Mqtt,
		Metrics:  c.Metrics,
	}, nil
}
