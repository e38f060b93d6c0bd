// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package mqttplot publishes plot lines to an MQTT broker so they can be
// charted remotely.
package mqttplot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	disconnectQuiesce = 250 // milliseconds

	// maxPending bounds the publishes waiting on the broker.  Lines past it
	// are dropped.
	maxPending = 32

	defaultPublishTimeout = 5 * time.Second
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config provides the publisher configuration options.
type Config struct {
	// Broker is the broker url, e.g. tcp://localhost:1883.  Empty disables
	// publishing.
	Broker         string
	ClientID       string
	Topic          string
	QoS            int
	Retained       bool
	KeepAlive      time.Duration
	ConnectTimeout time.Duration

	// PublishTimeout is how long a single publish is waited on before it is
	// given up on.  Defaults to 5s.
	PublishTimeout time.Duration
}

// Enabled reports if a broker is configured.
func (c Config) Enabled() bool {
	return c.Broker != ""
}

// Publisher is an io.Writer that sends each line written to it as one MQTT
// message.  Publishing never blocks the writer and failures are only logged.
// A single worker waits on outstanding publishes; when the broker stalls and
// maxPending publishes are outstanding, further lines are dropped.
type Publisher struct {
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
	client   mqtt.Client
	log      *zap.Logger

	slots    chan struct{}
	pending  chan mqtt.Token
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	dropped  atomic.Int64
}

// New makes a new publisher.  It does not connect.
func New(cfg Config, log *zap.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: a broker is required", ErrInvalidConfig)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: a topic is required", ErrInvalidConfig)
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return nil, fmt.Errorf("%w: qos %d", ErrInvalidConfig, cfg.QoS)
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to broker", zap.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("lost broker connection", zap.String("broker", cfg.Broker), zap.Error(err))
	})

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	p := &Publisher{
		topic:    cfg.Topic,
		qos:      byte(cfg.QoS),
		retained: cfg.Retained,
		timeout:  timeout,
		client:   mqtt.NewClient(opts),
		log:      log,
		slots:    make(chan struct{}, maxPending),
		pending:  make(chan mqtt.Token, maxPending),
		done:     make(chan struct{}),
	}

	p.wg.Add(1)
	go p.drain()

	return p, nil
}

// drain waits on each outstanding publish in turn until the publisher is
// disconnected.
func (p *Publisher) drain() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case token := <-p.pending:
			p.wait(token)
			<-p.slots
		}
	}
}

func (p *Publisher) wait(token mqtt.Token) {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			p.log.Debug("publish failed", zap.String("topic", p.topic), zap.Error(err))
		}
	case <-timer.C:
		p.log.Debug("publish timed out", zap.String("topic", p.topic))
	case <-p.done:
	}
}

// Connect connects to the broker, giving up when the context ends.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	return token.Error()
}

// Disconnect stops waiting on outstanding publishes and closes the broker
// connection.  Lines written afterwards are dropped.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.client.Disconnect(disconnectQuiesce)
	})
}

// Dropped returns the number of lines that were not published.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Write publishes the trimmed contents of b.  The full length is always
// reported as written.
func (p *Publisher) Write(b []byte) (int, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return len(b), nil
	}

	select {
	case <-p.done:
		p.dropped.Add(1)
		return len(b), nil
	default:
	}

	select {
	case p.slots <- struct{}{}:
	default:
		p.dropped.Add(1)
		p.log.Debug("broker is behind, dropping line", zap.String("topic", p.topic))
		return len(b), nil
	}

	// The caller owns b, the client holds onto the payload.
	payload := make([]byte, len(trimmed))
	copy(payload, trimmed)

	// Holding a slot means there is room.
	p.pending <- p.client.Publish(p.topic, p.qos, p.retained, payload)

	return len(b), nil
}
