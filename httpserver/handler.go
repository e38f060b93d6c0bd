// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xmidt-org/arrange/arrangetls"
	"github.com/xmidt-org/httpaux"
	serveraux "github.com/xmidt-org/httpaux/server"
)

const defaultPath = "/metrics"

type Config struct {
	// Address corresponds to http.Server.Addr.  Empty disables the server.
	Address string

	// Path represents the url path where to locate the metrics listener.
	Path string

	// ReadTimeout corresponds to http.Server.ReadTimeout
	ReadTimeout time.Duration

	// ReadHeaderTimeout corresponds to http.Server.ReadHeaderTimeout
	ReadHeaderTimeout time.Duration

	// WriteTime corresponds to http.Server.WriteTimeout
	WriteTimeout time.Duration

	// IdleTimeout corresponds to http.Server.IdleTimeout
	IdleTimeout time.Duration

	// MaxHeaderBytes corresponds to http.Server.MaxHeaderBytes
	MaxHeaderBytes int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.  This value is
	// only used for listeners created via Listen.
	KeepAlive time.Duration

	// Header supplies HTTP headers to emit on every response from this server
	Headers http.Header

	// TLS is the optional unmarshaled TLS configuration.  If set, the resulting
	// server will use HTTPS.
	TLS *arrangetls.Config
}

// Handler returns the metrics handler for the gatherer, decorated with the
// configured headers.
func (c Config) Handler(g prometheus.Gatherer) http.Handler {
	path := defaultPath
	if len(c.Path) > 0 {
		path = c.Path
	}

	// This bit converts the headers into the httpaux.Header list then decorates
	// the outgoing headers via a chained http.Handler
	headers := httpaux.NewHeader(c.Headers)
	metrics := promhttp.HandlerFor(g, promhttp.HandlerOpts{})

	mux := http.NewServeMux()
	mux.Handle(path, serveraux.Header(headers.SetTo)(metrics))

	return mux
}

// Server builds the http.Server serving the gatherer's metrics.
func (c Config) Server(g prometheus.Gatherer) (server *http.Server, err error) {
	server = &http.Server{
		Addr:              c.Address,
		Handler:           c.Handler(g),
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
		MaxHeaderBytes:    c.MaxHeaderBytes,
	}

	server.TLSConfig, err = c.TLS.New()

	return
}
