// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package markstream

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/markstream/indexer"
	"github.com/blinklabs-io/markstream/source"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	// Exactly one of source, eventFile or jetStream selects the event source
	source            source.Source
	eventFile         string
	natsURL           string
	jetStream         bool
	jetStreamStream   string
	jetStreamSubject  string
	jetStreamConsumer string
	// Subject prefix for forwarding notifications over NATS (empty = disabled)
	notifySubjectPrefix string
	// REST API listen address (empty = disabled)
	apiListenAddress string
	maxAttempts      uint
	onApplied        func(indexer.Result)
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

func (c *Config) validate() error {
	sources := 0
	if c.source != nil {
		sources++
	}
	if c.eventFile != "" {
		sources++
	}
	if c.jetStream {
		if c.natsURL == "" {
			return errors.New("JetStream source requires a NATS URL")
		}
		sources++
	}
	switch {
	case sources == 0:
		return errors.New("no event source configured")
	case sources > 1:
		return errors.New("more than one event source configured")
	}
	if c.notifySubjectPrefix != "" && c.natsURL == "" {
		return errors.New("NATS notifications require a NATS URL")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Connection config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new markstream config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithSource specifies the event source to index from. The node closes the
// source on shutdown.
func WithSource(src source.Source) ConfigOptionFunc {
	return func(c *Config) {
		c.source = src
	}
}

// WithEventFile indexes newline-delimited JSON events from a file, or from
// stdin for "-"
func WithEventFile(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.eventFile = path
	}
}

// WithNatsURL specifies the NATS server used for the JetStream source and
// for notification forwarding
func WithNatsURL(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.natsURL = url
	}
}

// WithJetStream indexes events from a JetStream stream. Empty values select
// the defaults from the jetstream package.
func WithJetStream(stream, subject, consumer string) ConfigOptionFunc {
	return func(c *Config) {
		c.jetStream = true
		c.jetStreamStream = stream
		c.jetStreamSubject = subject
		c.jetStreamConsumer = consumer
	}
}

// WithNotifySubjectPrefix forwards post-commit notifications to NATS
// subjects under the given prefix
func WithNotifySubjectPrefix(prefix string) ConfigOptionFunc {
	return func(c *Config) {
		c.notifySubjectPrefix = prefix
	}
}

// WithAPIListenAddress enables the REST read API on the given address
func WithAPIListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithMaxAttempts bounds how often a failing event is retried before the
// node gives up
func WithMaxAttempts(attempts uint) ConfigOptionFunc {
	return func(c *Config) {
		c.maxAttempts = attempts
	}
}

// WithAppliedFunc registers a callback invoked after each event is committed
// or skipped as a duplicate
func WithAppliedFunc(fn func(indexer.Result)) ConfigOptionFunc {
	return func(c *Config) {
		c.onApplied = fn
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented here: https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
