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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blinklabs-io/markstream"
	"github.com/blinklabs-io/markstream/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// nodeOptions translates the config into node options shared by all run
// modes
func nodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	registry prometheus.Registerer,
) ([]markstream.ConfigOptionFunc, error) {
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return []markstream.ConfigOptionFunc{
		markstream.WithLogger(logger),
		markstream.WithDatabasePath(cfg.DatabasePath),
		markstream.WithBlobPlugin(cfg.BlobPlugin),
		markstream.WithMetadataPlugin(cfg.MetadataPlugin),
		markstream.WithPrometheusRegistry(registry),
		markstream.WithMaxAttempts(cfg.MaxAttempts),
		markstream.WithTracing(cfg.Tracing),
		markstream.WithTracingStdout(cfg.TracingStdout),
		markstream.WithShutdownTimeout(shutdownTimeout),
	}, nil
}

func hostPort(host string, port uint) string {
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}

// Run indexes events from the configured source and serves the read API and
// metrics until a signal is received or the source fails
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := nodeOptions(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	switch cfg.Source {
	case config.SourceTypeFile:
		if cfg.EventFile == "" {
			return errors.New("eventFile is required for the file source")
		}
		opts = append(opts, markstream.WithEventFile(cfg.EventFile))
	default:
		opts = append(
			opts,
			markstream.WithJetStream(
				cfg.JetStream.Stream,
				cfg.JetStream.Subject,
				cfg.JetStream.Consumer,
			),
		)
	}
	if cfg.NatsUrl != "" &&
		(cfg.Source != config.SourceTypeFile || cfg.NotifySubjectPrefix != "") {
		opts = append(opts, markstream.WithNatsURL(cfg.NatsUrl))
	}
	if cfg.NotifySubjectPrefix != "" {
		opts = append(
			opts,
			markstream.WithNotifySubjectPrefix(cfg.NotifySubjectPrefix),
		)
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			markstream.WithAPIListenAddress(hostPort(cfg.BindAddr, cfg.ApiPort)),
		)
	}
	n, err := markstream.New(markstream.NewConfig(opts...))
	if err != nil {
		return err
	}
	shutdownTimeout, _ := cfg.ShutdownTimeoutDuration()

	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              hostPort(cfg.BindAddr, cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		ln, err := net.Listen("tcp", metricsServer.Addr)
		if err != nil {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		go func() {
			if err := metricsServer.Serve(ln); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("metrics listener failed: %s", err),
					"component", "node",
				)
			}
		}()
	}
	stopMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	runErr := n.Run(signalCtx)
	if signalCtx.Err() != nil {
		logger.Info("signal received, initiating graceful shutdown")
	} else if runErr != nil {
		logger.Error("node error", "error", runErr)
	} else {
		logger.Info("event source exhausted, shutting down")
	}
	stopMetrics()
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}
