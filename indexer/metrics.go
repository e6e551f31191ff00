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

package indexer

import (
	"errors"
	"time"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type indexerMetrics struct {
	applied       *prometheus.CounterVec
	duplicates    *prometheus.CounterVec
	errors        *prometheus.CounterVec
	skipped       prometheus.Counter
	retries       prometheus.Counter
	applyDuration prometheus.Histogram
	lastBlock     prometheus.Gauge
}

func newIndexerMetrics(promRegistry prometheus.Registerer) *indexerMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &indexerMetrics{
		applied: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markstream_indexer_events_applied_total",
				Help: "contract events applied to the read-model",
			},
			[]string{"kind"},
		),
		duplicates: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markstream_indexer_events_duplicate_total",
				Help: "redelivered contract events skipped as duplicates",
			},
			[]string{"kind"},
		),
		errors: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markstream_indexer_apply_errors_total",
				Help: "contract events that failed to apply",
			},
			[]string{"kind", "reason"},
		),
		skipped: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "markstream_indexer_events_skipped_total",
				Help: "malformed deliveries skipped by the runner",
			},
		),
		retries: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "markstream_indexer_apply_retries_total",
				Help: "apply attempts retried by the runner",
			},
		),
		applyDuration: promautoFactory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "markstream_indexer_apply_duration_seconds",
				Help:    "time to apply a contract event including commit",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		lastBlock: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "markstream_indexer_last_block_number",
				Help: "block number of the last applied contract event",
			},
		),
	}
}

func (m *indexerMetrics) observeApplied(
	evt contract.Event,
	elapsed time.Duration,
) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(string(evt.Kind())).Inc()
	m.applyDuration.Observe(elapsed.Seconds())
	m.lastBlock.Set(float64(evt.Metadata().BlockNumber))
}

func (m *indexerMetrics) observeDuplicate(kind contract.Kind) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(string(kind)).Inc()
}

func (m *indexerMetrics) observeError(kind contract.Kind, err error) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(string(kind), errorReason(err)).Inc()
}

func (m *indexerMetrics) observeSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *indexerMetrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, contract.ErrMalformedEvent):
		return "malformed"
	case errors.Is(err, ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, ErrCounterOverflow):
		return "overflow"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant"
	default:
		return "store"
	}
}
