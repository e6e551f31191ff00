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

package badger

import "github.com/prometheus/client_golang/prometheus"

const journalMetricNamePrefix = "database_journal_"

type journalMetrics struct {
	appends      prometheus.Counter
	reads        prometheus.Counter
	bytesWritten prometheus.Counter
	gcRuns       prometheus.Counter
}

func (s *Store) registerMetrics() {
	s.metrics = &journalMetrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "appends_total",
			Help: "Journal entries appended",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "reads_total",
			Help: "Journal lookups and scans",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "bytes_written_total",
			Help: "Encoded journal bytes appended",
		}),
		gcRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: journalMetricNamePrefix + "gc_runs_total",
			Help: "Value log files rewritten by GC",
		}),
	}
	sizeGauge := func(name string, help string, pick func(lsm, vlog int64) int64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: journalMetricNamePrefix + name,
				Help: help,
			},
			func() float64 {
				return float64(pick(s.db.Size()))
			},
		)
	}
	s.promRegistry.MustRegister(
		s.metrics.appends,
		s.metrics.reads,
		s.metrics.bytesWritten,
		s.metrics.gcRuns,
		sizeGauge("lsm_size_bytes", "Size of the badger LSM tree",
			func(lsm, _ int64) int64 { return lsm }),
		sizeGauge("vlog_size_bytes", "Size of the badger value log",
			func(_, vlog int64) int64 { return vlog }),
	)
}

func (s *Store) recordAppend(size int) {
	if s.metrics != nil {
		s.metrics.appends.Inc()
		s.metrics.bytesWritten.Add(float64(size))
	}
}

func (s *Store) recordRead() {
	if s.metrics != nil {
		s.metrics.reads.Inc()
	}
}

func (s *Store) recordGC() {
	if s.metrics != nil {
		s.metrics.gcRuns.Inc()
	}
}
