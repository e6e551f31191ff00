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

package indexer_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database/types"
	"github.com/blinklabs-io/markstream/indexer"
	"github.com/blinklabs-io/markstream/source"
)

type testDelivery struct {
	evt    contract.Event
	result string
}

func (d *testDelivery) Event() contract.Event { return d.evt }
func (d *testDelivery) Ack() error            { d.result = "ack"; return nil }
func (d *testDelivery) Nak() error            { d.result = "nak"; return nil }
func (d *testDelivery) Term() error           { d.result = "term"; return nil }

// testSource hands out a fixed script of deliveries and source errors
type testSource struct {
	items []any
	pos   int
}

func (s *testSource) Next(ctx context.Context) (source.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	switch v := item.(type) {
	case *testDelivery:
		return v, nil
	case error:
		return nil, v
	default:
		panic(fmt.Sprintf("unexpected item %T", item))
	}
}

func (s *testSource) Close() error { return nil }

func fastRunnerConfig() indexer.RunnerConfig {
	return indexer.RunnerConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func TestRunnerAppliesAndAcks(t *testing.T) {
	store := newMemStore()
	reg := prometheus.NewRegistry()
	idx, err := indexer.New(indexer.Config{Transactor: store, PromRegistry: reg})
	require.NoError(t, err)
	d1 := &testDelivery{evt: labelAdded(metaAt(1, 0), 1, "x")}
	d2 := &testDelivery{evt: upVote(metaAt(1, 1), 1, 123)}
	// Redelivery of an applied event
	d3 := &testDelivery{evt: upVote(metaAt(1, 1), 1, 123)}
	malformed := fmt.Errorf("line 4: %w", contract.ErrMalformedEvent)
	d4 := &testDelivery{evt: downVote(metaAt(2, 0), 1, 123)}
	src := &testSource{items: []any{d1, d2, d3, malformed, d4}}

	var applied []indexer.Result
	cfg := fastRunnerConfig()
	cfg.OnApplied = func(res indexer.Result) { applied = append(applied, res) }
	require.NoError(t, indexer.NewRunner(idx, src, cfg).Run(context.Background()))

	for _, d := range []*testDelivery{d1, d2, d3, d4} {
		assert.Equal(t, "ack", d.result)
	}
	require.Len(t, applied, 4)
	assert.True(t, applied[2].Duplicate)
	assert.Equal(t, types.Uint64(2), store.files["123"].TotalContributions)

	assert.InDelta(t, 3, gatherValue(t, reg, "markstream_indexer_events_applied_total"), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "markstream_indexer_events_duplicate_total"), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "markstream_indexer_events_skipped_total"), 0)
	assert.InDelta(t, 2, gatherValue(t, reg, "markstream_indexer_last_block_number"), 0)
}

func TestRunnerRetriesTransientFailures(t *testing.T) {
	store := newMemStore()
	store.failOn = "SetFile"
	store.failures = 2
	reg := prometheus.NewRegistry()
	idx, err := indexer.New(indexer.Config{Transactor: store, PromRegistry: reg})
	require.NoError(t, err)
	d := &testDelivery{evt: upVote(metaAt(1, 0), 1, 123)}
	src := &testSource{items: []any{d}}
	require.NoError(t, indexer.NewRunner(idx, src, fastRunnerConfig()).Run(context.Background()))
	assert.Equal(t, "ack", d.result)
	assert.Equal(t, types.Uint64(1), store.files["123"].TotalContributions)
	assert.InDelta(t, 2, gatherValue(t, reg, "markstream_indexer_apply_retries_total"), 0)
}

func TestRunnerGivesUpAfterMaxAttempts(t *testing.T) {
	store := newMemStore()
	store.failOn = "SetFileLabel"
	idx := newTestIndexer(t, store)
	d := &testDelivery{evt: upVote(metaAt(1, 0), 1, 123)}
	next := &testDelivery{evt: upVote(metaAt(2, 0), 1, 123)}
	src := &testSource{items: []any{d, next}}
	err := indexer.NewRunner(idx, src, fastRunnerConfig()).Run(context.Background())
	require.ErrorIs(t, err, errStoreUnavailable)
	assert.Equal(t, "nak", d.result)
	assert.Empty(t, next.result)
	assert.Empty(t, store.records)
}

func TestRunnerStopsOnFatalError(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	d1 := &testDelivery{evt: upVote(metaAt(5, 0), 1, 123)}
	d2 := &testDelivery{evt: upVote(metaAt(4, 0), 1, 123)}
	src := &testSource{items: []any{d1, d2}}
	err := indexer.NewRunner(idx, src, fastRunnerConfig()).Run(context.Background())
	require.ErrorIs(t, err, indexer.ErrOutOfOrder)
	assert.Equal(t, "ack", d1.result)
	assert.Equal(t, "nak", d2.result)
}

func TestRunnerTerminatesMalformedDelivery(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	d := &testDelivery{evt: contract.LabelRemoved{Meta: metaAt(1, 0)}}
	src := &testSource{items: []any{d}}
	require.NoError(t, indexer.NewRunner(idx, src, fastRunnerConfig()).Run(context.Background()))
	assert.Equal(t, "term", d.result)
}

func TestRunnerContextCancelled(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &testSource{items: []any{&testDelivery{evt: upVote(metaAt(1, 0), 1, 123)}}}
	err := indexer.NewRunner(idx, src, fastRunnerConfig()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
