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

// Package markstream indexes MarkStreamLabel contract events into a
// queryable read-model of labels, files and per-file label votes
package markstream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/markstream/api"
	"github.com/blinklabs-io/markstream/database"
	"github.com/blinklabs-io/markstream/event"
	"github.com/blinklabs-io/markstream/indexer"
	"github.com/blinklabs-io/markstream/source"
	"github.com/blinklabs-io/markstream/source/jetstream"
	"github.com/blinklabs-io/markstream/source/jsonl"
	"github.com/nats-io/nats.go"
)

type Node struct {
	config        Config
	eventBus      *event.EventBus
	db            *database.Database
	indexer       *indexer.Indexer
	source        source.Source
	api           *api.API
	natsConn      *nats.Conn
	notifier      *event.NATSSubscriber
	shutdownFuncs []func(context.Context) error
	cancel        context.CancelFunc
	runDone       chan struct{}
	mu            sync.Mutex
	started       bool
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		runDone:  make(chan struct{}),
	}
	return n, nil
}

// EventBus returns the bus carrying post-commit notifications
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Database returns the open database, or nil before Run
func (n *Node) Database() *database.Database {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.db
}

// Run starts the node and indexes events until the source is exhausted, ctx
// is cancelled or an event fails permanently. Stop must be called afterward
// to release resources.
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return errors.New("node already started")
	}
	n.started = true
	ctx, n.cancel = context.WithCancel(ctx)
	n.mu.Unlock()
	defer close(n.runDone)

	if err := n.start(ctx); err != nil {
		return err
	}
	runner := indexer.NewRunner(
		n.indexer,
		n.source,
		indexer.RunnerConfig{
			Logger:      n.config.logger,
			MaxAttempts: n.config.maxAttempts,
			OnApplied:   n.config.onApplied,
		},
	)
	n.config.logger.Info("indexer started", "component", "node")
	err := runner.Run(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// Cancelled by the caller or by Stop
		return nil
	}
	return err
}

func (n *Node) start(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if db != nil {
		n.mu.Lock()
		n.db = db
		n.mu.Unlock()
	}
	if err != nil {
		var tsErr database.CommitTimestampError
		if errors.As(err, &tsErr) {
			// The journal and the read-model are out of step. There is no
			// safe way to pick a winner, so refuse to continue.
			n.config.logger.Error(
				"database stores disagree, rebuild required",
				"component", "node",
				"error", err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Connect to NATS
	if n.config.natsURL != "" {
		conn, err := nats.Connect(
			n.config.natsURL,
			nats.Name("markstream"),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return fmt.Errorf(
				"connecting to NATS at %s: %w",
				n.config.natsURL,
				err,
			)
		}
		n.natsConn = conn
		if n.config.notifySubjectPrefix != "" {
			n.notifier = n.eventBus.ForwardToNATS(
				conn,
				n.config.notifySubjectPrefix,
			)
			n.config.logger.Info(
				"forwarding notifications to NATS",
				"component", "node",
				"prefix", n.config.notifySubjectPrefix,
			)
		}
	}
	// Load indexer
	idx, err := indexer.New(indexer.Config{
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		EventBus:     n.eventBus,
		Transactor:   indexer.NewDatabaseTransactor(db),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	n.indexer = idx
	// Open event source
	switch {
	case n.config.source != nil:
		n.source = n.config.source
	case n.config.eventFile != "":
		src, err := jsonl.Open(n.config.eventFile)
		if err != nil {
			return err
		}
		n.source = src
	case n.config.jetStream:
		src, err := jetstream.New(
			ctx,
			jetstream.Config{
				Logger:   n.config.logger,
				Conn:     n.natsConn,
				Stream:   n.config.jetStreamStream,
				Subject:  n.config.jetStreamSubject,
				Consumer: n.config.jetStreamConsumer,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to open JetStream source: %w", err)
		}
		n.source = src
	}
	// Start REST API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{ListenAddress: n.config.apiListenAddress},
			api.NewDatabaseReadModel(db),
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.config.shutdownTimeout,
	)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: Stop accepting new work
	n.mu.Lock()
	runCancel := n.cancel
	started := n.started
	n.mu.Unlock()
	if runCancel != nil {
		runCancel()
	}
	if started {
		select {
		case <-n.runDone:
		case <-ctx.Done():
			return errors.New("timed out waiting for indexer to stop")
		}
	}
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.source != nil {
		if closeErr := n.source.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("source close: %w", closeErr))
		}
	}

	// Phase 2: Flush notifications
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	if n.natsConn != nil {
		if flushErr := n.natsConn.FlushWithContext(ctx); flushErr != nil &&
			!errors.Is(flushErr, nats.ErrConnectionClosed) {
			err = errors.Join(err, fmt.Errorf("nats flush: %w", flushErr))
		}
		n.natsConn.Close()
	}

	// Phase 3: Close database
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}
