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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/source"
	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxAttempts     = 10
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 10 * time.Second
)

type RunnerConfig struct {
	Logger *slog.Logger
	// MaxAttempts bounds how often a failing event is applied before the
	// runner gives up
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// OnApplied is called after each event is committed or skipped as a
	// duplicate
	OnApplied func(Result)
}

// Runner feeds events from a Source into an Indexer
type Runner struct {
	indexer *Indexer
	source  source.Source
	config  RunnerConfig
	logger  *slog.Logger
}

func NewRunner(
	idx *Indexer,
	src source.Source,
	cfg RunnerConfig,
) *Runner {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = idx.logger
	}
	return &Runner{
		indexer: idx,
		source:  src,
		config:  cfg,
		logger:  logger.With("component", "runner"),
	}
}

// Run applies events until the source is exhausted, ctx is cancelled or an
// event fails with an error that retrying cannot fix. It returns nil when the
// source ends.
func (r *Runner) Run(ctx context.Context) error {
	for {
		d, err := r.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, contract.ErrMalformedEvent) {
				r.indexer.metrics.observeSkipped()
				r.logger.Warn("skipping malformed event", "error", err)
				continue
			}
			return fmt.Errorf("source: %w", err)
		}
		if err := r.handle(ctx, d); err != nil {
			return err
		}
	}
}

func (r *Runner) handle(ctx context.Context, d source.Delivery) error {
	evt := d.Event()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.config.InitialInterval
	bo.MaxInterval = r.config.MaxInterval
	res, err := backoff.Retry(
		ctx,
		func() (Result, error) {
			res, err := r.indexer.Apply(ctx, evt)
			if err != nil && !retryable(err) {
				return res, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(r.config.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.indexer.metrics.observeRetry()
			r.logger.Warn(
				"failed to apply event, retrying",
				"position", evt.Position().String(),
				"kind", evt.Kind(),
				"retry_in", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, contract.ErrMalformedEvent) {
			r.indexer.metrics.observeSkipped()
			r.logger.Warn(
				"skipping malformed event",
				"position", evt.Position().String(),
				"error", err,
			)
			if termErr := d.Term(); termErr != nil {
				return fmt.Errorf("terminate delivery: %w", termErr)
			}
			return nil
		}
		if nakErr := d.Nak(); nakErr != nil {
			r.logger.Warn("failed to nak delivery", "error", nakErr)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf(
			"apply %s at %s: %w",
			evt.Kind(),
			evt.Position().String(),
			err,
		)
	}
	if err := d.Ack(); err != nil {
		// The event is committed; a redelivery will be skipped as a duplicate
		r.logger.Warn(
			"failed to ack delivery",
			"event_id", res.EventID,
			"error", err,
		)
	}
	if res.Duplicate {
		r.logger.Debug("event already applied", "event_id", res.EventID)
	} else {
		r.logger.Debug(
			"applied event",
			"event_id", res.EventID,
			"kind", res.Kind,
			"position", res.Position.String(),
		)
	}
	if r.config.OnApplied != nil {
		r.config.OnApplied(res)
	}
	return nil
}

// retryable reports whether applying the same event again may succeed
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, contract.ErrMalformedEvent) && !IsFatal(err)
}
