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

// Package indexer applies decoded contract events to the label, file and
// file label read-model, one atomic transaction per event.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/markstream/indexer"

// ErrOutOfOrder is returned for an event that is not a duplicate but does not
// sort after the last applied event
var ErrOutOfOrder = errors.New("event out of order")

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	EventBus     *event.EventBus
	Transactor   Transactor
}

// Result describes the outcome of applying one event
type Result struct {
	EventID   string
	Kind      contract.Kind
	Position  contract.Position
	Duplicate bool
	// Notifications published on the event bus after commit
	Notifications []event.Event
}

type Indexer struct {
	config  Config
	logger  *slog.Logger
	metrics *indexerMetrics
	tracer  trace.Tracer
}

func New(cfg Config) (*Indexer, error) {
	if cfg.Transactor == nil {
		return nil, errors.New("indexer: no transactor configured")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	i := &Indexer{
		config: cfg,
		logger: logger.With("component", "indexer"),
		tracer: otel.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		i.metrics = newIndexerMetrics(cfg.PromRegistry)
	}
	return i, nil
}

// Apply validates evt and applies it in a single transaction: the event
// record, any aggregate changes and the checkpoint commit together or not at
// all. An event whose record already exists is reported as a duplicate
// without changing anything.
func (i *Indexer) Apply(
	ctx context.Context,
	evt contract.Event,
) (Result, error) {
	if isNilEvent(evt) {
		return Result{}, fmt.Errorf("%w: nil event", contract.ErrMalformedEvent)
	}
	start := time.Now()
	eventID := EventRecordIDHex(evt.Metadata())
	res := Result{
		EventID:  eventID,
		Kind:     evt.Kind(),
		Position: evt.Position(),
	}
	ctx, span := i.tracer.Start(
		ctx,
		"indexer.Apply "+string(evt.Kind()),
		trace.WithAttributes(
			attribute.String("markstream.event.id", eventID),
			attribute.String("markstream.event.kind", string(evt.Kind())),
			attribute.Int64("markstream.block.number", int64(evt.Metadata().BlockNumber)), //nolint:gosec
			attribute.Int("markstream.log.index", int(evt.Metadata().LogIndex)),
		),
	)
	defer span.End()

	err := i.apply(ctx, evt, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		i.metrics.observeError(evt.Kind(), err)
		return res, err
	}
	span.SetAttributes(attribute.Bool("markstream.event.duplicate", res.Duplicate))
	if res.Duplicate {
		i.metrics.observeDuplicate(evt.Kind())
		i.logger.Debug(
			"skipping duplicate event",
			"event_id", eventID,
			"kind", evt.Kind(),
			"position", res.Position.String(),
		)
		return res, nil
	}
	i.metrics.observeApplied(evt, time.Since(start))
	i.publish(res)
	return res, nil
}

// isNilEvent reports a nil interface or a nil pointer to one of the event
// structs
func isNilEvent(evt contract.Event) bool {
	switch e := evt.(type) {
	case nil:
		return true
	case *contract.LabelAdded:
		return e == nil
	case *contract.LabelRemoved:
		return e == nil
	case *contract.LabelUpVoted:
		return e == nil
	case *contract.LabelDownVoted:
		return e == nil
	case *contract.OwnerChanged:
		return e == nil
	}
	return false
}

func (i *Indexer) apply(
	ctx context.Context,
	evt contract.Event,
	res *Result,
) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	return i.config.Transactor.Update(ctx, func(store Store) error {
		// Reset in case the transaction is retried
		res.Duplicate = false
		res.Notifications = nil
		exists, err := store.HasEventRecord(res.EventID)
		if err != nil {
			return fmt.Errorf("lookup event record: %w", err)
		}
		if exists {
			res.Duplicate = true
			return nil
		}
		cp, err := store.GetCheckpoint()
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if cp != nil {
			last := contract.Position{
				BlockNumber: cp.BlockNumber,
				LogIndex:    cp.LogIndex,
			}
			if !last.Less(res.Position) {
				return fmt.Errorf(
					"%w: %s at %s is not after %s",
					ErrOutOfOrder,
					res.EventID,
					res.Position.String(),
					last.String(),
				)
			}
		}
		notifications, err := dispatch(store, evt, res.EventID)
		if err != nil {
			return err
		}
		if err := store.SetCheckpoint(
			&models.Checkpoint{
				ID:          models.CheckpointRowId,
				BlockNumber: res.Position.BlockNumber,
				LogIndex:    res.Position.LogIndex,
				EventID:     res.EventID,
			},
		); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		res.Notifications = append(
			notifications,
			event.NewEvent(
				event.EventAppliedEventType,
				event.EventAppliedEvent{
					EventID:         res.EventID,
					Kind:            string(res.Kind),
					BlockNumber:     res.Position.BlockNumber,
					LogIndex:        res.Position.LogIndex,
					TransactionHash: evt.Metadata().TxHash.Hex(),
				},
			),
		)
		return nil
	})
}

// dispatch routes an event to its handler
func dispatch(
	store Store,
	evt contract.Event,
	eventID string,
) ([]event.Event, error) {
	switch e := evt.(type) {
	case contract.LabelAdded:
		return applyLabelAdded(store, e, eventID)
	case *contract.LabelAdded:
		return applyLabelAdded(store, *e, eventID)
	case contract.LabelRemoved:
		return applyLabelRemoved(store, e, eventID)
	case *contract.LabelRemoved:
		return applyLabelRemoved(store, *e, eventID)
	case contract.LabelUpVoted:
		return applyLabelUpVoted(store, e, eventID)
	case *contract.LabelUpVoted:
		return applyLabelUpVoted(store, *e, eventID)
	case contract.LabelDownVoted:
		return applyLabelDownVoted(store, e, eventID)
	case *contract.LabelDownVoted:
		return applyLabelDownVoted(store, *e, eventID)
	case contract.OwnerChanged:
		return applyOwnerChanged(store, e, eventID)
	case *contract.OwnerChanged:
		return applyOwnerChanged(store, *e, eventID)
	default:
		return nil, fmt.Errorf(
			"%w: unsupported event type %T",
			contract.ErrMalformedEvent,
			evt,
		)
	}
}

func (i *Indexer) publish(res Result) {
	if i.config.EventBus == nil {
		return
	}
	for _, evt := range res.Notifications {
		i.config.EventBus.Publish(evt.Type, evt)
	}
}

func eventMeta(id string, meta contract.Meta) models.EventMeta {
	return models.EventMeta{
		ID:              id,
		BlockNumber:     meta.BlockNumber,
		BlockTimestamp:  meta.BlockTimestamp,
		TransactionHash: meta.TxHash.Hex(),
		LogIndex:        meta.LogIndex,
	}
}

func creationMeta(meta contract.Meta) models.CreationMeta {
	return models.CreationMeta{
		BlockNumber:     meta.BlockNumber,
		LogIndex:        meta.LogIndex,
		BlockTimestamp:  meta.BlockTimestamp,
		TransactionHash: meta.TxHash.Hex(),
	}
}

// IsFatal reports whether err leaves the read-model in a state that no retry
// or skip can repair
func IsFatal(err error) bool {
	var partial database.PartialCommitError
	return errors.Is(err, ErrCounterOverflow) ||
		errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrOutOfOrder) ||
		errors.As(err, &partial)
}
