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

// Package jetstream consumes contract events from a NATS JetStream stream
// through a durable pull consumer
package jetstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/source"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	DefaultStream    = "MARKSTREAM"
	DefaultSubject   = "markstream.contract"
	DefaultConsumer  = "markstream-indexer"
	DefaultFetchWait = 2 * time.Second
	DefaultAckWait   = 30 * time.Second
)

type Config struct {
	Logger *slog.Logger
	// Conn is used if set, otherwise a connection to URL is opened and owned
	// by the source
	Conn *nats.Conn
	URL  string
	// Stream is created if it does not exist, capturing <Subject>.>
	Stream    string
	Subject   string
	Consumer  string
	FetchWait time.Duration
	AckWait   time.Duration
}

// Source pulls events one at a time. At most one message is outstanding so
// that redelivery never reorders the stream.
type Source struct {
	config  Config
	logger  *slog.Logger
	conn    *nats.Conn
	ownConn bool
	js      jetstream.JetStream
	cons    jetstream.Consumer
}

func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Consumer == "" {
		cfg.Consumer = DefaultConsumer
	}
	if cfg.FetchWait == 0 {
		cfg.FetchWait = DefaultFetchWait
	}
	if cfg.AckWait == 0 {
		cfg.AckWait = DefaultAckWait
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Source{
		config: cfg,
		logger: logger.With("component", "source", "type", "jetstream"),
		conn:   cfg.Conn,
	}
	if s.conn == nil {
		if cfg.URL == "" {
			return nil, errors.New("jetstream: no NATS URL configured")
		}
		conn, err := nats.Connect(
			cfg.URL,
			nats.Name("markstream"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
		}
		s.conn = conn
		s.ownConn = true
	}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) init(ctx context.Context) error {
	js, err := jetstream.New(s.conn)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}
	s.js = js
	if _, err := js.CreateOrUpdateStream(
		ctx,
		jetstream.StreamConfig{
			Name:     s.config.Stream,
			Subjects: []string{s.config.Subject + ".>"},
			Storage:  jetstream.FileStorage,
		},
	); err != nil {
		return fmt.Errorf("ensure stream %s: %w", s.config.Stream, err)
	}
	cons, err := js.CreateOrUpdateConsumer(
		ctx,
		s.config.Stream,
		jetstream.ConsumerConfig{
			Durable:       s.config.Consumer,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       s.config.AckWait,
			DeliverPolicy: jetstream.DeliverAllPolicy,
			MaxAckPending: 1,
			FilterSubject: s.config.Subject + ".>",
		},
	)
	if err != nil {
		return fmt.Errorf("ensure consumer %s: %w", s.config.Consumer, err)
	}
	s.cons = cons
	s.logger.Info(
		"consuming contract events",
		"stream", s.config.Stream,
		"consumer", s.config.Consumer,
	)
	return nil
}

// Subject returns the subject an event kind is published on
func (s *Source) Subject(kind contract.Kind) string {
	return s.config.Subject + "." + string(kind)
}

// Next blocks until a message arrives or ctx is done. Malformed messages are
// terminated and reported with an error wrapping contract.ErrMalformedEvent.
func (s *Source) Next(ctx context.Context) (source.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg, err := s.cons.Next(jetstream.FetchMaxWait(s.config.FetchWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) ||
				errors.Is(err, jetstream.ErrNoMessages) {
				continue
			}
			return nil, fmt.Errorf("fetch message: %w", err)
		}
		evt, err := source.Decode(msg.Data())
		if err != nil {
			if termErr := msg.Term(); termErr != nil {
				s.logger.Warn(
					"failed to terminate malformed message",
					"subject", msg.Subject(),
					"error", termErr,
				)
			}
			return nil, fmt.Errorf("message on %s: %w", msg.Subject(), err)
		}
		return &delivery{msg: msg, evt: evt}, nil
	}
}

// Publish appends an event to the stream. The message id is derived from
// the transaction hash and log index so that JetStream drops republished
// copies within its duplicate window.
func (s *Source) Publish(ctx context.Context, evt contract.Event) error {
	data, err := source.Encode(evt)
	if err != nil {
		return err
	}
	meta := evt.Metadata()
	msgID := fmt.Sprintf("%s-%d", meta.TxHash.Hex(), meta.LogIndex)
	if _, err := s.js.Publish(
		ctx,
		s.Subject(evt.Kind()),
		data,
		jetstream.WithMsgID(msgID),
	); err != nil {
		return fmt.Errorf("publish %s: %w", msgID, err)
	}
	return nil
}

func (s *Source) Close() error {
	if s.ownConn && s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	return nil
}

type delivery struct {
	msg jetstream.Msg
	evt contract.Event
}

func (d *delivery) Event() contract.Event { return d.evt }
func (d *delivery) Ack() error            { return d.msg.Ack() }
func (d *delivery) Nak() error            { return d.msg.Nak() }
func (d *delivery) Term() error           { return d.msg.Term() }
