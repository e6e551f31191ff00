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

package postgres

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 5432
	DefaultUser     = "postgres"
	DefaultDatabase = "postgres"
	DefaultSSLMode  = "disable"
	DefaultTimeZone = "UTC"
)

// Config describes how to reach the Postgres server. Zero values fall back
// to the package defaults.
type Config struct {
	gormstore.ServerOptions
	SSLMode      string
	TimeZone     string
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Store keeps the read-model in Postgres
type Store struct {
	*gormstore.Store
	config Config
	logger *slog.Logger
}

// New returns a store for cfg. No connection is made until Start.
func New(cfg Config) *Store {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.User == "" {
		cfg.User = DefaultUser
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Store{
		config: cfg,
		logger: logger,
	}
}

// connString prefers an explicit DSN over the individual settings
func (c Config) connString() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	var sb strings.Builder
	sb.WriteString("host=" + c.Host)
	sb.WriteString(" port=" + strconv.FormatUint(c.Port, 10))
	sb.WriteString(" user=" + c.User)
	if c.Password != "" {
		sb.WriteString(" password=" + c.Password)
	}
	sb.WriteString(" dbname=" + c.Database)
	sb.WriteString(" sslmode=" + c.SSLMode)
	if c.TimeZone != "" {
		sb.WriteString(" TimeZone=" + c.TimeZone)
	}
	return sb.String()
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	db, err := gorm.Open(
		postgres.Open(s.config.connString()),
		gormstore.GormConfig(true),
	)
	if err != nil {
		return err
	}
	err = gormstore.ConfigurePool(
		db,
		s.config.MaxOpenConns,
		s.config.PromRegistry,
	)
	if err != nil {
		gormstore.CloseDB(db)
		return err
	}
	store, err := gormstore.New(db, s.logger)
	if err != nil {
		gormstore.CloseDB(db)
		return err
	}
	s.Store = store
	if s.config.DSN == "" {
		s.logger.Info(
			"connected to postgres metadata store",
			"component", "database",
			"host", s.config.Host,
			"database", s.config.Database,
		)
	} else {
		s.logger.Info(
			"connected to postgres metadata store using DSN",
			"component", "database",
		)
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close is a no-op for a store that was never started
func (s *Store) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}
