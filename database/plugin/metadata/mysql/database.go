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

package mysql

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultUser     = "root"
	DefaultDatabase = "markstream"
	DefaultTimeZone = "UTC"

	// ER_BAD_DB_ERROR
	errUnknownDatabase = 1049
)

// Config describes how to reach the MySQL server. Zero values fall back to
// the package defaults.
type Config struct {
	gormstore.ServerOptions
	// TLS is passed through as the driver's tls parameter
	TLS          string
	TimeZone     string
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Store keeps the read-model in MySQL
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
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Store{
		config: cfg,
		logger: logger,
	}
}

// driverConfig resolves the connection settings into a driver config. An
// explicit DSN wins over the individual settings.
func (c Config) driverConfig() (*mysql.Config, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		ret, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql DSN: %w", err)
		}
		return ret, nil
	}
	ret := mysql.NewConfig()
	ret.User = c.User
	ret.Passwd = c.Password
	ret.Net = "tcp"
	ret.Addr = net.JoinHostPort(c.Host, strconv.FormatUint(c.Port, 10))
	ret.DBName = c.Database
	ret.ParseTime = true
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", c.TimeZone, err)
		}
		ret.Loc = loc
	}
	if c.TLS != "" {
		ret.TLSConfig = c.TLS
	}
	return ret, nil
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	driverCfg, err := s.config.driverConfig()
	if err != nil {
		return err
	}
	db, err := gorm.Open(
		gormmysql.Open(driverCfg.FormatDSN()),
		gormstore.GormConfig(true),
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errUnknownDatabase {
		if createErr := createDatabase(driverCfg); createErr != nil {
			return errors.Join(err, createErr)
		}
		s.logger.Info(
			"created mysql metadata database",
			"component", "database",
			"database", driverCfg.DBName,
		)
		db, err = gorm.Open(
			gormmysql.Open(driverCfg.FormatDSN()),
			gormstore.GormConfig(true),
		)
	}
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
	s.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"addr", driverCfg.Addr,
		"database", driverCfg.DBName,
	)
	return nil
}

// createDatabase connects without a default schema and creates the one
// named by cfg
func createDatabase(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql DSN names no database")
	}
	adminCfg := cfg.Clone()
	adminCfg.DBName = ""
	adminDb, err := gorm.Open(
		gormmysql.Open(adminCfg.FormatDSN()),
		gormstore.GormConfig(false),
	)
	if err != nil {
		return err
	}
	defer gormstore.CloseDB(adminDb)
	return adminDb.Exec(
		"CREATE DATABASE IF NOT EXISTS " + quoteIdentifier(cfg.DBName),
	).Error
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
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
