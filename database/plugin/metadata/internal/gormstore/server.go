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

package gormstore

import (
	"time"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultMaxOpenConns bounds the pool of a server backend. One writer
// applies events while the API reads concurrently.
const DefaultMaxOpenConns = 16

// ServerOptions are the connection settings shared by the networked SQL
// backends
type ServerOptions struct {
	Host     string
	Port     uint64
	User     string
	Password string
	Database string
	// DSN replaces every other connection setting when non-empty
	DSN          string
	MaxOpenConns uint64
}

// PluginOptions copies defaults into o and returns registry options that
// write into o. backend names the database in option descriptions.
func (o *ServerOptions) PluginOptions(
	backend string,
	defaults ServerOptions,
) []plugin.PluginOption {
	*o = defaults
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = DefaultMaxOpenConns
	}
	return []plugin.PluginOption{
		{
			Name:         "host",
			Type:         plugin.PluginOptionTypeString,
			Description:  backend + " host",
			DefaultValue: o.Host,
			Dest:         &(o.Host),
		},
		{
			Name:         "port",
			Type:         plugin.PluginOptionTypeUint,
			Description:  backend + " port",
			DefaultValue: o.Port,
			Dest:         &(o.Port),
		},
		{
			Name:         "user",
			Type:         plugin.PluginOptionTypeString,
			Description:  backend + " user",
			DefaultValue: o.User,
			Dest:         &(o.User),
		},
		{
			Name:         "password",
			Type:         plugin.PluginOptionTypeString,
			Description:  backend + " password",
			DefaultValue: "",
			Dest:         &(o.Password),
		},
		{
			Name:         "database",
			Type:         plugin.PluginOptionTypeString,
			Description:  backend + " database holding the read-model",
			DefaultValue: o.Database,
			Dest:         &(o.Database),
		},
		{
			Name:         "dsn",
			Type:         plugin.PluginOptionTypeString,
			Description:  "Full " + backend + " DSN, overrides the other connection options",
			DefaultValue: "",
			Dest:         &(o.DSN),
		},
		{
			Name:         "max-open-conns",
			Type:         plugin.PluginOptionTypeUint,
			Description:  "Maximum open " + backend + " connections",
			DefaultValue: o.MaxOpenConns,
			Dest:         &(o.MaxOpenConns),
		},
	}
}

// GormConfig is the gorm configuration shared by every backend. Writes are
// always made inside an explicit transaction, so gorm's implicit one is
// skipped.
func GormConfig(prepareStmt bool) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		PrepareStmt:            prepareStmt,
	}
}

// ConfigurePool sizes the connection pool of a server backend and exports
// its open connection count
func ConfigurePool(
	db *gorm.DB,
	maxOpenConns uint64,
	reg prometheus.Registerer,
) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if maxOpenConns == 0 {
		maxOpenConns = DefaultMaxOpenConns
	}
	maxOpen := int(min(maxOpenConns, 1024)) //nolint:gosec // bounded above
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(maxOpen, 4))
	sqlDB.SetConnMaxLifetime(time.Hour)
	return RegisterPoolMetrics(db, reg)
}

// RegisterPoolMetrics exports the open connection count of db. A nil
// registry disables it.
func RegisterPoolMetrics(db *gorm.DB, reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return reg.Register(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "database_metadata_open_connections",
				Help: "Open metadata database connections",
			},
			func() float64 {
				return float64(sqlDB.Stats().OpenConnections)
			},
		),
	)
}

// CloseDB closes the connection pool behind a gorm handle that never made it
// into a Store
func CloseDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
