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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/database/plugin/blob"
	"github.com/blinklabs-io/markstream/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/markstream/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/markstream/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/markstream/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/markstream/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the configuration for opening a database
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	BlobPlugin     string
	MetadataPlugin string
	// DataDir is passed to plugins that store data locally. An empty value
	// keeps all data in memory.
	DataDir string
}

// Database pairs a blob store holding the event journal with a metadata
// store holding the queryable read-model
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	now      func() time.Time
	// lastCommit is the newest commit timestamp handed out or found on disk
	lastCommit   int64
	lastCommitMu sync.Mutex
}

// Blob returns the journal store
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// Metadata returns the read-model store
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a transaction spanning both stores
func (d *Database) Transaction(readWrite bool) *Txn {
	return newTxn(d, readWrite)
}

// Close closes both stores, reporting every failure
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (c *Config) pluginNames() (blobName, metadataName string) {
	blobName, metadataName = c.BlobPlugin, c.MetadataPlugin
	if blobName == "" {
		blobName = DefaultBlobPlugin
	}
	if metadataName == "" {
		metadataName = DefaultMetadataPlugin
	}
	return blobName, metadataName
}

// New opens both stores and verifies that they were last committed
// together. On a CommitTimestampError the opened database is returned
// alongside the error so the caller can rebuild it.
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	blobName, metadataName := config.pluginNames()
	// Plugins without a data-dir option ignore it
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, blobName, "data-dir", config.DataDir); err != nil {
		return nil, err
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, metadataName, "data-dir", config.DataDir); err != nil {
		return nil, err
	}
	rt := plugin.Runtime{
		Logger:       logger,
		PromRegistry: config.PromRegistry,
	}
	metadataStore, err := metadata.New(metadataName, rt)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobStore, err := blob.New(blobName, rt)
	if err != nil {
		_ = metadataStore.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db := &Database{
		logger:   logger,
		blob:     blobStore,
		metadata: metadataStore,
		now:      time.Now,
	}
	if err := db.checkCommitTimestamp(); err != nil {
		logger.Warn(
			"commit timestamp check failed",
			"component", "database",
			"error", err,
		)
		return db, err
	}
	logger.Debug(
		"database opened",
		"component", "database",
		"blob", blobName,
		"metadata", metadataName,
	)
	return db, nil
}
