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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	dbFileName = "metadata.sqlite"

	// WAL mode, wait on locks held by API readers, 50MB page cache
	connPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=cache_size(-50000)"

	DefaultVacuumInterval = 24 * time.Hour
)

var memoryDbCounter atomic.Uint64

// Config selects where the SQLite database lives. An empty DataDir gives a
// private in-memory database.
type Config struct {
	DataDir string
	// VacuumInterval is how often unused pages are reclaimed on disk.
	// Zero uses DefaultVacuumInterval.
	VacuumInterval time.Duration
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
}

// Store keeps the read-model in SQLite
type Store struct {
	*gormstore.Store
	config   Config
	logger   *slog.Logger
	mu       sync.Mutex
	stopCh   chan struct{}
	vacuumWg sync.WaitGroup
}

// New returns a store for cfg. The database is opened by Start.
func New(cfg Config) *Store {
	if cfg.VacuumInterval <= 0 {
		cfg.VacuumInterval = DefaultVacuumInterval
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

// Open is New followed by Start
func Open(cfg Config) (*Store, error) {
	s := New(cfg)
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) dsn() (string, error) {
	if s.config.DataDir == "" {
		// Shared cache lets every pooled connection see the same database
		return fmt.Sprintf(
			"file:markstream-%d?mode=memory&cache=shared",
			memoryDbCounter.Add(1),
		), nil
	}
	if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return fmt.Sprintf(
		"file:%s?%s",
		filepath.Join(s.config.DataDir, dbFileName),
		connPragmas,
	), nil
}

// Start implements the plugin.Plugin interface
func (s *Store) Start() error {
	dsn, err := s.dsn()
	if err != nil {
		return err
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormstore.GormConfig(false))
	if err != nil {
		return err
	}
	store, err := gormstore.New(db, s.logger)
	if err != nil {
		gormstore.CloseDB(db)
		return err
	}
	if err := gormstore.RegisterPoolMetrics(db, s.config.PromRegistry); err != nil {
		_ = store.Close()
		return err
	}
	s.mu.Lock()
	s.Store = store
	if s.config.DataDir != "" {
		s.stopCh = make(chan struct{})
		s.vacuumWg.Add(1)
		go s.vacuumLoop(store.DB(), s.stopCh)
	}
	s.mu.Unlock()
	return nil
}

// vacuumLoop reclaims free pages until stopCh is closed
func (s *Store) vacuumLoop(db *gorm.DB, stopCh <-chan struct{}) {
	defer s.vacuumWg.Done()
	ticker := time.NewTicker(s.config.VacuumInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}
		s.logger.Debug(
			"running vacuum on sqlite metadata database",
			"component", "database",
		)
		if err := db.Exec("VACUUM").Error; err != nil {
			s.logger.Error(
				"failed to free unused space in metadata store",
				"component", "database",
				"error", err,
			)
		}
	}
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close stops the vacuum loop and closes the database. It is safe to call
// more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	store := s.Store
	s.Store = nil
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()
	s.vacuumWg.Wait()
	if store == nil {
		return nil
	}
	return store.Close()
}
