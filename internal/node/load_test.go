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

package node

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/internal/config"
)

func writeEventFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(
		t,
		os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600),
	)
	return path
}

func labelAddedLine(block uint64, label int) string {
	return fmt.Sprintf(
		`{"event":"LabelAdded","blockNumber":%d,"blockTimestamp":1700000000,"transactionHash":"0xcd%062x","logIndex":0,"params":{"contributor":"0x0000000000000000000000000000000000000001","label":"%d","description":"label %d"}}`,
		block,
		block,
		label,
		label,
	)
}

func testConfig() *config.Config {
	return &config.Config{
		BlobPlugin:      config.DefaultBlobPlugin,
		MetadataPlugin:  config.DefaultMetadataPlugin,
		ShutdownTimeout: "5s",
	}
}

func TestLoad(t *testing.T) {
	path := writeEventFile(
		t,
		labelAddedLine(1, 1),
		labelAddedLine(2, 2),
		labelAddedLine(2, 2),
		labelAddedLine(3, 3),
	)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	stats, err := Load(t.Context(), testConfig(), logger, path)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Applied)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, uint64(3), stats.LastBlock)
}

func TestLoadOutOfOrderFails(t *testing.T) {
	path := writeEventFile(
		t,
		labelAddedLine(5, 1),
		labelAddedLine(4, 2),
	)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	stats, err := Load(t.Context(), testConfig(), logger, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of order")
	assert.Equal(t, 1, stats.Applied)
}

func TestLoadMissingFile(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	_, err := Load(
		t.Context(),
		testConfig(),
		logger,
		filepath.Join(t.TempDir(), "missing.jsonl"),
	)
	require.Error(t, err)
}

func TestLoadInvalidShutdownTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ShutdownTimeout = "soon"
	_, err := Load(t.Context(), cfg, nil, "-")
	require.Error(t, err)
}
