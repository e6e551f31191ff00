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

package jsonl_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/source/jsonl"
)

const testInput = `{"event":"LabelAdded","blockNumber":1,"transactionHash":"0xab00000000000000000000000000000000000000000000000000000000000001","logIndex":0,"params":{"contributor":"0x0000000000000000000000000000000000000001","label":"1","description":"Test Label"}}

{"event":"LabelUpVoted","blockNumber":2,"transactionHash":"0xab00000000000000000000000000000000000000000000000000000000000002","logIndex":0,"params":{"contributor":"0x0000000000000000000000000000000000000001","label":"1","fileHash":"123"}}
{"event":"LabelUpVoted","params":{}}
{"event":"OwnerChanged","blockNumber":3,"transactionHash":"0xab00000000000000000000000000000000000000000000000000000000000003","logIndex":0,"params":{"newOwner":"0x0000000000000000000000000000000000000009"}}
`

func TestSourceNext(t *testing.T) {
	src := jsonl.New(strings.NewReader(testInput))
	defer src.Close()
	ctx := context.Background()

	d, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, contract.KindLabelAdded, d.Event().Kind())
	require.NoError(t, d.Ack())
	assert.Equal(t, 1, src.Line())

	// Blank line is skipped
	d, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, contract.KindLabelUpVoted, d.Event().Kind())
	assert.Equal(t, 3, src.Line())

	// Malformed line is reported and skipped
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, contract.ErrMalformedEvent)
	assert.Contains(t, err.Error(), "line 4")

	d, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, contract.KindOwnerChanged, d.Event().Kind())

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestSourceNextCancelled(t *testing.T) {
	src := jsonl.New(strings.NewReader(testInput))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSourceLineTooLong(t *testing.T) {
	src := jsonl.New(strings.NewReader(strings.Repeat("x", jsonl.MaxLineSize+1)))
	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, contract.ErrMalformedEvent)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(testInput), 0o600))

	src, err := jsonl.Open(path)
	require.NoError(t, err)
	d, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Event().Metadata().BlockNumber)
	require.NoError(t, src.Close())
	// Closing twice is harmless
	require.NoError(t, src.Close())

	_, err = jsonl.Open(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}
