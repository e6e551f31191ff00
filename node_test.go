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

package markstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/event"
	"github.com/blinklabs-io/markstream/indexer"
	"github.com/blinklabs-io/markstream/source/jsonl"
)

func testLine(block uint64, evt string, params string) string {
	return fmt.Sprintf(
		`{"event":%q,"blockNumber":%d,"blockTimestamp":%d,"transactionHash":"0xab%062x","logIndex":0,"params":%s}`,
		evt,
		block,
		1700000000+block*12,
		block,
		params,
	)
}

const testContributor = `"contributor":"0x0000000000000000000000000000000000000001"`

func testEvents() string {
	return strings.Join([]string{
		testLine(1, "LabelAdded", `{`+testContributor+`,"label":"1","description":"Test Label"}`),
		testLine(2, "LabelUpVoted", `{`+testContributor+`,"label":"1","fileHash":"123"}`),
		`not json`,
		testLine(3, "LabelDownVoted", `{`+testContributor+`,"label":"1","fileHash":"123"}`),
		// Replayed line is a duplicate
		testLine(3, "LabelDownVoted", `{`+testContributor+`,"label":"1","fileHash":"123"}`),
		testLine(4, "LabelRemoved", `{`+testContributor+`,"label":"1"}`),
	}, "\n")
}

func TestNodeRunToEndOfSource(t *testing.T) {
	var results []indexer.Result
	n, err := New(NewConfig(
		WithSource(jsonl.New(strings.NewReader(testEvents()))),
		WithPrometheusRegistry(prometheus.NewRegistry()),
		WithAppliedFunc(func(res indexer.Result) {
			results = append(results, res)
		}),
	))
	require.NoError(t, err)
	_, labelCh := n.EventBus().Subscribe(event.LabelDeletedEventType)

	require.NoError(t, n.Run(t.Context()))

	require.Len(t, results, 5)
	assert.True(t, results[3].Duplicate)

	db := n.Database()
	require.NotNil(t, db)
	label, err := db.GetLabel("1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, label.Status)
	fileLabel, err := db.GetFileLabel("123-1", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), uint64(fileLabel.TotalUpVotes))
	assert.Equal(t, uint64(1), uint64(fileLabel.TotalDownVotes))
	cp, err := db.GetCheckpoint(nil)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, uint64(4), cp.BlockNumber)

	select {
	case evt := <-labelCh:
		data, ok := evt.Data.(event.LabelEvent)
		require.True(t, ok)
		assert.Equal(t, "1", data.LabelID)
	case <-time.After(5 * time.Second):
		t.Fatal("no label deleted notification")
	}

	require.NoError(t, n.Stop())
	// Stop is idempotent
	require.NoError(t, n.Stop())
}

func TestNodeRunTwice(t *testing.T) {
	n, err := New(NewConfig(
		WithSource(jsonl.New(strings.NewReader(""))),
	))
	require.NoError(t, err)
	defer n.Stop() //nolint:errcheck
	require.NoError(t, n.Run(t.Context()))
	require.Error(t, n.Run(t.Context()))
}

func TestNodeStopCancelsRun(t *testing.T) {
	srv, err := natsserver.NewServer(
		&natsserver.Options{
			Host:      "127.0.0.1",
			Port:      -1,
			JetStream: true,
			StoreDir:  t.TempDir(),
		},
	)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second))

	subConn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer subConn.Close()
	msgCh := make(chan *nats.Msg, 8)
	sub, err := subConn.ChanSubscribe("notify.>", msgCh)
	require.NoError(t, err)
	defer sub.Unsubscribe() //nolint:errcheck
	require.NoError(t, subConn.Flush())

	n, err := New(NewConfig(
		WithNatsURL(srv.ClientURL()),
		WithJetStream("", "", ""),
		WithNotifySubjectPrefix("notify"),
		WithShutdownTimeout(10*time.Second),
	))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(context.Background())
	}()

	// Publish through JetStream once the stream exists
	pubConn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer pubConn.Close()
	js, err := pubConn.JetStream()
	require.NoError(t, err)
	line := testLine(1, "LabelAdded", `{`+testContributor+`,"label":"7","description":"Seven"}`)
	require.Eventually(t, func() bool {
		_, err := js.Publish("markstream.contract.LabelAdded", []byte(line))
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	select {
	case msg := <-msgCh:
		var evt event.Event
		require.NoError(t, json.Unmarshal(msg.Data, &evt))
		assert.True(t, strings.HasPrefix(msg.Subject, "notify."))
	case <-time.After(10 * time.Second):
		t.Fatal("no notification forwarded")
	}

	require.NoError(t, n.Stop())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
