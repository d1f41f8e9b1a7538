package tracking

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matst80/slask-browse/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ SessionTracking = LogTracking{}
	_ SessionTracking = &RabbitTracking{}
)

func TestSearchEventData(t *testing.T) {
	data := newSearchEventData(types.SearchEvent{
		InstanceId: "abc",
		Endpoint:   "standard",
		Query:      "analisi",
		Params:     map[string]string{"text": "analisi"},
		Results:    12,
		Downgraded: true,
	})
	bytes, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"instance_id":"abc",
		"context":"browse",
		"event":1,
		"endpoint":"standard",
		"params":{"text":"analisi"},
		"noi":12,
		"query":"analisi",
		"downgraded":true
	}`, string(bytes))
}

func TestClientIp(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", clientIp(r))

	r.Header.Set("X-Forwarded-For", "192.168.1.2")
	assert.Equal(t, "192.168.1.2", clientIp(r))

	r.Header.Set("X-Real-Ip", "172.16.0.3")
	assert.Equal(t, "172.16.0.3", clientIp(r))
}

type recordingTracking struct {
	events []types.SearchEvent
	closed bool
}

func (r *recordingTracking) TrackSearch(event types.SearchEvent) {
	r.events = append(r.events, event)
}

func (r *recordingTracking) Close() error {
	r.closed = true
	return nil
}

func TestQueuedTrackingFlushesOnClose(t *testing.T) {
	inner := &recordingTracking{}
	q := NewQueuedTracking(inner, time.Hour)
	q.TrackSearch(types.SearchEvent{InstanceId: "a", Results: 1})
	q.TrackSearch(types.SearchEvent{InstanceId: "b", Results: 2})

	require.NoError(t, q.Close())
	assert.True(t, inner.closed)
	require.Len(t, inner.events, 2)
	assert.Equal(t, "a", inner.events[0].InstanceId)
	assert.Equal(t, "b", inner.events[1].InstanceId)
}
