package nats

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thuan734655/DACS3-Server/internal/realtime/fanout"
)

type recordingLocal struct{ got []fanout.Envelope }

func (l *recordingLocal) DispatchLocal(env fanout.Envelope) int {
	l.got = append(l.got, env)
	return 1
}

func newTestRelay() *Relay {
	return &Relay{subject: "realtime.fanout", node: "node-a", log: slog.Default()}
}

func TestDeliver_ForeignEnvelope(t *testing.T) {
	r := newTestRelay()
	local := &recordingLocal{}
	data, err := json.Marshal(fanout.Envelope{
		Origin:  "node-b",
		Event:   "task:created",
		Rooms:   []string{"workspace:w1"},
		Except:  "c1",
		Payload: json.RawMessage(`{"id":"t1"}`),
	})
	require.NoError(t, err)

	r.deliver(local, data)

	require.Len(t, local.got, 1)
	assert.Equal(t, "task:created", local.got[0].Event)
	assert.Equal(t, []string{"workspace:w1"}, local.got[0].Rooms)
	assert.Equal(t, "c1", local.got[0].Except)
	assert.JSONEq(t, `{"id":"t1"}`, string(local.got[0].Payload))
}

func TestDeliver_IgnoresOwnEnvelope(t *testing.T) {
	r := newTestRelay()
	local := &recordingLocal{}
	data, err := json.Marshal(fanout.Envelope{Origin: "node-a", Event: "task:created", Rooms: []string{"workspace:w1"}})
	require.NoError(t, err)

	r.deliver(local, data)

	assert.Empty(t, local.got)
}

func TestDeliver_MalformedIsDropped(t *testing.T) {
	r := newTestRelay()
	local := &recordingLocal{}

	r.deliver(local, []byte("{"))

	assert.Empty(t, local.got)
}
