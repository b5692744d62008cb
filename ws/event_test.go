package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/kolab/models"
)

func TestCallChannel(t *testing.T) {
	assert.Equal(t, "calls:user-1", CallChannel("user-1"))
}

func TestEnvelopeWireFormat(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "broadcast",
		"channel": "calls:user-2",
		"event": "ice-candidate",
		"payload": {"candidate": {"candidate": "candidate:1"}}
	}`), &env))

	assert.Equal(t, TypeBroadcast, env.Type)
	assert.Equal(t, "calls:user-2", env.Channel)
	assert.Equal(t, models.SignalICECandidate, env.Event)
	assert.NotEmpty(t, env.Payload)
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	// Server → client relay'inde channel alanı düşer; heartbeat ack'te
	// event/payload da bulunmaz.
	raw, err := json.Marshal(Envelope{Type: TypeHeartbeatAck})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"heartbeat_ack"}`, string(raw))
}
