package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"eventId":"evt-1","occurredAt":"2026-01-02T03:04:05Z","data":{"orderId":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt-1", env.EventID)
	assert.JSONEq(t, `{"orderId":"x"}`, string(env.Data))

	cases := map[string]string{
		"malformed":      `{"version":`,
		"future version": `{"version":2,"eventId":"evt","data":{}}`,
		"zero version":   `{"eventId":"evt","data":{}}`,
		"no event id":    `{"version":1,"data":{}}`,
		"null data":      `{"version":1,"eventId":"evt","data":null}`,
		"missing data":   `{"version":1,"eventId":"evt"}`,
	}
	for name, raw := range cases {
		_, err := DecodeEnvelope([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestNewEnvelopeDefaults(t *testing.T) {
	env, err := newEnvelope(DomainEvent{Data: map[string]int{"qty": 2}})
	require.NoError(t, err)
	assert.Equal(t, CurrentEnvelopeVersion, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.False(t, env.OccurredAt.IsZero())
	assert.JSONEq(t, `{"qty":2}`, string(env.Data))

	_, err = newEnvelope(DomainEvent{Data: make(chan int)})
	assert.Error(t, err)
}
