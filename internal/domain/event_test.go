package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"livemode": true,
		"data": {"object": {"id": "sub_1", "quantity": 2}}
	}`)

	event, err := ParseEvent(body)

	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "customer.subscription.updated", event.Type)
	assert.True(t, event.LiveMode)
	assert.Equal(t, "sub_1", event.Object["id"])
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "plain text"},
		{"json array", "[1,2,3]"},
		{"missing id", `{"type":"plan.created"}`},
		{"missing type", `{"id":"evt_1"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, IsDomainError(err, ErrorCodeEventMalformed))
		})
	}
}

func TestEvent_TypeSuffixes(t *testing.T) {
	assert.True(t, (&Event{Type: "plan.created"}).IsCreation())
	assert.False(t, (&Event{Type: "plan.created"}).IsDeletion())
	assert.True(t, (&Event{Type: "customer.discount.deleted"}).IsDeletion())
	assert.False(t, (&Event{Type: "plan.updated"}).IsCreation())
}

func TestEvent_MatchesMode(t *testing.T) {
	live := &Event{LiveMode: true}
	test := &Event{LiveMode: false}

	assert.True(t, live.MatchesMode(ModeLive))
	assert.False(t, live.MatchesMode(ModeTest))
	assert.True(t, test.MatchesMode(ModeTest))
	assert.False(t, test.MatchesMode(ModeLive))
}
