package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTargetUser(t *testing.T) {
	h := NewHub()
	a1, closeA1 := h.Subscribe("user-a")
	a2, closeA2 := h.Subscribe("user-a")
	b, closeB := h.Subscribe("user-b")
	defer closeB()

	n := h.Publish("user-a", Event{Event: EventSignedOut})
	assert.Equal(t, 2, n)

	got := <-a1
	assert.Equal(t, "user-a", got.UserID)
	assert.Equal(t, EventSignedOut, got.Event)
	<-a2
	assert.Empty(t, b)

	closeA1()
	closeA2()
	assert.Equal(t, 0, h.SubscriberCount("user-a"))
	assert.Equal(t, 0, h.Publish("user-a", Event{Event: EventSignedOut}))
}

func TestHub_FullStreamIsSkipped(t *testing.T) {
	h := NewHub()
	_, cleanup := h.Subscribe("u")
	defer cleanup()

	for i := 0; i < 10; i++ {
		require.Equal(t, 1, h.Publish("u", Event{Event: EventTokenRefreshed}))
	}
	assert.Equal(t, 0, h.Publish("u", Event{Event: EventTokenRefreshed}))
}

func TestEvent_Write(t *testing.T) {
	var buf bytes.Buffer
	err := Event{Event: EventSignedOut, Data: map[string]string{"reason": "logout"}}.Write(&buf)
	require.NoError(t, err)
	assert.Equal(t, "event: SIGNED_OUT\ndata: {\"reason\":\"logout\"}\n\n", buf.String())
}
