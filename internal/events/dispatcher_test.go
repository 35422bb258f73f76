package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDispatcher_PublishToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventLoginFailed, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventLogout, func(context.Context, Event) error {
		t.Fatal("logout handler must not run")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventLoginFailed, "", "a@x.com", nil)))
	assert.Equal(t, []EventType{EventLoginFailed}, got)
}

func TestInMemoryDispatcher_HandlerErrorsJoined(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventPasswordChanged, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventPasswordChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventPasswordChanged, "a1", "a@x.com", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "later handlers still run")
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventLoginSucceeded, "a1", "a@x.com", LoginSucceededPayload{RememberMe: true})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "a1", e.AccountID)
}
