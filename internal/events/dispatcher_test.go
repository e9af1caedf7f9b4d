package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(EventLoginCompleted, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), New(EventLoginCompleted, "a@x.com", nil)))
	require.NoError(t, d.Publish(context.Background(), New(EventLoginFailed, "", nil)))

	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].Actor)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestDispatcher_HandlerErrorsDoNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	called := 0
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error { return boom })
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		called++
		return nil
	})

	err := d.Publish(context.Background(), New(EventLoginFailed, "", LoginFailedPayload{Reason: "auth_failed"}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, called)
}

func TestDispatcher_SubscribeAllAndPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []EventType
	d.SubscribeAll(func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	d.Subscribe(EventOrganisationDeleted, func(context.Context, Event) error { panic("nil map") })

	require.NoError(t, d.Publish(context.Background(), New(EventLoginCompleted, "a@x.com", nil)))
	err := d.Publish(context.Background(), New(EventOrganisationDeleted, "o@x.com", OrganisationPayload{OrganisationID: 1}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
	assert.Equal(t, []EventType{EventLoginCompleted, EventOrganisationDeleted}, seen)
}
