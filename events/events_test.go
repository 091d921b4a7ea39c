package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe("insert", func(ctx context.Context, e Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe("insert", func(ctx context.Context, e Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe("remove", func(ctx context.Context, e Event) error {
		got = append(got, "other")
		return nil
	})

	err := bus.Publish(context.Background(), Event{Collection: "users", Name: "insert"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublishWildcard(t *testing.T) {
	bus := NewBus()
	var names []string

	bus.Subscribe(Wildcard, func(ctx context.Context, e Event) error {
		names = append(names, e.Name)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Name: "insert"}))
	require.NoError(t, bus.Publish(context.Background(), Event{Name: "drop"}))
	assert.Equal(t, []string{"insert", "drop"}, names)
}

func TestPublishPropagatesError(t *testing.T) {
	bus := NewBus()
	fail := errors.New("subscriber failed")

	bus.Subscribe("insert", func(ctx context.Context, e Event) error {
		return fail
	})
	called := false
	bus.Subscribe("insert", func(ctx context.Context, e Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Name: "insert"})
	assert.ErrorIs(t, err, fail)
	assert.False(t, called, "delivery stops at the first error")
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0

	cancel := bus.Subscribe("insert", func(ctx context.Context, e Event) error {
		count++
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), Event{Name: "insert"}))
	cancel()
	require.NoError(t, bus.Publish(context.Background(), Event{Name: "insert"}))
	assert.Equal(t, 1, count)
}
