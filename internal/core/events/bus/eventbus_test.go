package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()

	var got []any
	_, err := b.Subscribe("vehicle.spawned", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("vehicle.spawned", "test", 123, nil)))
	require.NoError(t, b.Publish(NewEvent("vehicle.finished", "test", 456, nil)))

	assert.Equal(t, []any{123}, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		_, err := b.Subscribe("e", func(Event) error {
			order = append(order, name)
			return nil
		})
		require.NoError(t, err)
	}
	_, err := b.SubscribeAll(func(Event) error {
		order = append(order, "*")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("e", "src", nil, nil)))
	assert.Equal(t, []string{"a", "b", "c", "*"}, order)
}

func TestWildcardReceivesEveryType(t *testing.T) {
	b := New()

	var types []string
	sub, err := b.SubscribeAll(func(e Event) error {
		types = append(types, e.Type())
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, sub.EventType())

	require.NoError(t, b.PublishBatch(
		NewEvent("one", "src", nil, nil),
		NewEvent("two", "src", nil, nil),
	))
	assert.Equal(t, []string{"one", "two"}, types)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA, errB := errors.New("a"), errors.New("b")

	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return errB })

	err := b.Publish(NewEvent("x", "src", nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	err = b.PublishBatch(NewEvent("x", "src", nil, nil), NewEvent("y", "src", nil, nil))
	assert.ErrorIs(t, err, errB)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("x", func(Event) error { count++; return nil })
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("x", "src", nil, nil)))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Unsubscribe(nil))
	require.NoError(t, b.Publish(NewEvent("x", "src", nil, nil)))

	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
}

func TestCancelFromInsideHandler(t *testing.T) {
	b := New()
	count := 0
	var sub Subscription
	sub, _ = b.Subscribe("x", func(Event) error {
		count++
		return sub.Cancel()
	})

	require.NoError(t, b.Publish(NewEvent("x", "src", nil, nil)))
	require.NoError(t, b.Publish(NewEvent("x", "src", nil, nil)))
	assert.Equal(t, 1, count)
}

func TestSubscribeRejectsBadInput(t *testing.T) {
	b := New()

	_, err := b.Subscribe("x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	_, err = b.Subscribe("", func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = b.Subscribe(wildcard, func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Zero(t, b.GetMetrics().Published)

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))

	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(1), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.SubscribersActive)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, nil))
	assert.Equal(t, 1, obs.publishCount)
}
