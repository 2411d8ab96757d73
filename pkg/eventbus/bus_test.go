package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversInOrder(t *testing.T) {
	bus := New[int]()
	var got []string

	bus.Subscribe(func(v int) { got = append(got, "a") })
	bus.Subscribe(func(v int) { got = append(got, "b") })
	bus.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New[string]()
	var got []string

	unsubscribe := bus.Subscribe(func(v string) { got = append(got, v) })
	bus.Publish("first")
	unsubscribe()
	unsubscribe()
	bus.Publish("second")

	assert.Equal(t, []string{"first"}, got)
	assert.Equal(t, 0, bus.Len())
}

func TestSubscribeDuringPublishAppliesNextTime(t *testing.T) {
	bus := New[int]()
	late := 0

	bus.Subscribe(func(v int) {
		if v == 1 {
			bus.Subscribe(func(int) { late++ })
		}
	})
	bus.Publish(1)
	assert.Equal(t, 0, late)

	bus.Publish(2)
	assert.Equal(t, 1, late)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() { New[struct{}]().Publish(struct{}{}) })
}
