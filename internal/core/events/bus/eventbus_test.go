package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("test.event", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("test.event", "tester", 123)))
	require.NoError(t, b.Publish(NewEvent("other.event", "tester", 456)))
	assert.Equal(t, []any{123}, got)
}

func TestWildcardReceivesEverythingInOrder(t *testing.T) {
	b := New()
	var order []string
	_, err := b.Subscribe(Wildcard, func(e Event) error {
		order = append(order, "wild:"+e.Type())
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe("a", func(e Event) error {
		order = append(order, "a")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("a", "", nil)))
	require.NoError(t, b.Publish(NewEvent("b", "", nil)))
	assert.Equal(t, []string{"wild:a", "a", "wild:b"}, order)
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	b := New()
	e1 := errors.New("one")
	e2 := errors.New("two")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })

	err := b.Publish(NewEvent("x", "src", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, e1))
	assert.True(t, errors.Is(err, e2))
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	_, err := b.Subscribe("x", func(e Event) error { return handlerErr })
	require.NoError(t, err)

	select {
	case e := <-b.PublishAsync(NewEvent("x", "src", nil)):
		assert.ErrorIs(t, e, handlerErr)
	case <-time.After(time.Second):
		t.Fatal("async publish did not complete")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("tick", func(Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers())
	assert.NotEmpty(t, sub.ID())

	require.NoError(t, b.Publish(NewEvent("tick", "", nil)))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Publish(NewEvent("tick", "", nil)))

	assert.Equal(t, 1, calls)
	assert.False(t, sub.IsActive())
	assert.Equal(t, 0, b.Subscribers())
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	n := 0
	_, _ = b.Subscribe(Wildcard, func(Event) error {
		mu.Lock()
		n++
		mu.Unlock()
		return nil
	})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.Publish(NewEvent("e", "", j))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, n)
}

func TestNilHandlerRejected(t *testing.T) {
	_, err := New().Subscribe("x", nil)
	assert.Error(t, err)
}
