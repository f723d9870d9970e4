package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shot struct {
	Target string `json:"target"`
	Amount int    `json:"amount"`
}

var testShot = NewEvent[shot]("test.shot", "A shot was fired")

func TestWatermillBridge_TypedRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(BridgeConfig{BlockPublishUntilAck: true})
	defer bridge.Close()

	var (
		mu       sync.Mutex
		received []shot
	)
	err := Subscribe(ctx, bridge, testShot, func(ctx context.Context, s shot) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, s)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, Publish(ctx, bridge, testShot, shot{Target: "alpha", Amount: 12}))
	require.NoError(t, Publish(ctx, bridge, testShot, shot{Target: "bravo", Amount: 7}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []shot{{Target: "alpha", Amount: 12}, {Target: "bravo", Amount: 7}}, received)
}

func TestWatermillBridge_BadPayloadIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge(BridgeConfig{BlockPublishUntilAck: true})
	defer bridge.Close()

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, Subscribe(ctx, bridge, testShot, func(ctx context.Context, s shot) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: testShot.Name(), Payload: []byte("{not json")}))
	require.NoError(t, Publish(ctx, bridge, testShot, shot{Target: "alpha", Amount: 1}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMessageMapping(t *testing.T) {
	msg := Message{
		Topic:   "test.topic",
		Payload: []byte(`{"hello":"world"}`),
	}

	wmMsg := mapToWatermillMessage(msg)
	assert.NotEmpty(t, wmMsg.UUID)
	assert.Equal(t, "test.topic", wmMsg.Metadata.Get(metaKeyTopic))

	got := mapToPubSubMessage(wmMsg)
	assert.Equal(t, msg.Topic, got.Topic)
	assert.Equal(t, msg.Payload, []byte(got.Payload))
}
