package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// BridgeConfig configures a WatermillBridge.
type BridgeConfig struct {
	// BlockPublishUntilAck makes Publish wait until every subscriber handler
	// has finished with the message. Useful when a caller needs the effects of
	// a publish to be visible as soon as Publish returns.
	BlockPublishUntilAck bool

	// Logger receives handler failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// WatermillBridge implements the Publisher and Subscriber interfaces using watermill's GoChannel.
type WatermillBridge struct {
	pub message.Publisher
	sub message.Subscriber
	// Logger for watermill to use
	wmLogger watermill.LoggerAdapter
	logger   *slog.Logger
}

// metaKeyTopic carries Message.Topic through the watermill message metadata.
const metaKeyTopic = "topic"

// NewWatermillBridge initializes an in-memory Pub/Sub system.
func NewWatermillBridge(cfg BridgeConfig) *WatermillBridge {
	wmLogger := watermill.NewStdLogger(false, false)
	// GoChannel is a simple in-memory pub/sub implementation.
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			BlockPublishUntilSubscriberAck: cfg.BlockPublishUntilAck,
		},
		wmLogger,
	)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &WatermillBridge{
		pub:      goChannel,
		sub:      goChannel,
		wmLogger: wmLogger,
		logger:   logger.With("component", "pubsub"),
	}
}

// mapToWatermillMessage converts our pubsub.Message to a watermill message.
func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our internal pubsub.Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	return Message{
		Topic:   wmMsg.Metadata.Get(metaKeyTopic),
		Payload: wmMsg.Payload,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(msg))
}

// Subscribe implements the Subscriber interface. Messages are handled on a
// background goroutine until ctx is canceled or the bridge is closed.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := mapToPubSubMessage(wmMsg)

			// GoChannel redelivers nacked messages forever. Nothing on this
			// path is transient, so failures are logged and the message acked.
			if err := handler(ctx, msg); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		wb.logger.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close implements the Publisher and Subscriber interface to shut down the bridge.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
