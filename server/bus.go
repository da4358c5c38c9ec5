package server

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	Logger "github.com/sparksblog/sparks/utils/log"
)

const TopicIdeaMutated = "ideas.mutated"

// Bus is the in-process event bus connecting mutation handlers to live feed
// connections. For now we use a golang channel implementation for the
// EventBus, but later when needed we could substitute it with a Kafka-based
// EventBus.
type Bus struct {
	inner *gochannel.GoChannel
}

func NewBus() *Bus {
	return &Bus{
		inner: gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewStdLogger(false, false),
		),
	}
}

// PublishIdeaMutated announces that an idea was created or changed. Delivery
// failures are logged, a mutation never fails because of fan-out.
func (b *Bus) PublishIdeaMutated(ideaID string) {
	msg := message.NewMessage(watermill.NewUUID(), []byte(ideaID))
	if err := b.inner.Publish(TopicIdeaMutated, msg); err != nil {
		Logger.Log.Error("fail to publish idea mutation event: ", err)
	}
}

// SubscribeIdeaMutated delivers mutation events until ctx is done.
func (b *Bus) SubscribeIdeaMutated(ctx context.Context) (<-chan *message.Message, error) {
	return b.inner.Subscribe(ctx, TopicIdeaMutated)
}

func (b *Bus) Close() error {
	return b.inner.Close()
}
