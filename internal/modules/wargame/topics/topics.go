package topics

import (
	"github.com/nfrund/eventbus/internal/modules/wargame/events"
	"github.com/nfrund/eventbus/internal/pubsub"
)

// TopicHit carries engine hits to the wargame relay.
var TopicHit = pubsub.NewEvent[events.Hit]("wargame.hit", "A shot landed on a unit; relayed to the event bus as a damage notification")
