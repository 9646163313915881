package exam

import "github.com/rs/zerolog/log"

const subscriberBuffer = 16

// Subscribe returns a channel receiving every event emitted from now on and a
// function that ends the subscription. The channel is closed when either the
// subscription is cancelled or the controller is closed. A subscriber that
// falls behind by more than the buffer misses events; it can resync with Snapshot.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	if c.subs == nil {
		c.subs = make(map[chan Event]struct{})
	}
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Controller) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for ch := range c.subs {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("assessment_id", c.assessmentID).Str("event", string(ev.Type)).Msg("Dropping event for slow subscriber")
		}
	}
}

func (c *Controller) closeSubscribers() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}
