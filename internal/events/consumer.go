package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nimasrn/otp-gateway/pkg/redis"
	"github.com/pkg/errors"
)

// Message pairs a decoded delivery event with its stream id so the
// caller can ack it after processing.
type Message struct {
	ID    string
	Event DeliveryEvent
}

// Consumer reads delivery events through a consumer group. Creating the
// group is idempotent so several auditor replicas can start in any order.
type Consumer struct {
	rdb      redis.RedisAdapter
	stream   string
	group    string
	consumer string
}

func NewConsumer(rdb redis.RedisAdapter, stream, group, consumer string) (*Consumer, error) {
	err := rdb.XGroupCreateMkStream(stream, group, "0")
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, errors.Wrap(err, "creating consumer group")
	}
	return &Consumer{rdb: rdb, stream: stream, group: group, consumer: consumer}, nil
}

// Fetch blocks up to the given duration for new events. A nil slice with
// a nil error means the block timed out with nothing to read.
func (c *Consumer) Fetch(count int64, block time.Duration) ([]Message, error) {
	raw, err := c.rdb.XReadGroup(c.group, c.consumer, c.stream, ">", count, block)
	if err != nil {
		return nil, errors.Wrap(err, "reading delivery events")
	}

	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		payload, ok := m.Values[eventField].(string)
		if !ok {
			// malformed entries are acked away instead of wedging the group
			_ = c.rdb.XAck(c.stream, c.group, m.ID)
			continue
		}
		var ev DeliveryEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			_ = c.rdb.XAck(c.stream, c.group, m.ID)
			continue
		}
		out = append(out, Message{ID: m.ID, Event: ev})
	}
	return out, nil
}

func (c *Consumer) Ack(ids ...string) error {
	return c.rdb.XAck(c.stream, c.group, ids...)
}

func (c *Consumer) Pending() (int64, error) {
	return c.rdb.XLen(c.stream)
}
