package events

import (
	"encoding/json"

	"github.com/nimasrn/otp-gateway/pkg/redis"
	"github.com/pkg/errors"
)

const eventField = "event"

// Publisher appends delivery events to a capped Redis stream. The cap is
// approximate so XADD stays O(1); the auditor persists events long before
// trimming could reach them.
type Publisher struct {
	rdb    redis.RedisAdapter
	stream string
	maxLen int64
}

func NewPublisher(rdb redis.RedisAdapter, stream string, maxLen int64) *Publisher {
	return &Publisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *Publisher) Publish(ev DeliveryEvent) (string, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return "", errors.Wrap(err, "marshaling delivery event")
	}

	id, err := p.rdb.XAddWithMaxLen(p.stream, p.maxLen, map[string]interface{}{
		eventField: body,
	})
	if err != nil {
		return "", errors.Wrap(err, "appending delivery event")
	}
	return id, nil
}
