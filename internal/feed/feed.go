// Package feed streams committed domain changes from the Redis change feed
// to subscribed clients.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/redis"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

// adminOnly topics never reach buyers or vendors.
var adminOnly = map[enums.OutboxAggregateType]bool{
	enums.AggregateActivity: true,
	enums.AggregateSettings: true,
	enums.AggregateUser:     true,
}

// DefaultTopics is used when a client does not name any.
var DefaultTopics = []enums.OutboxAggregateType{enums.AggregateOrder, enums.AggregateWithdrawal}

// Hub subscribes viewers to change-feed topics.
type Hub struct {
	sub  redis.Subscriber
	logg *logger.Logger
}

func NewHub(sub redis.Subscriber, logg *logger.Logger) (*Hub, error) {
	if sub == nil {
		return nil, fmt.Errorf("redis subscriber required")
	}
	return &Hub{sub: sub, logg: logg}, nil
}

// ParseTopics turns "order,withdrawal" into aggregate types.
func ParseTopics(raw string) ([]enums.OutboxAggregateType, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultTopics, nil
	}
	seen := map[enums.OutboxAggregateType]bool{}
	var topics []enums.OutboxAggregateType
	for _, part := range strings.Split(raw, ",") {
		topic, err := enums.ParseOutboxAggregateType(strings.TrimSpace(part))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown feed topic").
				WithDetails(map[string]any{"topic": part})
		}
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

// Allowed drops topics the viewer may not subscribe to.
func Allowed(viewer visibility.Viewer, topics []enums.OutboxAggregateType) []enums.OutboxAggregateType {
	if viewer.IsAdmin() {
		return topics
	}
	out := make([]enums.OutboxAggregateType, 0, len(topics))
	for _, t := range topics {
		if !adminOnly[t] {
			out = append(out, t)
		}
	}
	return out
}

// Visible reports whether viewer may receive msg.
func Visible(viewer visibility.Viewer, msg outbox.FeedMessage) bool {
	if viewer.IsAdmin() {
		return true
	}
	if adminOnly[msg.AggregateType] {
		return false
	}
	return msg.VisibleTo(viewer.UserID)
}

// Stream delivers every visible message on topics to emit until ctx ends or
// emit fails. ready is called once the subscription is confirmed.
func (h *Hub) Stream(ctx context.Context, viewer visibility.Viewer, topics []enums.OutboxAggregateType, ready func(), emit func(outbox.FeedMessage) error) error {
	topics = Allowed(viewer, topics)
	if len(topics) == 0 {
		return pkgerrors.New(pkgerrors.CodeForbidden, "no permitted feed topics")
	}
	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, h.sub.FeedChannel(string(t)))
	}

	ps, err := h.sub.Subscribe(ctx, channels...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to change feed")
	}
	defer ps.Close()
	if ready != nil {
		ready()
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			msg, ok := h.decode(ctx, raw)
			if !ok || !Visible(viewer, msg) {
				continue
			}
			if err := emit(msg); err != nil {
				return err
			}
		}
	}
}

func (h *Hub) decode(ctx context.Context, raw *goredis.Message) (outbox.FeedMessage, bool) {
	var msg outbox.FeedMessage
	if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
		if h.logg != nil {
			h.logg.Warn(h.logg.WithField(ctx, "channel", raw.Channel), "feed.decode_failed")
		}
		return outbox.FeedMessage{}, false
	}
	return msg, true
}
