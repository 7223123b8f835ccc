package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/redis"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

func TestParseTopics(t *testing.T) {
	topics, err := ParseTopics("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopics, topics)

	topics, err = ParseTopics("order, withdrawal,order")
	require.NoError(t, err)
	assert.Equal(t, []enums.OutboxAggregateType{enums.AggregateOrder, enums.AggregateWithdrawal}, topics)

	_, err = ParseTopics("order,payments")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestVisibility(t *testing.T) {
	buyer := visibility.Viewer{UserID: uuid.New(), Role: enums.RoleUser}
	admin := visibility.Viewer{UserID: uuid.New(), Role: enums.RoleAdmin}
	mine := outbox.FeedMessage{AggregateType: enums.AggregateOrder, Audience: []uuid.UUID{buyer.UserID}}
	theirs := outbox.FeedMessage{AggregateType: enums.AggregateOrder, Audience: []uuid.UUID{uuid.New()}}
	activity := outbox.FeedMessage{AggregateType: enums.AggregateActivity, Actor: &outbox.ActorRef{UserID: buyer.UserID}}

	assert.True(t, Visible(buyer, mine))
	assert.False(t, Visible(buyer, theirs))
	assert.False(t, Visible(buyer, activity))
	assert.True(t, Visible(admin, theirs))
	assert.True(t, Visible(admin, activity))

	assert.Equal(t, []enums.OutboxAggregateType{enums.AggregateOrder}, Allowed(buyer, []enums.OutboxAggregateType{enums.AggregateOrder, enums.AggregateSettings}))
}

func TestStreamFiltersByAudience(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	hub, err := NewHub(client, nil)
	require.NoError(t, err)

	vendor := visibility.Viewer{UserID: uuid.New(), Role: enums.RoleVendor}
	other := outbox.FeedMessage{EventID: "1", AggregateType: enums.AggregateOrder, Audience: []uuid.UUID{uuid.New()}}
	mine := outbox.FeedMessage{EventID: "2", AggregateType: enums.AggregateOrder, Audience: []uuid.UUID{vendor.UserID}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ready := make(chan struct{})
	got := make(chan outbox.FeedMessage, 2)
	done := make(chan error, 1)
	go func() {
		done <- hub.Stream(ctx, vendor, []enums.OutboxAggregateType{enums.AggregateOrder}, func() { close(ready) }, func(m outbox.FeedMessage) error {
			got <- m
			cancel()
			return nil
		})
	}()

	<-ready
	channel := client.FeedChannel(string(enums.AggregateOrder))
	for _, m := range []outbox.FeedMessage{other, mine} {
		body, err := json.Marshal(m)
		require.NoError(t, err)
		require.NoError(t, client.Publish(context.Background(), channel, body))
	}

	require.NoError(t, <-done)
	require.Len(t, got, 1)
	assert.Equal(t, "2", (<-got).EventID)
}
