package activities

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/dbtest"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc, conn
}

func TestRecordWritesActivityAndOutboxRow(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	actor := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Record(ctx, tx, Entry{Icon: IconVendor, Text: `Muuzaji mpya "Kuku Bora" amejisajili`, ActorID: actor})
	})
	require.NoError(t, err)

	var stored models.Activity
	require.NoError(t, conn.First(&stored).Error)
	assert.Equal(t, IconVendor, stored.Icon)
	require.NotNil(t, stored.ActorID)
	assert.Equal(t, actor, *stored.ActorID)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventActivityRecorded, events[0].EventType)
	assert.Equal(t, stored.ID, events[0].AggregateID)
}

func TestRecordRejectsBlankText(t *testing.T) {
	svc, conn := newTestService(t)
	err := svc.Record(context.Background(), conn, Entry{Icon: IconOrder, Text: "   "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListIsNewestFirstAndPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, svc.Record(ctx, conn, Entry{Icon: IconOrder, Text: text}))
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "third", page.Items[0].Text)
	assert.Equal(t, "second", page.Items[1].Text)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "first", rest.Items[0].Text)
	assert.Empty(t, rest.NextCursor)
}
