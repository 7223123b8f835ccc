package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kukumart/marketplace-backend/pkg/logger"
)

func newCapturedQueryLog(slow time.Duration) (gormlogger.Interface, *bytes.Buffer) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf})
	return newQueryLog(logg, slow), &buf
}

func statement() (string, int64) {
	return "SELECT * FROM orders", 3
}

func TestQueryLogWritesFailuresAndSlowStatements(t *testing.T) {
	ql, buf := newCapturedQueryLog(50 * time.Millisecond)
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), statement, nil)
	assert.Empty(t, buf.String(), "fast successful statements stay quiet")

	ql.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "not found is not a failure")

	ql.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	assert.Contains(t, buf.String(), "db.slow_query")
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	ql.Trace(ctx, time.Now(), statement, errors.New("relation does not exist"))
	assert.Contains(t, buf.String(), "db.query_failed")
	assert.Contains(t, buf.String(), "SELECT * FROM orders")
}

func TestQueryLogSilentMode(t *testing.T) {
	ql, buf := newCapturedQueryLog(time.Millisecond)
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now().Add(-time.Second), statement, errors.New("boom"))
	assert.Empty(t, buf.String())

	ql.Trace(context.Background(), time.Now(), statement, errors.New("boom"))
	assert.NotEmpty(t, buf.String(), "LogMode must not mutate the receiver")
}

func TestQueryLogWithoutLoggerDiscards(t *testing.T) {
	assert.Equal(t, gormlogger.Discard, newQueryLog(nil, time.Second))
}
