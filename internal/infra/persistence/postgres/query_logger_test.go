package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskmgr/config"
	deliverycontext "taskmgr/internal/delivery/context"
	"taskmgr/internal/domain/entity"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestQueryLogger_DebugModeLogsQueriesWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Env.Debug = true

	db, mock := newMockDB(t)
	db = db.Session(&gorm.Session{Logger: newQueryLogger(newBufferLogger(&buf), cfg)})

	now := time.Now().UTC()
	user := &entity.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "secret-artifact", CreatedAt: now, UpdatedAt: now}
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))

	out := buf.String()
	assert.Contains(t, out, `INSERT INTO \"users\"`)
	assert.NotContains(t, out, "secret-artifact")
	assert.NotContains(t, out, "alice@example.com")
}

func TestQueryLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	ql := newQueryLogger(newBufferLogger(&buf), &config.Config{})
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(context.Background(), time.Now(), sqlFn, nil)
	assert.Empty(t, buf.String(), "fast successful queries are quiet outside debug mode")

	ql.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	ql.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
	assert.Contains(t, buf.String(), "query failed")
	buf.Reset()

	ql.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	ql.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestQueryLogger_UsesRequestLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	ql := newQueryLogger(newBufferLogger(&base), &config.Config{})

	ctx := deliverycontext.WithLogger(context.Background(), newBufferLogger(&scoped).With(slog.String("request_id", "req-1")))
	ql.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "request_id=req-1")
}
