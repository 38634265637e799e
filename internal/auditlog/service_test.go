package auditlog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sharath018/event-gift-backend/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRow struct {
	ID   uint
	Name string
}

func (userRow) TableName() string { return "users" }

type eventRow struct {
	ID        uint
	EventName string
}

func (eventRow) TableName() string { return "events" }

func uintPtr(v uint) *uint { return &v }

func newTestService(t *testing.T) Service {
	t.Helper()
	db := testdb.Open(t, &AuditLog{}, &userRow{}, &eventRow{})
	require.NoError(t, db.Create(&userRow{ID: 1, Name: "Admin One"}).Error)
	require.NoError(t, db.Create(&eventRow{ID: 7, EventName: "Spring Gala"}).Error)
	return NewService(NewRepository(db))
}

func TestLogActionAndQuery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.LogAction(ctx, uintPtr(1), uintPtr(7), ActionEventCreated,
		map[string]interface{}{"eventName": "Spring Gala"}, "10.0.0.1", StatusSuccess))
	require.NoError(t, svc.LogAction(ctx, nil, nil, ActionLogin,
		map[string]interface{}{"username": "ghost"}, "10.0.0.2", StatusFailure))
	require.NoError(t, svc.LogAction(ctx, uintPtr(1), uintPtr(7), ActionGuestRedeemed, nil, "10.0.0.1", StatusSuccess))

	t.Run("all", func(t *testing.T) {
		page, err := svc.GetAuditLogs(ctx, AuditLogFilter{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.Limit)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("joined names", func(t *testing.T) {
		page, err := svc.GetAuditLogs(ctx, AuditLogFilter{EventID: uintPtr(7), Action: "created"})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		row := page.Data[0]
		require.NotNil(t, row.UserName)
		require.NotNil(t, row.EventName)
		assert.Equal(t, "Admin One", *row.UserName)
		assert.Equal(t, "Spring Gala", *row.EventName)

		var details map[string]string
		require.NoError(t, json.Unmarshal(row.Details, &details))
		assert.Equal(t, "Spring Gala", details["eventName"])
	})

	t.Run("status filter", func(t *testing.T) {
		page, err := svc.GetAuditLogs(ctx, AuditLogFilter{Status: StatusFailure})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, ActionLogin, page.Data[0].Action)
		assert.Nil(t, page.Data[0].UserName)
	})

	t.Run("date window excludes", func(t *testing.T) {
		from := time.Now().Add(24 * time.Hour)
		page, err := svc.GetAuditLogs(ctx, AuditLogFilter{FromDate: &from})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.NotNil(t, page.Data)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := svc.GetAuditLogs(ctx, AuditLogFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Data, 1)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestGetAuditLogByIDNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetAuditLogByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrAuditLogNotFound)
}
