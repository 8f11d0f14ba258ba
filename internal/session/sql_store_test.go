package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/migrate"
)

func newSQLiteClient(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()
	cfg := config.DBConfig{SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())}
	client, err := db.New(ctx, config.StorageDriverSQLite, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQLDB()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, sqlDB, client.Dialect()))
	return client
}

func TestSQLStorePutFetchUpserts(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)
	store := NewSQLStore(client, "till-1")

	require.NoError(t, store.Put(ctx, map[string]string{KeyTabs: "[]", KeyActiveTabID: "1"}))
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Put(ctx, map[string]string{KeyActiveTabID: "3"}))

	values, err := store.Fetch(ctx, KeyTabs, KeyActiveTabID, KeyLocationID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyTabs: "[]", KeyActiveTabID: "3"}, values)

	var count int64
	require.NoError(t, client.DB().Table("terminal_state").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSQLStoreIsolatesTerminals(t *testing.T) {
	ctx := context.Background()
	client := newSQLiteClient(t)
	first := NewSQLStore(client, "till-1")
	second := NewSQLStore(client, "till-2")

	require.NoError(t, first.Put(ctx, map[string]string{KeyActiveTabID: "1"}))
	require.NoError(t, second.Put(ctx, map[string]string{KeyActiveTabID: "2"}))

	values, err := first.Fetch(ctx, KeyActiveTabID)
	require.NoError(t, err)
	assert.Equal(t, "1", values[KeyActiveTabID])
	require.NoError(t, first.Ping(ctx))
}

func TestSQLStoreBacksAdapter(t *testing.T) {
	ctx := context.Background()
	adapter, err := NewAdapter(NewSQLStore(newSQLiteClient(t), "till-1"), logger.Nop())
	require.NoError(t, err)

	session := tabs.DefaultSession()
	session.Tabs[0].Note = "table 4"
	require.NoError(t, adapter.Save(ctx, session))

	loaded, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "table 4", loaded.Tabs[0].Note)
	assert.Equal(t, session.Tabs[0].Key, loaded.Tabs[0].Key)
}
