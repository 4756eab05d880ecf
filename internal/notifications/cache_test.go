package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/simolima/sportlink-demo-sub001/internal/cache"
	"github.com/simolima/sportlink-demo-sub001/internal/database"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadCountUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisClient(mr.Host(), mr.Port(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	user := &models.User{Email: "marco@example.com", FirstName: "Marco", LastName: "Conti", Role: models.RolePlayer}
	require.NoError(t, db.Create(user).Error)

	hub := &recordingHub{}
	svc := NewService(db, hub, WithCache(rc))
	ctx := context.Background()
	key := "notifications:unread:" + user.ID

	notify := func(notificationType string) *models.Notification {
		res, err := svc.Notify(ctx, Input{UserID: user.ID, Type: notificationType, Title: "Titolo", Message: "Messaggio"})
		require.NoError(t, err)
		return res.Notification
	}
	cached := func() string {
		v, err := mr.Get(key)
		require.NoError(t, err)
		return v
	}

	first := notify(TypeNewFollower)
	assert.Equal(t, "1", cached(), "publishing the count fills the cache")
	ttl := mr.TTL(key)
	assert.True(t, ttl > 0 && ttl <= unreadCacheTTL, "ttl %s", ttl)

	// A cached value is served without touching the database.
	require.NoError(t, mr.Set(key, "42"))
	n, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// Every write drops the stale value before recounting.
	second := notify(TypeNewOpportunity)
	assert.Equal(t, "2", cached())

	require.NoError(t, mr.Set(key, "42"))
	_, err = svc.MarkRead(ctx, first.ID, user.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "1", cached())

	require.NoError(t, mr.Set(key, "42"))
	_, err = svc.Delete(ctx, second.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", cached())
	assert.Equal(t, map[string]int64{"count": 0}, hub.last().Data)

	require.NoError(t, mr.Set(key, "42"))
	notify(TypeAffiliationRequest)
	_, err = svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", cached())

	// Once the entry expires the count comes from the database again.
	mr.FastForward(unreadCacheTTL + time.Second)
	assert.False(t, mr.Exists(key))
	n, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
