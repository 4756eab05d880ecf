package database

import (
	"testing"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, MigrateDB(db))
	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := newTestDB(t)

	for _, model := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestPendingTables(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	pending, err := PendingTables(db)
	require.NoError(t, err)
	assert.Len(t, pending, len(models.AllModels()))
	assert.Contains(t, pending, "affiliations")

	require.NoError(t, MigrateDB(db))
	pending, err = PendingTables(db)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, MigrateDB(db))
}

func TestLiveAffiliationPairIsUnique(t *testing.T) {
	db := newTestDB(t)

	first := &models.Affiliation{AgentID: "agent-1", PlayerID: "player-1"}
	require.NoError(t, db.Create(first).Error)

	dup := &models.Affiliation{AgentID: "agent-1", PlayerID: "player-1"}
	assert.Error(t, db.Create(dup).Error)

	// A rejected affiliation does not block a new request
	require.NoError(t, db.Model(first).Update("status", models.AffiliationRejected).Error)
	again := &models.Affiliation{AgentID: "agent-1", PlayerID: "player-1"}
	assert.NoError(t, db.Create(again).Error)
}

func TestPendingJoinRequestIsUnique(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.ClubJoinRequest{ClubID: "club-1", UserID: "user-1", RequestedRole: "Player"}).Error)
	assert.Error(t, db.Create(&models.ClubJoinRequest{ClubID: "club-1", UserID: "user-1", RequestedRole: "Coach"}).Error)
}
