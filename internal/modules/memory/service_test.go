package memory

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/memloc/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewService(db), mock
}

func journeyStepMemory(journeyID string, step int) *models.MemoryModel {
	return &models.MemoryModel{
		Base:        models.Base{ID: "mem-step"},
		OwnerID:     "owner-1",
		Visibility:  models.VisibilityPublic,
		JourneyID:   &journeyID,
		JourneyStep: &step,
		IsActive:    true,
	}
}

func TestBuildUnlockEnvJourneyPrerequisite(t *testing.T) {
	t.Run("dead previous step means no prerequisite", func(t *testing.T) {
		svc, mock := newMockService(t)
		m := journeyStepMemory("jor-1", 2)

		mock.ExpectQuery("SELECT `following_id` FROM `follows`").
			WillReturnRows(sqlmock.NewRows([]string{"following_id"}))
		mock.ExpectQuery("FROM `memory_targets`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "memory_id", "user_id"}))
		// The lookup must exclude deactivated and expired rows; a step
		// that can no longer be unlocked cannot gate its successor.
		mock.ExpectQuery("FROM `memories` WHERE \\(journey_id = \\? AND journey_step = \\? AND is_active = \\?\\) AND \\(expires_at IS NULL OR expires_at > \\?\\)").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		env, err := svc.buildUnlockEnv(m, "viewer-1")
		require.NoError(t, err)
		assert.Nil(t, env.PrevStepUnlocked)
		assert.NoError(t, mock.ExpectationsWereMet())

		m.RequiresLocation = false
		att := UnlockAttempt{ViewerID: "viewer-1"}
		assert.NoError(t, EvaluateUnlock(m, att, env))
	})

	t.Run("live previous step reflects the unlock record", func(t *testing.T) {
		svc, mock := newMockService(t)
		m := journeyStepMemory("jor-1", 2)

		mock.ExpectQuery("SELECT `following_id` FROM `follows`").
			WillReturnRows(sqlmock.NewRows([]string{"following_id"}))
		mock.ExpectQuery("FROM `memory_targets`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "memory_id", "user_id"}))
		mock.ExpectQuery("FROM `memories` WHERE \\(journey_id = \\? AND journey_step = \\?").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mem-prev"))
		mock.ExpectQuery("FROM `memory_unlocks`").
			WillReturnRows(sqlmock.NewRows([]string{"memory_id", "user_id", "unlocked_at"}).
				AddRow("mem-prev", "viewer-1", time.Now()))

		env, err := svc.buildUnlockEnv(m, "viewer-1")
		require.NoError(t, err)
		require.NotNil(t, env.PrevStepUnlocked)
		assert.True(t, *env.PrevStepUnlocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertUnlockSingleRecord(t *testing.T) {
	svc, mock := newMockService(t)

	unlockedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := &models.MemoryModel{Base: models.Base{ID: "mem-1"}, OwnerID: "owner-1", UnlockCount: 3}
	att := UnlockAttempt{ViewerID: "viewer-1", Latitude: f64(48.85), Longitude: f64(2.35)}

	recRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"memory_id", "user_id", "unlocked_at"}).
			AddRow("mem-1", "viewer-1", unlockedAt)
	}

	// First attempt inserts; MySQL reports one affected row, so the find
	// count is bumped.
	mock.ExpectExec("INSERT INTO `memory_unlocks`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `memories` SET `unlock_count`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM `memory_unlocks`").WillReturnRows(recRows())

	rec, err := svc.upsertUnlock(m, "viewer-1", att)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.UnlockedAt.Equal(unlockedAt))
	assert.Equal(t, 4, m.UnlockCount)

	// A repeat lands on the (memory_id, user_id) key; MySQL reports two
	// affected rows for the on-duplicate update, so no counter bump, and
	// the stored unlocked_at stays authoritative.
	mock.ExpectExec("INSERT INTO `memory_unlocks`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("FROM `memory_unlocks`").WillReturnRows(recRows())

	rec, err = svc.upsertUnlock(m, "viewer-1", att)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.UnlockedAt.Equal(unlockedAt))
	assert.Equal(t, 4, m.UnlockCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}
