package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

func TestStatsServiceSnapshot(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM USER_PROTOCOL_STATUS WHERE STATUS = ?").
		WithArgs("ACTIVE").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))
	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM QUARANTINE_MESSAGE WHERE STATUS = ?").
		WithArgs("quarantined").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(12))
	env.mock.ExpectQuery("SELECT COALESCE\\(SUM\\(CAST\\(JSON_EXTRACT\\(METADATA, '\\$.cost_saved'\\) AS DECIMAL\\(12, 8\\)\\)\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0.003684))
	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM QUARANTINE_MESSAGE WHERE CREATED_AT >= ?").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(5))

	snapshot, err := env.stats.Snapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.ActiveProtocolCount)
	assert.Equal(t, 12, snapshot.QuarantineQueueSize)
	assert.InDelta(t, 0.003684, snapshot.TotalCostSaved, 1e-9)
	assert.Equal(t, 5, snapshot.MessagesLast24h)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestStatsServiceSnapshotStoreError(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM USER_PROTOCOL_STATUS WHERE STATUS = ?").
		WillReturnError(errors.New("connection refused"))

	_, err := env.stats.Snapshot(context.Background())

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeStoreUnavailable, models.ErrorCodeOf(err))
}

func TestStatsServiceUserStats(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("SELECT USER_ID, STATUS, ACTIVATED_BY, ACTIVATED_AT, REASON, UPDATED_AT FROM USER_PROTOCOL_STATUS WHERE USER_ID = ?").
		WithArgs("user-1").
		WillReturnRows(statusRows().AddRow("user-1", "ACTIVE", "reviewer-1", 1700000000000, nil, 1700000000000))
	env.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM PROTOCOL_AUDIT_LOG WHERE USER_ID = \? AND ACTION = \?`).
		WithArgs("user-1", "ACTIVATE").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	env.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM QUARANTINE_MESSAGE WHERE USER_ID = \? AND STATUS = \?`).
		WithArgs("user-1", "quarantined").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(4))
	env.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM QUARANTINE_MESSAGE WHERE USER_ID = \? AND STATUS = \?`).
		WithArgs("user-1", "processed").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(7))
	env.mock.ExpectQuery("SELECT COALESCE\\(SUM\\(CAST\\(JSON_EXTRACT\\(METADATA, '\\$.cost_saved'\\) AS DECIMAL\\(12, 8\\)\\)\\), 0\\)").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0.003377))

	stats, err := env.stats.UserStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", stats.UserID)
	assert.Equal(t, models.ProtocolActive, stats.CurrentStatus)
	assert.Equal(t, 2, stats.TimesActivated)
	assert.Equal(t, 4, stats.MessagesQuarantined)
	assert.Equal(t, 7, stats.MessagesProcessed)
	assert.InDelta(t, 0.003377, stats.CostSaved, 1e-9)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestStatsServiceUserStatsValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.stats.UserStats(context.Background(), "")
	assert.Equal(t, models.ErrCodeValidationError, models.ErrorCodeOf(err))
}
