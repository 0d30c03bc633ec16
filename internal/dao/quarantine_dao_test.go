package dao

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

func quarantineColumns() []string {
	return []string{
		"QUARANTINE_ID", "USER_ID", "MESSAGE_ID", "MESSAGE_TEXT", "SOURCE_MESSAGE_REF",
		"COST_SAVED", "CREATED_AT", "PROCESSED_AT", "PROCESSED_BY", "STATUS",
	}
}

func TestQuarantineDAO_CreateWithTx_DuplicateMessageID(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewQuarantineDAO(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO QUARANTINE_MESSAGE").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)

	err = dao.CreateWithTx(ctx, tx, &models.QuarantineMessage{
		ID:          "QMSG-1",
		UserID:      "user-1",
		MessageID:   "msg-1",
		MessageText: "hello",
		CostSaved:   0.000307,
		CreatedAt:   1700000000000,
		Status:      models.QuarantineStatusQuarantined,
	})

	assert.ErrorIs(t, err, ErrDuplicateMessage)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuarantineDAO_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewQuarantineDAO(db)

	mock.ExpectQuery("SELECT QUARANTINE_ID").
		WithArgs("QMSG-missing").
		WillReturnRows(sqlmock.NewRows(quarantineColumns()))

	msg, err := dao.GetByID(context.Background(), "QMSG-missing")

	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestQuarantineDAO_List_FiltersByUser(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewQuarantineDAO(db)

	mock.ExpectQuery("SELECT QUARANTINE_ID.+AND USER_ID = .+ORDER BY CREATED_AT ASC").
		WithArgs("user-1", 50).
		WillReturnRows(sqlmock.NewRows(quarantineColumns()).
			AddRow("QMSG-1", "user-1", "msg-1", "hello", nil, 0.000307, 1700000000000, nil, nil, "quarantined").
			AddRow("QMSG-2", "user-1", "msg-2", "hi", nil, 0.000307, 1700000005000, nil, nil, "quarantined"))

	messages, err := dao.List(context.Background(), QuarantineFilter{UserID: "user-1"}, 50)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "QMSG-1", messages[0].ID)
	assert.Equal(t, models.QuarantineStatusQuarantined, messages[0].Status)
}

func TestQuarantineDAO_MarkTerminalWithTx_GuardsQuarantinedState(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewQuarantineDAO(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE QUARANTINE_MESSAGE").
		WithArgs("processed", int64(1700000010000), "operator", "QMSG-1", "quarantined").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)

	rows, err := dao.MarkTerminalWithTx(ctx, tx, "QMSG-1", models.QuarantineStatusProcessed, "operator", 1700000010000)

	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuarantineDAO_ExpireWithTx_AlreadySettledRowIsSkipped(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewQuarantineDAO(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE QUARANTINE_MESSAGE").
		WithArgs("expired", "QMSG-1", "quarantined").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)

	rows, err := dao.ExpireWithTx(ctx, tx, "QMSG-1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	require.NoError(t, tx.Commit())
}
