package dao

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
)

// newMockDB creates a sqlmock-backed database wrapper for DAO tests
func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return database.New(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}
