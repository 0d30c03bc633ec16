package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// ErrDuplicateMessage is returned when an insert hits the unique MESSAGE_ID
// index. Callers treat it as "already quarantined" rather than a failure.
var ErrDuplicateMessage = errors.New("message already quarantined")

const mysqlErrDuplicateEntry = 1062

// QuarantineDAO handles database operations for quarantined messages
type QuarantineDAO struct {
	db *database.DB
}

// NewQuarantineDAO creates a new QuarantineDAO instance
func NewQuarantineDAO(db *database.DB) *QuarantineDAO {
	return &QuarantineDAO{db: db}
}

// QuarantineFilter narrows quarantine queue listings
type QuarantineFilter struct {
	UserID    string
	Status    models.QuarantineStatus
	OlderThan int64
}

// CreateWithTx inserts a new quarantine message using a transaction.
// A duplicate MESSAGE_ID returns ErrDuplicateMessage.
func (dao *QuarantineDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, msg *models.QuarantineMessage) error {
	query := `
		INSERT INTO QUARANTINE_MESSAGE (
			QUARANTINE_ID, USER_ID, MESSAGE_ID, MESSAGE_TEXT, SOURCE_MESSAGE_REF,
			COST_SAVED, CREATED_AT, PROCESSED_AT, PROCESSED_BY, STATUS
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.UserID,
		msg.MessageID,
		msg.MessageText,
		msg.SourceMessageRef,
		msg.CostSaved,
		msg.CreatedAt,
		msg.ProcessedAt,
		msg.ProcessedBy,
		msg.Status,
	)

	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateMessage
		}
		return fmt.Errorf("failed to create quarantine message: %w", err)
	}

	return nil
}

// GetByID retrieves a quarantine message by its id. A missing row returns
// (nil, nil).
func (dao *QuarantineDAO) GetByID(ctx context.Context, quarantineID string) (*models.QuarantineMessage, error) {
	query := `
		SELECT QUARANTINE_ID, USER_ID, MESSAGE_ID, MESSAGE_TEXT, SOURCE_MESSAGE_REF,
		       COST_SAVED, CREATED_AT, PROCESSED_AT, PROCESSED_BY, STATUS
		FROM QUARANTINE_MESSAGE
		WHERE QUARANTINE_ID = ?
	`

	var msg models.QuarantineMessage
	err := dao.db.GetContext(ctx, &msg, query, quarantineID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quarantine message: %w", err)
	}

	return &msg, nil
}

// GetByMessageID retrieves a quarantine message by its external message id.
// A missing row returns (nil, nil).
func (dao *QuarantineDAO) GetByMessageID(ctx context.Context, messageID string) (*models.QuarantineMessage, error) {
	query := `
		SELECT QUARANTINE_ID, USER_ID, MESSAGE_ID, MESSAGE_TEXT, SOURCE_MESSAGE_REF,
		       COST_SAVED, CREATED_AT, PROCESSED_AT, PROCESSED_BY, STATUS
		FROM QUARANTINE_MESSAGE
		WHERE MESSAGE_ID = ?
	`

	var msg models.QuarantineMessage
	err := dao.db.GetContext(ctx, &msg, query, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quarantine message by message ID: %w", err)
	}

	return &msg, nil
}

// GetByIDWithTx retrieves a quarantine message by id using a transaction
func (dao *QuarantineDAO) GetByIDWithTx(ctx context.Context, tx *database.Transaction, quarantineID string) (*models.QuarantineMessage, error) {
	query := `
		SELECT QUARANTINE_ID, USER_ID, MESSAGE_ID, MESSAGE_TEXT, SOURCE_MESSAGE_REF,
		       COST_SAVED, CREATED_AT, PROCESSED_AT, PROCESSED_BY, STATUS
		FROM QUARANTINE_MESSAGE
		WHERE QUARANTINE_ID = ?
	`

	var msg models.QuarantineMessage
	err := tx.GetContext(ctx, &msg, query, quarantineID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quarantine message: %w", err)
	}

	return &msg, nil
}

// List retrieves quarantine messages matching the filter, oldest first
func (dao *QuarantineDAO) List(ctx context.Context, filter QuarantineFilter, limit int) ([]models.QuarantineMessage, error) {
	query := `
		SELECT QUARANTINE_ID, USER_ID, MESSAGE_ID, MESSAGE_TEXT, SOURCE_MESSAGE_REF,
		       COST_SAVED, CREATED_AT, PROCESSED_AT, PROCESSED_BY, STATUS
		FROM QUARANTINE_MESSAGE
		WHERE 1 = 1
	`
	args := []interface{}{}

	if filter.UserID != "" {
		query += " AND USER_ID = ?"
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += " AND STATUS = ?"
		args = append(args, filter.Status)
	}
	if filter.OlderThan > 0 {
		query += " AND CREATED_AT < ?"
		args = append(args, filter.OlderThan)
	}

	query += " ORDER BY CREATED_AT ASC LIMIT ?"
	args = append(args, limit)

	var messages []models.QuarantineMessage
	err := dao.db.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quarantine messages: %w", err)
	}

	return messages, nil
}

// MarkTerminalWithTx atomically moves a quarantined message to a terminal
// status, setting PROCESSED_AT and PROCESSED_BY together. It returns the
// number of rows updated; zero means the row was missing or no longer in
// the quarantined state.
func (dao *QuarantineDAO) MarkTerminalWithTx(
	ctx context.Context,
	tx *database.Transaction,
	quarantineID string,
	status models.QuarantineStatus,
	processedBy string,
	processedAt int64,
) (int64, error) {
	query := `
		UPDATE QUARANTINE_MESSAGE
		SET STATUS = ?, PROCESSED_AT = ?, PROCESSED_BY = ?
		WHERE QUARANTINE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query, status, processedAt, processedBy, quarantineID, models.QuarantineStatusQuarantined)
	if err != nil {
		return 0, fmt.Errorf("failed to update quarantine message status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ExpireWithTx moves a still-quarantined message to expired. Rows left by
// operators or earlier sweep passes are skipped via the status guard, so a
// repeated sweep is a no-op. Expired rows keep PROCESSED_AT/PROCESSED_BY
// null: nobody reviewed them.
func (dao *QuarantineDAO) ExpireWithTx(ctx context.Context, tx *database.Transaction, quarantineID string) (int64, error) {
	query := `
		UPDATE QUARANTINE_MESSAGE
		SET STATUS = ?
		WHERE QUARANTINE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query, models.QuarantineStatusExpired, quarantineID, models.QuarantineStatusQuarantined)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quarantine message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListExpiryCandidates returns quarantined messages created before the cutoff
func (dao *QuarantineDAO) ListExpiryCandidates(ctx context.Context, cutoff int64, limit int) ([]models.QuarantineMessage, error) {
	return dao.List(ctx, QuarantineFilter{
		Status:    models.QuarantineStatusQuarantined,
		OlderThan: cutoff,
	}, limit)
}

// CountByStatus returns the number of messages in the given lifecycle state
func (dao *QuarantineDAO) CountByStatus(ctx context.Context, status models.QuarantineStatus) (int, error) {
	query := `SELECT COUNT(*) FROM QUARANTINE_MESSAGE WHERE STATUS = ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count quarantine messages: %w", err)
	}

	return count, nil
}

// CountCreatedSince returns the number of messages quarantined after the given time
func (dao *QuarantineDAO) CountCreatedSince(ctx context.Context, since int64) (int, error) {
	query := `SELECT COUNT(*) FROM QUARANTINE_MESSAGE WHERE CREATED_AT >= ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent quarantine messages: %w", err)
	}

	return count, nil
}

// CountByUserAndStatus returns the number of a user's messages in the given state
func (dao *QuarantineDAO) CountByUserAndStatus(ctx context.Context, userID string, status models.QuarantineStatus) (int, error) {
	query := `SELECT COUNT(*) FROM QUARANTINE_MESSAGE WHERE USER_ID = ? AND STATUS = ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, userID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count user quarantine messages: %w", err)
	}

	return count, nil
}
