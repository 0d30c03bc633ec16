package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// ProtocolStatusDAO handles database operations for per-user protocol flags
type ProtocolStatusDAO struct {
	db *database.DB
}

// NewProtocolStatusDAO creates a new ProtocolStatusDAO instance
func NewProtocolStatusDAO(db *database.DB) *ProtocolStatusDAO {
	return &ProtocolStatusDAO{db: db}
}

// GetByUserID retrieves a user's protocol status row. A missing row is not
// an error: it returns (nil, nil), which callers treat as INACTIVE.
func (dao *ProtocolStatusDAO) GetByUserID(ctx context.Context, userID string) (*models.UserProtocolStatus, error) {
	query := `
		SELECT USER_ID, STATUS, ACTIVATED_BY, ACTIVATED_AT, REASON, UPDATED_AT
		FROM USER_PROTOCOL_STATUS
		WHERE USER_ID = ?
	`

	var status models.UserProtocolStatus
	err := dao.db.GetContext(ctx, &status, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get protocol status: %w", err)
	}

	return &status, nil
}

// UpsertWithTx inserts or updates a user's protocol status row using a
// transaction. On a concurrent update the row keeps whichever write carries
// the newest UPDATED_AT, so last-writer-wins is decided by the durable
// store's commit order. UPDATED_AT is assigned last because MySQL evaluates
// the assignment list left to right against already-updated columns.
func (dao *ProtocolStatusDAO) UpsertWithTx(ctx context.Context, tx *database.Transaction, status *models.UserProtocolStatus) error {
	query := `
		INSERT INTO USER_PROTOCOL_STATUS (
			USER_ID, STATUS, ACTIVATED_BY, ACTIVATED_AT, REASON, UPDATED_AT
		) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			STATUS       = IF(UPDATED_AT <= VALUES(UPDATED_AT), VALUES(STATUS), STATUS),
			ACTIVATED_BY = IF(UPDATED_AT <= VALUES(UPDATED_AT), VALUES(ACTIVATED_BY), ACTIVATED_BY),
			ACTIVATED_AT = IF(UPDATED_AT <= VALUES(UPDATED_AT), VALUES(ACTIVATED_AT), ACTIVATED_AT),
			REASON       = IF(UPDATED_AT <= VALUES(UPDATED_AT), VALUES(REASON), REASON),
			UPDATED_AT   = IF(UPDATED_AT <= VALUES(UPDATED_AT), VALUES(UPDATED_AT), UPDATED_AT)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		status.UserID,
		status.Status,
		status.ActivatedBy,
		status.ActivatedAt,
		status.Reason,
		status.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert protocol status: %w", err)
	}

	return nil
}

// GetByUserIDWithTx retrieves a user's protocol status row using a transaction
func (dao *ProtocolStatusDAO) GetByUserIDWithTx(ctx context.Context, tx *database.Transaction, userID string) (*models.UserProtocolStatus, error) {
	query := `
		SELECT USER_ID, STATUS, ACTIVATED_BY, ACTIVATED_AT, REASON, UPDATED_AT
		FROM USER_PROTOCOL_STATUS
		WHERE USER_ID = ?
	`

	var status models.UserProtocolStatus
	err := tx.GetContext(ctx, &status, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get protocol status: %w", err)
	}

	return &status, nil
}

// CountActive returns the number of users with the protocol ACTIVE
func (dao *ProtocolStatusDAO) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM USER_PROTOCOL_STATUS WHERE STATUS = ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, models.ProtocolActive)
	if err != nil {
		return 0, fmt.Errorf("failed to count active protocols: %w", err)
	}

	return count, nil
}

// ListActive returns all users currently under the protocol
func (dao *ProtocolStatusDAO) ListActive(ctx context.Context, limit int) ([]models.UserProtocolStatus, error) {
	query := `
		SELECT USER_ID, STATUS, ACTIVATED_BY, ACTIVATED_AT, REASON, UPDATED_AT
		FROM USER_PROTOCOL_STATUS
		WHERE STATUS = ?
		ORDER BY UPDATED_AT DESC
		LIMIT ?
	`

	var statuses []models.UserProtocolStatus
	err := dao.db.SelectContext(ctx, &statuses, query, models.ProtocolActive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active protocols: %w", err)
	}

	return statuses, nil
}
