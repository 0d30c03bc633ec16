package dao

import (
	"context"
	"fmt"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// AuditDAO handles database operations for the protocol audit log.
// The log is append-only: no update or delete is exposed.
type AuditDAO struct {
	db *database.DB
}

// NewAuditDAO creates a new AuditDAO instance
func NewAuditDAO(db *database.DB) *AuditDAO {
	return &AuditDAO{db: db}
}

// Create appends a new audit entry
func (dao *AuditDAO) Create(ctx context.Context, entry *models.ProtocolAuditEntry) error {
	query := `
		INSERT INTO PROTOCOL_AUDIT_LOG (
			AUDIT_ID, USER_ID, ACTION, PERFORMED_BY, REASON, ACTION_TIME, METADATA
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.PerformedBy,
		entry.Reason,
		entry.Timestamp,
		entry.Metadata,
	)

	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

// CreateWithTx appends a new audit entry using a transaction
func (dao *AuditDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, entry *models.ProtocolAuditEntry) error {
	query := `
		INSERT INTO PROTOCOL_AUDIT_LOG (
			AUDIT_ID, USER_ID, ACTION, PERFORMED_BY, REASON, ACTION_TIME, METADATA
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.PerformedBy,
		entry.Reason,
		entry.Timestamp,
		entry.Metadata,
	)

	if err != nil {
		return fmt.Errorf("failed to create audit entry with transaction: %w", err)
	}

	return nil
}

// Query retrieves audit entries matching the filter, newest first
func (dao *AuditDAO) Query(ctx context.Context, filter models.AuditQueryFilter, limit int) ([]models.ProtocolAuditEntry, error) {
	query := `
		SELECT AUDIT_ID, USER_ID, ACTION, PERFORMED_BY, REASON, ACTION_TIME, METADATA
		FROM PROTOCOL_AUDIT_LOG
		WHERE 1 = 1
	`
	args := []interface{}{}

	if filter.UserID != "" {
		query += " AND USER_ID = ?"
		args = append(args, filter.UserID)
	}
	if filter.Action != "" {
		query += " AND ACTION = ?"
		args = append(args, filter.Action)
	}
	if filter.Since > 0 {
		query += " AND ACTION_TIME >= ?"
		args = append(args, filter.Since)
	}

	query += " ORDER BY ACTION_TIME DESC LIMIT ?"
	args = append(args, limit)

	var entries []models.ProtocolAuditEntry
	err := dao.db.SelectContext(ctx, &entries, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}

	return entries, nil
}

// SumQuarantineCostSaved sums the cost-saved figures recorded in QUARANTINE
// audit entry metadata. Aggregates are always recomputed from the log rather
// than kept in a running counter.
func (dao *AuditDAO) SumQuarantineCostSaved(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CAST(JSON_EXTRACT(METADATA, '$.cost_saved') AS DECIMAL(12, 8))), 0)
		FROM PROTOCOL_AUDIT_LOG
		WHERE ACTION = ?
	`

	var total float64
	err := dao.db.GetContext(ctx, &total, query, models.AuditActionQuarantine)
	if err != nil {
		return 0, fmt.Errorf("failed to sum quarantine cost saved: %w", err)
	}

	return total, nil
}

// SumQuarantineCostSavedByUser sums a single user's recorded cost-saved figures
func (dao *AuditDAO) SumQuarantineCostSavedByUser(ctx context.Context, userID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CAST(JSON_EXTRACT(METADATA, '$.cost_saved') AS DECIMAL(12, 8))), 0)
		FROM PROTOCOL_AUDIT_LOG
		WHERE ACTION = ? AND USER_ID = ?
	`

	var total float64
	err := dao.db.GetContext(ctx, &total, query, models.AuditActionQuarantine, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum user quarantine cost saved: %w", err)
	}

	return total, nil
}

// CountByUserAndAction returns how many entries a user has for an action
func (dao *AuditDAO) CountByUserAndAction(ctx context.Context, userID string, action models.AuditAction) (int, error) {
	query := `SELECT COUNT(*) FROM PROTOCOL_AUDIT_LOG WHERE USER_ID = ? AND ACTION = ?`

	var count int
	err := dao.db.GetContext(ctx, &count, query, userID, action)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
