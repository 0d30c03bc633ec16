package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/cache"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/events"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/pkg/utils"
)

// SystemActor identifies internally triggered operations in the audit log
const SystemActor = "system"

// ProtocolService is the protocol state store: the single write path for
// per-user ACTIVE/INACTIVE flags, backed by the durable store with an
// explicit-invalidation cache in front of reads.
type ProtocolService struct {
	statusDAO *dao.ProtocolStatusDAO
	auditDAO  *dao.AuditDAO
	cache     *cache.StatusCache
	db        *database.DB
	publisher events.Publisher
	cfg       *config.ProtocolConfig
	logger    *logrus.Logger
}

// NewProtocolService creates a new protocol service instance
func NewProtocolService(
	statusDAO *dao.ProtocolStatusDAO,
	auditDAO *dao.AuditDAO,
	statusCache *cache.StatusCache,
	db *database.DB,
	publisher events.Publisher,
	cfg *config.ProtocolConfig,
	logger *logrus.Logger,
) *ProtocolService {
	return &ProtocolService{
		statusDAO: statusDAO,
		auditDAO:  auditDAO,
		cache:     statusCache,
		db:        db,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetStatus returns the user's protocol flag. The cache is consulted first;
// on a miss the durable store is read and the cache repopulated. Absence of
// a durable row means INACTIVE.
func (s *ProtocolService) GetStatus(ctx context.Context, userID string) (models.ProtocolStatus, error) {
	if entry, ok := s.cache.Get(userID); ok {
		return entry.Status, nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	row, err := s.statusDAO.GetByUserID(storeCtx, userID)
	if err != nil {
		return models.ProtocolInactive, models.NewStoreUnavailableError("failed to read protocol status", err)
	}

	if row == nil {
		s.cache.Set(userID, cache.StatusEntry{Status: models.ProtocolInactive})
		return models.ProtocolInactive, nil
	}

	s.cache.Set(userID, cache.StatusEntry{Status: row.Status, UpdatedAt: row.UpdatedAt})
	return row.Status, nil
}

// GetStatusRow returns the full durable status row for operator queries,
// bypassing the cache. A user without a row is reported as INACTIVE.
func (s *ProtocolService) GetStatusRow(ctx context.Context, userID string) (*models.UserProtocolStatus, error) {
	row, err := s.statusDAO.GetByUserID(ctx, userID)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to read protocol status", err)
	}

	if row == nil {
		return &models.UserProtocolStatus{
			UserID: userID,
			Status: models.ProtocolInactive,
		}, nil
	}

	return row, nil
}

// SetStatus is the single write path for the protocol flag. The durable
// upsert and the matching audit entry commit in one transaction; only then
// is the cache overwritten. Racing writes for the same user are resolved by
// the durable store (newest UPDATED_AT wins), and the cache applies the
// same ordering rule, so it reflects commit order rather than return order.
func (s *ProtocolService) SetStatus(ctx context.Context, userID string, status models.ProtocolStatus, actor, reason string) (*models.UserProtocolStatus, error) {
	if userID == "" {
		return nil, models.NewValidationError("user ID is required")
	}
	if !status.IsValid() {
		return nil, models.NewValidationError(fmt.Sprintf("invalid protocol status: %s", status))
	}
	if actor == "" {
		actor = SystemActor
	}

	now := utils.GetCurrentTimeMillis()
	row := &models.UserProtocolStatus{
		UserID:      userID,
		Status:      status,
		ActivatedBy: actor,
		UpdatedAt:   now,
	}
	if reason != "" {
		row.Reason = &reason
	}
	if status == models.ProtocolActive {
		activatedAt := now
		row.ActivatedAt = &activatedAt
	}

	action := models.AuditActionDeactivate
	if status == models.ProtocolActive {
		action = models.AuditActionActivate
	}

	var committed *models.UserProtocolStatus
	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		if err := s.statusDAO.UpsertWithTx(ctx, tx, row); err != nil {
			return err
		}

		// Read back inside the transaction: under a concurrent write the
		// upsert may have kept the other writer's newer values.
		result, err := s.statusDAO.GetByUserIDWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("protocol status row missing after upsert for user %s", userID)
		}
		committed = result

		audit := &models.ProtocolAuditEntry{
			ID:          utils.GenerateAuditID(),
			UserID:      userID,
			Action:      action,
			PerformedBy: actor,
			Timestamp:   now,
		}
		if reason != "" {
			audit.Reason = &reason
		}

		return s.auditDAO.CreateWithTx(ctx, tx, audit)
	})
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to write protocol status", err)
	}

	s.cache.Set(userID, cache.StatusEntry{Status: committed.Status, UpdatedAt: committed.UpdatedAt})

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"status":  committed.Status,
		"actor":   actor,
	}).Info("Protocol status updated")

	s.publisher.Publish(models.NotificationEvent{
		EventType: action,
		UserID:    userID,
		Timestamp: now,
		Summary: map[string]interface{}{
			"status": committed.Status,
			"actor":  actor,
		},
	})

	return committed, nil
}

// ListActive returns users currently under the protocol
func (s *ProtocolService) ListActive(ctx context.Context, limit int) ([]models.UserProtocolStatus, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}

	statuses, err := s.statusDAO.ListActive(ctx, limit)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to list active protocols", err)
	}

	return statuses, nil
}
