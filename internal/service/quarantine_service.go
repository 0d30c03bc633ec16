package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/events"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/pkg/utils"
)

// sweepBatchSize caps how many rows a single sweep pass transitions
const sweepBatchSize = 500

// QuarantineService handles the quarantine queue's read side, the batch
// processor, and the retention sweep
type QuarantineService struct {
	quarantineDAO *dao.QuarantineDAO
	auditDAO      *dao.AuditDAO
	protocol      *ProtocolService
	db            *database.DB
	publisher     events.Publisher
	cfg           *config.ProtocolConfig
	logger        *logrus.Logger
}

// NewQuarantineService creates a new quarantine service instance
func NewQuarantineService(
	quarantineDAO *dao.QuarantineDAO,
	auditDAO *dao.AuditDAO,
	protocol *ProtocolService,
	db *database.DB,
	publisher events.Publisher,
	cfg *config.ProtocolConfig,
	logger *logrus.Logger,
) *QuarantineService {
	return &QuarantineService{
		quarantineDAO: quarantineDAO,
		auditDAO:      auditDAO,
		protocol:      protocol,
		db:            db,
		publisher:     publisher,
		cfg:           cfg,
		logger:        logger,
	}
}

// List returns quarantine messages oldest first, for FIFO operator review
func (s *QuarantineService) List(ctx context.Context, userID string, limit int) ([]models.QuarantineMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = s.cfg.DefaultListLimit
	}

	messages, err := s.quarantineDAO.List(ctx, dao.QuarantineFilter{UserID: userID}, limit)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to list quarantine messages", err)
	}

	return messages, nil
}

// Get returns a single quarantine message
func (s *QuarantineService) Get(ctx context.Context, quarantineID string) (*models.QuarantineMessage, error) {
	msg, err := s.quarantineDAO.GetByID(ctx, quarantineID)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to get quarantine message", err)
	}
	if msg == nil {
		return nil, models.NewNotFoundError(fmt.Sprintf("quarantine message not found: %s", quarantineID))
	}

	return msg, nil
}

// ProcessOne applies a single process or delete action to a quarantined
// message. Retrying the same action on an already-settled message is a
// no-op success; asking for the opposite terminal state is a conflict.
func (s *QuarantineService) ProcessOne(ctx context.Context, quarantineID, actor, action string, alsoDeactivate bool) (*models.QuarantineMessage, error) {
	msg, _, err := s.processItem(ctx, quarantineID, actor, action, "")
	if err != nil {
		return nil, err
	}

	if alsoDeactivate {
		if _, err := s.protocol.SetStatus(ctx, msg.UserID, models.ProtocolInactive, actor, "batch deactivate"); err != nil {
			return nil, err
		}
	}

	return msg, nil
}

// ProcessBatch applies an action to every id independently, up to a bounded
// number in flight. One item's failure never rolls back another's success;
// the result is always the full partition of outcomes. With
// process_and_deactivate, each distinct user named by the batch is
// deactivated exactly once, after all of that user's items have been
// attempted — even when every one of that user's items failed. Only ids
// whose row could not be loaded at all leave no user to deactivate.
func (s *QuarantineService) ProcessBatch(ctx context.Context, ids []string, actor, action string) (*models.BatchProcessResult, error) {
	baseAction := action
	alsoDeactivate := false
	if action == models.BatchActionProcessAndDeactivate {
		baseAction = models.BatchActionProcess
		alsoDeactivate = true
	}
	if baseAction != models.BatchActionProcess && baseAction != models.BatchActionDelete {
		return nil, models.NewValidationError(fmt.Sprintf("invalid batch action: %s", action))
	}
	if len(ids) == 0 {
		return nil, models.NewValidationError("batch requires at least one id")
	}

	batchID := utils.GenerateBatchID()
	result := &models.BatchProcessResult{
		BatchID:   batchID,
		Processed: []string{},
		Failed:    []models.BatchItemError{},
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		users = map[string]struct{}{}
	)

	sem := semaphore.NewWeighted(int64(s.cfg.BatchParallelism))

	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Failed = append(result.Failed, models.BatchItemError{
				ID:      id,
				Code:    models.ErrCodeTimeout,
				Message: "batch cancelled before item started",
			})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(quarantineID string) {
			defer wg.Done()
			defer sem.Release(1)

			msg, owner, err := s.processItem(ctx, quarantineID, actor, baseAction, batchID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Failed = append(result.Failed, models.BatchItemError{
					ID:      quarantineID,
					Code:    models.ErrorCodeOf(err),
					Message: err.Error(),
				})
				// A conflicting item still names its user, who must be
				// deactivated regardless of the item's outcome.
				if owner != "" {
					users[owner] = struct{}{}
				}
				return
			}

			result.Processed = append(result.Processed, quarantineID)
			users[msg.UserID] = struct{}{}
		}(id)
	}

	wg.Wait()

	sort.Strings(result.Processed)

	if alsoDeactivate {
		userIDs := make([]string, 0, len(users))
		for userID := range users {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)

		result.Deactivated = []string{}
		result.DeactivationFailed = []string{}

		for _, userID := range userIDs {
			if _, err := s.protocol.SetStatus(ctx, userID, models.ProtocolInactive, actor, "batch deactivate"); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"user_id":  userID,
					"batch_id": batchID,
				}).Error("Failed to deactivate protocol after batch")
				result.DeactivationFailed = append(result.DeactivationFailed, userID)
				continue
			}
			result.Deactivated = append(result.Deactivated, userID)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"action":    action,
		"processed": len(result.Processed),
		"failed":    len(result.Failed),
	}).Info("Batch processed")

	return result, nil
}

// processItem performs one atomic quarantine transition plus its audit
// entry. The second return value names the message's owner whenever the row
// was loaded, so callers can act on the user even when the item itself fails.
func (s *QuarantineService) processItem(ctx context.Context, quarantineID, actor, action, batchID string) (*models.QuarantineMessage, string, error) {
	var targetStatus models.QuarantineStatus
	var auditAction models.AuditAction

	switch action {
	case models.BatchActionProcess:
		targetStatus = models.QuarantineStatusProcessed
		auditAction = models.AuditActionProcess
	case models.BatchActionDelete:
		targetStatus = models.QuarantineStatusDeleted
		auditAction = models.AuditActionDelete
	default:
		return nil, "", models.NewValidationError(fmt.Sprintf("invalid action: %s", action))
	}

	if actor == "" {
		actor = SystemActor
	}

	now := utils.GetCurrentTimeMillis()
	var settled *models.QuarantineMessage
	var owner string

	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		msg, err := s.quarantineDAO.GetByIDWithTx(ctx, tx, quarantineID)
		if err != nil {
			return err
		}
		if msg == nil {
			return models.NewNotFoundError(fmt.Sprintf("quarantine message not found: %s", quarantineID))
		}
		owner = msg.UserID

		if msg.Status != models.QuarantineStatusQuarantined {
			if msg.Status == targetStatus {
				// Client retry after an ambiguous failure: settled already,
				// return the existing result without a second audit entry.
				settled = msg
				return nil
			}
			return models.NewConflictError(fmt.Sprintf("message %s is already %s", quarantineID, msg.Status))
		}

		rows, err := s.quarantineDAO.MarkTerminalWithTx(ctx, tx, quarantineID, targetStatus, actor, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Lost a race with another operator between the read and the
			// guarded update.
			return models.NewConflictError(fmt.Sprintf("message %s was settled concurrently", quarantineID))
		}

		metadata := map[string]interface{}{
			"quarantine_id": quarantineID,
			// Carried forward from quarantine time, never recomputed.
			"cost_saved": msg.CostSaved,
		}
		if batchID != "" {
			metadata["batch_id"] = batchID
		}

		audit := &models.ProtocolAuditEntry{
			ID:          utils.GenerateAuditID(),
			UserID:      msg.UserID,
			Action:      auditAction,
			PerformedBy: actor,
			Timestamp:   now,
			Metadata:    models.AuditMetadata(metadata),
		}
		if err := s.auditDAO.CreateWithTx(ctx, tx, audit); err != nil {
			return err
		}

		updated := *msg
		updated.Status = targetStatus
		updated.ProcessedAt = &now
		updated.ProcessedBy = &actor
		settled = &updated
		return nil
	})
	if err != nil {
		var svcErr *models.ServiceError
		if errors.As(err, &svcErr) {
			return nil, owner, svcErr
		}
		return nil, owner, models.NewStoreUnavailableError("failed to process quarantine message", err)
	}

	if settled.ProcessedAt != nil && *settled.ProcessedAt == now {
		s.publisher.Publish(models.NotificationEvent{
			EventType: auditAction,
			UserID:    settled.UserID,
			Timestamp: now,
			Summary: map[string]interface{}{
				"quarantine_id": quarantineID,
				"actor":         actor,
			},
		})
	}

	return settled, owner, nil
}

// Sweep transitions quarantined rows past the retention window to expired,
// writing one EXPIRE audit entry per row. Re-running the sweep never
// produces duplicate entries: the guarded update skips rows already expired.
func (s *QuarantineService) Sweep(ctx context.Context) (int, error) {
	cutoff := utils.MillisAgo(s.cfg.RetentionWindow())

	candidates, err := s.quarantineDAO.ListExpiryCandidates(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expiry candidates: %w", err)
	}

	expired := 0
	for _, msg := range candidates {
		now := utils.GetCurrentTimeMillis()
		err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
			rows, err := s.quarantineDAO.ExpireWithTx(ctx, tx, msg.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				// Settled by an operator or an earlier sweep pass.
				return nil
			}

			reason := "retention window elapsed"
			audit := &models.ProtocolAuditEntry{
				ID:          utils.GenerateAuditID(),
				UserID:      msg.UserID,
				Action:      models.AuditActionExpire,
				PerformedBy: SystemActor,
				Reason:      &reason,
				Timestamp:   now,
				Metadata: models.AuditMetadata(map[string]interface{}{
					"quarantine_id": msg.ID,
					"created_at":    msg.CreatedAt,
				}),
			}
			if err := s.auditDAO.CreateWithTx(ctx, tx, audit); err != nil {
				return err
			}

			expired++
			return nil
		})
		if err != nil {
			s.logger.WithError(err).WithField("quarantine_id", msg.ID).Error("Failed to expire quarantine message")
		}
	}

	if expired > 0 {
		s.logger.WithFields(logrus.Fields{
			"expired": expired,
			"cutoff":  cutoff,
		}).Info("Retention sweep completed")
	}

	return expired, nil
}

// StartSweeper runs the retention sweep on a fixed interval until the
// context is cancelled
func (s *QuarantineService) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.SweepInterval)
		defer ticker.Stop()

		s.logger.WithField("interval", s.cfg.SweepInterval).Info("Retention sweeper started")

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Retention sweeper stopped")
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.WithError(err).Error("Retention sweep failed")
				}
			}
		}
	}()
}
