package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/pkg/utils"
)

// StatsService derives operator-facing aggregates from the durable tables
// on every read. No running counters exist to drift under concurrent or
// partially-failed batch operations.
type StatsService struct {
	statusDAO     *dao.ProtocolStatusDAO
	quarantineDAO *dao.QuarantineDAO
	auditDAO      *dao.AuditDAO
	logger        *logrus.Logger
}

// NewStatsService creates a new stats service instance
func NewStatsService(
	statusDAO *dao.ProtocolStatusDAO,
	quarantineDAO *dao.QuarantineDAO,
	auditDAO *dao.AuditDAO,
	logger *logrus.Logger,
) *StatsService {
	return &StatsService{
		statusDAO:     statusDAO,
		quarantineDAO: quarantineDAO,
		auditDAO:      auditDAO,
		logger:        logger,
	}
}

// Snapshot computes the current aggregate view of the subsystem
func (s *StatsService) Snapshot(ctx context.Context) (*models.StatsSnapshot, error) {
	activeCount, err := s.statusDAO.CountActive(ctx)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count active protocols", err)
	}

	queueSize, err := s.quarantineDAO.CountByStatus(ctx, models.QuarantineStatusQuarantined)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count quarantine queue", err)
	}

	costSaved, err := s.auditDAO.SumQuarantineCostSaved(ctx)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to sum cost saved", err)
	}

	last24h, err := s.quarantineDAO.CountCreatedSince(ctx, utils.MillisAgo(24*time.Hour))
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count recent messages", err)
	}

	return &models.StatsSnapshot{
		ActiveProtocolCount: activeCount,
		QuarantineQueueSize: queueSize,
		TotalCostSaved:      costSaved,
		MessagesLast24h:     last24h,
	}, nil
}

// UserStats computes a single user's protocol figures
func (s *StatsService) UserStats(ctx context.Context, userID string) (*models.UserProtocolStats, error) {
	if userID == "" {
		return nil, models.NewValidationError("user ID is required")
	}

	status := models.ProtocolInactive
	row, err := s.statusDAO.GetByUserID(ctx, userID)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to read protocol status", err)
	}
	if row != nil {
		status = row.Status
	}

	timesActivated, err := s.auditDAO.CountByUserAndAction(ctx, userID, models.AuditActionActivate)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count activations", err)
	}

	quarantined, err := s.quarantineDAO.CountByUserAndStatus(ctx, userID, models.QuarantineStatusQuarantined)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count quarantined messages", err)
	}

	processed, err := s.quarantineDAO.CountByUserAndStatus(ctx, userID, models.QuarantineStatusProcessed)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to count processed messages", err)
	}

	costSaved, err := s.auditDAO.SumQuarantineCostSavedByUser(ctx, userID)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to sum user cost saved", err)
	}

	return &models.UserProtocolStats{
		UserID:              userID,
		CurrentStatus:       status,
		TimesActivated:      timesActivated,
		MessagesQuarantined: quarantined,
		MessagesProcessed:   processed,
		CostSaved:           costSaved,
	}, nil
}

// AuditLog returns audit entries matching the filter, newest first
func (s *StatsService) AuditLog(ctx context.Context, filter models.AuditQueryFilter, limit int) ([]models.ProtocolAuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := s.auditDAO.Query(ctx, filter, limit)
	if err != nil {
		return nil, models.NewStoreUnavailableError("failed to query audit log", err)
	}

	return entries, nil
}
