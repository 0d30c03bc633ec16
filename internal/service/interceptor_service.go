package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/events"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
	"github.com/RobeHGC/proyecto-nadia-sub001/pkg/utils"
)

// InterceptorService is the synchronous admission decision point on the
// message-ingestion path. The common case (protocol INACTIVE) performs a
// single cache read and no writes.
type InterceptorService struct {
	protocol      *ProtocolService
	quarantineDAO *dao.QuarantineDAO
	auditDAO      *dao.AuditDAO
	db            *database.DB
	publisher     events.Publisher
	cfg           *config.ProtocolConfig
	logger        *logrus.Logger
}

// NewInterceptorService creates a new interceptor service instance
func NewInterceptorService(
	protocol *ProtocolService,
	quarantineDAO *dao.QuarantineDAO,
	auditDAO *dao.AuditDAO,
	db *database.DB,
	publisher events.Publisher,
	cfg *config.ProtocolConfig,
	logger *logrus.Logger,
) *InterceptorService {
	return &InterceptorService{
		protocol:      protocol,
		quarantineDAO: quarantineDAO,
		auditDAO:      auditDAO,
		db:            db,
		publisher:     publisher,
		cfg:           cfg,
		logger:        logger,
	}
}

// Admit decides whether a message is forwarded downstream or quarantined.
// Infrastructure failures never surface to the ingestion caller when the
// fail mode is open: the message is forwarded and the miss is logged, since
// dropping a user's message is worse than losing a savings opportunity.
func (s *InterceptorService) Admit(ctx context.Context, req *models.AdmitRequest) (*models.AdmitResponse, error) {
	if req.UserID == "" {
		return nil, models.NewValidationError("user ID is required")
	}
	if req.MessageID == "" {
		return nil, models.NewValidationError("message ID is required")
	}

	status, err := s.protocol.GetStatus(ctx, req.UserID)
	if err != nil {
		return s.degrade(req, "status lookup failed", err)
	}

	if status != models.ProtocolActive {
		return &models.AdmitResponse{Decision: models.DecisionForward}, nil
	}

	quarantineID, err := s.quarantine(ctx, req)
	if err != nil {
		if errors.Is(err, dao.ErrDuplicateMessage) {
			// Upstream retry: the message is already held. Report the
			// existing row instead of erroring.
			lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
			defer cancel()
			existing, lookupErr := s.quarantineDAO.GetByMessageID(lookupCtx, req.MessageID)
			if lookupErr == nil && existing != nil {
				return &models.AdmitResponse{
					Decision:     models.DecisionQuarantined,
					QuarantineID: existing.ID,
				}, nil
			}
			err = lookupErr
		}
		return s.degrade(req, "quarantine write failed", err)
	}

	return &models.AdmitResponse{
		Decision:     models.DecisionQuarantined,
		QuarantineID: quarantineID,
	}, nil
}

// quarantine inserts the message row and its QUARANTINE audit entry in one
// transaction. The audit entry carries the avoided per-message cost; an
// audit write failure rolls the whole admission back. The transaction
// carries the same per-call store timeout as the status read, so a stalled
// store cannot hold the ingestion path hostage.
func (s *InterceptorService) quarantine(ctx context.Context, req *models.AdmitRequest) (string, error) {
	now := utils.GetCurrentTimeMillis()
	msg := &models.QuarantineMessage{
		ID:          utils.GenerateQuarantineID(),
		UserID:      req.UserID,
		MessageID:   req.MessageID,
		MessageText: req.MessageText,
		CostSaved:   s.cfg.CostPerMessage,
		CreatedAt:   now,
		Status:      models.QuarantineStatusQuarantined,
	}
	if req.SourceRef != "" {
		sourceRef := req.SourceRef
		msg.SourceMessageRef = &sourceRef
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	err := s.db.WithTransaction(storeCtx, func(tx *database.Transaction) error {
		if err := s.quarantineDAO.CreateWithTx(storeCtx, tx, msg); err != nil {
			return err
		}

		audit := &models.ProtocolAuditEntry{
			ID:          utils.GenerateAuditID(),
			UserID:      req.UserID,
			Action:      models.AuditActionQuarantine,
			PerformedBy: SystemActor,
			Timestamp:   now,
			Metadata: models.AuditMetadata(map[string]interface{}{
				"quarantine_id": msg.ID,
				"message_id":    req.MessageID,
				"cost_saved":    s.cfg.CostPerMessage,
			}),
		}

		return s.auditDAO.CreateWithTx(storeCtx, tx, audit)
	})
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":       req.UserID,
		"quarantine_id": msg.ID,
		"cost_saved":    s.cfg.CostPerMessage,
	}).Info("Message quarantined")

	s.publisher.Publish(models.NotificationEvent{
		EventType: models.AuditActionQuarantine,
		UserID:    req.UserID,
		Timestamp: now,
		Summary: map[string]interface{}{
			"quarantine_id": msg.ID,
			"cost_saved":    s.cfg.CostPerMessage,
		},
	})

	return msg.ID, nil
}

// degrade resolves an infrastructure failure according to the fail mode
func (s *InterceptorService) degrade(req *models.AdmitRequest, cause string, err error) (*models.AdmitResponse, error) {
	if s.cfg.IsFailOpen() {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    req.UserID,
			"message_id": req.MessageID,
			"cause":      cause,
		}).Warn("Admission degraded to forward")
		return &models.AdmitResponse{Decision: models.DecisionForward}, nil
	}

	return nil, models.NewStoreUnavailableError(cause, err)
}
