package service

import (
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/cache"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/models"
)

// recordingPublisher captures published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (p *recordingPublisher) Publish(event models.NotificationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []models.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.NotificationEvent{}, p.events...)
}

// testEnv wires real services over a sqlmock-backed store
type testEnv struct {
	mock        sqlmock.Sqlmock
	cache       *cache.StatusCache
	publisher   *recordingPublisher
	cfg         *config.ProtocolConfig
	protocol    *ProtocolService
	interceptor *InterceptorService
	quarantine  *QuarantineService
	stats       *StatsService
}

func newTestConfig() *config.ProtocolConfig {
	return &config.ProtocolConfig{
		CostPerMessage:   0.000307,
		RetentionDays:    7,
		SweepInterval:    time.Hour,
		FailMode:         config.FailModeOpen,
		BatchParallelism: 1,
		StoreTimeout:     time.Second,
		DefaultListLimit: 50,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	db := database.New(sqlx.NewDb(mockDB, "sqlmock"), logger)
	cfg := newTestConfig()
	statusCache := cache.NewStatusCache(&config.CacheConfig{Size: 128, TTL: time.Minute}, logger)
	publisher := &recordingPublisher{}

	statusDAO := dao.NewProtocolStatusDAO(db)
	quarantineDAO := dao.NewQuarantineDAO(db)
	auditDAO := dao.NewAuditDAO(db)

	protocol := NewProtocolService(statusDAO, auditDAO, statusCache, db, publisher, cfg, logger)
	interceptor := NewInterceptorService(protocol, quarantineDAO, auditDAO, db, publisher, cfg, logger)
	quarantine := NewQuarantineService(quarantineDAO, auditDAO, protocol, db, publisher, cfg, logger)
	stats := NewStatsService(statusDAO, quarantineDAO, auditDAO, logger)

	return &testEnv{
		mock:        mock,
		cache:       statusCache,
		publisher:   publisher,
		cfg:         cfg,
		protocol:    protocol,
		interceptor: interceptor,
		quarantine:  quarantine,
		stats:       stats,
	}
}

func quarantineRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"QUARANTINE_ID", "USER_ID", "MESSAGE_ID", "MESSAGE_TEXT", "SOURCE_MESSAGE_REF",
		"COST_SAVED", "CREATED_AT", "PROCESSED_AT", "PROCESSED_BY", "STATUS",
	})
}

func statusRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"USER_ID", "STATUS", "ACTIVATED_BY", "ACTIVATED_AT", "REASON", "UPDATED_AT",
	})
}
