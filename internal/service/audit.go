package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/castaway-league-api/internal/models"
)

type auditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// recordAudit persists an audit entry; failures are logged and swallowed.
func recordAudit(ctx context.Context, store auditStore, logger *zap.Logger, agent string, log *models.AuditLog) {
	if store == nil || log == nil {
		return
	}
	if log.IPAddress == "" {
		log.IPAddress = "system"
	}
	if log.UserAgent == "" {
		log.UserAgent = agent
	}
	if err := store.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to persist audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func normalizePage(page, size, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > max {
		size = max
	}
	return page, size
}
