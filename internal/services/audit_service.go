package services

import (
	"context"
	"encoding/json"
	"fmt"

	"torres_backend/internal/logger"
	"torres_backend/internal/models"
	"torres_backend/internal/repositories"
	"torres_backend/internal/services/dto"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditService interface {
	LogAction(ctx context.Context, db *gorm.DB, entry dto.AuditEntry) (*models.AuditLog, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// LogAction пишет запись аудита в ту же сессию, что и основное действие.
// Request ID берется из контекста, иначе генерируется новый.
func (s *auditService) LogAction(ctx context.Context, db *gorm.DB, entry dto.AuditEntry) (*models.AuditLog, error) {
	oldValues, err := toJSON(entry.OldValues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal old values: %w", err)
	}
	newValues, err := toJSON(entry.NewValues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new values: %w", err)
	}

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	record := &models.AuditLog{
		UserID:       entry.UserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		RequestID:    requestID,
		Success:      entry.ErrorMessage == "",
		ErrorMessage: entry.ErrorMessage,
	}

	if err := s.auditRepo.Create(db.WithContext(ctx), record); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Audit record written",
		"action", record.Action,
		"resource_type", record.ResourceType,
		"resource_id", record.ResourceID,
		"request_id", requestID,
	)
	return record, nil
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
