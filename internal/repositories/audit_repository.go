package repositories

import (
	"context"
	"time"

	"intervuex/internal/models"

	"gorm.io/gorm"
)

// AuditRepository is the default relational audit trail.
type AuditRepository struct {
	DB *gorm.DB
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AuditLog, error) {
	logs := []models.AuditLog{}
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Find(&logs).Error
	return logs, err
}
