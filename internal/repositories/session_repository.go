package repositories

import (
	"context"
	"errors"
	"time"

	"intervuex/internal/errs"
	"intervuex/internal/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func (r *SessionRepository) Create(ctx context.Context, s *models.InterviewSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SessionRepository) GetByAccessToken(ctx context.Context, token string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	if err := r.DB.WithContext(ctx).Where("access_token = ?", token).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// RecordFingerprint stores the fingerprint only if none is recorded yet.
// It reports whether this call wrote it.
func (r *SessionRepository) RecordFingerprint(ctx context.Context, id, fingerprint string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.InterviewSession{}).
		Where("id = ? AND (device_fingerprint IS NULL OR device_fingerprint = '')", id).
		Update("device_fingerprint", fingerprint)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Transition moves the session to status `to` only if it is currently in one of `from`.
// The conditional update is the only way status changes, so racing callers cannot both win.
func (r *SessionRepository) Transition(ctx context.Context, id string, from []models.SessionStatus, to models.SessionStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.DB.WithContext(ctx).Model(&models.InterviewSession{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Touch refreshes updated_at; used as the candidate heartbeat.
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.InterviewSession{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) ListByRecruiter(ctx context.Context, recruiterID string, status models.SessionStatus) ([]models.InterviewSession, error) {
	sessions := []models.InterviewSession{}
	q := r.DB.WithContext(ctx).Where("recruiter_id = ?", recruiterID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) ListActive(ctx context.Context) ([]models.InterviewSession, error) {
	sessions := []models.InterviewSession{}
	err := r.DB.WithContext(ctx).Where("status = ?", models.StatusActive).Find(&sessions).Error
	return sessions, err
}

// CountByStatus returns the number of the recruiter's sessions per status.
func (r *SessionRepository) CountByStatus(ctx context.Context, recruiterID string) (map[models.SessionStatus]int64, error) {
	var rows []struct {
		Status models.SessionStatus
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&models.InterviewSession{}).
		Select("status, COUNT(*) as count").
		Where("recruiter_id = ?", recruiterID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.SessionStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// Delete removes the session together with its questions, answers, violations and score.
// Audit entries are kept.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.Answer{}, &models.Question{}, &models.Violation{}, &models.ScoreRecord{}} {
			if err := tx.Where("session_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.InterviewSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	return err
}
