package repositories

import (
	"context"

	"intervuex/internal/errs"
	"intervuex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// computed columns written by scoring; override columns are never in this list
var computedScoreColumns = []string{
	"technical", "problem_solving", "communication", "resume_authenticity",
	"integrity_risk", "confidence", "final", "shortlist_status", "has_critical", "updated_at",
}

type ScoreRepository struct {
	DB *gorm.DB
}

// CreateIfAbsent inserts the record unless one already exists for the session.
// It reports whether a row was written.
func (r *ScoreRepository) CreateIfAbsent(ctx context.Context, rec *models.ScoreRecord) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ScoreRepository) Get(ctx context.Context, sessionID string) (*models.ScoreRecord, error) {
	var rec models.ScoreRecord
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// UpdateComputed overwrites the computed columns and leaves the recruiter override alone.
func (r *ScoreRepository) UpdateComputed(ctx context.Context, rec *models.ScoreRecord) error {
	res := r.DB.WithContext(ctx).Model(&models.ScoreRecord{}).
		Where("session_id = ?", rec.SessionID).
		Select(computedScoreColumns).
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *ScoreRepository) SetOverride(ctx context.Context, sessionID string, status models.ShortlistStatus, notes string) error {
	res := r.DB.WithContext(ctx).Model(&models.ScoreRecord{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"override_status": status, "recruiter_notes": notes})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ShortlistedEntry joins a score with its session for the shortlist view.
type ShortlistedEntry struct {
	models.ScoreRecord
	CandidateID string `json:"candidateId"`
}

// ListShortlisted returns the recruiter's sessions whose effective status is SHORTLISTED.
func (r *ScoreRepository) ListShortlisted(ctx context.Context, recruiterID string) ([]ShortlistedEntry, error) {
	out := []ShortlistedEntry{}
	err := r.DB.WithContext(ctx).Model(&models.ScoreRecord{}).
		Select("score_records.*, interview_sessions.candidate_id").
		Joins("JOIN interview_sessions ON interview_sessions.id = score_records.session_id").
		Where("interview_sessions.recruiter_id = ?", recruiterID).
		Where("COALESCE(score_records.override_status, score_records.shortlist_status) = ?", models.Shortlisted).
		Order("score_records.final DESC").
		Scan(&out).Error
	return out, err
}

// CountByEffectiveStatus counts the recruiter's scored sessions per effective shortlist status.
func (r *ScoreRepository) CountByEffectiveStatus(ctx context.Context, recruiterID string) (map[models.ShortlistStatus]int64, error) {
	var rows []struct {
		Status models.ShortlistStatus
		Count  int64
	}
	err := r.DB.WithContext(ctx).Model(&models.ScoreRecord{}).
		Select("COALESCE(score_records.override_status, score_records.shortlist_status) as status, COUNT(*) as count").
		Joins("JOIN interview_sessions ON interview_sessions.id = score_records.session_id").
		Where("interview_sessions.recruiter_id = ?", recruiterID).
		Group("COALESCE(score_records.override_status, score_records.shortlist_status)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.ShortlistStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
