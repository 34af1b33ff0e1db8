package repositories

import (
	"context"
	"time"

	"intervuex/internal/models"

	"gorm.io/gorm"
)

type RecruiterRepository struct {
	DB *gorm.DB
}

func (r *RecruiterRepository) Create(ctx context.Context, rec *models.Recruiter) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *RecruiterRepository) GetByEmail(ctx context.Context, email string) (*models.Recruiter, error) {
	var rec models.Recruiter
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *RecruiterRepository) GetByID(ctx context.Context, id string) (*models.Recruiter, error) {
	var rec models.Recruiter
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *RecruiterRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Recruiter{}).Where("id = ?", id).Update("last_login", at).Error
}

type CandidateRepository struct {
	DB *gorm.DB
}

func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*models.Candidate, error) {
	var c models.Candidate
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CandidateRepository) ListByRecruiter(ctx context.Context, recruiterID string) ([]models.Candidate, error) {
	cs := []models.Candidate{}
	err := r.DB.WithContext(ctx).Where("created_by = ?", recruiterID).Order("created_at DESC").Find(&cs).Error
	return cs, err
}
