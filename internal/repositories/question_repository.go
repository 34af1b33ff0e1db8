package repositories

import (
	"context"

	"intervuex/internal/models"

	"gorm.io/gorm"
)

// QuestionRepository stores the append-only question and answer lists of a session.
type QuestionRepository struct {
	DB *gorm.DB
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

// CreateQuestions inserts the seed set in one transaction.
func (r *QuestionRepository) CreateQuestions(ctx context.Context, qs []models.Question) error {
	if len(qs) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&qs).Error
	})
}

func (r *QuestionRepository) ListQuestions(ctx context.Context, sessionID string) ([]models.Question, error) {
	qs := []models.Question{}
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("sequence ASC").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *QuestionRepository) ListAnswers(ctx context.Context, sessionID string) ([]models.Answer, error) {
	as := []models.Answer{}
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("sequence ASC").Find(&as).Error
	return as, err
}
