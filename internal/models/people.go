package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recruiter struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FullName     string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Company      string     `json:"company,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (r *Recruiter) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type Candidate struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedBy  string         `gorm:"type:varchar(36);not null;index" json:"createdBy"`
	FullName   string         `gorm:"not null" json:"name"`
	Email      string         `gorm:"not null;index" json:"email"`
	Phone      string         `json:"phone,omitempty"`
	Skills     datatypes.JSON `json:"skills"`
	Experience string         `gorm:"type:text" json:"experience,omitempty"`
	Education  string         `gorm:"type:text" json:"education,omitempty"`
	Projects   string         `gorm:"type:text" json:"projects,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// SkillList decodes the stored skills column.
func (c *Candidate) SkillList() []string {
	if len(c.Skills) == 0 {
		return nil
	}
	var skills []string
	if err := json.Unmarshal(c.Skills, &skills); err != nil {
		return nil
	}
	return skills
}

func (c *Candidate) SetSkills(skills []string) {
	if skills == nil {
		skills = []string{}
	}
	data, _ := json.Marshal(skills)
	c.Skills = datatypes.JSON(data)
}

// CandidateProfile is the slice of candidate data the question engine needs.
type CandidateProfile struct {
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
}

func (c *Candidate) Profile() CandidateProfile {
	return CandidateProfile{Skills: c.SkillList(), Experience: c.Experience}
}
