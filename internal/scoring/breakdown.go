package scoring

import (
	"math"

	"intervuex/internal/models"
)

type DimensionScore struct {
	Dimension    string  `json:"dimension"`
	Score        int     `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Breakdown explains how a final score was assembled.
type Breakdown struct {
	SessionID       string                 `json:"sessionId"`
	Dimensions      []DimensionScore       `json:"dimensions"`
	Final           int                    `json:"final"`
	Confidence      int                    `json:"confidence"`
	HasCritical     bool                   `json:"hasCritical"`
	ShortlistStatus models.ShortlistStatus `json:"shortlistStatus"`
	EffectiveStatus models.ShortlistStatus `json:"effectiveStatus"`
}

func NewBreakdown(rec *models.ScoreRecord) *Breakdown {
	dims := []DimensionScore{
		dimension("technical", rec.Technical, WeightTechnical),
		dimension("problemSolving", rec.ProblemSolving, WeightProblemSolving),
		dimension("communication", rec.Communication, WeightCommunication),
		dimension("resumeAuthenticity", rec.ResumeAuthenticity, WeightResumeAuthenticity),
		dimension("integrityRisk", rec.IntegrityRisk, -WeightIntegrityRisk),
	}
	return &Breakdown{
		SessionID:       rec.SessionID,
		Dimensions:      dims,
		Final:           rec.Final,
		Confidence:      rec.Confidence,
		HasCritical:     rec.HasCritical,
		ShortlistStatus: rec.ShortlistStatus,
		EffectiveStatus: rec.EffectiveStatus(),
	}
}

func dimension(name string, score int, weight float64) DimensionScore {
	return DimensionScore{
		Dimension:    name,
		Score:        score,
		Weight:       weight,
		Contribution: math.Round(float64(score)*weight*100) / 100,
	}
}
