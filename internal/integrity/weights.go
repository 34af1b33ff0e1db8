// Package integrity turns proctoring violations into integrity and risk scores.
package integrity

import "intervuex/internal/models"

// Weights maps a violation severity to its penalty.
type Weights struct {
	Low      int
	Medium   int
	High     int
	Critical int
}

func DefaultWeights() Weights {
	return Weights{Low: 2, Medium: 5, High: 10, Critical: 15}
}

func (w Weights) For(s models.Severity) int {
	switch s {
	case models.SeverityLow:
		return w.Low
	case models.SeverityMedium:
		return w.Medium
	case models.SeverityHigh:
		return w.High
	case models.SeverityCritical:
		return w.Critical
	default:
		return 0
	}
}

// Total is the sum of the weights of all violations.
func (w Weights) Total(violations []models.Violation) int {
	sum := 0
	for _, v := range violations {
		sum += w.For(v.Severity)
	}
	return sum
}

// IntegrityScore is max(0, 100 - total weight). Higher is better.
func (w Weights) IntegrityScore(violations []models.Violation) int {
	score := 100 - w.Total(violations)
	if score < 0 {
		return 0
	}
	return score
}

// RiskScore is the total weight capped at 100. Lower is better.
func (w Weights) RiskScore(violations []models.Violation) int {
	risk := w.Total(violations)
	if risk > 100 {
		return 100
	}
	return risk
}

func HasCritical(violations []models.Violation) bool {
	for _, v := range violations {
		if v.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

// Summary is the integrity view of a session at one point in time.
type Summary struct {
	IntegrityScore int                     `json:"integrityScore"`
	RiskScore      int                     `json:"riskScore"`
	TotalWeight    int                     `json:"totalWeight"`
	Count          int                     `json:"violationCount"`
	BySeverity     map[models.Severity]int `json:"bySeverity"`
	HasCritical    bool                    `json:"hasCritical"`
}

func (w Weights) Summarize(violations []models.Violation) Summary {
	bySeverity := map[models.Severity]int{
		models.SeverityLow:      0,
		models.SeverityMedium:   0,
		models.SeverityHigh:     0,
		models.SeverityCritical: 0,
	}
	for _, v := range violations {
		bySeverity[v.Severity]++
	}
	return Summary{
		IntegrityScore: w.IntegrityScore(violations),
		RiskScore:      w.RiskScore(violations),
		TotalWeight:    w.Total(violations),
		Count:          len(violations),
		BySeverity:     bySeverity,
		HasCritical:    HasCritical(violations),
	}
}

// GroupBySeverity buckets violations for the recruiter view, keeping log order inside each bucket.
func GroupBySeverity(violations []models.Violation) map[models.Severity][]models.Violation {
	grouped := map[models.Severity][]models.Violation{
		models.SeverityLow:      {},
		models.SeverityMedium:   {},
		models.SeverityHigh:     {},
		models.SeverityCritical: {},
	}
	for _, v := range violations {
		grouped[v.Severity] = append(grouped[v.Severity], v)
	}
	return grouped
}
