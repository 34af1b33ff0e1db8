package integrity

import (
	"testing"

	"intervuex/internal/models"

	"github.com/stretchr/testify/assert"
)

func violations(severities ...models.Severity) []models.Violation {
	out := make([]models.Violation, 0, len(severities))
	for _, s := range severities {
		out = append(out, models.Violation{Severity: s})
	}
	return out
}

func TestIntegrityScore(t *testing.T) {
	w := DefaultWeights()

	assert.Equal(t, 100, w.IntegrityScore(nil))
	assert.Equal(t, 83, w.IntegrityScore(violations(models.SeverityLow, models.SeverityMedium, models.SeverityHigh)))
	assert.Equal(t, 0, w.IntegrityScore(violations(
		models.SeverityCritical, models.SeverityCritical, models.SeverityCritical, models.SeverityCritical,
		models.SeverityCritical, models.SeverityCritical, models.SeverityCritical,
	)))
}

func TestIntegrityScoreIsMonotoneNonIncreasing(t *testing.T) {
	w := DefaultWeights()
	sequence := []models.Severity{models.SeverityLow, models.SeverityHigh, models.SeverityCritical, models.SeverityMedium, models.SeverityCritical, models.SeverityCritical, models.SeverityHigh, models.SeverityCritical, models.SeverityCritical}

	prev := 100
	var log []models.Violation
	for _, s := range sequence {
		log = append(log, models.Violation{Severity: s})
		score := w.IntegrityScore(log)
		assert.LessOrEqual(t, score, prev)
		assert.Equal(t, score, w.IntegrityScore(log), "recomputation is idempotent")
		prev = score
	}
}

func TestRiskScoreCapped(t *testing.T) {
	w := DefaultWeights()
	var many []models.Violation
	for i := 0; i < 20; i++ {
		many = append(many, models.Violation{Severity: models.SeverityHigh})
	}
	assert.Equal(t, 100, w.RiskScore(many))
	assert.Equal(t, 200, w.Total(many))
	assert.Equal(t, 25, w.RiskScore(violations(models.SeverityHigh, models.SeverityCritical)))
}

func TestCustomWeightsAreInjected(t *testing.T) {
	w := Weights{Low: 1, Medium: 1, High: 1, Critical: 50}
	assert.Equal(t, 49, w.IntegrityScore(violations(models.SeverityCritical, models.SeverityLow)))
	assert.Equal(t, 0, w.For(models.Severity("UNKNOWN")))
}

func TestSummarizeAndGroup(t *testing.T) {
	w := DefaultWeights()
	log := violations(models.SeverityLow, models.SeverityCritical, models.SeverityLow)

	summary := w.Summarize(log)
	assert.Equal(t, 81, summary.IntegrityScore)
	assert.Equal(t, 19, summary.RiskScore)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2, summary.BySeverity[models.SeverityLow])
	assert.Equal(t, 0, summary.BySeverity[models.SeverityHigh])
	assert.True(t, summary.HasCritical)

	grouped := GroupBySeverity(log)
	assert.Len(t, grouped[models.SeverityLow], 2)
	assert.Len(t, grouped[models.SeverityCritical], 1)
	assert.NotNil(t, grouped[models.SeverityMedium])
}
