package questions

import (
	"strings"

	"intervuex/internal/heuristics"
	"intervuex/internal/models"
)

// DifficultyFor picks the tier of question number index (1-based) from the quality of the
// previous answer.
func DifficultyFor(index int, previousQuality string) models.Difficulty {
	excellent := previousQuality == heuristics.QualityExcellent
	switch {
	case index <= 3:
		if excellent {
			return models.DifficultyMedium
		}
		return models.DifficultyEasy
	case index <= 6:
		if excellent {
			return models.DifficultyHard
		}
		return models.DifficultyMedium
	default:
		return models.DifficultyHard
	}
}

const overlapPrefix = 50

// IsDuplicate reports whether candidate repeats prior: equal ignoring case, or one contains the
// first 50 characters of the other. The prefix rule only applies when both are at least 50
// characters long so short questions are not swallowed by longer ones.
func IsDuplicate(candidate, prior string) bool {
	a := strings.ToLower(strings.TrimSpace(candidate))
	b := strings.ToLower(strings.TrimSpace(prior))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < overlapPrefix || len(rb) < overlapPrefix {
		return false
	}
	return strings.Contains(b, string(ra[:overlapPrefix])) || strings.Contains(a, string(rb[:overlapPrefix]))
}

func IsDuplicateOfAny(candidate string, history []string) bool {
	for _, h := range history {
		if IsDuplicate(candidate, h) {
			return true
		}
	}
	return false
}
