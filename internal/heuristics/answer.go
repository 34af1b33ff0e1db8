// Package heuristics holds the text signals shared by the question engine and the scorer.
package heuristics

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Quality labels
const (
	QualityPoor      = "poor"
	QualityFair      = "fair"
	QualityGood      = "good"
	QualityExcellent = "excellent"
)

var (
	structurePattern = regexp.MustCompile(`\n|bullet|point|first|second|finally`)
	depthPattern     = regexp.MustCompile(`because|therefore|however|specifically|implementation`)
	examplePattern   = regexp.MustCompile(`example|instance|such as|like`)
	codePattern      = regexp.MustCompile("```|code|function|class|method")
	fillerPattern    = regexp.MustCompile(`\b(um|uh|like|you know|basically)\b`)
)

// AnswerMetrics are the raw signals behind an Analysis.
type AnswerMetrics struct {
	Length       int  `json:"length"`
	HasStructure bool `json:"hasStructure"`
	HasDepth     bool `json:"hasTechnicalDepth"`
	HasExamples  bool `json:"hasExamples"`
	HasCode      bool `json:"hasCodeOrPseudocode"`
}

type Analysis struct {
	Score   int           `json:"score"`
	Quality string        `json:"quality"`
	Metrics AnswerMetrics `json:"metrics"`
}

// AnalyzeAnswer rates an answer on 0..100 from surface features only.
func AnalyzeAnswer(answer string) Analysis {
	lower := strings.ToLower(answer)
	m := AnswerMetrics{
		Length:       utf8.RuneCountInString(answer),
		HasStructure: structurePattern.MatchString(lower),
		HasDepth:     depthPattern.MatchString(lower),
		HasExamples:  examplePattern.MatchString(lower),
		HasCode:      codePattern.MatchString(lower),
	}

	score := 0
	if m.Length > 100 {
		score += 20
	}
	if m.Length > 200 {
		score += 10
	}
	if m.HasStructure {
		score += 20
	}
	if m.HasDepth {
		score += 25
	}
	if m.HasExamples {
		score += 15
	}
	if m.HasCode {
		score += 10
	}
	if score > 100 {
		score = 100
	}

	return Analysis{Score: score, Quality: QualityLabel(score), Metrics: m}
}

func QualityLabel(score int) string {
	switch {
	case score >= 70:
		return QualityExcellent
	case score >= 50:
		return QualityGood
	case score >= 30:
		return QualityFair
	default:
		return QualityPoor
	}
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// FillerCount counts filler words as whole words, so "likely" is not a "like".
func FillerCount(text string) int {
	return len(fillerPattern.FindAllStringIndex(strings.ToLower(text), -1))
}

// CommunicationScore rates a single answer for clarity on 0..100.
func CommunicationScore(answer string) int {
	score := 50

	words := WordCount(answer)
	if words >= 30 && words <= 200 {
		score += 20
	} else if words < 10 {
		score -= 20
	}

	if strings.Contains(answer, "\n") || strings.Contains(answer, "•") {
		score += 15
	}

	if FillerCount(answer) < 3 {
		score += 15
	}

	return Clamp(score, 0, 100)
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
