package integrity

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"intervuex/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

var ErrUnknownSignal = errors.New("unknown signal kind")

// Sample is one raw observation sent by the candidate client.
type Sample struct {
	Kind       string    `json:"kind"`
	Count      int       `json:"count,omitempty"`
	Label      string    `json:"label,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	At         time.Time `json:"at,omitempty"`
}

// Rule maps qualifying samples of one signal to a violation. Unset conditions always match.
type Rule struct {
	Signal        string          `yaml:"signal"`
	CountGT       *int            `yaml:"count_gt"`
	CountEQ       *int            `yaml:"count_eq"`
	LabelIn       []string        `yaml:"label_in"`
	MinDurationMs int64           `yaml:"min_duration_ms"`
	Violation     string          `yaml:"violation"`
	Severity      models.Severity `yaml:"severity"`
	Consecutive   int             `yaml:"consecutive"`
	Cooldown      time.Duration   `yaml:"cooldown"`
	Message       string          `yaml:"message"`
}

func (r *Rule) matches(s Sample) bool {
	if r.CountGT != nil && !(s.Count > *r.CountGT) {
		return false
	}
	if r.CountEQ != nil && s.Count != *r.CountEQ {
		return false
	}
	if len(r.LabelIn) > 0 {
		found := false
		for _, l := range r.LabelIn {
			if strings.EqualFold(l, s.Label) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if r.MinDurationMs > 0 && s.DurationMs <= r.MinDurationMs {
		return false
	}
	return true
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads the rule table from path, or the built-in table when path is empty.
func LoadRules(path string) ([]Rule, error) {
	data := defaultRules
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file %s: %w", path, err)
		}
		data = raw
	}
	return parseRules(data)
}

func parseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, errors.New("rule table is empty")
	}
	for i := range file.Rules {
		r := &file.Rules[i]
		r.Severity = models.Severity(strings.ToUpper(string(r.Severity)))
		switch {
		case r.Signal == "":
			return nil, fmt.Errorf("rule %d: signal is required", i)
		case r.Violation == "":
			return nil, fmt.Errorf("rule %d: violation is required", i)
		case !r.Severity.IsValid():
			return nil, fmt.Errorf("rule %d: invalid severity %q", i, r.Severity)
		case r.Consecutive < 1:
			return nil, fmt.Errorf("rule %d: consecutive must be at least 1", i)
		case r.Cooldown < 0:
			return nil, fmt.Errorf("rule %d: cooldown must not be negative", i)
		}
	}
	return file.Rules, nil
}

// Detection is a violation produced by the classifier.
type Detection struct {
	Type     string
	Severity models.Severity
	Message  string
	Details  map[string]any
}

type ruleState struct {
	run       int
	lastFired time.Time
}

type sessionState struct {
	mu    sync.Mutex
	rules []ruleState
}

// Classifier debounces raw samples per session. It is safe for concurrent use.
type Classifier struct {
	rules    []Rule
	bySignal map[string][]int

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewClassifier(rules []Rule) *Classifier {
	bySignal := make(map[string][]int)
	for i, r := range rules {
		bySignal[r.Signal] = append(bySignal[r.Signal], i)
	}
	return &Classifier{
		rules:    rules,
		bySignal: bySignal,
		sessions: make(map[string]*sessionState),
	}
}

func (c *Classifier) state(sessionID string) *sessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions[sessionID]
	if !ok {
		st = &sessionState{rules: make([]ruleState, len(c.rules))}
		c.sessions[sessionID] = st
	}
	return st
}

// Classify feeds one sample through every rule of its signal and returns the rules that fired.
func (c *Classifier) Classify(sessionID string, sample Sample, now time.Time) ([]Detection, error) {
	indexes, ok := c.bySignal[sample.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, sample.Kind)
	}

	st := c.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	var out []Detection
	for _, idx := range indexes {
		rule := &c.rules[idx]
		rs := &st.rules[idx]

		if !rule.matches(sample) {
			rs.run = 0
			continue
		}
		rs.run++
		if rs.run < rule.Consecutive {
			continue
		}
		rs.run = 0
		if !rs.lastFired.IsZero() && now.Sub(rs.lastFired) < rule.Cooldown {
			continue
		}
		rs.lastFired = now

		out = append(out, Detection{
			Type:     rule.Violation,
			Severity: rule.Severity,
			Message:  rule.Message,
			Details:  sampleDetails(sample, rule.Consecutive),
		})
	}
	return out, nil
}

// Forget drops the debounce state of a session once nobody streams for it.
func (c *Classifier) Forget(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}

func sampleDetails(s Sample, consecutive int) map[string]any {
	d := map[string]any{"signal": s.Kind, "consecutive": consecutive}
	if s.Count != 0 {
		d["count"] = s.Count
	}
	if s.Label != "" {
		d["label"] = s.Label
	}
	if s.DurationMs != 0 {
		d["durationMs"] = s.DurationMs
	}
	if s.Confidence != 0 {
		d["confidence"] = s.Confidence
	}
	return d
}
