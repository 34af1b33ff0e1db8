package questions

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"intervuex/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed pool.yaml
var poolYAML []byte

type seedEntry struct {
	Type       models.QuestionType `yaml:"type"`
	Difficulty models.Difficulty   `yaml:"difficulty"`
	Text       string              `yaml:"text"`
	Reference  string              `yaml:"reference"`
}

// seed entries of this type become the resume claim question
const claimSeedType = "claim"

type claimTemplates struct {
	WithSkill    string `yaml:"with_skill"`
	WithoutSkill string `yaml:"without_skill"`
	GenericClaim string `yaml:"generic_claim"`
}

// Pool is the parsed question bank.
type Pool struct {
	Tiers map[models.Difficulty][]string `yaml:"tiers"`
	Seed  []seedEntry                    `yaml:"seed"`
	Claim claimTemplates                 `yaml:"claim"`
}

func LoadPool() (*Pool, error) {
	var p Pool
	if err := yaml.Unmarshal(poolYAML, &p); err != nil {
		return nil, fmt.Errorf("parse question pool: %w", err)
	}
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard} {
		if len(p.Tiers[d]) == 0 {
			return nil, fmt.Errorf("question pool has no %s questions", d)
		}
	}
	return &p, nil
}

// PoolGenerator picks unasked questions from the embedded pool. It never fails once loaded.
type PoolGenerator struct {
	pool *Pool

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPoolGenerator(pool *Pool, seed int64) *PoolGenerator {
	return &PoolGenerator{pool: pool, rnd: rand.New(rand.NewSource(seed))}
}

func (g *PoolGenerator) Name() string { return models.SourcePool }

// Generate filters the requested tier against history, then falls back to the hard tier and
// finally to any tier. If every question was already asked it repeats one from the tier. The
// returned difficulty is the tier the question was drawn from.
func (g *PoolGenerator) Generate(_ context.Context, req Request) (*Generated, error) {
	difficulty := req.Difficulty
	if !difficulty.IsValid() {
		difficulty = models.DifficultyMedium
	}

	candidates := g.unasked(req.History, difficulty)
	if len(candidates) == 0 {
		candidates = g.unasked(req.History, models.DifficultyHard)
	}
	if len(candidates) == 0 {
		candidates = g.unasked(req.History, models.DifficultyEasy, models.DifficultyMedium)
	}
	if len(candidates) == 0 {
		for _, text := range g.pool.Tiers[difficulty] {
			candidates = append(candidates, tiered{text: text, difficulty: difficulty})
		}
	}

	g.mu.Lock()
	pick := candidates[g.rnd.Intn(len(candidates))]
	g.mu.Unlock()

	return &Generated{
		Text:       pick.text,
		Type:       models.QuestionTechnical,
		Difficulty: pick.difficulty,
		Source:     models.SourcePool,
	}, nil
}

type tiered struct {
	text       string
	difficulty models.Difficulty
}

func (g *PoolGenerator) unasked(history []string, tiers ...models.Difficulty) []tiered {
	var out []tiered
	for _, d := range tiers {
		for _, q := range g.pool.Tiers[d] {
			if !IsDuplicateOfAny(q, history) {
				out = append(out, tiered{text: q, difficulty: d})
			}
		}
	}
	return out
}

// SeedQuestions builds the first n questions of a session from the seed list. The claim slot
// is filled from the candidate's top skill.
func (p *Pool) SeedQuestions(profile models.CandidateProfile, n int) []models.Question {
	if n > len(p.Seed) {
		n = len(p.Seed)
	}
	if n > models.MaxQuestions {
		n = models.MaxQuestions
	}

	out := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		entry := p.Seed[i]
		q := models.Question{
			Sequence:        i + 1,
			Text:            entry.Text,
			Type:            entry.Type,
			Difficulty:      entry.Difficulty,
			ReferenceAnswer: entry.Reference,
			Source:          models.SourceSeed,
		}
		if string(entry.Type) == claimSeedType {
			q.Type = models.QuestionTechnical
			q.Difficulty = models.DifficultyMedium
			q.Text, q.ResumeClaim = p.claimQuestion(profile)
		}
		if !q.Difficulty.IsValid() {
			q.Difficulty = models.DifficultyEasy
		}
		out = append(out, q)
	}
	return out
}

func (p *Pool) claimQuestion(profile models.CandidateProfile) (text, claim string) {
	for _, skill := range profile.Skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		return strings.ReplaceAll(p.Claim.WithSkill, "{{.Skill}}", skill), skill
	}
	return p.Claim.WithoutSkill, p.Claim.GenericClaim
}
