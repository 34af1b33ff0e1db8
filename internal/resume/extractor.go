// Package resume pulls a candidate profile out of plain resume text.
package resume

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"intervuex/internal/errs"

	"gopkg.in/yaml.v3"
)

//go:embed skills.yaml
var skillsYAML []byte

// Profile is what the question engine and the recruiter views need from a resume.
type Profile struct {
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Education  string   `json:"education"`
	Projects   string   `json:"projects"`
}

// Extractor turns resume text into a profile.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Profile, error)
}

type skillMatcher struct {
	name    string
	pattern *regexp.Regexp
	// first match offset decides the order of skills in the profile
	offset int
}

var (
	yearsPattern   = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)`)
	sectionHeading = regexp.MustCompile(`(?im)^\s*(education|projects|experience|skills|work experience)\s*:?\s*$`)
)

// KeywordExtractor matches a fixed skill vocabulary and reads the education and projects
// sections by heading.
type KeywordExtractor struct {
	matchers []skillMatcher
}

func NewKeywordExtractor() (*KeywordExtractor, error) {
	var vocab struct {
		Skills map[string][]string `yaml:"skills"`
	}
	if err := yaml.Unmarshal(skillsYAML, &vocab); err != nil {
		return nil, fmt.Errorf("parse skill vocabulary: %w", err)
	}

	names := make([]string, 0, len(vocab.Skills))
	for name := range vocab.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	e := &KeywordExtractor{}
	for _, name := range names {
		terms := append([]string{name}, vocab.Skills[name]...)
		quoted := make([]string, len(terms))
		for i, term := range terms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(term))
		}
		// skill names end in symbols (C++, C#) so boundaries are spelled out
		pattern := regexp.MustCompile(`(?:^|[^a-z0-9+#.])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9+#])`)
		e.matchers = append(e.matchers, skillMatcher{name: name, pattern: pattern})
	}
	return e, nil
}

func (e *KeywordExtractor) Extract(ctx context.Context, text string) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.InvalidInput("resume text is empty")
	}

	lower := strings.ToLower(text)
	found := make([]skillMatcher, 0)
	for _, m := range e.matchers {
		loc := m.pattern.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		m.offset = loc[0]
		found = append(found, m)
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	p := &Profile{Skills: make([]string, 0, len(found))}
	for _, m := range found {
		p.Skills = append(p.Skills, m.name)
	}

	sections := splitSections(text)
	p.Education = sections["education"]
	p.Projects = sections["projects"]
	p.Experience = experienceSummary(text, sections)
	return p, nil
}

// splitSections maps lower-cased headings to the text below them.
func splitSections(text string) map[string]string {
	out := map[string]string{}
	locs := sectionHeading.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		name := strings.ToLower(text[loc[2]:loc[3]])
		if name == "work experience" {
			name = "experience"
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out[name] = strings.TrimSpace(text[loc[1]:end])
	}
	return out
}

func experienceSummary(text string, sections map[string]string) string {
	if m := yearsPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " years"
	}
	if exp := sections["experience"]; exp != "" {
		if line, _, _ := strings.Cut(exp, "\n"); line != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
