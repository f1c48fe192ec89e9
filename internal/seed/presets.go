package seed

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yml
var builtinPresets embed.FS

// Distribution splits a writer's articles by percentage. The shares must sum
// to 100.
type Distribution struct {
	Published int `yaml:"published"`
	Featured  int `yaml:"featured"`
	Draft     int `yaml:"draft"`
}

// Preset describes one demo data set.
type Preset struct {
	Name               string       `yaml:"name"`
	Description        string       `yaml:"description"`
	Writers            int          `yaml:"writers"`
	Readers            int          `yaml:"readers"`
	ArticlesPerWriter  int          `yaml:"articles_per_writer"`
	LikesPerArticle    int          `yaml:"likes_per_article"`
	CommentsPerArticle int          `yaml:"comments_per_article"`
	FollowsPerReader   int          `yaml:"follows_per_reader"`
	MaxDays            int          `yaml:"max_days"`
	Topics             []string     `yaml:"topics"`
	Distribution       Distribution `yaml:"distribution"`
}

var defaultDistribution = Distribution{Published: 70, Featured: 10, Draft: 20}

// Validate rejects presets that cannot be applied.
func (p *Preset) Validate() error {
	var problems []string
	if p.Writers < 1 {
		problems = append(problems, "writers must be at least 1")
	}
	if p.Readers < 0 || p.ArticlesPerWriter < 0 || p.LikesPerArticle < 0 ||
		p.CommentsPerArticle < 0 || p.FollowsPerReader < 0 {
		problems = append(problems, "counts must not be negative")
	}
	d := p.Distribution
	if d.Published < 0 || d.Featured < 0 || d.Draft < 0 || d.Published+d.Featured+d.Draft != 100 {
		problems = append(problems, "distribution must sum to 100")
	}
	if len(problems) > 0 {
		return fmt.Errorf("preset %q: %s", p.Name, strings.Join(problems, "; "))
	}
	return nil
}

// ParsePreset decodes a YAML preset. Missing distribution defaults to 70/10/20.
func ParsePreset(raw []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	if p.Distribution == (Distribution{}) {
		p.Distribution = defaultDistribution
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPreset resolves a built-in preset by name or reads a YAML file.
func LoadPreset(nameOrPath string) (*Preset, error) {
	raw, err := builtinPresets.ReadFile(path.Join("presets", strings.ToLower(nameOrPath)+".yml"))
	if err != nil {
		raw, err = os.ReadFile(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("unknown preset %q (built-ins: %s)", nameOrPath, strings.Join(PresetNames(), ", "))
		}
	}
	return ParsePreset(raw)
}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	entries, _ := builtinPresets.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yml"))
	}
	sort.Strings(names)
	return names
}

// computeCounts splits total by d. Rounding leftovers go to published.
func computeCounts(total int, d Distribution) (published, featured, draft int) {
	featured = total * d.Featured / 100
	draft = total * d.Draft / 100
	published = total - featured - draft
	return published, featured, draft
}
