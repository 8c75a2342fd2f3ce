// Package knowledge holds the welfare scheme catalog and the search tool
// built on top of it.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/koscakluka/ema-welfare/core/tools"
	"gopkg.in/yaml.v3"
)

//go:embed schemes.yaml
var defaultCatalog []byte

var (
	ErrSchemeNotFound = errors.New("scheme not found")
	ErrNoMatches      = errors.New("no scheme matches the keywords")
	ErrNoCriteria     = errors.New("no scheme id or keywords given")
)

// User-facing error messages for search failures.
const (
	msgSchemeNotFound = "ఆ పథకం ఐడీ లభించలేదు. దయచేసి పేరు లేదా వివరాలు మళ్లీ చెప్పండి."
	msgNoMatches      = "మీరు చెప్పిన వివరాలకు సరిపోయే పథకాలు కనబడలేదు."
	msgNoCriteria     = "సర్చ్ చేయడానికి అవసరమైన వివరాలు ఇవ్వలేదు."
)

type Scheme struct {
	ID               string   `yaml:"id"                json:"-"`
	Name             string   `yaml:"name"              json:"name"`
	Description      string   `yaml:"description"       json:"description"`
	Benefits         string   `yaml:"benefits"          json:"benefits"`
	EligibilityRules string   `yaml:"eligibility_rules" json:"eligibility_rules"`
	Docs             []string `yaml:"docs"              json:"docs"`
}

// Data returns the scheme in the shape returned to the planner.
func (s Scheme) Data() map[string]any {
	return map[string]any{
		"name":              s.Name,
		"description":       s.Description,
		"benefits":          s.Benefits,
		"eligibility_rules": s.EligibilityRules,
		"docs":              slices.Clone(s.Docs),
	}
}

// Catalog is an ordered, read-only set of schemes.
type Catalog struct {
	schemes []Scheme
	byID    map[string]int
}

func NewCatalog(schemes []Scheme) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(schemes))}
	for _, scheme := range schemes {
		id := strings.ToLower(strings.TrimSpace(scheme.ID))
		if id == "" {
			return nil, fmt.Errorf("scheme %q has no id", scheme.Name)
		}
		if _, ok := c.byID[id]; ok {
			return nil, fmt.Errorf("duplicate scheme id %q", id)
		}
		scheme.ID = id
		c.byID[id] = len(c.schemes)
		c.schemes = append(c.schemes, scheme)
	}
	return c, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Schemes []Scheme `yaml:"schemes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scheme catalog: %w", err)
	}
	return NewCatalog(doc.Schemes)
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// DefaultCatalogSource returns the raw embedded catalog document.
func DefaultCatalogSource() []byte {
	return slices.Clone(defaultCatalog)
}

func (c *Catalog) Get(id string) (Scheme, bool) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Scheme{}, false
	}
	return c.schemes[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

func (c *Catalog) Schemes() []Scheme {
	return slices.Clone(c.schemes)
}

func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.schemes))
	for _, scheme := range c.schemes {
		ids = append(ids, scheme.ID)
	}
	return ids
}

type Query struct {
	SchemeID string
	Keywords []string
}

// Lookup resolves a query into matching schemes. A scheme id takes
// precedence over keywords.
func (c *Catalog) Lookup(q Query) ([]Scheme, error) {
	if id := strings.TrimSpace(q.SchemeID); id != "" {
		scheme, ok := c.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
		}
		return []Scheme{scheme}, nil
	}

	keywords := make([]string, 0, len(q.Keywords))
	for _, k := range q.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return nil, ErrNoCriteria
	}

	var matches []Scheme
	for _, scheme := range c.schemes {
		blob := strings.ToLower(scheme.Name + " " + scheme.Description)
		if slices.ContainsFunc(keywords, func(k string) bool { return strings.Contains(blob, k) }) {
			matches = append(matches, scheme)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	return matches, nil
}

// Search is the search_schemes tool. A direct id lookup returns the scheme
// record itself, a keyword search returns {"matches": [...]}.
func (c *Catalog) Search(q Query) tools.Output {
	matches, err := c.Lookup(q)
	switch {
	case errors.Is(err, ErrSchemeNotFound):
		return tools.Failed(msgSchemeNotFound)
	case errors.Is(err, ErrNoMatches):
		return tools.Failed(msgNoMatches)
	case errors.Is(err, ErrNoCriteria):
		return tools.Failed(msgNoCriteria)
	case err != nil:
		return tools.Failed(err.Error())
	}

	if strings.TrimSpace(q.SchemeID) != "" {
		return tools.Succeeded(matches[0].Data())
	}

	data := make([]any, 0, len(matches))
	for _, scheme := range matches {
		data = append(data, scheme.Data())
	}
	return tools.Succeeded(map[string]any{tools.KeyMatches: data})
}
