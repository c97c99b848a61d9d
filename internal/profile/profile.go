// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package profile loads user-authored triage profiles from YAML. Two
// schemas are accepted: the basic threshold schema (flat positives /
// negatives / contexts lists plus threshold flags) and the advanced rules
// schema (named context groups, weighted terms, scoring and DSL rules).
// Loading is lenient about scalar shapes, validation is strict about
// semantics: a profile that validates is safe to compile exactly once and
// reuse, immutably, across the whole batch.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"triage-scan/internal/matcher"
	"triage-scan/internal/record"
)

// Policy selects which decision engine a profile drives.
type Policy string

const (
	// PolicyThreshold uses count thresholds and context proximity flags.
	PolicyThreshold Policy = "threshold"
	// PolicyRules evaluates the ordered DSL rule list.
	PolicyRules Policy = "rules"
)

// ConfigError is a fatal profile problem. It aborts the batch before any
// record is processed; everything recoverable is a warning instead.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid profile: %s: %s", e.Field, e.Reason)
}

// Normalization holds the text normalization flags, both on by default.
type Normalization struct {
	Lowercase    bool `yaml:"lowercase"`
	StripAccents bool `yaml:"strip_accents"`
}

// Scoring holds the weights used to score a record for min_score gates.
type Scoring struct {
	DefaultPositiveWeight float64 `yaml:"default_positive_weight"`
	DefaultNegativeWeight float64 `yaml:"default_negative_weight"`
	ContextWeight         float64 `yaml:"context_weight"`
}

// ContextGroup is a named cluster of anchor terms, optionally carrying the
// category a rule may assign when the group participates in a decision.
type ContextGroup struct {
	Category string
	Terms    []matcher.TermSpec
}

// Rule is one DSL rule: evaluated in declared order, first rule whose
// equation is true and whose min_score (if any) is met wins.
type Rule struct {
	Name           string   `yaml:"name"`
	Equation       string   `yaml:"equation"`
	Decision       string   `yaml:"decision"`
	MinScore       *float64 `yaml:"min_score"`
	AssignCategory string   `yaml:"assign_category"`
}

// Profile is the validated, in-memory configuration. Built once per run,
// never mutated afterwards.
type Profile struct {
	Version string
	Name    string
	Notes   string

	Policy        Policy
	Normalization Normalization
	Window        int

	// Threshold policy knobs.
	RequireContext   bool
	NegativeWinsTies bool
	MinPosToInclude  int
	MinNegToExclude  int

	Scoring Scoring

	Positives []matcher.TermSpec
	Negatives []matcher.TermSpec
	Contexts  map[string]ContextGroup

	Rules []Rule

	// DefaultDecision applies when the rules policy runs and no rule
	// fires. Defaults to REVIEW.
	DefaultDecision record.Decision
}

// DefaultContextGroup is the group name given to the basic schema's flat
// contexts list, and the group the threshold policy tests proximity against.
const DefaultContextGroup = "default"

// rawProfile is the lenient YAML shape before defaulting and validation.
type rawProfile struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`
	Notes   string `yaml:"notes"`
	Policy  string `yaml:"policy"`

	Normalization *struct {
		Lowercase    *bool `yaml:"lowercase"`
		StripAccents *bool `yaml:"strip_accents"`
	} `yaml:"normalization"`

	Window *int `yaml:"window"`

	RequireContext   *bool `yaml:"require_context"`
	NegativeWinsTies *bool `yaml:"negative_wins_ties"`
	MinPosToInclude  *int  `yaml:"min_pos_to_include"`
	MinNegToExclude  *int  `yaml:"min_neg_to_exclude"`

	Scoring *struct {
		DefaultPositiveWeight *float64 `yaml:"default_positive_weight"`
		DefaultNegativeWeight *float64 `yaml:"default_negative_weight"`
		ContextWeight         *float64 `yaml:"context_weight"`
	} `yaml:"scoring"`

	Positives termList  `yaml:"positives"`
	Negatives termList  `yaml:"negatives"`
	Contexts  yaml.Node `yaml:"contexts"`

	// The advanced schema nests matcher lists under "matchers".
	Matchers *struct {
		Positives termList  `yaml:"positives"`
		Negatives termList  `yaml:"negatives"`
		Contexts  yaml.Node `yaml:"contexts"`
	} `yaml:"matchers"`

	Rules           []Rule `yaml:"rules"`
	DefaultDecision string `yaml:"default_decision"`
}

// termList accepts either plain strings or {pattern, type, weight, tag}
// mappings, in any mix.
type termList []matcher.TermSpec

func (tl *termList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("expected a list of terms, got %s", nodeKind(node))
	}
	for _, item := range node.Content {
		spec, err := decodeTermSpec(item)
		if err != nil {
			return err
		}
		if strings.TrimSpace(spec.Pattern) == "" {
			continue
		}
		*tl = append(*tl, spec)
	}
	return nil
}

func decodeTermSpec(node *yaml.Node) (matcher.TermSpec, error) {
	if node.Kind == yaml.ScalarNode {
		return matcher.TermSpec{Pattern: strings.TrimSpace(node.Value), Kind: matcher.KindLiteral}, nil
	}
	var raw struct {
		Pattern string   `yaml:"pattern"`
		Type    string   `yaml:"type"`
		Weight  *float64 `yaml:"weight"`
		Tag     string   `yaml:"tag"`
	}
	if err := node.Decode(&raw); err != nil {
		return matcher.TermSpec{}, err
	}
	spec := matcher.TermSpec{
		Pattern: strings.TrimSpace(raw.Pattern),
		Kind:    matcher.Kind(strings.ToLower(strings.TrimSpace(raw.Type))),
		Tag:     raw.Tag,
	}
	if spec.Kind == "" {
		spec.Kind = matcher.KindLiteral
	}
	if raw.Weight != nil {
		spec.Weight = *raw.Weight
	}
	return spec, nil
}

// Load parses and validates profile YAML.
func Load(data []byte) (*Profile, error) {
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Field: "yaml", Reason: err.Error()}
	}
	return fromRaw(&raw)
}

// LoadFile reads and parses a profile from disk.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return Load(data)
}

func fromRaw(raw *rawProfile) (*Profile, error) {
	p := &Profile{
		Version: strings.TrimSpace(raw.Version),
		Name:    strings.TrimSpace(raw.Name),
		Notes:   strings.TrimSpace(raw.Notes),
		Normalization: Normalization{
			Lowercase:    true,
			StripAccents: true,
		},
		Window:           8,
		NegativeWinsTies: true,
		MinPosToInclude:  1,
		MinNegToExclude:  1,
		Scoring: Scoring{
			DefaultPositiveWeight: 1.0,
			DefaultNegativeWeight: 1.0,
			ContextWeight:         0.5,
		},
		Contexts:        map[string]ContextGroup{},
		DefaultDecision: record.Review,
	}
	if p.Version == "" {
		p.Version = "basic-1"
	}

	if raw.Normalization != nil {
		if raw.Normalization.Lowercase != nil {
			p.Normalization.Lowercase = *raw.Normalization.Lowercase
		}
		if raw.Normalization.StripAccents != nil {
			p.Normalization.StripAccents = *raw.Normalization.StripAccents
		}
	}
	if raw.Window != nil {
		p.Window = *raw.Window
	}
	if raw.RequireContext != nil {
		p.RequireContext = *raw.RequireContext
	}
	if raw.NegativeWinsTies != nil {
		p.NegativeWinsTies = *raw.NegativeWinsTies
	}
	if raw.MinPosToInclude != nil {
		p.MinPosToInclude = *raw.MinPosToInclude
	}
	if raw.MinNegToExclude != nil {
		p.MinNegToExclude = *raw.MinNegToExclude
	}
	if raw.Scoring != nil {
		if raw.Scoring.DefaultPositiveWeight != nil {
			p.Scoring.DefaultPositiveWeight = *raw.Scoring.DefaultPositiveWeight
		}
		if raw.Scoring.DefaultNegativeWeight != nil {
			p.Scoring.DefaultNegativeWeight = *raw.Scoring.DefaultNegativeWeight
		}
		if raw.Scoring.ContextWeight != nil {
			p.Scoring.ContextWeight = *raw.Scoring.ContextWeight
		}
	}

	p.Positives = raw.Positives
	p.Negatives = raw.Negatives
	ctxNode := raw.Contexts
	if raw.Matchers != nil {
		p.Positives = append(p.Positives, raw.Matchers.Positives...)
		p.Negatives = append(p.Negatives, raw.Matchers.Negatives...)
		if !isZeroNode(&raw.Matchers.Contexts) {
			ctxNode = raw.Matchers.Contexts
		}
	}

	if !isZeroNode(&ctxNode) {
		groups, err := decodeContexts(&ctxNode)
		if err != nil {
			return nil, &ConfigError{Field: "contexts", Reason: err.Error()}
		}
		p.Contexts = groups
	}

	p.Rules = raw.Rules
	for i := range p.Rules {
		// Decisions are validated case-insensitively, so store them in
		// canonical form too.
		p.Rules[i].Decision = strings.ToUpper(strings.TrimSpace(p.Rules[i].Decision))
	}
	if raw.DefaultDecision != "" {
		p.DefaultDecision = record.Decision(strings.ToUpper(strings.TrimSpace(raw.DefaultDecision)))
	}

	switch Policy(strings.ToLower(strings.TrimSpace(raw.Policy))) {
	case PolicyThreshold:
		p.Policy = PolicyThreshold
	case PolicyRules:
		p.Policy = PolicyRules
	case "":
		if len(p.Rules) > 0 {
			p.Policy = PolicyRules
		} else {
			p.Policy = PolicyThreshold
		}
	default:
		return nil, &ConfigError{Field: "policy", Reason: fmt.Sprintf("unknown policy %q", raw.Policy)}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeContexts accepts the basic flat list (one anonymous group) or the
// advanced name → group mapping, where each group is either a term list or
// {category, terms}.
func decodeContexts(node *yaml.Node) (map[string]ContextGroup, error) {
	groups := map[string]ContextGroup{}

	switch node.Kind {
	case yaml.SequenceNode:
		var terms termList
		if err := node.Decode(&terms); err != nil {
			return nil, err
		}
		if len(terms) > 0 {
			groups[DefaultContextGroup] = ContextGroup{Terms: terms}
		}
		return groups, nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := strings.TrimSpace(node.Content[i].Value)
			val := node.Content[i+1]
			if name == "" {
				return nil, fmt.Errorf("context group with empty name")
			}
			switch val.Kind {
			case yaml.SequenceNode:
				var terms termList
				if err := val.Decode(&terms); err != nil {
					return nil, fmt.Errorf("group %q: %w", name, err)
				}
				groups[name] = ContextGroup{Terms: terms}
			case yaml.MappingNode:
				var g struct {
					Category string   `yaml:"category"`
					Terms    termList `yaml:"terms"`
				}
				if err := val.Decode(&g); err != nil {
					return nil, fmt.Errorf("group %q: %w", name, err)
				}
				groups[name] = ContextGroup{Category: g.Category, Terms: g.Terms}
			default:
				return nil, fmt.Errorf("group %q: expected a list or mapping", name)
			}
		}
		return groups, nil
	}

	return nil, fmt.Errorf("expected a list or a name → group mapping, got %s", nodeKind(node))
}

// Validate enforces the invariants the engine relies on. Any violation is
// a fatal ConfigError.
func (p *Profile) Validate() error {
	if p.Window < 1 {
		return &ConfigError{Field: "window", Reason: fmt.Sprintf("must be >= 1, got %d", p.Window)}
	}
	if p.MinPosToInclude < 1 {
		return &ConfigError{Field: "min_pos_to_include", Reason: fmt.Sprintf("must be >= 1, got %d", p.MinPosToInclude)}
	}
	if p.MinNegToExclude < 1 {
		return &ConfigError{Field: "min_neg_to_exclude", Reason: fmt.Sprintf("must be >= 1, got %d", p.MinNegToExclude)}
	}
	if !record.ValidDecision(string(p.DefaultDecision)) {
		return &ConfigError{Field: "default_decision", Reason: fmt.Sprintf("unknown decision %q", p.DefaultDecision)}
	}

	switch p.Policy {
	case PolicyThreshold:
		if len(p.Positives) == 0 && len(p.Negatives) == 0 {
			return &ConfigError{Field: "positives/negatives", Reason: "threshold policy needs at least one matcher list"}
		}
	case PolicyRules:
		if len(p.Rules) == 0 {
			return &ConfigError{Field: "rules", Reason: "rules policy needs at least one rule"}
		}
	default:
		return &ConfigError{Field: "policy", Reason: fmt.Sprintf("unknown policy %q", p.Policy)}
	}

	seen := map[string]struct{}{}
	for i, r := range p.Rules {
		if strings.TrimSpace(r.Name) == "" {
			return &ConfigError{Field: fmt.Sprintf("rules[%d].name", i), Reason: "must not be empty"}
		}
		if _, dup := seen[r.Name]; dup {
			return &ConfigError{Field: fmt.Sprintf("rules[%d].name", i), Reason: fmt.Sprintf("duplicate rule name %q", r.Name)}
		}
		seen[r.Name] = struct{}{}
		if strings.TrimSpace(r.Equation) == "" {
			return &ConfigError{Field: fmt.Sprintf("rules[%d].equation", i), Reason: "must not be empty"}
		}
		if !record.ValidDecision(strings.ToUpper(strings.TrimSpace(r.Decision))) {
			return &ConfigError{Field: fmt.Sprintf("rules[%d].decision", i), Reason: fmt.Sprintf("unknown decision %q", r.Decision)}
		}
	}
	return nil
}

// Save serializes a profile back to YAML, the round-trip counterpart of
// Load.
func (p *Profile) Save() ([]byte, error) {
	type termOut struct {
		Pattern string  `yaml:"pattern"`
		Type    string  `yaml:"type,omitempty"`
		Weight  float64 `yaml:"weight,omitempty"`
		Tag     string  `yaml:"tag,omitempty"`
	}
	termsOut := func(specs []matcher.TermSpec) []termOut {
		out := make([]termOut, 0, len(specs))
		for _, s := range specs {
			out = append(out, termOut{Pattern: s.Pattern, Type: string(s.Kind), Weight: s.Weight, Tag: s.Tag})
		}
		return out
	}

	type groupOut struct {
		Category string    `yaml:"category,omitempty"`
		Terms    []termOut `yaml:"terms"`
	}
	ctxOut := map[string]groupOut{}
	for name, g := range p.Contexts {
		ctxOut[name] = groupOut{Category: g.Category, Terms: termsOut(g.Terms)}
	}

	out := struct {
		Version          string              `yaml:"version"`
		Name             string              `yaml:"name,omitempty"`
		Notes            string              `yaml:"notes,omitempty"`
		Policy           Policy              `yaml:"policy"`
		Normalization    Normalization       `yaml:"normalization"`
		Window           int                 `yaml:"window"`
		RequireContext   bool                `yaml:"require_context"`
		NegativeWinsTies bool                `yaml:"negative_wins_ties"`
		MinPosToInclude  int                 `yaml:"min_pos_to_include"`
		MinNegToExclude  int                 `yaml:"min_neg_to_exclude"`
		Scoring          Scoring             `yaml:"scoring"`
		Positives        []termOut           `yaml:"positives,omitempty"`
		Negatives        []termOut           `yaml:"negatives,omitempty"`
		Contexts         map[string]groupOut `yaml:"contexts,omitempty"`
		Rules            []Rule              `yaml:"rules,omitempty"`
		DefaultDecision  record.Decision     `yaml:"default_decision"`
	}{
		Version:          p.Version,
		Name:             p.Name,
		Notes:            p.Notes,
		Policy:           p.Policy,
		Normalization:    p.Normalization,
		Window:           p.Window,
		RequireContext:   p.RequireContext,
		NegativeWinsTies: p.NegativeWinsTies,
		MinPosToInclude:  p.MinPosToInclude,
		MinNegToExclude:  p.MinNegToExclude,
		Scoring:          p.Scoring,
		Positives:        termsOut(p.Positives),
		Negatives:        termsOut(p.Negatives),
		Contexts:         ctxOut,
		Rules:            p.Rules,
		DefaultDecision:  p.DefaultDecision,
	}
	return yaml.Marshal(out)
}

func isZeroNode(n *yaml.Node) bool {
	return n == nil || n.Kind == 0
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	}
	return "an unexpected node"
}
