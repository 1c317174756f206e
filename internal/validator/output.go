package validator

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
	"gopkg.in/yaml.v3"
)

// defaultWindow is how many bytes around a match are searched for a citation marker.
const defaultWindow = 80

// citationMarker matches the markers the system prompt asks the model to use:
// [1], [2, 3], [source: CIM.pdf], (source: Q3 report).
var citationMarker = regexp.MustCompile(`(?i)\[\d+(?:\s*,\s*\d+)*\]|\[source:[^\]]*\]|\(source:[^)]*\)`)

// Rule is one advisory pattern. When RequireCitation is set, a match is only
// reported if no citation marker appears within the window around it.
type Rule struct {
	Name            string
	Pattern         *regexp.Regexp
	Severity        types.Severity
	RequireCitation bool
}

// DefaultRules flags un-sourced speculation and bare figures.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:            "hedging",
			Pattern:         regexp.MustCompile(`(?i)\b(i think|i believe|i guess|probably|likely|presumably|it seems)\b`),
			Severity:        types.SeverityWarning,
			RequireCitation: true,
		},
		{
			Name:            "currency",
			Pattern:         regexp.MustCompile(`(?i)(?:[$€£]\s?\d[\d,.]*(?:\s?(?:bn|million|billion|[kmb]\b))?|\b\d[\d,.]*\s?(?:usd|eur|gbp|million|billion)\b|\b\d[\d,.]*\s?[km]€)`),
			Severity:        types.SeverityWarning,
			RequireCitation: true,
		},
		{
			Name:            "percentage",
			Pattern:         regexp.MustCompile(`\b\d+(?:\.\d+)?\s?%`),
			Severity:        types.SeverityInfo,
			RequireCitation: true,
		},
	}
}

// OutputValidator scans generated text against an ordered rule list. It never
// modifies the text and never fails.
type OutputValidator struct {
	rules  []Rule
	window int
}

// NewOutputValidator creates a validator. With no rules, DefaultRules is used.
func NewOutputValidator(rules ...Rule) *OutputValidator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &OutputValidator{rules: rules, window: defaultWindow}
}

// Rules returns a copy of the configured rules.
func (v *OutputValidator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

// Validate returns every finding in rule order, then by position.
func (v *OutputValidator) Validate(text string) []types.Finding {
	if text == "" {
		return nil
	}
	markers := citationMarker.FindAllStringIndex(text, -1)

	var findings []types.Finding
	for _, rule := range v.rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			if rule.RequireCitation && v.markerNear(markers, loc[0], loc[1]) {
				continue
			}
			findings = append(findings, types.Finding{
				Rule:     rule.Name,
				Severity: rule.Severity,
				Match:    text[loc[0]:loc[1]],
				Offset:   loc[0],
			})
		}
	}
	return findings
}

func (v *OutputValidator) markerNear(markers [][]int, start, end int) bool {
	for _, m := range markers {
		if m[1] >= start-v.window && m[0] <= end+v.window {
			return true
		}
	}
	return false
}

// ruleFile is the YAML shape of an additional rules file.
type ruleFile struct {
	Rules []struct {
		Name            string `yaml:"name"`
		Pattern         string `yaml:"pattern"`
		Severity        string `yaml:"severity"`
		RequireCitation bool   `yaml:"require_citation"`
	} `yaml:"rules"`
}

// LoadRules reads extra rules from a YAML file and appends them to DefaultRules.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses YAML rule definitions and appends them to DefaultRules.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rules := DefaultRules()
	for i, r := range file.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		severity := types.Severity(r.Severity)
		if severity == "" {
			severity = types.SeverityWarning
		}
		rules = append(rules, Rule{
			Name:            r.Name,
			Pattern:         re,
			Severity:        severity,
			RequireCitation: r.RequireCitation,
		})
	}
	return rules, nil
}
