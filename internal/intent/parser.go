// Package intent maps free-text utterances to structured command
// intents using an ordered table of regular expressions with named
// capture groups. The table is static data (rules.yaml, embedded at
// build time): rule order encodes priority and is never reordered at
// runtime, so parsing is deterministic and independently testable.
//
// Parsing never fails: an utterance that matches no rule is ordinary
// conversational text and the caller decides what to do with it.
package intent

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// Intent kinds produced by the default rule table.
const (
	KindConfigureSession = "configure_session"
	KindExecuteTool      = "execute_tool"
	KindToolDetails      = "tool_details"
	KindSearchTools      = "search_tools"
	KindSearchInfo       = "search_info"
	KindProcessImage     = "process_image"
	KindCheckHealth      = "check_health"
	KindListTools        = "list_tools"
	KindHelp             = "help"
)

// Rule pairs one pattern with the intent kind it detects.
type Rule struct {
	Intent  string `yaml:"intent"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// Match is a successful classification. Params holds the values of the
// pattern's named capture groups; a pattern with no captures yields an
// empty map.
type Match struct {
	Intent string
	Params map[string]string
}

// Parser evaluates the rule table in declaration order.
// It is a pure function of its rules and the input; safe for
// concurrent use.
type Parser struct {
	rules []Rule
}

// NewParser builds a parser from the embedded rule table.
// The embedded table is validated by tests, so a failure here is a
// build defect.
func NewParser() *Parser {
	p, err := NewParserWithRules(rulesYAML)
	if err != nil {
		panic(fmt.Sprintf("intent: embedded rule table: %v", err))
	}
	return p
}

// NewParserWithRules builds a parser from YAML rule data.
func NewParserWithRules(data []byte) (*Parser, error) {
	var table struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if len(table.Rules) == 0 {
		return nil, fmt.Errorf("rule table is empty")
	}

	for i := range table.Rules {
		r := &table.Rules[i]
		if r.Intent == "" {
			return nil, fmt.Errorf("rule %d: missing intent", i)
		}
		// Matching is case-insensitive, but captures must return the
		// user's original text: session ids and JSON parameter values
		// are case-significant.
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Intent, err)
		}
		r.re = re
	}
	return &Parser{rules: table.Rules}, nil
}

// Parse classifies an utterance. The second return is false when no
// rule matches, which is a normal outcome, not an error.
func (p *Parser) Parse(utterance string) (Match, bool) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return Match{}, false
	}

	for _, r := range p.rules {
		groups := r.re.FindStringSubmatch(trimmed)
		if groups == nil {
			continue
		}

		params := map[string]string{}
		for i, name := range r.re.SubexpNames() {
			if name == "" || i >= len(groups) || groups[i] == "" {
				continue
			}
			params[name] = strings.TrimSpace(groups[i])
		}
		return Match{Intent: r.Intent, Params: params}, true
	}
	return Match{}, false
}
