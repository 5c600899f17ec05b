package routing

import (
	"fmt"
	"regexp"
	"time"

	"github.com/crosspost/ratelimit/internal/limiter"
)

// Overrides holds the fields of a limiter.Config a rule replaces. Zero
// values (nil for the bool fields) inherit from the default config.
type Overrides struct {
	Window          time.Duration
	MaxRequests     int
	KeyPrefix       string
	StandardHeaders *bool
	FailClosed      *bool
}

// RuleSpec pairs a path pattern with the overrides applied when it
// matches. Name labels the rule in logs and metrics.
type RuleSpec struct {
	Name      string
	Pattern   string
	Overrides Overrides
}

type rule struct {
	name      string
	re        *regexp.Regexp
	overrides Overrides
}

// Matcher resolves an inbound path to a limiter config. Rules are held as
// an ordered slice, not a map: evaluation order is part of the contract,
// and callers order narrow patterns before broad ones.
type Matcher struct {
	def   limiter.Config
	rules []rule
}

func NewMatcher(def limiter.Config, specs []RuleSpec) (*Matcher, error) {
	m := &Matcher{def: def, rules: make([]rule, 0, len(specs))}
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", s.Name, err)
		}
		m.rules = append(m.rules, rule{name: s.Name, re: re, overrides: s.Overrides})
	}
	return m, nil
}

// Match returns the config for path and the name of the rule that
// produced it. The first rule whose pattern matches wins; when none
// match, the default config is returned under the name "default".
func (m *Matcher) Match(path string) (limiter.Config, string) {
	for _, r := range m.rules {
		if r.re.MatchString(path) {
			return merge(m.def, r.overrides), r.name
		}
	}
	return m.def, "default"
}

func merge(base limiter.Config, o Overrides) limiter.Config {
	if o.Window > 0 {
		base.Window = o.Window
	}
	if o.MaxRequests > 0 {
		base.MaxRequests = o.MaxRequests
	}
	if o.KeyPrefix != "" {
		base.KeyPrefix = o.KeyPrefix
	}
	if o.StandardHeaders != nil {
		base.StandardHeaders = *o.StandardHeaders
	}
	if o.FailClosed != nil {
		base.FailClosed = *o.FailClosed
	}
	return base
}
