// Package matcher matches short identifiers such as serial numbers against
// exact, glob and regex patterns.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Exact compares the whole input.
	Exact PatternType = iota
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type with Detect.
	Auto
)

// RegexPrefix marks a pattern as a regular expression under Auto.
const RegexPrefix = "re:"

// Matcher is the interface for pattern matching operations.
type Matcher interface {
	// Match checks if the input matches the pattern
	Match(input string) bool
	// Pattern returns the original pattern string.
	Pattern() string
	// Type returns the pattern type being used.
	Type() PatternType
}

// Options configures the matcher behavior.
type Options struct {
	// CaseInsensitive makes matching case-insensitive
	CaseInsensitive bool
	// Trim strips surrounding whitespace from inputs before matching
	Trim bool
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{}
}

type matcher struct {
	pattern     string
	patternType PatternType
	expr        string
	compiled    *regexp.Regexp
	opts        Options
}

// New creates a new Matcher with the specified pattern and type.
func New(patternType PatternType, pattern string, opts ...*Options) (Matcher, error) {
	options := DefaultOptions()
	if len(opts) > 0 && opts[0] != nil {
		options = opts[0]
	}

	m := &matcher{
		pattern:     pattern,
		patternType: patternType,
		expr:        pattern,
		opts:        *options,
	}
	if patternType == Auto {
		m.patternType, m.expr = Detect(pattern)
	}
	if options.Trim {
		m.expr = strings.TrimSpace(m.expr)
	}

	if err := m.compile(); err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}
	return m, nil
}

func (m *matcher) compile() error {
	switch m.patternType {
	case Exact:
		if m.opts.CaseInsensitive {
			m.expr = strings.ToLower(m.expr)
		}
	case Glob:
		if m.opts.CaseInsensitive {
			m.expr = strings.ToLower(m.expr)
		}
		if _, err := path.Match(m.expr, ""); err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
	case Regex:
		expr := m.expr
		if m.opts.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		m.compiled = compiled
	default:
		return fmt.Errorf("unsupported pattern type: %v", m.patternType)
	}
	return nil
}

// Match checks if the input matches the pattern.
func (m *matcher) Match(input string) bool {
	if m.opts.Trim {
		input = strings.TrimSpace(input)
	}
	switch m.patternType {
	case Exact:
		if m.opts.CaseInsensitive {
			return strings.ToLower(input) == m.expr
		}
		return input == m.expr
	case Glob:
		if m.opts.CaseInsensitive {
			input = strings.ToLower(input)
		}
		matched, _ := path.Match(m.expr, input)
		return matched
	case Regex:
		return m.compiled.MatchString(input)
	default:
		return false
	}
}

// Pattern returns the original pattern string.
func (m *matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *matcher) Type() PatternType {
	return m.patternType
}

// Detect returns the type of pattern and the expression to compile. Patterns
// starting with "re:" are regular expressions; patterns holding glob
// metacharacters are globs; everything else is compared exactly.
func Detect(pattern string) (PatternType, string) {
	if strings.HasPrefix(pattern, RegexPrefix) {
		return Regex, strings.TrimPrefix(pattern, RegexPrefix)
	}
	if IsGlobPattern(pattern) {
		return Glob, pattern
	}
	return Exact, pattern
}

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Exact:
		return "exact"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// MultiMatcher matches when any of its patterns does.
type MultiMatcher struct {
	matchers []Matcher
}

// NewMultiMatcher creates a matcher with multiple patterns. Blank patterns are ignored.
func NewMultiMatcher(patterns []string, patternType PatternType, opts ...*Options) (*MultiMatcher, error) {
	mm := &MultiMatcher{matchers: make([]Matcher, 0, len(patterns))}

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		m, err := New(patternType, pattern, opts...)
		if err != nil {
			return nil, err
		}
		mm.matchers = append(mm.matchers, m)
	}

	return mm, nil
}

// Match returns true if any pattern matches.
func (mm *MultiMatcher) Match(input string) bool {
	for _, m := range mm.matchers {
		if m.Match(input) {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (mm *MultiMatcher) Len() int {
	return len(mm.matchers)
}

// IsGlobPattern checks if a string contains glob metacharacters.
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
