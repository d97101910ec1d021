package resolver

import (
	"regexp"
	"strings"
)

var (
	// parenGroup captures one "(label, identity)" tuple.
	parenGroup = regexp.MustCompile(`\(([^()]*)\)`)
	// identityToken is what a NetID looks like once normalized.
	identityToken = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// SplitHints breaks a raw hint cell into its values. Every parenthesized
// group is one value; the rest of the cell is split on newlines, ";" and "|".
func SplitHints(cell string) []string {
	var values []string
	for _, m := range parenGroup.FindAllStringSubmatch(cell, -1) {
		if v := strings.TrimSpace(m[1]); v != "" {
			values = append(values, v)
		}
	}
	rest := parenGroup.ReplaceAllString(cell, "\n")
	for _, v := range strings.FieldsFunc(rest, isHintSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func isHintSeparator(r rune) bool {
	return r == '\n' || r == '\r' || r == ';' || r == '|'
}

// Candidate reduces one hint value to a candidate NetID. A "label, identity"
// value is judged by its last non-empty token only; the label never counts.
func Candidate(value string) (string, bool) {
	tokens := strings.Split(value, ",")
	for i := len(tokens) - 1; i >= 0; i-- {
		if strings.TrimSpace(tokens[i]) != "" {
			return normalizeToken(tokens[i])
		}
	}
	return "", false
}

// normalizeToken lower-cases a token and strips "DOMAIN\" and "@domain".
func normalizeToken(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.Trim(t, `"'`)
	if i := strings.LastIndex(t, `\`); i >= 0 {
		t = t[i+1:]
	}
	if i := strings.Index(t, "@"); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	if !identityToken.MatchString(t) {
		return "", false
	}
	return t, true
}

// Tally counts candidate NetIDs across every hint cell.
func Tally(cells []string) map[string]int {
	counts := make(map[string]int)
	for _, cell := range cells {
		for _, v := range SplitHints(cell) {
			if id, ok := Candidate(v); ok {
				counts[id]++
			}
		}
	}
	return counts
}
