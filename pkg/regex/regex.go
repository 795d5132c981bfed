package regex

import (
	"github.com/dlclark/regexp2"
)

type Pattern struct {
	Expression *regexp2.Regexp
}

func Compile(pattern string) (*Pattern, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}

	return &Pattern{
		Expression: re,
	}, nil
}

// CompileAll compiles every pattern, skipping none; the first invalid pattern
// aborts with its error.
func CompileAll(patterns []string) ([]*Pattern, error) {
	compiled := make([]*Pattern, 0, len(patterns))
	for _, p := range patterns {
		c, err := Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

func Check(text string, pattern *Pattern) (bool, error) {
	match, err := pattern.Expression.MatchString(text)
	if err != nil {
		return false, err
	}
	return match, nil
}

// CheckAny returns true if any pattern matches
func CheckAny(text string, patterns []*Pattern) (bool, error) {
	for _, pattern := range patterns {
		match, err := Check(text, pattern)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// Capture returns the first capture group of the first match, if any.
func Capture(text string, pattern *Pattern) (string, bool) {
	m, err := pattern.Expression.FindStringMatch(text)
	if err != nil || m == nil {
		return "", false
	}

	groups := m.Groups()
	if len(groups) < 2 {
		return "", false
	}

	return groups[1].String(), true
}
