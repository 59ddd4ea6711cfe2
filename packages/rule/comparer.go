package rule

import (
	"regexp"
	"strings"
	"sync"
)

// Comparer compares an optional pattern with an optional actual value. A nil
// pointer stands for a missing value (an absent header, an unknown query
// parameter).
type Comparer interface {
	Compare(pattern, actual *string) bool
}

// ComparerFunc adapts a function to Comparer.
type ComparerFunc func(pattern, actual *string) bool

func (f ComparerFunc) Compare(pattern, actual *string) bool {
	return f(pattern, actual)
}

// Equal matches when both values are missing or both are present and equal.
var Equal Comparer = ComparerFunc(func(pattern, actual *string) bool {
	if pattern == nil || actual == nil {
		return pattern == nil && actual == nil
	}
	return *pattern == *actual
})

// Contains matches when actual contains pattern. Two missing values match;
// one missing value does not.
var Contains Comparer = ComparerFunc(func(pattern, actual *string) bool {
	if pattern == nil || actual == nil {
		return pattern == nil && actual == nil
	}
	return strings.Contains(*actual, *pattern)
})

// Match treats pattern as a regular expression searched in actual. A missing
// or blank pattern matches everything, a missing actual is matched as "". An
// invalid expression never matches.
var Match Comparer = ComparerFunc(func(pattern, actual *string) bool {
	if pattern == nil {
		return true
	}
	expr := strings.TrimSpace(*pattern)
	if expr == "" {
		return true
	}
	re, err := compile(expr)
	if err != nil {
		return false
	}
	value := ""
	if actual != nil {
		value = *actual
	}
	return re.MatchString(value)
})

var patterns sync.Map

func compile(expr string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patterns.Store(expr, re)
	return re, nil
}

// String returns a pointer to s, for building patterns inline.
func String(s string) *string {
	return &s
}
