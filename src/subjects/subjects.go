// Package subjects defines the closed set of subjects (topics) messages can be published to.
package subjects

import (
	"errors"
	"fmt"
	"strings"
)

// Subject is a feed topic name.
type Subject string

const (
	Sports  Subject = "sports"
	Healthy Subject = "healthy"
	News    Subject = "news"
	Food    Subject = "food"
	Autos   Subject = "autos"
)

// ErrInvalidSubject is returned for any name outside the registry.
var ErrInvalidSubject = errors.New("invalid subject")

var all = []Subject{Sports, Healthy, News, Food, Autos}

// All returns every valid subject in registry order.
func All() []Subject {
	out := make([]Subject, len(all))
	copy(out, all)
	return out
}

// Names returns every valid subject as a plain string, in registry order.
func Names() []string {
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return names
}

// IsValid reports whether name is a registered subject. Matching is exact.
func IsValid(name string) bool {
	for _, s := range all {
		if string(s) == name {
			return true
		}
	}
	return false
}

// Parse validates name and returns it as a Subject.
// The error wraps ErrInvalidSubject and lists the valid subjects.
func Parse(name string) (Subject, error) {
	if !IsValid(name) {
		return "", fmt.Errorf("%w. Valid subjects are: %s", ErrInvalidSubject, strings.Join(Names(), ", "))
	}
	return Subject(name), nil
}

// String implements fmt.Stringer.
func (s Subject) String() string {
	return string(s)
}

// Title returns the subject with its first letter upper-cased, e.g. "Sports".
func (s Subject) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
