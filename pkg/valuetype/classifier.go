// Package valuetype decides whether a suggested value is static or contextual.
//
// A contextual value is resolved per event at tracking time (for example
// "$page-name"); a static value is sent as-is. The decision is made by looking
// for a marker character in the value text.
package valuetype

import (
	"fmt"
	"strings"
)

// DefaultMarker is the character that marks a value as contextual.
const DefaultMarker = '$'

// Policy selects where the marker must appear for a value to be contextual.
type Policy string

const (
	// PolicyContains classifies a value as contextual if the marker appears anywhere.
	PolicyContains Policy = "contains"
	// PolicyPrefix classifies a value as contextual only if it starts with the marker.
	PolicyPrefix Policy = "prefix"
)

// ParsePolicy parses a policy name. An empty name yields PolicyContains.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyContains:
		return PolicyContains, nil
	case PolicyPrefix:
		return PolicyPrefix, nil
	default:
		return "", fmt.Errorf("unknown classifier policy %q (expected %q or %q)", name, PolicyContains, PolicyPrefix)
	}
}

// Classifier classifies values by marker placement. The zero value uses
// DefaultMarker with PolicyContains.
type Classifier struct {
	Marker rune
	Policy Policy
}

// Default is the classifier used when nothing is configured.
var Default = Classifier{Marker: DefaultMarker, Policy: PolicyContains}

// New returns a classifier for the given marker and policy.
func New(marker rune, policy Policy) Classifier {
	return Classifier{Marker: marker, Policy: policy}
}

// IsContextual reports whether value is contextual. It is total: the empty
// string is static.
func (c Classifier) IsContextual(value string) bool {
	marker := c.Marker
	if marker == 0 {
		marker = DefaultMarker
	}
	if c.Policy == PolicyPrefix {
		return strings.HasPrefix(value, string(marker))
	}
	return strings.ContainsRune(value, marker)
}

// Classify reports whether value contains the default marker anywhere.
func Classify(value string) bool {
	return Default.IsContextual(value)
}
