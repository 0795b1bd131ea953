package smartauth

import (
	"regexp"
	"strings"
)

// Scope is a single token of the SMART scope grammar, e.g.
// "patient/Patient.read", "launch", "openid". Equality is by exact
// string; no wildcard semantics are applied.
type Scope string

// ScopeSet is an ordered sequence of scopes. Order is preserved for
// serialization; grant comparisons are set-based.
type ScopeSet []Scope

// clinicalScopePattern matches SMART clinical access scopes such as
// patient/Patient.read, user/*.write or patient/Observation.*.
var clinicalScopePattern = regexp.MustCompile(`^(patient|user)/[A-Za-z*]+\.(read|write|\*)$`)

// ParseScopes splits a space-delimited scope string. Repeated spaces are
// tolerated and collapsed.
func ParseScopes(s string) ScopeSet {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	set := make(ScopeSet, 0, len(fields))
	for _, f := range fields {
		set = append(set, Scope(f))
	}
	return set
}

// String joins the scopes with single spaces, preserving insertion order.
func (s ScopeSet) String() string {
	parts := make([]string, len(s))
	for i, sc := range s {
		parts[i] = string(sc)
	}
	return strings.Join(parts, " ")
}

// Contains reports whether the exact scope string is present.
func (s ScopeSet) Contains(scope Scope) bool {
	for _, sc := range s {
		if sc == scope {
			return true
		}
	}
	return false
}

// Missing returns the scopes in s whose exact string is absent from
// granted. This is a string-set difference; wildcard grants such as
// patient/*.read do not satisfy patient/Patient.read here.
func (s ScopeSet) Missing(granted ScopeSet) ScopeSet {
	lookup := make(map[Scope]struct{}, len(granted))
	for _, g := range granted {
		lookup[g] = struct{}{}
	}

	var missing ScopeSet
	for _, sc := range s {
		if _, ok := lookup[sc]; !ok {
			missing = append(missing, sc)
		}
	}
	return missing
}

// Validate fails with a ScopeNotGrantedError if any requested scope is
// absent from the granted set.
func (s ScopeSet) Validate(granted ScopeSet) error {
	missing := s.Missing(granted)
	if len(missing) == 0 {
		return nil
	}
	return &ScopeNotGrantedError{
		Requested: s,
		Granted:   granted,
		Missing:   missing,
	}
}

// IsClinical reports whether the scope matches the clinical access
// grammar (patient|user)/<resource>.(read|write|*) exactly.
func (s Scope) IsClinical() bool {
	return clinicalScopePattern.MatchString(string(s))
}
