package smartauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScopes(t *testing.T) {
	t.Parallel()

	t.Run("splits on spaces", func(t *testing.T) {
		set := ParseScopes("launch openid patient/Patient.read")
		require.Equal(t, ScopeSet{"launch", "openid", "patient/Patient.read"}, set)
	})

	t.Run("collapses repeated spaces", func(t *testing.T) {
		set := ParseScopes("  launch   openid ")
		require.Equal(t, ScopeSet{"launch", "openid"}, set)
	})

	t.Run("empty string parses to nil", func(t *testing.T) {
		require.Nil(t, ParseScopes(""))
		require.Nil(t, ParseScopes("   "))
	})
}

func TestScopeSet_String_RoundTrip(t *testing.T) {
	t.Parallel()

	// A well-formed single-spaced string survives parse/combine
	// unchanged, order preserved.
	for _, s := range []string{
		"launch",
		"launch openid fhirUser",
		"patient/Patient.read patient/Observation.read offline_access",
	} {
		require.Equal(t, s, ParseScopes(s).String())
	}
}

func TestScopeSet_Missing(t *testing.T) {
	t.Parallel()

	requested := ParseScopes("patient/Patient.read launch openid")

	t.Run("all granted", func(t *testing.T) {
		granted := ParseScopes("openid launch patient/Patient.read extra/scope")
		require.Empty(t, requested.Missing(granted))
	})

	t.Run("some missing", func(t *testing.T) {
		granted := ParseScopes("launch")
		require.Equal(t, ScopeSet{"patient/Patient.read", "openid"}, requested.Missing(granted))
	})

	t.Run("wildcards are not matched semantically", func(t *testing.T) {
		granted := ParseScopes("patient/*.read launch openid")
		require.Equal(t, ScopeSet{"patient/Patient.read"}, requested.Missing(granted))
	})
}

func TestScopeSet_Validate(t *testing.T) {
	t.Parallel()

	requested := ParseScopes("patient/Patient.read launch")

	t.Run("passes when granted", func(t *testing.T) {
		require.NoError(t, requested.Validate(ParseScopes("launch patient/Patient.read")))
	})

	t.Run("fails with typed error", func(t *testing.T) {
		err := requested.Validate(ParseScopes("launch"))
		require.Error(t, err)

		var scopeErr *ScopeNotGrantedError
		require.ErrorAs(t, err, &scopeErr)
		require.Equal(t, ScopeSet{"patient/Patient.read"}, scopeErr.Missing)
		require.Equal(t, requested, scopeErr.Requested)
		require.Contains(t, err.Error(), "patient/Patient.read")
	})
}

func TestScope_IsClinical(t *testing.T) {
	t.Parallel()

	clinical := []Scope{
		"patient/Patient.read",
		"patient/Observation.write",
		"user/Encounter.read",
		"patient/*.read",
		"user/*.write",
		"patient/Patient.*",
	}
	for _, s := range clinical {
		require.True(t, s.IsClinical(), "expected %q to be clinical", s)
	}

	notClinical := []Scope{
		"launch",
		"openid",
		"offline_access",
		"system/Patient.read",
		"patient/Patient.delete",
		"patient/Patient.read extra",
		"xpatient/Patient.read",
		"patient/Patient",
	}
	for _, s := range notClinical {
		require.False(t, s.IsClinical(), "expected %q to not be clinical", s)
	}
}
