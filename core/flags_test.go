package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseFlagMap(t *testing.T) {
	set, err := ParseFlagMap(ScopeNamespace, map[string]bool{
		"has_read":     true,
		"has_delegate": true,
		"has_update":   false,
	})
	assert.NoError(t, err)
	assert.Equal(t, FlagRead|FlagDelegate, set)

	_, err = ParseFlagMap(ScopeNamespace, map[string]bool{"has_admin": true})
	assert.True(t, errors.Is(err, ErrorInvalidRequest{}))

	// create exists only at object scope, delegate only at namespace scope
	_, err = ParseFlagMap(ScopeNamespace, map[string]bool{"has_create": true})
	assert.True(t, errors.Is(err, ErrorInvalidRequest{}))

	_, err = ParseFlagMap(ScopeObject, map[string]bool{"has_delegate": true})
	assert.True(t, errors.Is(err, ErrorInvalidRequest{}))

	set, err = ParseFlagMap(ScopeObject, map[string]bool{"has_create": true})
	assert.NoError(t, err)
	assert.Equal(t, FlagCreate, set)
}

func TestRequiredFor(t *testing.T) {
	assert.Equal(t, FlagRead, RequiredFor(FlagRead))
	assert.Equal(t, FlagCreate, RequiredFor(FlagCreate))
	assert.Equal(t, FlagDelegate, RequiredFor(FlagDelegate))
	assert.Equal(t, FlagUpdate|FlagRead, RequiredFor(FlagUpdate))
	assert.Equal(t, FlagDelete|FlagRead, RequiredFor(FlagDelete))
}

func TestFlagSetUnion(t *testing.T) {
	a := FlagRead
	b := FlagUpdate
	union := a | b
	assert.True(t, union.Has(FlagRead|FlagUpdate))
	assert.False(t, a.Has(FlagRead|FlagUpdate))
	assert.False(t, b.Has(FlagRead|FlagUpdate))
	assert.True(t, FlagsNone.Has(FlagsNone))
	assert.False(t, FlagsNone.Has(FlagRead))
}

func TestFlagSetMap(t *testing.T) {
	m := (FlagRead | FlagUpdate).Map(ScopeObject)
	assert.Equal(t, map[string]bool{
		"has_create": false,
		"has_read":   true,
		"has_update": true,
		"has_delete": false,
	}, m)

	assert.Equal(t, []string{"has_delegate", "has_read"}, (FlagRead | FlagDelegate).Names())
}

func TestGrantFlagsRoundtrip(t *testing.T) {
	var g Grant
	g.SetFlags(FlagRead | FlagDelete)
	assert.True(t, g.HasRead)
	assert.True(t, g.HasDelete)
	assert.False(t, g.HasUpdate)
	assert.Equal(t, FlagRead|FlagDelete, g.Flags())

	// a second SetFlags clears what the first one set
	g.SetFlags(FlagUpdate)
	assert.Equal(t, FlagUpdate, g.Flags())
}

func TestParseScope(t *testing.T) {
	scope, err := ParseScope("namespace")
	assert.NoError(t, err)
	assert.Equal(t, ScopeNamespace, scope)

	scope, err = ParseScope("objects")
	assert.NoError(t, err)
	assert.Equal(t, ScopeObject, scope)
	assert.Equal(t, "objects", scope.PathSegment())

	_, err = ParseScope("object")
	assert.True(t, errors.Is(err, ErrorInvalidRequest{}))
}
